package gen_ids

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateReference builds the idempotency reference every adapter stamps on an
// attempt: prefix + base36 unix-millis + 4 random base36 chars, uppercase.
// Collision-avoidant, not collision-proof.
func GenerateReference(prefix string) string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixNano()/int64(time.Millisecond), 36))
	return prefix + ts + randomBase36(4)
}

// TraceNumber is the card network's 6-digit systems trace audit number,
// one per push-payment request.
func TraceNumber() string {
	return fmt.Sprintf("%06d", randomInt(1000000))
}

// RetrievalReference builds the card network's 12-digit retrieval reference:
// day-of-year (3) + HHMMSS (6) + 3 random digits. The layout is dictated by
// the network's interchange rules and must not change.
func RetrievalReference(now time.Time) string {
	return fmt.Sprintf("%03d%s%03d", now.YearDay(), now.Format("150405"), randomInt(1000))
}

func randomBase36(n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = base36Alphabet[randomInt(36)]
	}
	return string(out)
}

func randomInt(max int64) int64 {
	v, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		// crypto/rand failing means the platform entropy source is broken.
		panic(err)
	}
	return v.Int64()
}
