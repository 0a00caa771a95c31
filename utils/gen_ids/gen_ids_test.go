package gen_ids

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateReference(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		ref := GenerateReference("TXN")
		assert.True(t, len(ref) > 10)
		assert.Equal(t, "TXN", ref[:3])
		assert.Equal(t, ref, string([]byte(ref)), ref)
		for _, c := range ref {
			assert.True(t, (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z'), "non base36 char in %s", ref)
		}
		assert.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func TestTraceNumber(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.Len(t, TraceNumber(), 6)
	}
}

func TestRetrievalReference(t *testing.T) {
	now := time.Date(2021, 2, 3, 14, 5, 6, 0, time.UTC)

	rrn := RetrievalReference(now)
	assert.Len(t, rrn, 12)
	assert.Equal(t, "034", rrn[:3])      // Feb 3rd is day 34
	assert.Equal(t, "140506", rrn[3:9])  // HHMMSS
}
