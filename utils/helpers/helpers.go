package helpers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jakehl/goid"
)

func CreateHash(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

func GetUUId() string {
	v4UUID := goid.NewV4UUID()
	return fmt.Sprint(v4UUID.String())
}

func IsStringSliceContains(slice []string, value string) bool {
	for _, v := range slice {
		if v == value {
			return true
		}
	}
	return false
}

func ContextWithTimeOut() context.Context {
	ctx, _ := context.WithTimeout(context.Background(), time.Second*10)
	return ctx
}

// DeviceFingerprint derives the deterministic device id a binding is keyed by.
func DeviceFingerprint(hardwareId, platform, userId string) string {
	sum := CreateHash(strings.Join([]string{hardwareId, platform, userId}, "|"))
	return sum[:32]
}
