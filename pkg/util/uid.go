// Package util carries the identity helpers shared across the module:
// UID minting for derived instances and stable hashing for files that
// arrive without usable identifiers.
package util

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// UIDRoot prefixes every UID minted by this module.
const UIDRoot = "1.2.826.0.1.3680043.10.424"

// GenerateUID mints a unique identifier under the given prefix using
// wall time plus a random tail. An empty prefix falls back to UIDRoot.
// Format: prefix.<timestamp>.<nanoseconds>.<random>
func GenerateUID(prefix string) string {
	if prefix == "" {
		prefix = UIDRoot
	}
	now := time.Now()
	timestamp := now.Format("20060102150405")
	nano := now.Nanosecond()
	rnd := rand.Intn(10000)

	if prefix[len(prefix)-1] != '.' {
		prefix += "."
	}

	return fmt.Sprintf("%s%s.%d.%d", prefix, timestamp, nano, rnd)
}

// Md5ThenHex is a quick hasher
func Md5ThenHex(value []byte) string {
	hasher := md5.New()
	hasher.Write(value)
	return hex.EncodeToString(hasher.Sum(nil))
}

// HashUUID derives a stable UUID from any JSON-encodable value. Slices
// shipping without study or series identifiers get their identity from
// hashing what they do carry, so regrouping stays deterministic across
// loads.
func HashUUID(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	hasher := md5.New()
	hasher.Write([]byte(raw))
	hash := hasher.Sum(nil)
	uuid, err := uuid.FromBytes(hash[:16])
	if err != nil {
		return ""
	}
	return uuid.String()
}
