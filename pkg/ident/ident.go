// Package ident generates primary key values for models that do not use
// an autoincrement column.
package ident

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Generator returns a new unique identifier.
type Generator func() string

// Named id formats a model can select.
const (
	FormatUniqid = "uniqid"
	FormatUUID   = "uuid"
)

// suffixLen base62 digits hold any uint32.
const suffixLen = 6

// sequence starts at a random point so concurrent processes rarely share
// a suffix within the same second.
var sequence atomic.Uint32

func init() {
	var seed [4]byte
	if _, err := rand.Read(seed[:]); err == nil {
		sequence.Store(binary.BigEndian.Uint32(seed[:]))
	}
}

// Uniqid returns a 14 character token, optionally prefixed: 8 hex digits of
// the current Unix second followed by 6 base62 digits of a process-wide
// sequence. Two calls in one process never return the same token unless
// 2^32 tokens are drawn within a single second.
func Uniqid(prefix string) string {
	return uniqidAt(time.Now(), sequence.Add(1), prefix)
}

func uniqidAt(t time.Time, seq uint32, prefix string) string {
	suffix := new(big.Int).SetUint64(uint64(seq)).Text(62)
	return fmt.Sprintf("%s%08x%s%s", prefix, uint32(t.Unix()), strings.Repeat("0", suffixLen-len(suffix)), suffix)
}

// UUID returns a random (version 4) UUID string.
func UUID() string {
	return uuid.NewString()
}

// Default is the generator used for generated primary keys.
var Default Generator = func() string { return Uniqid("") }

// Lookup returns the generator of a named format.
func Lookup(format string) (Generator, bool) {
	switch format {
	case FormatUniqid:
		return Default, true
	case FormatUUID:
		return UUID, true
	}
	return nil, false
}
