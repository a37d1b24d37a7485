package token

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"sync/atomic"
	"time"
)

// lastStamp holds the most recently issued jti timestamp in nanoseconds.
// Issuance bumps it past the previous value when the clock has not advanced,
// so two tokens minted in the same clock tick still differ even before the
// entropy suffix is considered.
var lastStamp atomic.Int64

// NewJTI returns a unique token identifier: a monotonic nanosecond timestamp
// followed by 64 bits of random entropy, base64url without padding.
func NewJTI() string {
	now := time.Now().UnixNano()
	for {
		prev := lastStamp.Load()
		if now <= prev {
			now = prev + 1
		}
		if lastStamp.CompareAndSwap(prev, now) {
			break
		}
	}

	var raw [16]byte
	binary.BigEndian.PutUint64(raw[:8], uint64(now))
	// entropy suffix guards against stamp reuse across process restarts
	_, _ = rand.Read(raw[8:])

	return base64.RawURLEncoding.EncodeToString(raw[:])
}
