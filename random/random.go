// Package random generates short human-facing tokens, such as the
// suffix of an order number.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"sync"
	"time"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

var (
	mu  sync.Mutex
	rnd *mrand.Rand
)

func init() {
	seed := time.Now().UnixNano()

	var b [8]byte
	if _, err := crand.Read(b[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	rnd = mrand.New(mrand.NewSource(seed))
}

// String returns length characters drawn from [0-9A-Za-z]. Tokens are
// not secrets; uniqueness is enforced elsewhere.
func String(length int) string {
	mu.Lock()
	defer mu.Unlock()

	b := make([]byte, length)
	for i := range b {
		b[i] = alphabet[rnd.Intn(len(alphabet))]
	}
	return string(b)
}
