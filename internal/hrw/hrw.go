// Package hrw implements Rendezvous (highest-random-weight) hashing for
// stable key-to-member assignment: a key always picks the same member, and
// removing one member only reassigns the keys that member owned.
package hrw

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Pick returns the index of the highest-scoring member for key. seed is
// optional and personalizes the scoring so distinct pools hashing the same
// keys do not collide. ok is false when members is empty.
func Pick(key string, members []string, seed string) (idx int, ok bool) {
	if len(members) == 0 {
		return 0, false
	}

	keyB := []byte(key)
	best := score(keyB, members[0], seed)
	for i := 1; i < len(members); i++ {
		if s := score(keyB, members[i], seed); s > best {
			best = s
			idx = i
		}
	}
	return idx, true
}

// score computes a 64-bit HRW score from an 8-byte blake2b digest over
// seed, key and member, NUL-separated.
func score(key []byte, member, seed string) uint64 {
	h, _ := blake2b.New(8, nil)

	if seed != "" {
		h.Write([]byte(seed))
		h.Write([]byte{0})
	}

	h.Write(key)
	h.Write([]byte{0})
	h.Write([]byte(member))

	return binary.BigEndian.Uint64(h.Sum(nil))
}
