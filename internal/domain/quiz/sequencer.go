package quiz

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"
)

// QuestionCount is the number of multipliers asked in one session.
const QuestionCount = 9

// Order is the sequence of multipliers (1..9) asked in one session.
type Order [QuestionCount]int

// GenerateOrder returns a uniformly random permutation of 1..9.
// It uses the Fisher-Yates shuffle: walking from the last index down to 1,
// each element is swapped with one drawn uniformly from [0, i].
func GenerateOrder(r *rand.Rand) Order {
	var o Order
	for i := range o {
		o[i] = i + 1
	}

	for i := len(o) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		o[i], o[j] = o[j], o[i]
	}

	return o
}

// Valid reports whether o contains every multiplier 1..9 exactly once.
func (o Order) Valid() bool {
	var seen [QuestionCount + 1]bool
	for _, m := range o {
		if m < 1 || m > QuestionCount || seen[m] {
			return false
		}
		seen[m] = true
	}
	return true
}

// newRand returns a PRNG seeded from crypto/rand, falling back to the clock.
func newRand() *rand.Rand {
	var b [8]byte
	seed := time.Now().UnixNano()
	if _, err := crand.Read(b[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	return rand.New(rand.NewSource(seed))
}
