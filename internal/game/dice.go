package game

import (
	"crypto/rand"
	"math/big"
)

const DiceSides = 6

// Die produces a roll in 1..DiceSides.
type Die interface {
	Roll() int
}

// CryptoDie rolls with crypto/rand.
type CryptoDie struct{}

func (CryptoDie) Roll() int {
	n, err := rand.Int(rand.Reader, big.NewInt(DiceSides))
	if err != nil {
		// Fallback - should never happen
		n = big.NewInt(0)
	}
	return int(n.Int64()) + 1
}

// FixedDie replays a sequence of rolls, cycling when exhausted.
type FixedDie struct {
	Rolls []int
	next  int
}

func (d *FixedDie) Roll() int {
	if len(d.Rolls) == 0 {
		return 1
	}
	v := d.Rolls[d.next%len(d.Rolls)]
	d.next++
	return v
}
