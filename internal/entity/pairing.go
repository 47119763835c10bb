package entity

import (
	"fmt"
	"math/rand/v2"
)

const (
	PairingCreator = "creator"
	PairingRandom  = "random"
)

// PairingPolicy decides which of the two participants plays X and moves first.
type PairingPolicy interface {
	FirstPlaysX() bool
}

// CreatorFirst gives X and the first turn to whoever entered the room first.
type CreatorFirst struct{}

func (CreatorFirst) FirstPlaysX() bool {
	return true
}

// RandomPairing flips a coin on every pairing. Not safe for concurrent use;
// the registry only calls it while holding its lock.
type RandomPairing struct {
	rnd *rand.Rand
}

func NewRandomPairing(rnd *rand.Rand) *RandomPairing {
	return &RandomPairing{rnd: rnd}
}

func (that *RandomPairing) FirstPlaysX() bool {
	return that.rnd.IntN(2) == 0
}

// NewPairingPolicy maps a config value to a policy.
func NewPairingPolicy(name string, rnd *rand.Rand) (PairingPolicy, error) {
	switch name {
	case "", PairingCreator:
		return CreatorFirst{}, nil
	case PairingRandom:
		return NewRandomPairing(rnd), nil
	default:
		return nil, fmt.Errorf("unknown pairing policy %q", name)
	}
}
