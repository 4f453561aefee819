package conversation

import (
	"math/rand"
	"time"
)

const (
	DefaultMinDelay = time.Second
	DefaultMaxDelay = 3 * time.Second
)

// Delay returns how long the assistant "thinks" before replying.
type Delay func() time.Duration

// Rand draws the jitter for RandomDelay. *rand.Rand satisfies it.
type Rand interface {
	Int64N(n int64) int64
}

type globalRand struct{}

func (globalRand) Int64N(n int64) int64 { return rand.Int63n(n) }

// RandomDelay draws uniformly from [lo, hi). A non-positive span always
// yields lo.
func RandomDelay(lo, hi time.Duration, rnd Rand) Delay {
	if rnd == nil {
		rnd = globalRand{}
	}
	return func() time.Duration {
		span := hi - lo
		if span <= 0 {
			return lo
		}
		return lo + time.Duration(rnd.Int64N(int64(span)))
	}
}

// FixedDelay always waits d.
func FixedDelay(d time.Duration) Delay {
	return func() time.Duration { return d }
}
