package posix

import "math/rand"

// Random implements platform.Random over math/rand's PRNG: CSMA backoff
// jitter and MLE challenge nonces need an unpredictable-enough, fast
// source, not a cryptographically secure one, and a seedable PRNG lets
// tests reproduce a specific backoff sequence.
type Random struct {
	r *rand.Rand
}

// NewRandom constructs a Random; seed is applied on the first Init call,
// not here, matching the HAL's explicit random_init(seed) entry point.
func NewRandom() *Random {
	return &Random{r: rand.New(rand.NewSource(1))}
}

func (p *Random) Init(seed uint32) {
	p.r = rand.New(rand.NewSource(int64(seed)))
}

func (p *Random) Get() uint32 {
	return p.r.Uint32()
}
