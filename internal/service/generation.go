package service

import (
	"sync"

	"github.com/joeblew999/plat-solar/internal/errors"
)

// Generations hands out monotonically increasing generation numbers per key.
// A result is only applied while its generation is the newest one issued or
// claimed for its key; anything older is superseded.
type Generations struct {
	mu      sync.Mutex
	current map[string]uint64
}

// NewGenerations creates an empty tracker.
func NewGenerations() *Generations {
	return &Generations{current: make(map[string]uint64)}
}

// Next issues the next generation for key.
func (g *Generations) Next(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current[key]++
	return g.current[key]
}

// Claim registers a caller-chosen generation. Claiming the current
// generation again is allowed; an older one is SUPERSEDED.
func (g *Generations) Claim(key string, gen uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cur := g.current[key]; gen < cur {
		return errors.New(errors.ErrCodeSuperseded, "generation %d of %q superseded by %d", gen, key, cur)
	}
	g.current[key] = gen
	return nil
}

// Current returns the newest generation of key, 0 if none was issued.
func (g *Generations) Current(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current[key]
}

// Apply runs fn only if gen is still current for key. The lock is held while
// fn runs, so no newer generation can be issued in between.
func (g *Generations) Apply(key string, gen uint64, fn func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cur := g.current[key]; gen != cur {
		return errors.New(errors.ErrCodeSuperseded, "generation %d of %q superseded by %d", gen, key, cur)
	}
	if fn != nil {
		fn()
	}
	return nil
}
