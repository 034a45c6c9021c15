package id

import (
	"sync"
	"time"
)

// Generator produces strictly increasing sequence ids.
type Generator struct {
	mu   sync.Mutex
	last int64
}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator { return &Generator{} }

// NowMicros returns current time in microseconds since Unix epoch.
var NowMicros = func() int64 { return time.Now().UnixMicro() }

// Next returns a new id greater than every id previously returned or observed.
func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := NowMicros()
	if now <= g.last {
		now = g.last + 1
	}
	g.last = now
	return now
}

// Observe records an id that already exists so later ids exceed it.
func (g *Generator) Observe(seq int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seq > g.last {
		g.last = seq
	}
}

// Last returns the most recent id issued or observed.
func (g *Generator) Last() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}
