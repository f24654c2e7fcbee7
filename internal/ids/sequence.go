package ids

import (
	"fmt"
	"sync"
)

// SequenceGenerator returns sequential IDs: "<prefix>-1", "<prefix>-2", etc.
type SequenceGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter int
}

func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &SequenceGenerator{prefix: prefix}
}

func (g *SequenceGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}
