package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a lexicographically sortable identifier. Ledger rows (comments,
// messages, files) use it so that id order follows creation order.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewTipID returns an opaque random identifier for tips exposed to receivers.
func NewTipID() string {
	return uuid.NewString()
}

// Generator abstracts identifier creation so tests are deterministic.
type Generator interface {
	New() string
}

// ULIDGenerator produces sortable ULIDs.
type ULIDGenerator struct{}

func (ULIDGenerator) New() string { return New() }

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return NewTipID() }
