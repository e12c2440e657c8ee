// Package handoff carries a verified residency certificate from the page that
// verified it to the next load of the record view. The slot holds at most one
// transfer and is consumed exactly once.
package handoff

import (
	"context"
	"sync"
	"time"

	"intake/pkg/platform/sentinel"
)

// Transfer is a residency certificate waiting to be merged into the record.
type Transfer struct {
	SessionID     string    `json:"sessionId"`
	UID           string    `json:"uid"`
	CandidateName string    `json:"candidateName"`
	MotherName    string    `json:"motherName"`
	Caste         string    `json:"caste"`
	VerifiedAt    time.Time `json:"verifiedAt"`
}

// Slot is a single-consume pending transfer.
type Slot interface {
	// Put replaces any pending transfer.
	Put(ctx context.Context, t Transfer) error
	// Take returns the pending transfer and clears the slot. An empty slot
	// returns sentinel.ErrNotFound.
	Take(ctx context.Context) (Transfer, error)
}

// MemorySlot keeps the transfer in process memory.
type MemorySlot struct {
	mu      sync.Mutex
	pending *Transfer
}

// NewMemorySlot returns an empty in-memory slot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (s *MemorySlot) Put(_ context.Context, t Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &t
	return nil
}

func (s *MemorySlot) Take(_ context.Context) (Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Transfer{}, sentinel.ErrNotFound
	}
	t := *s.pending
	s.pending = nil
	return t, nil
}
