package registry

import (
	"errors"
	"log"
	"sync"
)

var ErrDuplicateTicket = errors.New("ticket id is already registered")

// Durability controls what happens when a persistence write fails.
type Durability string

const (
	// BestEffort logs failed writes and keeps going; the in-memory state
	// remains the source of truth until the process exits.
	BestEffort Durability = "best-effort"
	// Strict surfaces failed writes to the caller. The in-memory mutation
	// still stands; rolling it back would desynchronize from the ledger.
	Strict Durability = "strict"
)

// Store persists the whole ticket-id → token-id map as one document.
type Store interface {
	Load() (map[string]int64, error)
	Save(entries map[string]int64) error
}

// Registry is the local, non-authoritative mapping from application ticket
// ids to ledger token ids. Entries are write-once: created on mint, never
// mutated, removed only by a bulk Clear.
type Registry struct {
	mu         sync.RWMutex
	entries    map[string]int64
	store      Store
	durability Durability
}

// New builds a registry backed by store. A nil store keeps the registry
// purely in-memory. A failed initial load starts the registry empty rather
// than refusing to boot.
func New(store Store, durability Durability) *Registry {
	if durability == "" {
		durability = BestEffort
	}

	entries := make(map[string]int64)
	if store != nil {
		loaded, err := store.Load()
		if err != nil {
			log.Printf("[Registry] load failed, starting empty: %v", err)
		} else if loaded != nil {
			entries = loaded
		}
	}

	return &Registry{
		entries:    entries,
		store:      store,
		durability: durability,
	}
}

// Register records a new ticket-id → token-id mapping. Registering an id
// that is already present fails with ErrDuplicateTicket.
func (r *Registry) Register(ticketID string, tokenID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[ticketID]; ok {
		return ErrDuplicateTicket
	}
	r.entries[ticketID] = tokenID

	return r.persist()
}

// Resolve looks up the token id for a ticket id.
func (r *Registry) Resolve(ticketID string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokenID, ok := r.entries[ticketID]
	return tokenID, ok
}

func (r *Registry) Exists(ticketID string) bool {
	_, ok := r.Resolve(ticketID)
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear wipes every entry. It exists for test and administrative resets only
// and is deliberately not reachable from the HTTP surface.
func (r *Registry) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]int64)
	return r.persist()
}

// persist writes the full map back to the store. Callers must hold mu.
func (r *Registry) persist() error {
	if r.store == nil {
		return nil
	}

	snapshot := make(map[string]int64, len(r.entries))
	for k, v := range r.entries {
		snapshot[k] = v
	}

	if err := r.store.Save(snapshot); err != nil {
		if r.durability == Strict {
			return err
		}
		log.Printf("[Registry] persist failed (best-effort): %v", err)
	}
	return nil
}
