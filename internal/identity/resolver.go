// Package identity maps raw sender addresses onto stable thread ids.
// Any textual variant that canonicalizes to the same key resolves to
// the same thread, forever.
package identity

import (
	"fmt"

	"smsguard/internal/address"
	"smsguard/internal/store"
)

// Resolver resolves a raw address to its thread id. Resolution failure
// is fatal for the message being processed; callers retry upstream.
type Resolver interface {
	Resolve(rawAddress string) (int64, error)
}

// StoreResolver is the portable resolver: it keeps its own canonical
// key -> thread id table in the store, allocating monotonically and
// never recycling ids while referencing rows exist.
type StoreResolver struct {
	db      *store.DB
	norm    *address.Normalizer
	regions address.RegionProvider
}

// NewStoreResolver creates a resolver over the given store.
func NewStoreResolver(db *store.DB, norm *address.Normalizer, regions address.RegionProvider) *StoreResolver {
	return &StoreResolver{db: db, norm: norm, regions: regions}
}

// Resolve normalizes the address and returns the thread id for its
// canonical key, allocating a fresh id on first sight.
func (r *StoreResolver) Resolve(rawAddress string) (int64, error) {
	n := r.norm.Normalize(rawAddress, r.regions.CurrentRegion())
	id, err := r.db.ResolveThreadKey(n.Key, n.Raw)
	if err != nil {
		return 0, fmt.Errorf("resolve thread for %q: %w", n.Key, err)
	}
	return id, nil
}

// ResolveAll resolves a set of address variants. All variants of one
// sender land on the first variant's thread; additional keys are
// indexed onto it so later single-variant lookups agree.
func (r *StoreResolver) ResolveAll(rawAddresses []string) (int64, error) {
	if len(rawAddresses) == 0 {
		return 0, fmt.Errorf("resolve: no addresses")
	}
	id, err := r.Resolve(rawAddresses[0])
	if err != nil {
		return 0, err
	}
	for _, raw := range rawAddresses[1:] {
		n := r.norm.Normalize(raw, r.regions.CurrentRegion())
		if _, err := r.db.ResolveThreadKey(n.Key, n.Raw); err != nil {
			return 0, fmt.Errorf("resolve variant %q: %w", n.Key, err)
		}
	}
	return id, nil
}
