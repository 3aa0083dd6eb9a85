// Package contacts owns the synced contact table and the lookups that
// drive trust decisions. Only addresses that normalize to a full E.164
// number can ever match a contact.
package contacts

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"smsguard/internal/address"
	"smsguard/internal/store"
)

// Source lists contacts from wherever the deployment keeps them (an OS
// address book bridge, a file, a test fixture).
type Source interface {
	ListContacts() ([]Entry, error)
}

// Entry is one contact as provided by a Source, before normalization.
type Entry struct {
	Name  string `toml:"name"`
	Phone string `toml:"phone"`
}

// Directory syncs and queries contacts by canonical phone key.
type Directory struct {
	db      *store.DB
	norm    *address.Normalizer
	regions address.RegionProvider
	logger  *zap.Logger
}

// NewDirectory creates a contact directory over the given store.
func NewDirectory(db *store.DB, norm *address.Normalizer, regions address.RegionProvider, logger *zap.Logger) *Directory {
	return &Directory{db: db, norm: norm, regions: regions, logger: logger}
}

// Sync rebuilds the contact table wholesale from the source. Entries
// whose number does not normalize to E.164 are dropped; short codes and
// alphanumeric senders are never contacts.
func (d *Directory) Sync(src Source) (int, error) {
	entries, err := src.ListContacts()
	if err != nil {
		return 0, fmt.Errorf("list contacts: %w", err)
	}

	region := d.regions.CurrentRegion()
	rows := make([]store.Contact, 0, len(entries))
	for _, e := range entries {
		n := d.norm.Normalize(e.Phone, region)
		if !n.IsPhone() {
			d.logger.Warn("skipping non-phone contact",
				zap.String("name", e.Name), zap.String("phone", e.Phone))
			continue
		}
		rows = append(rows, store.Contact{PhoneKey: n.Key, DisplayName: e.Name})
	}

	if err := d.db.ReplaceContacts(rows); err != nil {
		return 0, fmt.Errorf("replace contacts: %w", err)
	}
	return len(rows), nil
}

// IsSaved reports whether the address belongs to a saved contact. Only
// E.164 addresses can match; a second lookup with the leading '+'
// stripped covers contacts stored without the international prefix.
func (d *Directory) IsSaved(rawAddress string) (bool, error) {
	n := d.norm.Normalize(rawAddress, d.regions.CurrentRegion())
	if !n.IsPhone() {
		return false, nil
	}
	found, err := d.db.HasContactKey(n.Key)
	if err != nil {
		return false, err
	}
	if !found && strings.HasPrefix(n.Key, "+") {
		return d.db.HasContactKey(strings.TrimPrefix(n.Key, "+"))
	}
	return found, nil
}

// FindByPhone returns the contact for an address, or nil when the
// address is not a saved contact. Same fallback as IsSaved.
func (d *Directory) FindByPhone(rawAddress string) (*store.Contact, error) {
	n := d.norm.Normalize(rawAddress, d.regions.CurrentRegion())
	if !n.IsPhone() {
		return nil, nil
	}
	c, err := d.db.ContactByKey(n.Key)
	if err != nil {
		return nil, err
	}
	if c == nil && strings.HasPrefix(n.Key, "+") {
		return d.db.ContactByKey(strings.TrimPrefix(n.Key, "+"))
	}
	return c, nil
}
