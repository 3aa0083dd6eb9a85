// Package classify decides whether a conversation is trusted.
package classify

import (
	"smsguard/internal/address"
)

// ChatType is the trust classification of a conversation.
type ChatType string

const (
	Inbox      ChatType = "inbox"
	Quarantine ChatType = "quarantine"
)

// ContactChecker answers whether an address belongs to a saved contact.
// *contacts.Directory satisfies it.
type ContactChecker interface {
	IsSaved(rawAddress string) (bool, error)
}

// Classifier maps an address to Inbox or Quarantine. Short codes,
// alphanumeric senders and unparseable numbers are never auto-trusted;
// a full phone number is trusted exactly when it matches a contact.
type Classifier struct {
	contacts ContactChecker
	norm     *address.Normalizer
	regions  address.RegionProvider
}

// New creates a classifier.
func New(contacts ContactChecker, norm *address.Normalizer, regions address.RegionProvider) *Classifier {
	return &Classifier{contacts: contacts, norm: norm, regions: regions}
}

// Classify returns the trust classification for an address.
func (c *Classifier) Classify(rawAddress string) (ChatType, error) {
	n := c.norm.Normalize(rawAddress, c.regions.CurrentRegion())
	if !n.IsPhone() {
		return Quarantine, nil
	}
	saved, err := c.contacts.IsSaved(rawAddress)
	if err != nil {
		return Quarantine, err
	}
	if saved {
		return Inbox, nil
	}
	return Quarantine, nil
}
