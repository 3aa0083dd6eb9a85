package contacts

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileSource reads contacts from a TOML file:
//
//	[[contact]]
//	name = "Alice"
//	phone = "+34 600 123 456"
//
// A missing file means an empty contact list, not an error, so fresh
// deployments sync cleanly before the user writes one.
type FileSource struct {
	Path string
}

type contactsFile struct {
	Contact []Entry `toml:"contact"`
}

// ListContacts implements Source.
func (s FileSource) ListContacts() ([]Entry, error) {
	var file contactsFile
	if _, err := toml.DecodeFile(s.Path, &file); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode contacts file: %w", err)
	}
	return file.Contact, nil
}
