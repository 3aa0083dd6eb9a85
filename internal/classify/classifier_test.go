package classify

import (
	"errors"
	"testing"

	"smsguard/internal/address"
)

type stubContacts struct {
	saved map[string]bool
	err   error
}

func (s stubContacts) IsSaved(raw string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.saved[raw], nil
}

func newClassifier(saved map[string]bool) *Classifier {
	return New(stubContacts{saved: saved}, address.NewNormalizer(0), address.StaticRegion("ES"))
}

func TestClassifyContactIsInbox(t *testing.T) {
	c := newClassifier(map[string]bool{"+34600123456": true})

	got, err := c.Classify("+34600123456")
	if err != nil {
		t.Fatal(err)
	}
	if got != Inbox {
		t.Errorf("Classify = %q, want inbox", got)
	}
}

func TestClassifyUnknownPhoneIsQuarantine(t *testing.T) {
	c := newClassifier(nil)

	got, err := c.Classify("+34600123456")
	if err != nil {
		t.Fatal(err)
	}
	if got != Quarantine {
		t.Errorf("Classify = %q, want quarantine", got)
	}
}

func TestClassifyNonPhonesAlwaysQuarantine(t *testing.T) {
	// Even a saved lookup cannot rescue a non-phone sender.
	c := newClassifier(map[string]bool{"BANCO": true, "12345": true})

	for _, addr := range []string{"BANCO", "12345", "0000000"} {
		got, err := c.Classify(addr)
		if err != nil {
			t.Fatal(err)
		}
		if got != Quarantine {
			t.Errorf("Classify(%q) = %q, want quarantine", addr, got)
		}
	}
}

func TestClassifyLookupErrorDefaultsQuarantine(t *testing.T) {
	c := New(stubContacts{err: errors.New("db closed")}, address.NewNormalizer(0), address.StaticRegion("ES"))

	got, err := c.Classify("+34600123456")
	if err == nil {
		t.Fatal("want error surfaced")
	}
	if got != Quarantine {
		t.Errorf("Classify on error = %q, want quarantine", got)
	}
}
