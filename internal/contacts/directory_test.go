package contacts

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"smsguard/internal/address"
	"smsguard/internal/store"
)

type staticSource []Entry

func (s staticSource) ListContacts() ([]Entry, error) { return s, nil }

func testDirectory(t *testing.T) (*Directory, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	d := NewDirectory(db, address.NewNormalizer(0), address.StaticRegion("ES"), zap.NewNop())
	return d, db
}

func TestSyncNormalizesAndDropsNonPhones(t *testing.T) {
	d, db := testDirectory(t)

	n, err := d.Sync(staticSource{
		{Name: "Alice", Phone: "600 123 456"},
		{Name: "Bank", Phone: "BANCO"},
		{Name: "Votes", Phone: "12345"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("synced %d contacts, want 1", n)
	}

	c, err := db.ContactByKey("+34600123456")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.DisplayName != "Alice" {
		t.Errorf("got %v, want Alice under canonical key", c)
	}
}

func TestSyncReplacesWholesale(t *testing.T) {
	d, db := testDirectory(t)

	if _, err := d.Sync(staticSource{{Name: "Alice", Phone: "+34600123456"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Sync(staticSource{{Name: "Bob", Phone: "+34699999999"}}); err != nil {
		t.Fatal(err)
	}

	if c, _ := db.ContactByKey("+34600123456"); c != nil {
		t.Error("stale contact survived a later sync")
	}
	if c, _ := db.ContactByKey("+34699999999"); c == nil {
		t.Error("fresh contact missing after sync")
	}
}

func TestIsSavedMatchesVariants(t *testing.T) {
	d, _ := testDirectory(t)

	if _, err := d.Sync(staticSource{{Name: "Alice", Phone: "+34600123456"}}); err != nil {
		t.Fatal(err)
	}

	for _, variant := range []string{"+34600123456", "600 123 456", "600-123-456"} {
		ok, err := d.IsSaved(variant)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Errorf("IsSaved(%q) = false, want true", variant)
		}
	}

	ok, err := d.IsSaved("BANCO")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("alphanumeric sender should never match a contact")
	}
}

func TestIsSavedPlusStrippedFallback(t *testing.T) {
	d, db := testDirectory(t)

	// Contact stored without the international prefix.
	if err := db.ReplaceContacts([]store.Contact{{PhoneKey: "34600123456", DisplayName: "Alice"}}); err != nil {
		t.Fatal(err)
	}

	ok, err := d.IsSaved("+34600123456")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("lookup should fall back to the key without '+'")
	}

	c, err := d.FindByPhone("600 123 456")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.DisplayName != "Alice" {
		t.Errorf("FindByPhone fallback got %v", c)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.toml")
	data := "[[contact]]\nname = \"Alice\"\nphone = \"+34 600 123 456\"\n\n[[contact]]\nname = \"Bob\"\nphone = \"699999999\"\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	entries, err := FileSource{Path: path}.ListContacts()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Name != "Alice" {
		t.Errorf("first entry = %+v", entries[0])
	}
}

func TestFileSourceMissing(t *testing.T) {
	entries, err := FileSource{Path: filepath.Join(t.TempDir(), "none.toml")}.ListContacts()
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}
