package risk

import (
	"reflect"
	"testing"
)

type stubContacts map[string]bool

func (s stubContacts) IsSaved(raw string) (bool, error) { return s[raw], nil }

func TestAnalyzeMessageWithLinks(t *testing.T) {
	a := NewAnalyzer(stubContacts{}, 0)

	factors, err := a.AnalyzeMessage("BANCO", "verify at https://evil.example/login now")
	if err != nil {
		t.Fatal(err)
	}
	if len(factors) != 3 {
		t.Fatalf("got %d factors, want 3: %v", len(factors), factors)
	}
	links, ok := factors[0].(ContainsLinks)
	if !ok {
		t.Fatalf("first factor = %T, want ContainsLinks", factors[0])
	}
	if !reflect.DeepEqual(links.Links, []string{"https://evil.example/login"}) {
		t.Errorf("links = %v", links.Links)
	}
	if _, ok := factors[1].(AlphanumericSender); !ok {
		t.Errorf("second factor = %T, want AlphanumericSender", factors[1])
	}
	if _, ok := factors[2].(UnknownSender); !ok {
		t.Errorf("third factor = %T, want UnknownSender", factors[2])
	}
}

func TestAnalyzeSenderShortCode(t *testing.T) {
	a := NewAnalyzer(stubContacts{}, 0)

	factors, err := a.AnalyzeSender("22332")
	if err != nil {
		t.Fatal(err)
	}
	if len(factors) != 2 {
		t.Fatalf("got %d factors, want 2: %v", len(factors), factors)
	}
	if _, ok := factors[0].(ShortCode); !ok {
		t.Errorf("first factor = %T, want ShortCode", factors[0])
	}
	if _, ok := factors[1].(UnknownSender); !ok {
		t.Errorf("second factor = %T, want UnknownSender", factors[1])
	}
}

func TestAnalyzeSenderKnownContact(t *testing.T) {
	a := NewAnalyzer(stubContacts{"+34600123456": true}, 0)

	factors, err := a.AnalyzeSender("+34600123456")
	if err != nil {
		t.Fatal(err)
	}
	if len(factors) != 0 {
		t.Errorf("saved full number should carry no factors, got %v", factors)
	}
}

func TestAnalyzeSenderNoBodyNoLinkScan(t *testing.T) {
	a := NewAnalyzer(stubContacts{}, 0)

	factors, err := a.AnalyzeSender("https://not-a-body")
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range factors {
		if _, ok := f.(ContainsLinks); ok {
			t.Error("link factor produced without a body")
		}
	}
}

func TestShortCodeBoundaryIsStrict(t *testing.T) {
	a := NewAnalyzer(stubContacts{}, 6)

	// Exactly at the threshold: not flagged (strictly below only).
	factors, err := a.AnalyzeSender("123456")
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range factors {
		if _, ok := f.(ShortCode); ok {
			t.Error("six digits flagged as short code; threshold is strict")
		}
	}
}

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		body string
		want int
	}{
		{"no links here", 0},
		{"go to www.example.com now", 1},
		{"http://a.example and https://b.example/path", 2},
		{"domain style tinyurl.com/abc", 1},
	}
	for _, tt := range tests {
		if got := ExtractLinks(tt.body); len(got) != tt.want {
			t.Errorf("ExtractLinks(%q) = %v, want %d links", tt.body, got, tt.want)
		}
	}
}
