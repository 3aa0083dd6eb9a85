// Package risk derives display-ready risk signals for a sender and,
// optionally, one message body.
package risk

import (
	"regexp"
	"unicode"

	"smsguard/internal/address"
)

// Factor is one detected risk signal. The variant set is closed:
// ContainsLinks, AlphanumericSender, ShortCode, UnknownSender.
type Factor interface {
	isFactor()
}

// ContainsLinks flags a message body carrying one or more URLs.
type ContainsLinks struct {
	Links []string
}

// AlphanumericSender flags a sender id containing letters.
type AlphanumericSender struct{}

// ShortCode flags a numeric sender below the short-code digit threshold.
type ShortCode struct{}

// UnknownSender flags a sender with no saved contact match.
type UnknownSender struct{}

func (ContainsLinks) isFactor()      {}
func (AlphanumericSender) isFactor() {}
func (ShortCode) isFactor()          {}
func (UnknownSender) isFactor()      {}

// Labels renders factors as short identifiers for logs.
func Labels(factors []Factor) []string {
	out := make([]string, 0, len(factors))
	for _, f := range factors {
		switch f.(type) {
		case ContainsLinks:
			out = append(out, "contains_links")
		case AlphanumericSender:
			out = append(out, "alphanumeric_sender")
		case ShortCode:
			out = append(out, "short_code")
		case UnknownSender:
			out = append(out, "unknown_sender")
		}
	}
	return out
}

var urlPattern = regexp.MustCompile(`(?i)\b((?:https?://|www\d{0,3}\.|[a-z0-9.\-]+\.[a-z]{2,4}/)[^\s<>"'` + "`" + `]+)`)

// ExtractLinks returns all URL-like substrings in body, in order.
func ExtractLinks(body string) []string {
	return urlPattern.FindAllString(body, -1)
}

// ContactChecker answers whether an address belongs to a saved contact.
type ContactChecker interface {
	IsSaved(rawAddress string) (bool, error)
}

// Analyzer detects risk factors. Factors are ordered for display:
// links first, then sender-shape signals, then the unknown-sender flag.
type Analyzer struct {
	contacts     ContactChecker
	shortCodeMax int
}

// NewAnalyzer creates an analyzer. shortCodeMax <= 0 selects the
// default threshold.
func NewAnalyzer(contacts ContactChecker, shortCodeMax int) *Analyzer {
	if shortCodeMax <= 0 {
		shortCodeMax = address.DefaultShortCodeMax
	}
	return &Analyzer{contacts: contacts, shortCodeMax: shortCodeMax}
}

// AnalyzeSender detects risk factors from the sender address alone.
func (a *Analyzer) AnalyzeSender(rawAddress string) ([]Factor, error) {
	return a.analyze(rawAddress, "", false)
}

// AnalyzeMessage detects risk factors from a sender and one body.
func (a *Analyzer) AnalyzeMessage(rawAddress, body string) ([]Factor, error) {
	return a.analyze(rawAddress, body, true)
}

func (a *Analyzer) analyze(rawAddress, body string, withBody bool) ([]Factor, error) {
	var factors []Factor

	if withBody {
		if links := ExtractLinks(body); len(links) > 0 {
			factors = append(factors, ContainsLinks{Links: links})
		}
	}

	if containsLetters(rawAddress) {
		factors = append(factors, AlphanumericSender{})
	}

	if digits := address.CountDigits(rawAddress); digits > 0 && digits < a.shortCodeMax {
		factors = append(factors, ShortCode{})
	}

	saved, err := a.contacts.IsSaved(rawAddress)
	if err != nil {
		return factors, err
	}
	if !saved {
		factors = append(factors, UnknownSender{})
	}
	return factors, nil
}

func containsLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
