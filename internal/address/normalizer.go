// Package address canonicalizes free-form SMS sender/recipient strings
// into typed, comparable keys. The same real-world sender can appear as
// "+34600123456", "600123456" or "600 123 456"; all of them must map to
// one canonical key so downstream identity and classification agree.
package address

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// Kind classifies a normalized address. The set is closed.
type Kind string

const (
	KindE164         Kind = "e164"
	KindShortCode    Kind = "short_code"
	KindAlphanumeric Kind = "alphanumeric"
	KindInvalid      Kind = "invalid"
)

// DefaultShortCodeMax is the digit count at or below which a purely
// numeric address is treated as a short code rather than a phone number.
const DefaultShortCodeMax = 6

// unknownRegion makes libphonenumber treat the input as a complete
// international number instead of a national one.
const unknownRegion = "ZZ"

// Normalized is the canonical form of one raw address. Key is a pure
// function of (Raw, Region): E164 keys are the bare "+..." form, every
// other kind carries a tag prefix so keys never collide across kinds.
type Normalized struct {
	Kind    Kind
	Key     string
	Raw     string
	Cleaned string
	Region  string // region used for parsing; empty when not applicable
}

// IsPhone reports whether the address normalized to a full E.164 number.
func (n Normalized) IsPhone() bool { return n.Kind == KindE164 }

var cleanPattern = regexp.MustCompile(`[\s\-().]`)

// Normalizer turns raw addresses into Normalized values. It performs no
// I/O and is safe for concurrent use.
type Normalizer struct {
	shortCodeMax int
}

// NewNormalizer creates a normalizer. shortCodeMax <= 0 selects the
// default threshold.
func NewNormalizer(shortCodeMax int) *Normalizer {
	if shortCodeMax <= 0 {
		shortCodeMax = DefaultShortCodeMax
	}
	return &Normalizer{shortCodeMax: shortCodeMax}
}

// Normalize canonicalizes raw using region as the parsing hint for
// numbers without an international prefix. Deterministic: the same
// (raw, region) pair always yields the same result.
func (n *Normalizer) Normalize(raw, region string) Normalized {
	original := strings.TrimSpace(raw)
	cleaned := cleanPattern.ReplaceAllString(original, "")

	if containsLetters(cleaned) {
		return Normalized{
			Kind:    KindAlphanumeric,
			Key:     "alpha:" + cleaned,
			Raw:     original,
			Cleaned: cleaned,
		}
	}

	if countDigits(cleaned) <= n.shortCodeMax {
		return Normalized{
			Kind:    KindShortCode,
			Key:     "short:" + cleaned,
			Raw:     original,
			Cleaned: cleaned,
		}
	}

	num := parseNumber(cleaned, region)
	if num != nil {
		e164 := phonenumbers.Format(num, phonenumbers.E164)
		// E.164 always starts with '+'; anything else means formatting
		// went wrong and the address cannot be trusted as a phone number.
		if e164 != "" && strings.HasPrefix(e164, "+") {
			return Normalized{
				Kind:    KindE164,
				Key:     e164,
				Raw:     original,
				Cleaned: cleaned,
				Region:  region,
			}
		}
	}

	return Normalized{
		Kind:    KindInvalid,
		Key:     "raw:" + cleaned,
		Raw:     original,
		Cleaned: cleaned,
		Region:  region,
	}
}

// parseNumber tries the fixed ladder of parse attempts; the first
// success wins.
func parseNumber(cleaned, region string) *phonenumbers.PhoneNumber {
	if strings.HasPrefix(cleaned, "+") {
		if num, err := phonenumbers.Parse(cleaned, unknownRegion); err == nil {
			return num
		}
		if num, err := phonenumbers.Parse(cleaned, region); err == nil {
			return num
		}
		return nil
	}

	if num, err := phonenumbers.Parse(cleaned, region); err == nil {
		return num
	}

	// No '+' and the region parse failed: long digit runs are usually a
	// full international number typed without its prefix.
	if digits := digitsOnly(cleaned); len(digits) > 7 {
		if num, err := phonenumbers.Parse("+"+digits, unknownRegion); err == nil {
			return num
		}
	}
	return nil
}

func containsLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func countDigits(s string) int {
	count := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			count++
		}
	}
	return count
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CountDigits exposes the digit count used for kind boundaries; the
// risk analyzer shares it for short-code detection.
func CountDigits(s string) int { return countDigits(s) }
