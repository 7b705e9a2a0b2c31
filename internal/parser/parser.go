// Package parser turns recognized text fragments into validated network
// credentials using an ordered set of label vocabularies.
package parser

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/MeKo-Tech/labelscan/internal/extractor"
)

// Credential is a validated identifier/secret pair extracted from text.
type Credential struct {
	Identifier string  `json:"identifier" yaml:"identifier"`
	Secret     string  `json:"secret" yaml:"secret"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

const (
	maxIdentifierLen = 32
	minSecretLen     = 8
	// Penalty applied when identifier and secret come from independent
	// single-field matches rather than one compound match.
	splitMatchPenalty = 0.8
	// Bonus applied when more than one fragment corroborates the text.
	corroborationBonus = 0.1
)

// Parser extracts credentials from text fragments.
type Parser struct{}

// New creates a credential parser.
func New() *Parser { return &Parser{} }

// Parse joins the fragment texts (space-separated, original order), applies
// the compound patterns in order, and falls back to independent
// identifier/secret searches when none match. Candidates failing field
// validation are dropped silently. Zero fragments yield an empty list.
func (p *Parser) Parse(fragments []extractor.TextFragment) []Credential {
	if len(fragments) == 0 {
		return nil
	}

	texts := make([]string, 0, len(fragments))
	var confSum float64
	for _, f := range fragments {
		texts = append(texts, f.Text)
		confSum += f.Confidence
	}
	joined := strings.Join(texts, " ")

	confidence := confSum / float64(len(fragments))
	if len(fragments) > 1 {
		confidence += corroborationBonus
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	if creds := p.matchCompound(joined, confidence); len(creds) > 0 {
		return creds
	}
	return p.matchSplit(joined, confidence)
}

// matchCompound tries the compound patterns in order. The first pattern
// producing a usable match wins; each of its non-overlapping matches yields
// a separate candidate.
func (p *Parser) matchCompound(text string, confidence float64) []Credential {
	for _, re := range compoundPatterns {
		matches := re.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		var creds []Credential
		for _, m := range matches {
			if len(m) < 3 || m[1] == "" || m[2] == "" {
				continue
			}
			if c, ok := buildCredential(m[1], m[2], confidence); ok {
				creds = append(creds, c)
			}
		}
		if len(creds) > 0 {
			return creds
		}
	}
	return nil
}

// matchSplit searches identifier-only and secret-only patterns
// independently; one lower-confidence candidate is emitted when both find a
// value.
func (p *Parser) matchSplit(text string, confidence float64) []Credential {
	identifier := firstGroup(identifierPatterns, text)
	secret := firstGroup(secretPatterns, text)
	if identifier == "" || secret == "" {
		return nil
	}
	if c, ok := buildCredential(identifier, secret, confidence*splitMatchPenalty); ok {
		return []Credential{c}
	}
	return nil
}

func firstGroup(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 && m[1] != "" {
			return m[1]
		}
	}
	return ""
}

// buildCredential validates the fields and assembles a candidate.
func buildCredential(identifier, secret string, confidence float64) (Credential, bool) {
	identifier = strings.TrimSpace(identifier)
	secret = strings.TrimSpace(secret)
	if !ValidIdentifier(identifier) || !ValidSecret(secret) {
		slog.Debug("credential candidate rejected by validation")
		return Credential{}, false
	}
	return Credential{Identifier: identifier, Secret: secret, Confidence: confidence}, true
}

// ValidIdentifier reports whether a network identifier passes the field
// rules: length 1-32, not purely numeric, no angle brackets or quotes.
func ValidIdentifier(s string) bool {
	if s == "" || len(s) > maxIdentifierLen {
		return false
	}
	if allDigits(s) {
		return false
	}
	return !strings.ContainsAny(s, `<>"`)
}

// ValidSecret reports whether a secret passes the field rules: length >= 8
// (shorter all-digit strings are PIN fragments, not passphrases), no angle
// brackets or quotes.
func ValidSecret(s string) bool {
	if len(s) < minSecretLen {
		return false
	}
	return !strings.ContainsAny(s, `<>"`)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
