// Package policy holds the tiered moderation word lists.
//
// The lists are loaded once at startup from a sealed JSON document and are
// immutable afterwards, so a single Store is safe for concurrent reads from
// any number of goroutines.
package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Config is the decrypted on-disk shape of the policy document.
type Config struct {
	Categories Categories `json:"categories"`
}

type Categories struct {
	Tier1SevereViolations *WordList   `json:"tier1_severe_violations"`
	Tier2SpamScams        *PhraseList `json:"tier2_spam_scams"`
	Tier3MildProfanity    *WordList   `json:"tier3_mild_profanity"`
}

type WordList struct {
	Words []string `json:"words"`
}

type PhraseList struct {
	Phrases []string `json:"phrases"`
}

// Store is the compiled, read-only form of a policy Config.
//
// Tier-1 words are matched as whole words anywhere in text, tier-2 phrases as
// plain substrings, and tier-3 words against individual cleaned tokens. All
// matching is case-insensitive.
type Store struct {
	tier1Patterns []*regexp.Regexp
	tier2Phrases  []string
	tier3Words    map[string]bool
}

// Compile validates a Config and compiles its word lists for matching.
func Compile(cfg Config) (*Store, error) {
	if cfg.Categories.Tier1SevereViolations == nil {
		return nil, fmt.Errorf("policy config missing category: tier1_severe_violations")
	}
	if cfg.Categories.Tier2SpamScams == nil {
		return nil, fmt.Errorf("policy config missing category: tier2_spam_scams")
	}
	if cfg.Categories.Tier3MildProfanity == nil {
		return nil, fmt.Errorf("policy config missing category: tier3_mild_profanity")
	}

	s := &Store{
		tier3Words: make(map[string]bool, len(cfg.Categories.Tier3MildProfanity.Words)),
	}
	for _, w := range cfg.Categories.Tier1SevereViolations.Words {
		pat, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("compiling tier1 word %q: %w", w, err)
		}
		s.tier1Patterns = append(s.tier1Patterns, pat)
	}
	for _, p := range cfg.Categories.Tier2SpamScams.Phrases {
		s.tier2Phrases = append(s.tier2Phrases, strings.ToLower(p))
	}
	for _, w := range cfg.Categories.Tier3MildProfanity.Words {
		s.tier3Words[strings.ToLower(w)] = true
	}
	return s, nil
}

// LoadSealedFile reads and decrypts a sealed policy document, then compiles
// it. Any failure here should be treated as fatal by the caller: the process
// cannot serve moderation-dependent operations without a policy.
func LoadSealedFile(p string, key []byte) (*Store, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading policy config: %w", err)
	}
	plain, err := Unseal(raw, key)
	if err != nil {
		return nil, fmt.Errorf("decrypting policy config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(plain, &cfg); err != nil {
		return nil, fmt.Errorf("parsing policy config: %w", err)
	}
	return Compile(cfg)
}

// MatchTier1 reports whether text contains any tier-1 word as a whole word.
func (s *Store) MatchTier1(text string) bool {
	for _, pat := range s.tier1Patterns {
		if pat.MatchString(text) {
			return true
		}
	}
	return false
}

// MatchTier2 reports whether lowerText contains any tier-2 phrase. The
// caller is expected to pass already-lowercased text.
func (s *Store) MatchTier2(lowerText string) bool {
	for _, phrase := range s.tier2Phrases {
		if strings.Contains(lowerText, phrase) {
			return true
		}
	}
	return false
}

// InTier3 reports whether a cleaned, lowercased token is a tier-3 word.
func (s *Store) InTier3(tok string) bool {
	return s.tier3Words[tok]
}
