// Package moderation implements the tiered content moderation pipeline.
//
// Moderate is a pure function over the loaded policy: it does no I/O, keeps
// no state between calls, and is recomputed fresh on every read of content.
package moderation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/driftline/sieve/keyword"
	"github.com/driftline/sieve/policy"
)

// Replacement strings are fixed so that re-moderating already-redacted
// content is a no-op.
const (
	SevereViolationText = "[content is removed due to severe violation]"
	SpamPolicyText      = "[content removed due to spam/scam policy]"
	LinkRemovedText     = "[link removed]"
)

// MaxScore bounds every violation score; consumers rely on scores in [0,5].
const MaxScore = 5

const (
	tier3Penalty         = 2
	urlPenalty           = 2
	mentionSpamPenalty   = 2
	mentionSpamThreshold = 5
)

var (
	urlPattern     = regexp.MustCompile(`(?i)https?://\S+|www\.\S+|[a-zA-Z0-9-]+\.(?:com|org|net|edu|gov|io)\S*`)
	mentionPattern = regexp.MustCompile(`@\w+`)
)

// Result pairs the display form of a piece of content with its violation
// score. The same result feeds both the display layer and risk aggregation;
// the tier logic runs once.
type Result struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

type Moderator struct {
	policy *policy.Store
}

func NewModerator(p *policy.Store) *Moderator {
	return &Moderator{policy: p}
}

// Moderate classifies raw text against the policy tiers and returns the
// redacted display text with a violation score in [0, MaxScore].
//
// Tier-1 (severe) and tier-2 (spam/scam) matches replace the entire text and
// short-circuit all later checks. Tier-3 words are masked per token, then
// URLs are stripped and mention spam is scored without altering the text.
func (m *Moderator) Moderate(text string) Result {
	if strings.TrimSpace(text) == "" {
		moderatedCount.WithLabelValues("empty").Inc()
		return Result{Text: text}
	}

	if m.policy.MatchTier1(text) {
		moderatedCount.WithLabelValues("severe").Inc()
		return Result{Text: SevereViolationText, Score: MaxScore}
	}

	if m.policy.MatchTier2(strings.ToLower(text)) {
		moderatedCount.WithLabelValues("spam").Inc()
		return Result{Text: SpamPolicyText, Score: MaxScore}
	}

	var score int

	// Tier-3: mask matching tokens in place, preserving token length.
	// Re-joining with single spaces normalizes the original whitespace.
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, tok := range fields {
		clean := keyword.CleanToken(tok)
		if clean != "" && m.policy.InTier3(clean) {
			out = append(out, strings.Repeat("*", utf8.RuneCountInString(tok)))
			score += tier3Penalty
			continue
		}
		out = append(out, tok)
	}
	moderated := strings.Join(out, " ")

	if urls := urlPattern.FindAllString(moderated, -1); len(urls) > 0 {
		moderated = urlPattern.ReplaceAllString(moderated, LinkRemovedText)
		score += urlPenalty * len(urls)
		urlRemovedCount.Add(float64(len(urls)))
	}

	// Mention spam raises the score but keeps the mentions visible, so
	// reviewers can still see who was tagged.
	if len(mentionPattern.FindAllString(moderated, -1)) >= mentionSpamThreshold {
		score += mentionSpamPenalty
		mentionSpamCount.Inc()
	}

	if score > MaxScore {
		score = MaxScore
	}
	if score > 0 {
		moderatedCount.WithLabelValues("masked").Inc()
	} else {
		moderatedCount.WithLabelValues("clean").Inc()
	}
	return Result{Text: moderated, Score: score}
}
