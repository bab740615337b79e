package risk

import (
	"context"
	"math"
	"sort"

	"github.com/driftline/sieve/store"
)

// Classify maps a risk score to its display label.
func Classify(score float64) string {
	switch {
	case score < 1.0:
		return "Low risk"
	case score < 3.0:
		return "Medium risk"
	case score < 4.5:
		return "High risk"
	default:
		return "Dangerous!"
	}
}

// DashboardBand maps a score to the coarser 4-band label the triage
// dashboard sorts by. The bands are keyed at different thresholds than
// Classify and the two are not required to agree.
func DashboardBand(score float64) (label string, sortKey int) {
	switch {
	case score >= 5:
		return "HIGH", 3
	case score >= 3:
		return "MEDIUM", 2
	case score >= 1:
		return "LOW", 1
	default:
		return "NONE", 0
	}
}

// UserRisk is one row of the per-user triage ranking.
type UserRisk struct {
	User    store.User `json:"user"`
	Score   float64    `json:"score"`
	Label   string     `json:"label"`
	Band    string     `json:"band"`
	BandKey int        `json:"band_key"`
}

// AssessAllUsers scores every user and returns them ranked most-risky
// first. Recomputed on demand; nothing is persisted.
func (a *Assessor) AssessAllUsers(ctx context.Context) ([]UserRisk, error) {
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserRisk, 0, len(users))
	for _, u := range users {
		score, err := a.AssessUser(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		score = math.Round(score*100) / 100
		band, key := DashboardBand(score)
		out = append(out, UserRisk{
			User:    u,
			Score:   score,
			Label:   Classify(score),
			Band:    band,
			BandKey: key,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out, nil
}

// TopRisky returns the n highest-risk users.
func (a *Assessor) TopRisky(ctx context.Context, n int) ([]UserRisk, error) {
	ranked, err := a.AssessAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}
