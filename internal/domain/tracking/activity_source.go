package tracking

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rpggio/hourly/internal/domain/timeentry"
)

// ActivitySource scores engagement during a session on a 0–100 scale.
type ActivitySource interface {
	Score(ctx context.Context, sess timeentry.ActiveSession, end time.Time) int
}

// RandomActivity is a placeholder signal in [80, 100]; there is no real
// monitoring behind it.
type RandomActivity struct{}

// Score returns a pseudo-random score.
func (RandomActivity) Score(context.Context, timeentry.ActiveSession, time.Time) int {
	return 80 + rand.IntN(21)
}

// FixedActivity always reports the same score.
type FixedActivity int

// Score returns the fixed value.
func (f FixedActivity) Score(context.Context, timeentry.ActiveSession, time.Time) int {
	return int(f)
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}
