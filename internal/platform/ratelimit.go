package platform

import "syndicator/internal/model"

// Decision is the outcome of evaluating a rate-limit snapshot.
type Decision int

// Possible decisions.
const (
	DecisionContinue Decision = iota
	DecisionPause
)

// criticalRemaining is the remaining-call count at or below which a sweep
// stops touching the platform until the next scheduled run.
const criticalRemaining = 5

// Decide evaluates a rate-limit snapshot. A nil snapshot means the
// platform reported nothing and the sweep continues. The function never
// sleeps or schedules anything; resuming is the scheduler's job.
func Decide(rl *model.RateLimit) Decision {
	if rl == nil {
		return DecisionContinue
	}
	if rl.Remaining <= criticalRemaining {
		return DecisionPause
	}
	return DecisionContinue
}
