package tenant

// Limit is the employee headcount cap for a plan. Unlimited is an explicit
// flag rather than a magic integer so callers can never compare against a
// sentinel count by accident.
type Limit struct {
	Max       int
	Unlimited bool
}

const freePlanMaxEmployees = 5

// PlanLimit returns the headcount limit for a subscription plan. Plans we
// do not recognize fall back to the free tier.
func PlanLimit(plan string) Limit {
	switch plan {
	case PlanPro, PlanEnterprise:
		return Limit{Unlimited: true}
	default:
		return Limit{Max: freePlanMaxEmployees}
	}
}

// CanAdd reports whether one more employee fits under the limit.
func (l Limit) CanAdd(currentCount int) bool {
	if l.Unlimited {
		return true
	}
	return currentCount < l.Max
}

// Remaining returns the headroom left, or 0 when over the cap. Only
// meaningful for bounded plans.
func (l Limit) Remaining(currentCount int) int {
	if l.Unlimited {
		return 0
	}
	if currentCount >= l.Max {
		return 0
	}
	return l.Max - currentCount
}
