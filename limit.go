package agentdoc

// LimitType specifies how to match keys for limit checking.
type LimitType string

const (
	// LimitExactKey matches an exact key.
	LimitExactKey LimitType = "exact"

	// LimitKeyPrefix matches any key with the given prefix, for example every
	// per-document step counter.
	LimitKeyPrefix LimitType = "prefix"
)

// Limit stops execution once a counter exceeds MaxValue (currentValue > MaxValue).
//
//	// Stop if any single document needs more than 50 passes
//	{Type: LimitKeyPrefix, Key: string(SCStepsFor), MaxValue: 50}
//
//	// Stop after 20 model calls in total
//	{Type: LimitExactKey, Key: string(SCModelCalls), MaxValue: 20}
type Limit struct {
	Type     LimitType
	Key      string
	MaxValue float64
}

// DefaultLimits guards against documents that never converge:
//   - 200 passes over any single document
//   - 2000 passes in total
//   - 500 model calls in total
func DefaultLimits() []Limit {
	return []Limit{
		{Type: LimitKeyPrefix, Key: string(SCStepsFor), MaxValue: 200},
		{Type: LimitExactKey, Key: string(SCSteps), MaxValue: 2000},
		{Type: LimitExactKey, Key: string(SCModelCalls), MaxValue: 500},
	}
}

// StepLimits returns DefaultLimits with the per-document pass limit set to maxSteps.
func StepLimits(maxSteps int) []Limit {
	limits := DefaultLimits()
	if maxSteps > 0 {
		limits[0].MaxValue = float64(maxSteps)
	}
	return limits
}
