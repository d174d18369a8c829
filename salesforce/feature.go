package salesforce

// FeatureState distinguishes "the org does not have this feature" from
// "the probe itself failed". Both are handled gracefully, but callers may
// want to render them differently.
type FeatureState int

const (
	// FeatureUnknown means the probe hit a transient failure.
	FeatureUnknown FeatureState = iota
	// FeatureDisabled means the org definitively lacks the feature.
	FeatureDisabled
	// FeatureEnabled means the feature is present.
	FeatureEnabled
)

func (s FeatureState) String() string {
	switch s {
	case FeatureEnabled:
		return "enabled"
	case FeatureDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Feature is the outcome of probing an org capability, carrying a value
// when the feature is enabled (e.g. the default currency code).
type Feature[T any] struct {
	State FeatureState
	Value T
}

// Enabled reports whether the feature was positively detected.
func (f Feature[T]) Enabled() bool {
	return f.State == FeatureEnabled
}
