package health

import (
	"sort"
	"time"
)

// Notes attached to a SystemStatus that did not come from probe results.
const (
	NoteNoChecks       = "no checks configured"
	NoteNotInitialized = "not yet initialized"
)

// SystemStatus is the aggregate of all check results at one tick.
// A SystemStatus is never mutated after Aggregate returns it; use Clone
// before handing it to code that might.
type SystemStatus struct {
	Overall    Status                 `json:"overall"`
	Components map[string]CheckResult `json:"components"`
	ComputedAt time.Time              `json:"computed_at"`
	Note       string                 `json:"note,omitempty"`
}

// Initialized reports whether the status was computed from a tick.
func (s SystemStatus) Initialized() bool {
	return !s.ComputedAt.IsZero()
}

// ComponentNames returns the component names in sorted order.
func (s SystemStatus) ComponentNames() []string {
	names := make([]string, 0, len(s.Components))
	for name := range s.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the status.
func (s SystemStatus) Clone() SystemStatus {
	if s.Components != nil {
		components := make(map[string]CheckResult, len(s.Components))
		for name, result := range s.Components {
			components[name] = result.clone()
		}
		s.Components = components
	}
	return s
}

// NotInitialized is the status reported before any tick has completed.
func NotInitialized() SystemStatus {
	return SystemStatus{
		Overall:    StatusWarning,
		Components: map[string]CheckResult{},
		Note:       NoteNotInitialized,
	}
}

// Aggregate reduces check results to a SystemStatus using the worst-of rule:
// Critical if any result is Critical, else Warning if any is Warning, else
// Healthy. An empty input is Warning with NoteNoChecks, never Healthy.
// Statuses outside the defined set count as Critical.
// Aggregate does not modify results and does not depend on their order.
func Aggregate(results []CheckResult, now time.Time) SystemStatus {
	status := SystemStatus{
		Overall:    StatusHealthy,
		Components: make(map[string]CheckResult, len(results)),
		ComputedAt: now,
	}

	if len(results) == 0 {
		status.Overall = StatusWarning
		status.Note = NoteNoChecks
		return status
	}

	for _, result := range results {
		if !result.Status.Valid() {
			result.Status = StatusCritical
		}
		status.Overall = status.Overall.Worse(result.Status)

		// Duplicate component names keep the worse result.
		if prev, ok := status.Components[result.Component]; ok && prev.Status >= result.Status {
			continue
		}
		status.Components[result.Component] = result.clone()
	}

	return status
}
