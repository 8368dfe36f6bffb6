package alert

import (
	"maps"

	"github.com/jonwraymond/healthwatch/health"
	"github.com/jonwraymond/healthwatch/threshold"
)

// Signal is one raw per-tick observation of a condition.
type Signal struct {
	Key      Key
	Severity Severity
	Message  string
	Context  map[string]any
}

// UnhealthySignal builds a component_unhealthy signal from a check result.
// ok is false for Healthy results.
func UnhealthySignal(result health.CheckResult) (Signal, bool) {
	severity, ok := FromStatus(result.Status)
	if !ok {
		return Signal{}, false
	}

	ctx := map[string]any{
		"status":     result.Status.String(),
		"latency_ms": result.LatencyMs(),
	}
	if result.Err != nil {
		ctx["error"] = result.Err.Error()
	}

	return Signal{
		Key:      Key{Type: TypeComponentUnhealthy, Component: result.Component},
		Severity: severity,
		Message:  result.Message,
		Context:  ctx,
	}, true
}

// BreachSignal builds a threshold_breach:<metric> signal.
func BreachSignal(b threshold.Breach) Signal {
	severity, _ := FromStatus(b.Level)
	return Signal{
		Key:      Key{Type: b.AlertType(), Component: b.Sample.Component},
		Severity: severity,
		Message:  b.Message(),
		Context: map[string]any{
			"metric":     b.Sample.Name,
			"value":      b.Sample.Value,
			"threshold":  b.Threshold,
			"comparison": b.Comparison.String(),
		},
	}
}

// NoChecksSignal is raised when a tick ran with no probes configured.
func NoChecksSignal() Signal {
	return Signal{
		Key:      Key{Type: TypeNoChecksConfigured, Component: ComponentSystem},
		Severity: SeverityInfo,
		Message:  health.NoteNoChecks,
	}
}

// mergeSignals collapses signals sharing a key into one occurrence with the
// highest severity and merged context. First-appearance order is kept.
func mergeSignals(signals []Signal) []Signal {
	merged := make([]Signal, 0, len(signals))
	index := make(map[Key]int, len(signals))

	for _, s := range signals {
		i, ok := index[s.Key]
		if !ok {
			s.Context = maps.Clone(s.Context)
			index[s.Key] = len(merged)
			merged = append(merged, s)
			continue
		}

		m := &merged[i]
		if s.Severity > m.Severity {
			m.Severity = s.Severity
			m.Message = s.Message
		}
		if len(s.Context) > 0 {
			if m.Context == nil {
				m.Context = make(map[string]any, len(s.Context))
			}
			maps.Copy(m.Context, s.Context)
		}
	}

	return merged
}
