// Package threshold compares metric samples against configured warning and
// critical limits.
//
// A Config is keyed by metric name and carries a Comparison. Samples whose
// name has no Config are ignored so probes can emit extra diagnostics:
//
//	configs := threshold.Set{
//	    "disk_usage_percent": {Warning: 80, Critical: 95, Comparison: threshold.GreaterThan},
//	}
//	breaches := threshold.Evaluate(samples, configs)
//
// A value that is back under its limit produces no event. Recovery is
// detected by the caller through the absence of a breach.
package threshold
