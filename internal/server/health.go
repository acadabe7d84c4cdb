package server

import (
	"context"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// ProbeFunc adapts a function to HealthService.
type ProbeFunc func(ctx context.Context) error

// Probe implements HealthService.
func (f ProbeFunc) Probe(ctx context.Context) error {
	if f == nil {
		return nil
	}
	return f(ctx)
}

type healthReport struct {
	Status string `json:"status"`
	Graph  string `json:"graph"`
	Scorer string `json:"scorer"`
	Error  string `json:"error,omitempty"`
}

// checkHealth probes the graph and the scorer. Only the graph decides
// readiness: without the scorer the service still answers from the fallback
// formula.
func checkHealth(ctx context.Context, graph, scorer HealthService) (healthReport, bool) {
	report := healthReport{Status: "ok", Graph: "ok", Scorer: "remote"}
	healthy := true

	if graph != nil {
		if err := graph.Probe(ctx); err != nil {
			healthy = false
			report.Status = "degraded"
			report.Graph = "unreachable"
			report.Error = err.Error()
		}
	}
	if scorer == nil {
		report.Scorer = "fallback"
	} else if err := scorer.Probe(ctx); err != nil {
		report.Scorer = "fallback"
	}
	return report, healthy
}
