// Package health aggregates readiness checks for the service's
// dependencies.
package health

import (
	"context"
	"sync"
	"time"
)

// Status is the outcome of one check or of the aggregate.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the outcome of a single dependency check.
type CheckResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Checker probes one dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Report is the aggregate of all registered checks. The overall status
// is unhealthy as soon as any single check is.
type Report struct {
	Status Status        `json:"status"`
	Checks []CheckResult `json:"checks,omitempty"`
}

// Registry holds the service's checkers. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	checkers []Checker
}

// NewRegistry creates an empty registry. With no checkers registered,
// Check reports healthy; the process being up is the only signal.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a checker.
func (r *Registry) Register(c Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers = append(r.checkers, c)
}

// Check runs all checkers concurrently and aggregates their results.
func (r *Registry) Check(ctx context.Context) Report {
	r.mu.RLock()
	checkers := make([]Checker, len(r.checkers))
	copy(checkers, r.checkers)
	r.mu.RUnlock()

	results := make([]CheckResult, len(checkers))
	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			results[i] = c.Check(ctx)
		}(i, c)
	}
	wg.Wait()

	report := Report{Status: StatusHealthy, Checks: results}
	for _, res := range results {
		if res.Status != StatusHealthy {
			report.Status = StatusUnhealthy
			break
		}
	}
	return report
}
