// Package status summarises service health for the health endpoint.
package status

import (
	"context"
	"sort"
	"sync"
	"time"
)

// States, ordered from best to worst.
const (
	StateOperational = "operational"
	StateDegraded    = "degraded"
	StateDown        = "down"
)

// Summary captures an overview of the service status.
type Summary struct {
	State      string      `json:"state"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	Components []Component `json:"components"`
}

// Component represents the status of an individual subsystem.
type Component struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Check reports one component. Returning StateDegraded keeps the service up.
type Check func(ctx context.Context) (state, detail string)

// Checker runs named checks concurrently.
type Checker struct {
	checks map[string]Check
	now    func() time.Time
}

// NewChecker returns an empty Checker.
func NewChecker() *Checker {
	return &Checker{checks: map[string]Check{}, now: time.Now}
}

// Register adds or replaces a named check.
func (c *Checker) Register(name string, check Check) {
	c.checks[name] = check
}

// Evaluate runs every check and folds them into one Summary. The overall state is
// the worst component state.
func (c *Checker) Evaluate(ctx context.Context) Summary {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = Summary{State: StateOperational, UpdatedAt: c.now().UTC()}
	)
	for name, check := range c.checks {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()
			state, detail := check(ctx)
			mu.Lock()
			defer mu.Unlock()
			out.Components = append(out.Components, Component{Name: name, Status: state, Detail: detail})
			if rank(state) > rank(out.State) {
				out.State = state
			}
		}(name, check)
	}
	wg.Wait()
	sort.Slice(out.Components, func(i, j int) bool { return out.Components[i].Name < out.Components[j].Name })
	return out
}

// Healthy reports whether the service can serve pages.
func (s Summary) Healthy() bool { return s.State != StateDown }

func rank(state string) int {
	switch state {
	case StateOperational:
		return 0
	case StateDegraded:
		return 1
	default:
		return 2
	}
}
