// Package chain runs an ordered list of interchangeable strategies until one succeeds.
package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/UnendingLoop/percepto/internal/model"
)

var ErrNoStrategies = errors.New("no strategies configured")

// Strategy is one capability-equivalent way of turning In into Out.
type Strategy[In, Out any] interface {
	Name() string
	Attempt(ctx context.Context, in In) (Out, error)
}

// Policy tunes how failures move through the chain.
type Policy struct {
	// Abort stops the chain on errors that no later strategy could fix.
	Abort func(error) bool

	// OnFailure is called after every failed attempt.
	OnFailure func(name string, err error)
}

// ExhaustedError lists the reason each strategy failed, in order.
type ExhaustedError struct {
	Attempts []model.Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Name, a.Err))
	}
	return fmt.Sprintf("all %d strategies failed: %s", len(e.Attempts), strings.Join(parts, "; "))
}

// Run tries each strategy in order and returns the first success together with
// the name of the strategy that produced it. Later strategies are never invoked
// after a success.
func Run[In, Out any](ctx context.Context, strategies []Strategy[In, Out], in In, policy Policy) (Out, string, error) {
	var zero Out

	if len(strategies) == 0 {
		return zero, "", ErrNoStrategies
	}

	attempts := make([]model.Attempt, 0, len(strategies))
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return zero, "", fmt.Errorf("chain canceled after %d attempts: %w", len(attempts), err)
		}

		out, err := s.Attempt(ctx, in)
		if err == nil {
			return out, s.Name(), nil
		}

		if policy.OnFailure != nil {
			policy.OnFailure(s.Name(), err)
		}
		if policy.Abort != nil && policy.Abort(err) {
			return zero, s.Name(), err
		}
		attempts = append(attempts, model.Attempt{Name: s.Name(), Err: err})
	}

	return zero, "", &ExhaustedError{Attempts: attempts}
}
