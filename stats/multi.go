// Package stats records admission decisions for observability.
package stats

import (
	"context"
	"errors"

	"github.com/aryangodara/client_rate_limiter"
)

type multiRecorder []client_rate_limiter.Recorder

// Multi returns a Recorder that passes every event to each of recorders.
// Nil recorders are skipped.
func Multi(recorders ...client_rate_limiter.Recorder) client_rate_limiter.Recorder {
	m := make(multiRecorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

func (m multiRecorder) Record(ctx context.Context, ev client_rate_limiter.Event) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
