// Package sink delivers price records to their consumers.
package sink

import (
	"context"
	"errors"

	"swapscope/internal/model"
)

// Sink receives price records. Implementations must be safe for concurrent use;
// one sink is shared by every pool watcher.
type Sink interface {
	Emit(ctx context.Context, record model.PriceRecord) error
}

// Func adapts a function to a Sink.
type Func func(ctx context.Context, record model.PriceRecord) error

func (f Func) Emit(ctx context.Context, record model.PriceRecord) error {
	return f(ctx, record)
}

// Multi fans a record out to every sink. All sinks are tried; errors are joined.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, record model.PriceRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
