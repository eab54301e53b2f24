// Package notify fans committed board changes out to live subscribers and
// downstream consumers.
package notify

import (
	"context"
	"errors"

	"kanban-board/domain"
)

// Publisher delivers a board event to one sink.
type Publisher interface {
	Publish(ctx context.Context, ev domain.BoardEvent) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev domain.BoardEvent) error

func (f PublisherFunc) Publish(ctx context.Context, ev domain.BoardEvent) error { return f(ctx, ev) }

// Fanout publishes to every sink and joins their errors. One failing sink
// does not stop delivery to the others.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev domain.BoardEvent) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
