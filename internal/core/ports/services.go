package ports

import (
	"context"
	"io"

	"github.com/samirrijal/trackheat/internal/core/domain"
)

// TrackReader turns one track file into point records.
type TrackReader interface {
	// Read fails with domain.ErrIO when the file cannot be read and
	// domain.ErrParse when it is not a well-formed track document.
	Read(ctx context.Context, path string) ([]domain.GpsPoint, error)
}

// ProgressObserver is notified after each file of a collection pass.
type ProgressObserver interface {
	FileProcessed(ctx context.Context, p domain.Progress)
}

// ProgressFunc adapts a function to ProgressObserver.
type ProgressFunc func(ctx context.Context, p domain.Progress)

func (f ProgressFunc) FileProcessed(ctx context.Context, p domain.Progress) { f(ctx, p) }

// Renderer draws a heatmap of points as a standalone document.
type Renderer interface {
	// Render returns domain.ErrEmptyDataset when points is empty.
	Render(ctx context.Context, points []domain.GeoPoint, w io.Writer) error
	ContentType() string
}

// EventPublisher publishes pipeline events to a message broker.
type EventPublisher interface {
	PublishProgress(ctx context.Context, p domain.Progress) error
	PublishDatasetReady(ctx context.Context, summary domain.DatasetSummary) error
}

// EventSubscriber subscribes to pipeline events from a message broker.
type EventSubscriber interface {
	SubscribeProgress(ctx context.Context, handler func(ctx context.Context, p domain.Progress) error) error
	SubscribeDatasetReady(ctx context.Context, handler func(ctx context.Context, s domain.DatasetSummary) error) error
}
