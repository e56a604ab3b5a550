package usecases_test

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/samirrijal/trackheat/internal/core/domain"
)

// --- Mock TrackReader ---

type mockReader struct {
	mu     sync.Mutex
	readFn func(ctx context.Context, path string) ([]domain.GpsPoint, error)
	calls  []string
}

func (m *mockReader) Read(ctx context.Context, path string) ([]domain.GpsPoint, error) {
	m.mu.Lock()
	m.calls = append(m.calls, path)
	m.mu.Unlock()
	if m.readFn != nil {
		return m.readFn(ctx, path)
	}
	return nil, nil
}

func (m *mockReader) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// --- Mock Renderer ---

type mockRenderer struct {
	renderFn func(ctx context.Context, points []domain.GeoPoint, w io.Writer) error
	rendered []domain.GeoPoint
}

func (m *mockRenderer) Render(ctx context.Context, points []domain.GeoPoint, w io.Writer) error {
	m.rendered = points
	if m.renderFn != nil {
		return m.renderFn(ctx, points, w)
	}
	_, err := fmt.Fprintf(w, "<html>%d points</html>", len(points))
	return err
}

func (m *mockRenderer) ContentType() string { return "text/html; charset=utf-8" }

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu       sync.Mutex
	progress []domain.Progress
	ready    []domain.DatasetSummary
}

func (m *mockPublisher) PublishProgress(ctx context.Context, p domain.Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress = append(m.progress, p)
	return nil
}

func (m *mockPublisher) PublishDatasetReady(ctx context.Context, s domain.DatasetSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = append(m.ready, s)
	return nil
}
