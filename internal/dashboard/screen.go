package dashboard

import (
	"context"

	"github.com/pep299/idea-validator/internal/model"
	"github.com/pep299/idea-validator/internal/view"
)

// ListScreen shows every cluster in the order the service returns them.
type ListScreen struct {
	source  Source
	printer *view.Printer
	data    loader[model.Clusters]
}

// NewListScreen creates an unmounted list screen.
func NewListScreen(source Source, printer *view.Printer) *ListScreen {
	return &ListScreen{source: source, printer: printer}
}

// Mount starts fetching the cluster list. Mounting again replaces the
// in-flight fetch.
func (s *ListScreen) Mount(ctx context.Context) {
	s.data.start(ctx, s.source.ListClusters)
}

// Wait blocks until the current fetch completes or ctx is done.
func (s *ListScreen) Wait(ctx context.Context) error {
	return s.data.wait(ctx)
}

// Unmount cancels any in-flight fetch. The screen cannot be mounted again.
func (s *ListScreen) Unmount() {
	s.data.stop()
}

// Status reports the screen's lifecycle state.
func (s *ListScreen) Status() Status {
	_, status := s.data.snapshot()
	return status
}

// Clusters returns the loaded clusters; nil until the fetch is ready.
func (s *ListScreen) Clusters() model.Clusters {
	clusters, _ := s.data.snapshot()
	return clusters
}

// Render draws the current state of the screen.
func (s *ListScreen) Render() error {
	clusters, status := s.data.snapshot()
	switch status {
	case StatusReady:
	case StatusCancelled:
		return ErrCancelled
	default:
		return s.printer.Loading()
	}
	return s.printer.ListView(clusters)
}

// DetailScreen shows a single cluster with its generated ideas.
type DetailScreen struct {
	source  Source
	printer *view.Printer
	id      int64
	data    loader[*model.Cluster]
}

// NewDetailScreen creates an unmounted detail screen for cluster id.
func NewDetailScreen(source Source, printer *view.Printer, id int64) *DetailScreen {
	return &DetailScreen{source: source, printer: printer, id: id}
}

// ID returns the cluster id the screen shows.
func (s *DetailScreen) ID() int64 {
	return s.id
}

// Mount starts fetching the cluster.
func (s *DetailScreen) Mount(ctx context.Context) {
	s.data.start(ctx, func(ctx context.Context) *model.Cluster {
		cluster, ok := s.source.GetCluster(ctx, s.id)
		if !ok {
			return nil
		}
		return cluster
	})
}

// Wait blocks until the current fetch completes or ctx is done.
func (s *DetailScreen) Wait(ctx context.Context) error {
	return s.data.wait(ctx)
}

// Unmount cancels any in-flight fetch. The screen cannot be mounted again.
func (s *DetailScreen) Unmount() {
	s.data.stop()
}

// Status reports the screen's lifecycle state.
func (s *DetailScreen) Status() Status {
	_, status := s.data.snapshot()
	return status
}

// Cluster returns the loaded cluster, or nil when it is absent or not
// loaded yet.
func (s *DetailScreen) Cluster() *model.Cluster {
	cluster, _ := s.data.snapshot()
	return cluster
}

// Render draws the current state of the screen.
func (s *DetailScreen) Render() error {
	cluster, status := s.data.snapshot()
	switch status {
	case StatusReady:
	case StatusCancelled:
		return ErrCancelled
	default:
		return s.printer.Loading()
	}
	return s.printer.DetailView(cluster)
}
