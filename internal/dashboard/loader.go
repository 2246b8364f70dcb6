// Package dashboard ties cluster fetches to the lifetime of the view that
// shows them. A mounted screen owns exactly one in-flight fetch; unmounting
// cancels it and drops whatever it returns afterwards.
package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/pep299/idea-validator/internal/model"
)

// Source is the read side of the aggregation service.
type Source interface {
	ListClusters(ctx context.Context) model.Clusters
	GetCluster(ctx context.Context, id int64) (*model.Cluster, bool)
}

// ErrCancelled is returned when rendering a screen whose fetch was
// cancelled by the context it was mounted with.
var ErrCancelled = errors.New("dashboard: fetch cancelled")

// Status is the lifecycle state of a screen.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusCancelled
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusCancelled:
		return "cancelled"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// loader owns the result slot of one screen. Each start bumps the
// generation; only the fetch of the current generation may write the slot.
type loader[T any] struct {
	mu     sync.Mutex
	status Status
	value  T
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

func (l *loader[T]) start(parent context.Context, fetch func(context.Context) T) {
	l.mu.Lock()
	if l.status == StatusClosed {
		l.mu.Unlock()
		return
	}
	prevCancel, prevDone := l.cancel, l.done

	ctx, cancel := context.WithCancel(parent)
	l.gen++
	gen := l.gen
	done := make(chan struct{})
	l.cancel, l.done = cancel, done
	l.status = StatusLoading
	var zero T
	l.value = zero
	l.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
		<-prevDone
	}

	go func() {
		defer close(done)
		value := fetch(ctx)

		l.mu.Lock()
		defer l.mu.Unlock()
		if gen != l.gen {
			return
		}
		if ctx.Err() != nil {
			// the mount context went away; the screen was not replaced or stopped
			l.status = StatusCancelled
			return
		}
		l.value = value
		l.status = StatusReady
	}()
}

// wait blocks until the current fetch finishes or ctx is done.
func (l *loader[T]) wait(ctx context.Context) error {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop cancels the in-flight fetch, waits for its goroutine to exit and
// closes the slot for good.
func (l *loader[T]) stop() {
	l.mu.Lock()
	if l.status == StatusClosed {
		l.mu.Unlock()
		return
	}
	l.gen++
	l.status = StatusClosed
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	var zero T
	l.value = zero
	l.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (l *loader[T]) snapshot() (T, Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.status
}
