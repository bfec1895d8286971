package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/pders01/aihub/internal/api"
	"github.com/pders01/aihub/internal/content"
	"golang.org/x/sync/errgroup"
)

const prefetchConcurrency = 4

// Prefetch warms the unfiltered list of each kind concurrently. Every kind
// is attempted; the first error is returned.
func (h *Hub) Prefetch(ctx context.Context, kinds ...content.Kind) error {
	if len(kinds) == 0 {
		kinds = content.Kinds()
	}
	var g errgroup.Group
	g.SetLimit(prefetchConcurrency)
	for _, kind := range kinds {
		g.Go(func() error {
			if _, err := h.Fetch(ctx, content.AllOf(kind)); err != nil {
				return fmt.Errorf("prefetching %s: %w", kind.Collection(), err)
			}
			return nil
		})
	}
	err := g.Wait()
	st := h.lists.Stats()
	h.log.Debugf("prefetched %d kinds: hits=%d misses=%d joins=%d fetches=%d", len(kinds), st.Hits, st.Misses, st.Joins, st.Fetches)
	return err
}

// Failure says how a view should react to an error.
type Failure int

const (
	FailureNone Failure = iota
	// FailureAuth routes to the login view without an error banner.
	FailureAuth
	// FailureRetryable shows a banner with a retry hint.
	FailureRetryable
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureAuth:
		return "auth"
	default:
		return "retryable"
	}
}

func Classify(err error) Failure {
	switch {
	case err == nil:
		return FailureNone
	case api.IsAuth(err):
		return FailureAuth
	default:
		return FailureRetryable
	}
}

// Describe is the banner text for a retryable failure.
func Describe(err error) string {
	var se *api.StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to answer. Press r to retry."
	case errors.As(err, &se):
		return fmt.Sprintf("%s. Press r to retry.", se.Message)
	default:
		return fmt.Sprintf("Could not reach the server (%v). Press r to retry.", err)
	}
}
