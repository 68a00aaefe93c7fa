package service

import (
	"context"
	"time"

	"studygram/internal/netmon"
	"studygram/internal/observability"
	"studygram/internal/repository"
)

// Syncer drives the passive background pull loop: once at startup, again
// on every offline-to-online transition, and on a fixed interval while
// online. Failures are logged and swallowed; the cache keeps serving
// whatever it already holds.
type Syncer struct {
	posts    repository.PostRepository
	net      netmon.Monitor
	interval time.Duration
	logger   *observability.RepoLogger
}

// NewSyncer creates the background sync loop.
func NewSyncer(posts repository.PostRepository, net netmon.Monitor, interval time.Duration) *Syncer {
	return &Syncer{
		posts:    posts,
		net:      net,
		interval: interval,
		logger:   observability.NewRepoLogger("posts"),
	}
}

// Run blocks until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) {
	s.attempt(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	transitions := s.net.Observe()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.attempt(ctx)
		case online, ok := <-transitions:
			if !ok {
				transitions = nil
				continue
			}
			if online {
				s.attempt(ctx)
			}
		}
	}
}

func (s *Syncer) attempt(ctx context.Context) {
	if !s.net.IsAvailable() {
		return
	}
	if err := s.posts.SyncPosts(ctx); err != nil && ctx.Err() == nil {
		s.logger.LogSwallowed(ctx, err, "background_sync")
	}
}
