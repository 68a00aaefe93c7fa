package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"studygram/internal/localstore"
	"studygram/internal/models"
	"studygram/internal/netmon"
	"studygram/internal/prefs"
	"studygram/internal/remote"
	"studygram/internal/repository"

	"github.com/stretchr/testify/require"
)

func TestSyncer_PullsOnReconnect(t *testing.T) {
	dir := t.TempDir()
	db, err := localstore.Open(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	pf, err := prefs.Open(filepath.Join(dir, "prefs.json"))
	require.NoError(t, err)

	postStore := localstore.NewPostStore(db)
	net := netmon.NewManual(false)
	rc := remote.NewClient(remote.NewMemStore())
	postRepo := repository.NewPostRepository(postStore, rc, net, pf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, rc.SavePost(ctx, &models.Post{ID: "p1", UserID: "u", Title: "t", Timestamp: 1}))

	syncer := NewSyncer(postRepo, net, time.Hour)
	done := make(chan struct{})
	go func() {
		defer close(done)
		syncer.Run(ctx)
	}()

	// Offline: nothing pulled.
	time.Sleep(20 * time.Millisecond)
	all, err := postStore.All(ctx)
	require.NoError(t, err)
	require.Empty(t, all)

	// Reconnect triggers a pull.
	net.Set(true)
	require.Eventually(t, func() bool {
		all, err := postStore.All(ctx)
		return err == nil && len(all) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestSyncer_PullsAtStartupWhenOnline(t *testing.T) {
	dir := t.TempDir()
	db, err := localstore.Open(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	pf, err := prefs.Open(filepath.Join(dir, "prefs.json"))
	require.NoError(t, err)

	postStore := localstore.NewPostStore(db)
	net := netmon.NewManual(true)
	rc := remote.NewClient(remote.NewMemStore())
	postRepo := repository.NewPostRepository(postStore, rc, net, pf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, rc.SavePost(ctx, &models.Post{ID: "p1", UserID: "u", Title: "t", Timestamp: 1}))

	syncer := NewSyncer(postRepo, net, time.Hour)
	go syncer.Run(ctx)

	require.Eventually(t, func() bool {
		all, err := postStore.All(ctx)
		return err == nil && len(all) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
