package repository

import (
	"context"
	"testing"

	"studygram/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLocalOnly_AssignsIDAndTimestamps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.postRepo.CreateLocalOnly(ctx, &models.Post{
		UserID:  "user-1",
		Title:   "Big-O cheat sheet",
		Content: "notes",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotZero(t, created.Timestamp)
	assert.NotZero(t, created.LastUpdated)

	cached, err := f.postRepo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, cached.Title)

	// Local only: nothing was pushed.
	assert.Nil(t, f.remote.post(created.ID))
}

func TestCreatePost_OfflineSucceedsLocally(t *testing.T) {
	f := newFixture(t)
	f.net.Set(false)
	ctx := context.Background()

	post := testPost("", "user-1", 0)
	post.ID = ""
	require.NoError(t, f.postRepo.CreatePost(ctx, post))

	cached, err := f.postRepo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Title, cached.Title)
	assert.Nil(t, f.remote.post(post.ID))
	assert.Zero(t, f.remote.savePostCalls)
}

func TestCreatePost_OnlinePushFailureSurfacesButKeepsLocal(t *testing.T) {
	f := newFixture(t)
	f.remote.failSavePost = models.NewRemoteOperationFailedError(assert.AnError)
	ctx := context.Background()

	post := testPost("p1", "user-1", models.NowMillis())
	err := f.postRepo.CreatePost(ctx, post)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeRemoteOperationFailed))

	// The local copy persists even though the push failed.
	_, err = f.postRepo.GetByID(ctx, "p1")
	assert.NoError(t, err)
}

func TestSyncPostToRemote_OfflineFailsFast(t *testing.T) {
	f := newFixture(t)
	f.net.Set(false)

	err := f.postRepo.SyncPostToRemote(context.Background(), testPost("p1", "user-1", 1))
	assert.True(t, models.HasCode(err, models.CodeNetworkUnavailable))
	assert.Zero(t, f.remote.savePostCalls)
}

func TestGetByID_Missing(t *testing.T) {
	f := newFixture(t)
	_, err := f.postRepo.GetByID(context.Background(), "nope")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestLikePost_ToggleKeepsCountAndSetInStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := testPost("p1", "author", models.NowMillis())
	require.NoError(t, f.posts.Upsert(ctx, post))
	f.remote.putPost(post)

	require.NoError(t, f.postRepo.LikePost(ctx, "p1", "user-1"))
	liked, err := f.postRepo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, liked.Likes)
	assert.True(t, liked.IsLikedBy("user-1"))
	assert.Len(t, liked.LikedByList(), liked.Likes)

	remote := f.remote.post("p1")
	assert.Equal(t, 1, remote.Likes)
	assert.True(t, remote.IsLikedBy("user-1"))

	// Toggling again returns to the original state on both sides.
	require.NoError(t, f.postRepo.LikePost(ctx, "p1", "user-1"))
	unliked, err := f.postRepo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, unliked.Likes)
	assert.False(t, unliked.IsLikedBy("user-1"))
	assert.Equal(t, 0, f.remote.post("p1").Likes)
}

func TestLikePost_RemoteFailureRollsBackCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := testPost("p1", "author", models.NowMillis())
	post.Likes = 2
	post.SetLikedByList([]string{"a", "b"})
	require.NoError(t, f.posts.Upsert(ctx, post))
	f.remote.failLike = models.NewRemoteOperationFailedError(assert.AnError)

	err := f.postRepo.LikePost(ctx, "p1", "user-1")
	require.Error(t, err)

	restored, getErr := f.postRepo.GetByID(ctx, "p1")
	require.NoError(t, getErr)
	assert.Equal(t, 2, restored.Likes)
	assert.False(t, restored.IsLikedBy("user-1"))
	assert.Equal(t, post.LastUpdated, restored.LastUpdated)
}

func TestLikePost_OfflineOptimisticStateStands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := testPost("p1", "author", models.NowMillis())
	require.NoError(t, f.posts.Upsert(ctx, post))
	f.net.Set(false)

	require.NoError(t, f.postRepo.LikePost(ctx, "p1", "user-1"))

	cached, err := f.postRepo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Likes)
	assert.True(t, cached.IsLikedBy("user-1"))
}

func TestLikePost_MissingPost(t *testing.T) {
	f := newFixture(t)
	err := f.postRepo.LikePost(context.Background(), "nope", "user-1")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestDeletePost_RejectedOffline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.posts.Upsert(ctx, testPost("p1", "user-1", 1)))
	f.net.Set(false)

	err := f.postRepo.DeletePost(ctx, "p1")
	assert.True(t, models.HasCode(err, models.CodeOfflineDeleteRejected))

	_, err = f.postRepo.GetByID(ctx, "p1")
	assert.NoError(t, err)
}

func TestDeletePost_RemoteFailureKeepsCacheRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := testPost("p1", "user-1", 1)
	require.NoError(t, f.posts.Upsert(ctx, post))
	f.remote.putPost(post)
	f.remote.failDeletePost = models.NewRemoteOperationFailedError(assert.AnError)

	require.Error(t, f.postRepo.DeletePost(ctx, "p1"))
	_, err := f.postRepo.GetByID(ctx, "p1")
	assert.NoError(t, err)
}

func TestDeletePost_OnlineRemovesBothSides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := testPost("p1", "user-1", 1)
	require.NoError(t, f.posts.Upsert(ctx, post))
	f.remote.putPost(post)

	require.NoError(t, f.postRepo.DeletePost(ctx, "p1"))
	_, err := f.postRepo.GetByID(ctx, "p1")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.Nil(t, f.remote.post("p1"))
}

func TestUpdatePost_AdvancesCursorAndPushesFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := testPost("p1", "user-1", 100)
	require.NoError(t, f.posts.Upsert(ctx, post))
	f.remote.putPost(post)

	post.Title = "Integration by substitution"
	require.NoError(t, f.postRepo.UpdatePost(ctx, post))

	cached, err := f.postRepo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Integration by substitution", cached.Title)
	assert.Greater(t, cached.LastUpdated, int64(100))
	assert.Equal(t, "Integration by substitution", f.remote.post("p1").Title)
}

func TestSyncPosts_OfflineFailsFast(t *testing.T) {
	f := newFixture(t)
	f.net.Set(false)
	err := f.postRepo.SyncPosts(context.Background())
	assert.True(t, models.HasCode(err, models.CodeNetworkUnavailable))
}

func TestSyncPosts_FirstPullIsFullAndAdvancesCursor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.putPost(testPost("p1", "alice", 100))
	f.remote.putPost(testPost("p2", "bob", 250))

	require.NoError(t, f.postRepo.SyncPosts(ctx))
	assert.Equal(t, 1, f.remote.allPostsCalls)
	assert.Equal(t, int64(250), f.prefs.LastSyncTimestamp())

	all, err := f.posts.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSyncPosts_IncrementalPullIsCursorBounded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.putPost(testPost("p1", "alice", 100))
	require.NoError(t, f.postRepo.SyncPosts(ctx))
	require.Equal(t, int64(100), f.prefs.LastSyncTimestamp())

	// Second pull only asks for documents beyond the cursor.
	f.remote.putPost(testPost("p2", "bob", 300))
	require.NoError(t, f.postRepo.SyncPosts(ctx))
	assert.Equal(t, 1, f.remote.updatedAfterCalls)
	assert.Equal(t, int64(100), f.remote.lastUpdatedAfter)
	assert.Equal(t, int64(300), f.prefs.LastSyncTimestamp())
}

func TestSyncPosts_EmptyBatchLeavesCursorUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.putPost(testPost("p1", "alice", 100))
	require.NoError(t, f.postRepo.SyncPosts(ctx))

	require.NoError(t, f.postRepo.SyncPosts(ctx))
	assert.Equal(t, int64(100), f.prefs.LastSyncTimestamp())
}

func TestSyncPosts_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.putPost(testPost("p1", "alice", 100))

	require.NoError(t, f.postRepo.SyncPosts(ctx))
	require.NoError(t, f.postRepo.SyncPosts(ctx))

	all, err := f.posts.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSyncPosts_PulledRowOverwritesOfflineEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Remote truth, synced once.
	remotePost := testPost("p1", "alice", 500)
	remotePost.Title = "remote title"
	f.remote.putPost(remotePost)
	require.NoError(t, f.postRepo.SyncPosts(ctx))

	// Offline edit never reaches the remote store.
	f.net.Set(false)
	edited := *remotePost
	edited.Title = "offline edit"
	require.NoError(t, f.postRepo.UpdatePost(ctx, &edited))

	// Zero the cursor so the next pull re-delivers p1: the pulled row
	// wins unconditionally and the offline edit is gone.
	f.net.Set(true)
	require.NoError(t, f.prefs.SetLastSyncTimestamp(0))
	require.NoError(t, f.postRepo.SyncPosts(ctx))

	cached, err := f.postRepo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "remote title", cached.Title)
}

func TestRefreshPosts_ReplacesWholeTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A local-only row the remote store never saw.
	require.NoError(t, f.posts.Upsert(ctx, testPost("stale", "ghost", 1)))
	f.remote.putPost(testPost("p1", "alice", 400))

	require.NoError(t, f.postRepo.RefreshPosts(ctx))

	all, err := f.posts.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "p1", all[0].ID)
	assert.Equal(t, int64(400), f.prefs.LastSyncTimestamp())
}

func TestRefreshPosts_EmptyRemoteClearsCacheKeepsCursor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.prefs.SetLastSyncTimestamp(123))
	require.NoError(t, f.posts.Upsert(ctx, testPost("p1", "alice", 1)))

	require.NoError(t, f.postRepo.RefreshPosts(ctx))

	all, err := f.posts.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, int64(123), f.prefs.LastSyncTimestamp())
}

func TestObserveAll_DeliversCacheWrites(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := f.postRepo.ObserveAll(ctx)
	assert.Empty(t, <-ch)

	require.NoError(t, f.posts.Upsert(ctx, testPost("p1", "alice", 1)))
	got := <-ch
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)
}
