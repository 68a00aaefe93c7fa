package uploader

import (
	"context"
	"strings"
	"sync"
	"testing"

	"studygram/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCodec struct {
	out []byte
	err error
}

func (f *fakeCodec) Compress(raw []byte) ([]byte, error) { return f.out, f.err }

type fakeBlobs struct {
	mu      sync.Mutex
	err     error
	uploads []string
}

func (f *fakeBlobs) Upload(ctx context.Context, ownerID, name string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, name)
	return "/media/" + ownerID + "/" + name, nil
}

func (f *fakeBlobs) Delete(ctx context.Context, url string) error { return nil }

type fakeWriter struct {
	mu      sync.Mutex
	patched []*models.Post
	pushed  []*models.Post
	pushErr error
}

func (f *fakeWriter) CreateLocalOnly(ctx context.Context, post *models.Post) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *post
	f.patched = append(f.patched, &cp)
	return post, nil
}

func (f *fakeWriter) SyncPostToRemote(ctx context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *post
	f.pushed = append(f.pushed, &cp)
	return f.pushErr
}

func TestPipeline_FullRunPatchesURLAndPushes(t *testing.T) {
	codec := &fakeCodec{out: []byte("webp-bytes")}
	blobs := &fakeBlobs{}
	writer := &fakeWriter{}
	p := NewPipeline(codec, blobs, writer)

	p.Dispatch(&models.Post{ID: "p1", UserID: "user-1", Title: "t"}, []byte("raw"))
	p.Wait()

	require.Len(t, blobs.uploads, 1)
	assert.True(t, strings.HasPrefix(blobs.uploads[0], "user-1_"))
	assert.True(t, strings.HasSuffix(blobs.uploads[0], ".webp"))

	require.Len(t, writer.patched, 1)
	assert.Contains(t, writer.patched[0].ImageURL, "/media/user-1/")

	require.Len(t, writer.pushed, 1)
	assert.Equal(t, writer.patched[0].ImageURL, writer.pushed[0].ImageURL)
}

func TestPipeline_NoImageStillPushesMetadata(t *testing.T) {
	codec := &fakeCodec{out: nil}
	blobs := &fakeBlobs{}
	writer := &fakeWriter{}
	p := NewPipeline(codec, blobs, writer)

	p.Dispatch(&models.Post{ID: "p1", UserID: "user-1", Title: "t"}, nil)
	p.Wait()

	assert.Empty(t, blobs.uploads)
	assert.Empty(t, writer.patched)
	require.Len(t, writer.pushed, 1)
	assert.Empty(t, writer.pushed[0].ImageURL)
}

func TestPipeline_CompressFailureSkipsUploadNotPush(t *testing.T) {
	codec := &fakeCodec{err: assert.AnError}
	blobs := &fakeBlobs{}
	writer := &fakeWriter{}
	p := NewPipeline(codec, blobs, writer)

	p.Dispatch(&models.Post{ID: "p1", UserID: "user-1", Title: "t"}, []byte("garbage"))
	p.Wait()

	assert.Empty(t, blobs.uploads)
	require.Len(t, writer.pushed, 1)
	assert.Empty(t, writer.pushed[0].ImageURL)
}

func TestPipeline_UploadFailureSkipsPatchNotPush(t *testing.T) {
	codec := &fakeCodec{out: []byte("webp-bytes")}
	blobs := &fakeBlobs{err: assert.AnError}
	writer := &fakeWriter{}
	p := NewPipeline(codec, blobs, writer)

	p.Dispatch(&models.Post{ID: "p1", UserID: "user-1", Title: "t"}, []byte("raw"))
	p.Wait()

	assert.Empty(t, writer.patched)
	require.Len(t, writer.pushed, 1)
	assert.Empty(t, writer.pushed[0].ImageURL)
}

func TestPipeline_PushFailureIsSwallowed(t *testing.T) {
	codec := &fakeCodec{out: nil}
	writer := &fakeWriter{pushErr: models.NewNetworkUnavailableError(nil)}
	p := NewPipeline(codec, &fakeBlobs{}, writer)

	p.Dispatch(&models.Post{ID: "p1", UserID: "user-1", Title: "t"}, nil)
	p.Wait()

	// The job completes; the post simply stays local-only.
	require.Len(t, writer.pushed, 1)
}

func TestPipeline_DispatchCopiesPost(t *testing.T) {
	codec := &fakeCodec{out: []byte("webp-bytes")}
	writer := &fakeWriter{}
	p := NewPipeline(codec, &fakeBlobs{}, writer)

	post := &models.Post{ID: "p1", UserID: "user-1", Title: "t"}
	p.Dispatch(post, []byte("raw"))
	p.Wait()

	// The caller's struct is never mutated by the detached job.
	assert.Empty(t, post.ImageURL)
}
