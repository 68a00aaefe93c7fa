// Package uploader runs the detached post-image pipeline: compress the
// raw image, upload the blob, patch the cached post with the blob URL,
// push the full document remotely. The pipeline is fire-and-forget from
// the caller's point of view and holds no persistent queue: work in
// flight when the process exits is lost, and the post simply stays
// local-only until a later push.
package uploader

import (
	"context"
	"sync"

	"studygram/internal/blob"
	"studygram/internal/imaging"
	"studygram/internal/models"
	"studygram/internal/observability"

	"github.com/google/uuid"
)

const (
	stageCompress = "compress"
	stageUpload   = "upload"
	stagePatch    = "patch_local"
	stagePush     = "push_remote"
)

// PostWriter is the slice of the post coordinator the pipeline needs.
type PostWriter interface {
	CreateLocalOnly(ctx context.Context, post *models.Post) (*models.Post, error)
	SyncPostToRemote(ctx context.Context, post *models.Post) error
}

// Pipeline executes detached upload jobs.
type Pipeline struct {
	codec imaging.Codec
	blobs blob.Storage
	posts PostWriter
	wg    sync.WaitGroup
}

// NewPipeline wires the pipeline stages together.
func NewPipeline(codec imaging.Codec, blobs blob.Storage, posts PostWriter) *Pipeline {
	return &Pipeline{codec: codec, blobs: blobs, posts: posts}
}

// Dispatch schedules one upload job and returns immediately. The job runs
// on a fresh background context: it deliberately outlives the request that
// spawned it. Every stage failure is logged and skips only that stage; the
// remote metadata push is attempted regardless so a post without an image
// still reaches the remote store.
func (p *Pipeline) Dispatch(post *models.Post, rawImage []byte) {
	job := *post
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(context.Background(), &job, rawImage)
	}()
}

// Wait blocks until all dispatched jobs have finished. Used on shutdown.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) run(ctx context.Context, post *models.Post, rawImage []byte) {
	observability.LogAsyncOperationStart(ctx, "upload_pipeline", map[string]interface{}{"post_id": post.ID})

	compressed := p.compress(ctx, post.ID, rawImage)
	if len(compressed) > 0 {
		if url, ok := p.upload(ctx, post, compressed); ok {
			post.ImageURL = url
			p.patchLocal(ctx, post)
		}
	}
	p.pushRemote(ctx, post)

	observability.LogAsyncOperationEnd(ctx, "upload_pipeline", map[string]interface{}{"post_id": post.ID, "image_url": post.ImageURL})
}

// compress returns nil both when there is no image and when compression
// fails; in either case the upload stage is skipped.
func (p *Pipeline) compress(ctx context.Context, postID string, rawImage []byte) []byte {
	compressed, err := p.codec.Compress(rawImage)
	if err != nil {
		observability.UploadPipelineStagesTotal.WithLabelValues(stageCompress, observability.ResultError).Inc()
		observability.LogAsyncOperationError(ctx, "upload_pipeline", err, map[string]interface{}{"post_id": postID, "stage": stageCompress})
		return nil
	}
	observability.UploadPipelineStagesTotal.WithLabelValues(stageCompress, observability.ResultOK).Inc()
	return compressed
}

func (p *Pipeline) upload(ctx context.Context, post *models.Post, compressed []byte) (string, bool) {
	name := post.UserID + "_" + uuid.New().String() + ".webp"
	url, err := p.blobs.Upload(ctx, post.UserID, name, compressed)
	if err != nil {
		observability.UploadPipelineStagesTotal.WithLabelValues(stageUpload, observability.ResultError).Inc()
		observability.LogAsyncOperationError(ctx, "upload_pipeline", err, map[string]interface{}{"post_id": post.ID, "stage": stageUpload})
		return "", false
	}
	observability.UploadPipelineStagesTotal.WithLabelValues(stageUpload, observability.ResultOK).Inc()
	return url, true
}

func (p *Pipeline) patchLocal(ctx context.Context, post *models.Post) {
	if _, err := p.posts.CreateLocalOnly(ctx, post); err != nil {
		observability.UploadPipelineStagesTotal.WithLabelValues(stagePatch, observability.ResultError).Inc()
		observability.LogAsyncOperationError(ctx, "upload_pipeline", err, map[string]interface{}{"post_id": post.ID, "stage": stagePatch})
		return
	}
	observability.UploadPipelineStagesTotal.WithLabelValues(stagePatch, observability.ResultOK).Inc()
}

func (p *Pipeline) pushRemote(ctx context.Context, post *models.Post) {
	if err := p.posts.SyncPostToRemote(ctx, post); err != nil {
		observability.UploadPipelineStagesTotal.WithLabelValues(stagePush, observability.ResultError).Inc()
		observability.LogAsyncOperationError(ctx, "upload_pipeline", err, map[string]interface{}{"post_id": post.ID, "stage": stagePush})
		return
	}
	observability.UploadPipelineStagesTotal.WithLabelValues(stagePush, observability.ResultOK).Inc()
}
