package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"testing"

	"github.com/ego/imaginAIry/internal/animation"
	"github.com/ego/imaginAIry/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	jobs map[uuid.UUID]*entity.Job
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{jobs: make(map[uuid.UUID]*entity.Job)}
}

func (r *fakeRepo) Create(_ context.Context, job *entity.Job) error {
	r.jobs[job.ID] = job
	return nil
}

func (r *fakeRepo) Update(_ context.Context, job *entity.Job) error {
	r.jobs[job.ID] = job
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Job, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return job, nil
}

type fakeStorage struct {
	downloadErr error
	uploadErr   error
	uploads     map[string]int64
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: make(map[string]int64)}
}

func (s *fakeStorage) DownloadFrame(_ context.Context, objectKey string, destPath string) error {
	if s.downloadErr != nil {
		return s.downloadErr
	}
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	img.SetRGBA(1, 1, color.RGBA{R: 0xff, A: 0xff})
	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func (s *fakeStorage) UploadArtifact(_ context.Context, objectKey string, reader io.Reader, size int64, _ string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return err
	}
	s.uploads[objectKey] = size
	return nil
}

type fakePublisher struct {
	statuses []entity.RenderStatusMessage
}

func (p *fakePublisher) PublishStatus(_ context.Context, msg []byte) error {
	var status entity.RenderStatusMessage
	if err := json.Unmarshal(msg, &status); err != nil {
		return err
	}
	p.statuses = append(p.statuses, status)
	return nil
}

type fakeDLQ struct {
	reasons []string
}

func (d *fakeDLQ) PublishToDLQ(_ context.Context, _ []byte, reason string) error {
	d.reasons = append(d.reasons, reason)
	return nil
}

type fakeNotifier struct {
	notified []string
}

func (n *fakeNotifier) NotifyFailure(_ context.Context, userEmail, _, _, _ string) error {
	n.notified = append(n.notified, userEmail)
	return nil
}

type harness struct {
	uc       *RenderAnimationUseCase
	repo     *fakeRepo
	storage  *fakeStorage
	pub      *fakePublisher
	dlq      *fakeDLQ
	notifier *fakeNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		repo:     newFakeRepo(),
		storage:  newFakeStorage(),
		pub:      &fakePublisher{},
		dlq:      &fakeDLQ{},
		notifier: &fakeNotifier{},
	}
	h.uc = NewRenderAnimationUseCase(
		h.repo, h.storage,
		animation.NewRenderer(30, "libx264", zap.NewNop()),
		h.pub, h.dlq, h.notifier,
		zap.NewNop(),
		RenderAnimationConfig{TempDir: t.TempDir(), MaxRetries: 3},
	)
	return h
}

func renderMsg(mode entity.RenderMode, outputKey string, frames int) entity.RenderRequestMessage {
	keys := make([]string, frames)
	for i := range keys {
		keys[i] = fmt.Sprintf("user/frame_%02d.png", i)
	}
	return entity.RenderRequestMessage{
		JobID:     uuid.New(),
		UserID:    "user",
		Mode:      mode,
		FrameKeys: keys,
		OutputKey: outputKey,
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestExecuteSlideshowGIF(t *testing.T) {
	h := newHarness(t)
	msg := renderMsg(entity.RenderModeSlideshow, "user/out.gif", 4)
	msg.ImagePauseMs = 500

	err := h.uc.Execute(context.Background(), mustMarshal(t, msg))
	require.NoError(t, err)

	job, err := h.repo.FindByID(context.Background(), msg.JobID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
	assert.Equal(t, 4, job.FrameCount)
	assert.NotEmpty(t, job.ArtifactKey)

	size, ok := h.storage.uploads[job.ArtifactKey]
	require.True(t, ok, "artifact should be uploaded")
	assert.Positive(t, size)

	require.NotEmpty(t, h.pub.statuses)
	last := h.pub.statuses[len(h.pub.statuses)-1]
	assert.Equal(t, entity.JobStatusCompleted, last.Status)
}

func TestExecuteBounce(t *testing.T) {
	h := newHarness(t)
	msg := renderMsg(entity.RenderModeBounce, "user/out.gif", 6)
	msg.TransitionMs = 500
	msg.MaxFPS = 20

	err := h.uc.Execute(context.Background(), mustMarshal(t, msg))
	require.NoError(t, err)

	job, err := h.repo.FindByID(context.Background(), msg.JobID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
	// first + 4 middle + last + 4 reversed middle
	assert.Equal(t, 10, job.FrameCount)
}

func TestExecuteMalformedMessage(t *testing.T) {
	h := newHarness(t)

	err := h.uc.Execute(context.Background(), []byte(`{invalid json`))
	require.NoError(t, err, "malformed messages are not retried")

	assert.Len(t, h.dlq.reasons, 1)
	assert.Contains(t, h.dlq.reasons[0], "unmarshal_error")
}

func TestExecuteUnsupportedExtension(t *testing.T) {
	h := newHarness(t)
	msg := renderMsg(entity.RenderModeSlideshow, "user/out.avi", 2)
	msg.UserEmail = "user@example.com"

	err := h.uc.Execute(context.Background(), mustMarshal(t, msg))
	require.NoError(t, err, "permanent failures are not retried")

	job, findErr := h.repo.FindByID(context.Background(), msg.JobID)
	require.NoError(t, findErr)
	assert.Equal(t, entity.JobStatusFailed, job.Status)
	assert.Contains(t, job.ErrorMessage, "unsupported output extension")

	assert.Len(t, h.dlq.reasons, 1)
	assert.Equal(t, []string{"user@example.com"}, h.notifier.notified)
}

func TestExecuteCaptionsRejectedForBounce(t *testing.T) {
	h := newHarness(t)
	msg := renderMsg(entity.RenderModeBounce, "user/out.gif", 3)
	msg.Captions = []string{"a", "b", "c"}

	err := h.uc.Execute(context.Background(), mustMarshal(t, msg))
	require.NoError(t, err)

	job, findErr := h.repo.FindByID(context.Background(), msg.JobID)
	require.NoError(t, findErr)
	assert.Equal(t, entity.JobStatusFailed, job.Status)
}

func TestExecuteSlideshowWithCaptions(t *testing.T) {
	h := newHarness(t)
	msg := renderMsg(entity.RenderModeSlideshow, "user/out.gif", 3)
	msg.Captions = []string{"first", "second", "third"}

	err := h.uc.Execute(context.Background(), mustMarshal(t, msg))
	require.NoError(t, err)

	job, findErr := h.repo.FindByID(context.Background(), msg.JobID)
	require.NoError(t, findErr)
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
}

func TestExecuteCaptionCountMismatch(t *testing.T) {
	h := newHarness(t)
	msg := renderMsg(entity.RenderModeSlideshow, "user/out.gif", 3)
	msg.Captions = []string{"only one"}

	err := h.uc.Execute(context.Background(), mustMarshal(t, msg))
	require.NoError(t, err)

	job, findErr := h.repo.FindByID(context.Background(), msg.JobID)
	require.NoError(t, findErr)
	assert.Equal(t, entity.JobStatusFailed, job.Status)
	assert.Empty(t, h.storage.uploads, "no artifact may be written on caption mismatch")
}

func TestExecuteDownloadFailureIsRetryable(t *testing.T) {
	h := newHarness(t)
	h.storage.downloadErr = errors.New("object not found")
	msg := renderMsg(entity.RenderModeSlideshow, "user/out.gif", 2)

	err := h.uc.Execute(context.Background(), mustMarshal(t, msg))
	require.Error(t, err, "retryable failures are returned for requeue")

	job, findErr := h.repo.FindByID(context.Background(), msg.JobID)
	require.NoError(t, findErr)
	assert.Equal(t, entity.JobStatusFailed, job.Status)
	assert.True(t, job.CanRetry())
	assert.Empty(t, h.dlq.reasons)
}

func TestExecuteUploadFailureIsRetryable(t *testing.T) {
	h := newHarness(t)
	h.storage.uploadErr = errors.New("connection reset")
	msg := renderMsg(entity.RenderModeSlideshow, "user/out.gif", 2)

	err := h.uc.Execute(context.Background(), mustMarshal(t, msg))
	require.Error(t, err, "retryable failures are returned for requeue")

	job, findErr := h.repo.FindByID(context.Background(), msg.JobID)
	require.NoError(t, findErr)
	assert.Equal(t, entity.JobStatusFailed, job.Status)
	assert.True(t, job.CanRetry())
	assert.Empty(t, h.storage.uploads)
}

func TestExecuteExhaustedRetriesGoToDLQ(t *testing.T) {
	h := newHarness(t)
	h.storage.downloadErr = errors.New("object not found")
	msg := renderMsg(entity.RenderModeSlideshow, "user/out.gif", 2)
	raw := mustMarshal(t, msg)

	for i := 0; i < 2; i++ {
		err := h.uc.Execute(context.Background(), raw)
		require.Error(t, err)
	}
	// The final attempt exhausts the budget and routes to the DLQ.
	err := h.uc.Execute(context.Background(), raw)
	require.NoError(t, err)

	assert.Len(t, h.dlq.reasons, 1)
	job, findErr := h.repo.FindByID(context.Background(), msg.JobID)
	require.NoError(t, findErr)
	assert.False(t, job.CanRetry())
}
