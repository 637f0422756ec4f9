package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ego/imaginAIry/internal/animation"
	"github.com/ego/imaginAIry/internal/domain/entity"
	"github.com/ego/imaginAIry/internal/domain/port"
	"github.com/ego/imaginAIry/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type RenderAnimationUseCase struct {
	repo      port.JobRepository
	storage   port.FrameStorage
	renderer  port.AnimationRenderer
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	tempDir   string
	maxRetry  int
}

type RenderAnimationConfig struct {
	TempDir    string
	MaxRetries int
}

func NewRenderAnimationUseCase(
	repo port.JobRepository,
	storage port.FrameStorage,
	renderer port.AnimationRenderer,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg RenderAnimationConfig,
) *RenderAnimationUseCase {
	return &RenderAnimationUseCase{
		repo:      repo,
		storage:   storage,
		renderer:  renderer,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		tempDir:   cfg.TempDir,
		maxRetry:  cfg.MaxRetries,
	}
}

func (uc *RenderAnimationUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "RenderAnimationUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.RenderRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.output_key", msg.OutputKey),
		attribute.String("job.mode", string(msg.Mode)),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("output_key", msg.OutputKey))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewJob(msg.UserID, msg.Mode, msg.FrameKeys, msg.OutputKey, uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if reason, ok := validateRequest(msg); !ok {
		log.Warn("invalid render request", zap.String("reason", reason))
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, reason)
		return nil
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.renderPipeline(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.RenderDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

// validateRequest rejects requests no amount of retrying can fix.
func validateRequest(msg entity.RenderRequestMessage) (string, bool) {
	if len(msg.FrameKeys) == 0 {
		return "no frame keys", false
	}
	switch msg.Mode {
	case entity.RenderModeBounce, entity.RenderModeSlideshow:
	default:
		return fmt.Sprintf("unknown render mode %q", msg.Mode), false
	}
	ext := outputExtension(msg.OutputKey)
	if !animation.SupportsExtension(ext) {
		return fmt.Sprintf("unsupported output extension %q", ext), false
	}
	if len(msg.Captions) > 0 {
		// Bounce reorders and duplicates frames, so captions are only
		// meaningful for slideshows where counts line up one-to-one.
		if msg.Mode != entity.RenderModeSlideshow {
			return "captions are only supported for slideshow renders", false
		}
		if len(msg.Captions) != len(msg.FrameKeys) {
			return fmt.Sprintf("%d captions for %d frames", len(msg.Captions), len(msg.FrameKeys)), false
		}
	}
	return "", true
}

func (uc *RenderAnimationUseCase) renderPipeline(
	ctx context.Context,
	job *entity.Job,
	msg entity.RenderRequestMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.tempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download source frames from object storage
	dlStart := time.Now()
	ctx2, spanDl := tracer.Start(ctx, "download_frames")
	frames, err := uc.downloadFrames(ctx2, msg.FrameKeys, workDir)
	if err != nil {
		spanDl.End()
		log.Error("failed to download frames", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_frames: "+err.Error(), log)
	}
	spanDl.End()
	metrics.RenderDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Assemble the sequence
	asStart := time.Now()
	_, spanAs := tracer.Start(ctx, "assemble_sequence")
	seq, err := assembleSequence(frames, msg)
	spanAs.End()
	if err != nil {
		log.Error("sequence assembly failed", zap.Error(err))
		if errors.Is(err, animation.ErrNoFrames) {
			_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "assemble_sequence: "+err.Error())
			return nil
		}
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "assemble_sequence: "+err.Error(), log)
	}
	metrics.RenderDuration.WithLabelValues("assemble").Observe(time.Since(asStart).Seconds())

	// Encode to the output format
	encStart := time.Now()
	ctx3, spanEnc := tracer.Start(ctx, "encode_animation")
	ext := outputExtension(msg.OutputKey)
	outPath := filepath.Join(workDir, "animation."+ext)
	err = uc.renderer.Render(ctx3, seq, outPath, msg.Captions)
	spanEnc.End()
	if err != nil {
		log.Error("animation encoding failed", zap.Error(err))
		if errors.Is(err, animation.ErrCaptionMismatch) || errors.Is(err, animation.ErrNoFrames) {
			_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "encode_animation: "+err.Error())
			return nil
		}
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "encode_animation: "+err.Error(), log)
	}
	metrics.RenderDuration.WithLabelValues("encode").Observe(time.Since(encStart).Seconds())
	metrics.FramesEncodedTotal.Add(float64(seq.Len()))

	// Upload the artifact
	upStart := time.Now()
	ctx4, spanUp := tracer.Start(ctx, "upload_artifact")
	artifactKey := fmt.Sprintf("%s/animation_%s.%s", msg.UserID, job.ID.String(), ext)
	outFile, err := os.Open(outPath)
	if err != nil {
		spanUp.End()
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "open_artifact: "+err.Error(), log)
	}
	outStat, err := outFile.Stat()
	if err != nil {
		outFile.Close()
		spanUp.End()
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "stat_artifact: "+err.Error(), log)
	}
	if err := uc.storage.UploadArtifact(ctx4, artifactKey, outFile, outStat.Size(), contentTypeFor(ext)); err != nil {
		outFile.Close()
		spanUp.End()
		log.Error("artifact upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_artifact: "+err.Error(), log)
	}
	outFile.Close()
	spanUp.End()
	metrics.RenderDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	job.MarkCompleted(artifactKey, seq.Len())
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	log.Info("job completed successfully",
		zap.Int("frame_count", seq.Len()),
		zap.String("artifact_key", artifactKey),
	)

	return nil
}

func (uc *RenderAnimationUseCase) downloadFrames(ctx context.Context, keys []string, workDir string) ([]animation.Frame, error) {
	framesDir := filepath.Join(workDir, "frames")
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return nil, fmt.Errorf("create frames dir: %w", err)
	}

	frames := make([]animation.Frame, len(keys))
	for i, key := range keys {
		destPath := filepath.Join(framesDir, fmt.Sprintf("frame_%04d%s", i, filepath.Ext(key)))
		if err := uc.storage.DownloadFrame(ctx, key, destPath); err != nil {
			return nil, fmt.Errorf("download frame %s: %w", key, err)
		}
		frames[i] = animation.FromFile(destPath)
	}
	return frames, nil
}

func assembleSequence(frames []animation.Frame, msg entity.RenderRequestMessage) (*animation.Sequence, error) {
	switch msg.Mode {
	case entity.RenderModeBounce:
		return animation.Bounce(frames, animation.BounceOptions{
			TransitionDuration: time.Duration(msg.TransitionMs) * time.Millisecond,
			StartPause:         time.Duration(msg.StartPauseMs) * time.Millisecond,
			EndPause:           time.Duration(msg.EndPauseMs) * time.Millisecond,
			MaxFPS:             msg.MaxFPS,
		})
	case entity.RenderModeSlideshow:
		return animation.Slideshow(frames, time.Duration(msg.ImagePauseMs)*time.Millisecond)
	default:
		return nil, fmt.Errorf("unknown render mode %q", msg.Mode)
	}
}

func outputExtension(key string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(key), "."))
}

func contentTypeFor(ext string) string {
	switch ext {
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "png", "apng":
		return "image/apng"
	case "mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

func (uc *RenderAnimationUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.RenderRequestMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *RenderAnimationUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.RenderRequestMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.OutputKey, errMsg)
	}

	return nil
}

func (uc *RenderAnimationUseCase) publishStatus(ctx context.Context, job *entity.Job, log *zap.Logger) {
	statusMsg := entity.RenderStatusMessage{
		JobID:        job.ID,
		UserID:       job.UserID,
		Status:       job.Status,
		OutputKey:    job.OutputKey,
		ArtifactKey:  job.ArtifactKey,
		FrameCount:   job.FrameCount,
		ErrorMessage: job.ErrorMessage,
		Attempt:      job.Attempt,
		MaxAttempts:  job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
