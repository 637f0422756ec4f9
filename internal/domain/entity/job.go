package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// RenderMode selects how the input frames are arranged into a sequence.
type RenderMode string

const (
	// RenderModeBounce plays the frames forward then backward, pausing
	// at both ends.
	RenderModeBounce RenderMode = "bounce"
	// RenderModeSlideshow shows each frame for the same fixed duration.
	RenderModeSlideshow RenderMode = "slideshow"
)

// Job tracks one animation render request through its lifecycle.
type Job struct {
	ID           uuid.UUID
	UserID       string
	Mode         RenderMode
	FrameKeys    []string
	OutputKey    string
	ArtifactKey  string
	Status       JobStatus
	FrameCount   int
	Attempt      int
	MaxAttempts  int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

func NewJob(userID string, mode RenderMode, frameKeys []string, outputKey string, maxAttempts int) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:          uuid.New(),
		UserID:      userID,
		Mode:        mode,
		FrameKeys:   frameKeys,
		OutputKey:   outputKey,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *Job) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) MarkCompleted(artifactKey string, frameCount int) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.ArtifactKey = artifactKey
	j.FrameCount = frameCount
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *Job) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
