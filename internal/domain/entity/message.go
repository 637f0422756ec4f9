package entity

import "github.com/google/uuid"

// RenderRequestMessage is the inbound message from the animation.render
// queue. FrameKeys are object keys of the still frames, in display order,
// and the OutputKey extension selects the encoder (gif, webp, png, mp4).
type RenderRequestMessage struct {
	JobID     uuid.UUID  `json:"job_id"`
	UserID    string     `json:"user_id"`
	Mode      RenderMode `json:"mode"`
	FrameKeys []string   `json:"frame_keys"`
	OutputKey string     `json:"output_key"`
	Captions  []string   `json:"captions,omitempty"`
	UserEmail string     `json:"user_email,omitempty"`

	// Bounce tuning; zero values fall back to defaults.
	TransitionMs int `json:"transition_ms,omitempty"`
	StartPauseMs int `json:"start_pause_ms,omitempty"`
	EndPauseMs   int `json:"end_pause_ms,omitempty"`
	MaxFPS       int `json:"max_fps,omitempty"`

	// Slideshow tuning; zero falls back to the default.
	ImagePauseMs int `json:"image_pause_ms,omitempty"`
}

// RenderStatusMessage is the outbound message published to the
// animation.status queue.
type RenderStatusMessage struct {
	JobID        uuid.UUID `json:"job_id"`
	UserID       string    `json:"user_id"`
	Status       JobStatus `json:"status"`
	OutputKey    string    `json:"output_key"`
	ArtifactKey  string    `json:"artifact_key,omitempty"`
	FrameCount   int       `json:"frame_count,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Attempt      int       `json:"attempt"`
	MaxAttempts  int       `json:"max_attempts"`
}
