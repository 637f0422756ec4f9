package postgres

import (
	"context"
	"fmt"

	"github.com/ego/imaginAIry/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	query := `
		INSERT INTO render_jobs (
			id, user_id, mode, frame_keys, output_key, artifact_key,
			status, frame_count, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, string(job.Mode), job.FrameKeys, job.OutputKey, job.ArtifactKey,
		string(job.Status), job.FrameCount, job.Attempt, job.MaxAttempts,
		job.ErrorMessage, job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.Job) error {
	query := `
		UPDATE render_jobs SET
			status=$2, artifact_key=$3, frame_count=$4,
			attempt=$5, error_message=$6, updated_at=$7, completed_at=$8
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.ArtifactKey, job.FrameCount,
		job.Attempt, job.ErrorMessage, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	query := `
		SELECT id, user_id, mode, frame_keys, output_key, artifact_key,
			status, frame_count, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		FROM render_jobs WHERE id=$1`

	job := &entity.Job{}
	var status, mode string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &mode, &job.FrameKeys, &job.OutputKey, &job.ArtifactKey,
		&status, &job.FrameCount, &job.Attempt, &job.MaxAttempts,
		&job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	job.Mode = entity.RenderMode(mode)
	return job, nil
}
