package db

import (
	"context"
	"errors"
	"time"

	"provenant/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create records a new job. Safe under the "job already exists" race: a
// duplicate id is treated as success so a retried enqueue never fails.
func (r *JobRepository) Create(ctx context.Context, job domain.VerificationJob) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if job.ID == "" {
		return errors.New("job id is required")
	}
	model := jobToModel(job)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model).Error
}

func (r *JobRepository) Get(ctx context.Context, id string) (*domain.VerificationJob, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model VerificationJobModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job := modelToJob(model)
	return &job, nil
}

func (r *JobRepository) Update(ctx context.Context, job domain.VerificationJob) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model := jobToModel(job)
	result := r.db.WithContext(ctx).
		Model(&VerificationJobModel{}).
		Where("id = ?", job.ID).
		Select("Status", "Progress", "Result", "Error", "RetryCount", "StartedAt", "CompletedAt").
		Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *JobRepository) SetProgress(ctx context.Context, id string, progress int) error {
	if r.db == nil {
		return errDBUnavailable
	}
	return r.db.WithContext(ctx).
		Model(&VerificationJobModel{}).
		Where("id = ?", id).
		Update("progress", progress).Error
}

// PruneTerminal removes completed jobs older than completedBefore and
// failed jobs older than failedBefore. Failed jobs are kept longer for
// diagnosis.
func (r *JobRepository) PruneTerminal(ctx context.Context, completedBefore, failedBefore time.Time) (int64, error) {
	if r.db == nil {
		return 0, errDBUnavailable
	}
	result := r.db.WithContext(ctx).
		Where("(status = ? AND completed_at < ?) OR (status = ? AND completed_at < ?)",
			string(domain.JobCompleted), completedBefore,
			string(domain.JobFailed), failedBefore).
		Delete(&VerificationJobModel{})
	return result.RowsAffected, result.Error
}

func jobToModel(job domain.VerificationJob) VerificationJobModel {
	return VerificationJobModel{
		ID:              job.ID,
		Type:            string(job.Type),
		ContentHash:     job.ContentHash,
		ManifestURI:     job.ManifestURI,
		RegistryAddress: job.RegistryAddress,
		RPCURL:          job.RPCURL,
		Status:          string(job.Status),
		Progress:        job.Progress,
		Result:          job.Result,
		Error:           job.Error,
		RetryCount:      job.RetryCount,
		CreatedAt:       job.CreatedAt,
		StartedAt:       job.StartedAt,
		CompletedAt:     job.CompletedAt,
	}
}

func modelToJob(model VerificationJobModel) domain.VerificationJob {
	return domain.VerificationJob{
		ID:              model.ID,
		Type:            domain.JobType(model.Type),
		ContentHash:     model.ContentHash,
		ManifestURI:     model.ManifestURI,
		RegistryAddress: model.RegistryAddress,
		RPCURL:          model.RPCURL,
		Status:          domain.JobStatus(model.Status),
		Progress:        model.Progress,
		Result:          model.Result,
		Error:           model.Error,
		RetryCount:      model.RetryCount,
		CreatedAt:       model.CreatedAt,
		StartedAt:       model.StartedAt,
		CompletedAt:     model.CompletedAt,
	}
}
