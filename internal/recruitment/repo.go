package recruitment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsdeskhq/opsdesk-backend/pkg/db/models"
	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
)

// Repository manages persistence for applications and the per-year id
// counter. Mutations are single conditional statements so every invariant
// holds without read-modify-write races.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Transaction(ctx context.Context, fn func(Repository) error) error

	NextSequence(ctx context.Context, year int) (int, error)
	Create(ctx context.Context, app *models.Application) error
	GetByAnonymousID(ctx context.Context, anonymousID string) (*models.Application, error)
	List(ctx context.Context, params ListParams) ([]models.Application, error)
	CountByStatus(ctx context.Context) (map[enums.ApplicationStatus]int64, error)

	// SetStatus updates the status and, when clearReveal is set, wipes the
	// reveal fields in the same statement. Returns gorm.ErrRecordNotFound
	// when no row matched.
	SetStatus(ctx context.Context, anonymousID string, status enums.ApplicationStatus, clearReveal bool) error
	// MarkRevealed sets the reveal fields only while the row's status allows
	// disclosure. Reports whether a row was updated.
	MarkRevealed(ctx context.Context, anonymousID, reviewer string, at time.Time) (bool, error)
	SetNotes(ctx context.Context, anonymousID, notes string) error
	SetRating(ctx context.Context, anonymousID string, rating int) error
	ScheduleInterview(ctx context.Context, anonymousID string, date time.Time) error
}

// JobRepository manages the posting catalog applications reference.
type JobRepository interface {
	CreateJob(ctx context.Context, job *models.JobPosting) error
	GetJob(ctx context.Context, id uuid.UUID) (*models.JobPosting, error)
	ListJobs(ctx context.Context) ([]models.JobPosting, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a recruitment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

func (r *repository) NextSequence(ctx context.Context, year int) (int, error) {
	var seq int
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO application_sequences (year, last_seq)
		VALUES (?, 1)
		ON CONFLICT (year) DO UPDATE SET last_seq = application_sequences.last_seq + 1
		RETURNING last_seq`, year).Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}

func (r *repository) Create(ctx context.Context, app *models.Application) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *repository) GetByAnonymousID(ctx context.Context, anonymousID string) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).First(&app, "anonymous_id = ?", anonymousID).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]models.Application, error) {
	query := r.db.WithContext(ctx).Model(&models.Application{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.JobID != uuid.Nil {
		query = query.Where("job_id = ?", params.JobID)
	}
	var apps []models.Application
	if err := query.Order("submitted_at DESC, anonymous_id DESC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[enums.ApplicationStatus]int64, error) {
	type row struct {
		Status enums.ApplicationStatus
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.ApplicationStatus]int64, len(rows))
	for _, entry := range rows {
		counts[entry.Status] = entry.Total
	}
	return counts, nil
}

func (r *repository) SetStatus(ctx context.Context, anonymousID string, status enums.ApplicationStatus, clearReveal bool) error {
	updates := map[string]any{"status": status}
	if clearReveal {
		updates["is_revealed"] = false
		updates["revealed_at"] = nil
		updates["revealed_by"] = nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("anonymous_id = ?", anonymousID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) MarkRevealed(ctx context.Context, anonymousID, reviewer string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("anonymous_id = ? AND status IN ?", anonymousID, []enums.ApplicationStatus{
			enums.ApplicationStatusInterviewed,
			enums.ApplicationStatusOffer,
		}).
		Updates(map[string]any{
			"is_revealed": true,
			"revealed_at": at,
			"revealed_by": reviewer,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) SetNotes(ctx context.Context, anonymousID, notes string) error {
	return r.updateFields(ctx, anonymousID, map[string]any{"notes": notes})
}

func (r *repository) SetRating(ctx context.Context, anonymousID string, rating int) error {
	return r.updateFields(ctx, anonymousID, map[string]any{"rating": rating})
}

func (r *repository) ScheduleInterview(ctx context.Context, anonymousID string, date time.Time) error {
	return r.updateFields(ctx, anonymousID, map[string]any{
		"interview_date": date,
		"status":         enums.ApplicationStatusInterviewScheduled,
		"is_revealed":    false,
		"revealed_at":    nil,
		"revealed_by":    nil,
	})
}

func (r *repository) updateFields(ctx context.Context, anonymousID string, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("anonymous_id = ?", anonymousID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository returns a posting catalog repository.
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) CreateJob(ctx context.Context, job *models.JobPosting) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *jobRepository) GetJob(ctx context.Context, id uuid.UUID) (*models.JobPosting, error) {
	var job models.JobPosting
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) ListJobs(ctx context.Context) ([]models.JobPosting, error) {
	var jobs []models.JobPosting
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
