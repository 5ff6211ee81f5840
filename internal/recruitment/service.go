package recruitment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsdeskhq/opsdesk-backend/pkg/db/models"
	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
	pkgerrors "github.com/opsdeskhq/opsdesk-backend/pkg/errors"
	"github.com/opsdeskhq/opsdesk-backend/pkg/events"
	"github.com/opsdeskhq/opsdesk-backend/pkg/metrics"
)

// Service owns the application lifecycle: anonymized submission, the status
// state machine, and conditional identity disclosure.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.Application, error)
	List(ctx context.Context, params ListParams) ([]models.Application, error)
	Get(ctx context.Context, anonymousID string) (*models.Application, error)
	UpdateStatus(ctx context.Context, anonymousID string, status enums.ApplicationStatus) (*models.Application, error)
	Reveal(ctx context.Context, anonymousID, reviewer string) (*models.Application, error)
	SetNotes(ctx context.Context, anonymousID, notes string) (*models.Application, error)
	SetRating(ctx context.Context, anonymousID string, rating int) (*models.Application, error)
	ScheduleInterview(ctx context.Context, anonymousID string, date time.Time) (*models.Application, error)
	Stats(ctx context.Context) (*StatsResult, error)

	CreateJob(ctx context.Context, input CreateJobInput) (*models.JobPosting, error)
	ListJobs(ctx context.Context) ([]models.JobPosting, error)
	GetJob(ctx context.Context, id uuid.UUID) (*models.JobPosting, error)
}

// ServiceParams wires the service dependencies.
type ServiceParams struct {
	Repo    Repository
	Jobs    JobRepository
	Bus     *events.Bus
	Metrics *metrics.Metrics

	// IDPrefix and SequenceDigits shape anonymous ids, e.g. APL-2026-0001.
	IDPrefix       string
	SequenceDigits int

	Now func() time.Time
}

type service struct {
	repo      Repository
	jobs      JobRepository
	bus       *events.Bus
	metrics   *metrics.Metrics
	idPrefix  string
	seqDigits int
	now       func() time.Time
}

// NewService wires a recruitment service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("recruitment repository required")
	}
	if params.Jobs == nil {
		return nil, fmt.Errorf("job repository required")
	}
	if params.IDPrefix == "" {
		params.IDPrefix = "APL"
	}
	if params.SequenceDigits <= 0 {
		params.SequenceDigits = 4
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:      params.Repo,
		jobs:      params.Jobs,
		bus:       params.Bus,
		metrics:   params.Metrics,
		idPrefix:  params.IDPrefix,
		seqDigits: params.SequenceDigits,
		now:       params.Now,
	}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.Application, error) {
	if input.JobID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id is required")
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	job, err := s.jobs.GetJob(ctx, input.JobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job posting not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job posting")
	}
	if job.Status != enums.JobStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "job posting is closed")
	}

	now := s.now().UTC()
	app := &models.Application{
		JobID:       job.ID,
		JobTitle:    job.Title,
		Department:  job.Department,
		Status:      enums.ApplicationStatusNew,
		FullName:    input.FullName,
		Email:       input.Email,
		Phone:       input.Phone,
		Location:    input.Location,
		CoverLetter: input.CoverLetter,
		ResumeKey:   input.ResumeKey,
		Links:       input.Links,
		SubmittedAt: now,
	}

	// Sequence allocation and insert share one transaction, so ids stay
	// unique and strictly increasing even under concurrent submissions.
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		seq, seqErr := tx.NextSequence(ctx, now.Year())
		if seqErr != nil {
			return seqErr
		}
		app.AnonymousID = s.formatAnonymousID(now.Year(), seq)
		return tx.Create(ctx, app)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist application")
	}

	s.metrics.IncSubmission()
	s.publish(ctx, events.Event{Topic: events.TopicApplicationSubmitted, Payload: SubmittedEvent{
		AnonymousID: app.AnonymousID,
		JobID:       app.JobID,
		JobTitle:    app.JobTitle,
		Department:  app.Department,
		Status:      app.Status,
		SubmittedAt: app.SubmittedAt,
	}})
	return app, nil
}

func (s *service) List(ctx context.Context, params ListParams) ([]models.Application, error) {
	if params.Status != "" && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid application status %q", params.Status))
	}
	apps, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list applications")
	}
	return apps, nil
}

func (s *service) Get(ctx context.Context, anonymousID string) (*models.Application, error) {
	app, err := s.repo.GetByAnonymousID(ctx, anonymousID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}
	return app, nil
}

func (s *service) UpdateStatus(ctx context.Context, anonymousID string, status enums.ApplicationStatus) (*models.Application, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid application status %q", status))
	}

	// Statuses outside the reveal set force the reveal fields clear in the
	// same statement. No-op transitions go through the same path so the
	// invariant is re-evaluated every time.
	clearReveal := !status.AllowsReveal()
	if err := s.repo.SetStatus(ctx, anonymousID, status, clearReveal); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update status")
	}
	return s.afterUpdate(ctx, anonymousID)
}

func (s *service) Reveal(ctx context.Context, anonymousID, reviewer string) (*models.Application, error) {
	if strings.TrimSpace(reviewer) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reviewer identity is required")
	}

	updated, err := s.repo.MarkRevealed(ctx, anonymousID, reviewer, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reveal application")
	}
	if !updated {
		// Conditional update matched nothing: either the id is unknown or
		// the current status forbids disclosure.
		app, getErr := s.repo.GetByAnonymousID(ctx, anonymousID)
		if getErr != nil {
			if errors.Is(getErr, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, getErr, "load application")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("identity reveal not permitted while status is %q", app.Status))
	}

	s.metrics.IncReveal()
	return s.afterUpdate(ctx, anonymousID)
}

func (s *service) SetNotes(ctx context.Context, anonymousID, notes string) (*models.Application, error) {
	if err := s.repo.SetNotes(ctx, anonymousID, notes); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update notes")
	}
	return s.afterUpdate(ctx, anonymousID)
}

func (s *service) SetRating(ctx context.Context, anonymousID string, rating int) (*models.Application, error) {
	if rating < 1 || rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if err := s.repo.SetRating(ctx, anonymousID, rating); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rating")
	}
	return s.afterUpdate(ctx, anonymousID)
}

func (s *service) ScheduleInterview(ctx context.Context, anonymousID string, date time.Time) (*models.Application, error) {
	if date.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "interview date is required")
	}
	if err := s.repo.ScheduleInterview(ctx, anonymousID, date.UTC()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "schedule interview")
	}
	return s.afterUpdate(ctx, anonymousID)
}

func (s *service) Stats(ctx context.Context) (*StatsResult, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count applications")
	}

	result := &StatsResult{ByStatus: make(map[enums.ApplicationStatus]int64)}
	for _, status := range enums.ApplicationStatuses() {
		total := counts[status]
		result.ByStatus[status] = total
		result.Total += total
	}
	return result, nil
}

func (s *service) CreateJob(ctx context.Context, input CreateJobInput) (*models.JobPosting, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if strings.TrimSpace(input.Department) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "department is required")
	}

	job := &models.JobPosting{
		Title:       input.Title,
		Department:  input.Department,
		Location:    input.Location,
		Description: input.Description,
		Status:      enums.JobStatusOpen,
	}
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist job posting")
	}
	return job, nil
}

func (s *service) ListJobs(ctx context.Context) ([]models.JobPosting, error) {
	jobs, err := s.jobs.ListJobs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list job postings")
	}
	return jobs, nil
}

func (s *service) GetJob(ctx context.Context, id uuid.UUID) (*models.JobPosting, error) {
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job posting not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job posting")
	}
	return job, nil
}

func (s *service) afterUpdate(ctx context.Context, anonymousID string) (*models.Application, error) {
	app, err := s.Get(ctx, anonymousID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{Topic: events.TopicApplicationUpdated, Payload: UpdatedEvent{
		AnonymousID: app.AnonymousID,
		Status:      app.Status,
		IsRevealed:  app.IsRevealed,
	}})
	return app, nil
}

func (s *service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}

func (s *service) formatAnonymousID(year, seq int) string {
	return fmt.Sprintf("%s-%d-%0*d", s.idPrefix, year, s.seqDigits, seq)
}
