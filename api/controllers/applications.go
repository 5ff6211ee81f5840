package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/opsdeskhq/opsdesk-backend/api/middleware"
	"github.com/opsdeskhq/opsdesk-backend/api/responses"
	"github.com/opsdeskhq/opsdesk-backend/api/validators"
	"github.com/opsdeskhq/opsdesk-backend/internal/recruitment"
	"github.com/opsdeskhq/opsdesk-backend/pkg/db/models"
	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
	pkgerrors "github.com/opsdeskhq/opsdesk-backend/pkg/errors"
	"github.com/opsdeskhq/opsdesk-backend/pkg/logger"
)

type submitApplicationRequest struct {
	JobID       string `json:"job_id" validate:"required,uuid"`
	FullName    string `json:"full_name" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"max=40"`
	Location    string `json:"location" validate:"max=200"`
	CoverLetter string `json:"cover_letter" validate:"max=10000"`
	ResumeKey   string `json:"resume_key" validate:"max=500"`
	Links       string `json:"links" validate:"max=2000"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type notesRequest struct {
	Notes string `json:"notes" validate:"max=10000"`
}

type ratingRequest struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}

type interviewRequest struct {
	Date time.Time `json:"date" validate:"required"`
}

// applicationView hides the candidate's personal fields until the record has
// been revealed.
type applicationView struct {
	AnonymousID   string                  `json:"anonymous_id"`
	JobID         uuid.UUID               `json:"job_id"`
	JobTitle      string                  `json:"job_title"`
	Department    string                  `json:"department"`
	Status        enums.ApplicationStatus `json:"status"`
	IsRevealed    bool                    `json:"is_revealed"`
	RevealedAt    *time.Time              `json:"revealed_at,omitempty"`
	RevealedBy    *string                 `json:"revealed_by,omitempty"`
	Notes         string                  `json:"notes,omitempty"`
	Rating        *int                    `json:"rating,omitempty"`
	InterviewDate *time.Time              `json:"interview_date,omitempty"`
	SubmittedAt   time.Time               `json:"submitted_at"`
	UpdatedAt     time.Time               `json:"updated_at"`

	FullName    string `json:"full_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Location    string `json:"location,omitempty"`
	CoverLetter string `json:"cover_letter,omitempty"`
	ResumeKey   string `json:"resume_key,omitempty"`
	Links       string `json:"links,omitempty"`
}

func newApplicationView(app *models.Application) applicationView {
	view := applicationView{
		AnonymousID:   app.AnonymousID,
		JobID:         app.JobID,
		JobTitle:      app.JobTitle,
		Department:    app.Department,
		Status:        app.Status,
		IsRevealed:    app.IsRevealed,
		RevealedAt:    app.RevealedAt,
		RevealedBy:    app.RevealedBy,
		Notes:         app.Notes,
		Rating:        app.Rating,
		InterviewDate: app.InterviewDate,
		SubmittedAt:   app.SubmittedAt,
		UpdatedAt:     app.UpdatedAt,
	}
	if app.IsRevealed {
		view.FullName = app.FullName
		view.Email = app.Email
		view.Phone = app.Phone
		view.Location = app.Location
		view.CoverLetter = app.CoverLetter
		view.ResumeKey = app.ResumeKey
		view.Links = app.Links
	}
	return view
}

func newApplicationViews(apps []models.Application) []applicationView {
	views := make([]applicationView, 0, len(apps))
	for i := range apps {
		views = append(views, newApplicationView(&apps[i]))
	}
	return views
}

// SubmitApplication accepts a public application for an open posting.
func SubmitApplication(svc recruitment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitApplicationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobID, err := uuid.Parse(req.JobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid job id"))
			return
		}

		app, err := svc.Submit(r.Context(), recruitment.SubmitInput{
			JobID:       jobID,
			FullName:    validators.SanitizeString(req.FullName, 200),
			Email:       validators.SanitizeString(req.Email, 320),
			Phone:       validators.SanitizeString(req.Phone, 40),
			Location:    validators.SanitizeString(req.Location, 200),
			CoverLetter: req.CoverLetter,
			ResumeKey:   validators.SanitizeString(req.ResumeKey, 500),
			Links:       validators.SanitizeString(req.Links, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newApplicationView(app))
	}
}

// ListApplications returns the anonymized review queue.
func ListApplications(svc recruitment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := recruitment.ListParams{
			Status: enums.ApplicationStatus(validators.QueryString(r, "status")),
		}
		if jobID := validators.QueryString(r, "job_id"); jobID != "" {
			id, err := uuid.Parse(jobID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid job id"))
				return
			}
			params.JobID = id
		}

		apps, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newApplicationViews(apps))
	}
}

// GetApplication returns a single application by its anonymous id.
func GetApplication(svc recruitment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newApplicationView(app))
	}
}

// UpdateApplicationStatus moves an application through the pipeline.
func UpdateApplicationStatus(svc recruitment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		app, err := svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), enums.ApplicationStatus(req.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newApplicationView(app))
	}
}

// RevealApplication discloses the candidate's identity to the reviewer.
func RevealApplication(svc recruitment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reviewer := middleware.DisplayNameFromContext(r.Context())
		if reviewer == "" {
			reviewer = middleware.UserIDFromContext(r.Context())
		}

		app, err := svc.Reveal(r.Context(), chi.URLParam(r, "id"), reviewer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newApplicationView(app))
	}
}

// SetApplicationNotes replaces the reviewer notes.
func SetApplicationNotes(svc recruitment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req notesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		app, err := svc.SetNotes(r.Context(), chi.URLParam(r, "id"), req.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newApplicationView(app))
	}
}

// SetApplicationRating stores the reviewer's 1..5 rating.
func SetApplicationRating(svc recruitment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ratingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		app, err := svc.SetRating(r.Context(), chi.URLParam(r, "id"), req.Rating)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newApplicationView(app))
	}
}

// ScheduleApplicationInterview books an interview slot.
func ScheduleApplicationInterview(svc recruitment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req interviewRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		app, err := svc.ScheduleInterview(r.Context(), chi.URLParam(r, "id"), req.Date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newApplicationView(app))
	}
}

// ApplicationStats returns pipeline counts per status.
func ApplicationStats(svc recruitment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
