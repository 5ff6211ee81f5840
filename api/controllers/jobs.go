package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/opsdeskhq/opsdesk-backend/api/responses"
	"github.com/opsdeskhq/opsdesk-backend/api/validators"
	"github.com/opsdeskhq/opsdesk-backend/internal/recruitment"
	pkgerrors "github.com/opsdeskhq/opsdesk-backend/pkg/errors"
	"github.com/opsdeskhq/opsdesk-backend/pkg/logger"
)

type createJobRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Department  string `json:"department" validate:"required,max=120"`
	Location    string `json:"location" validate:"max=200"`
	Description string `json:"description" validate:"max=20000"`
}

// CreateJob opens a new posting.
func CreateJob(svc recruitment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createJobRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		job, err := svc.CreateJob(r.Context(), recruitment.CreateJobInput{
			Title:       validators.SanitizeString(req.Title, 200),
			Department:  validators.SanitizeString(req.Department, 120),
			Location:    validators.SanitizeString(req.Location, 200),
			Description: req.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, job)
	}
}

// ListJobs returns all postings.
func ListJobs(svc recruitment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := svc.ListJobs(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, jobs)
	}
}

// GetJob returns a single posting.
func GetJob(svc recruitment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid job id"))
			return
		}

		job, err := svc.GetJob(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, job)
	}
}
