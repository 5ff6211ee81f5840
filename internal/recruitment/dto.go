package recruitment

import (
	"time"

	"github.com/google/uuid"

	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
)

// SubmitInput carries the fields an applicant provides. Job title and
// department are snapshotted from the posting, not taken from the caller.
type SubmitInput struct {
	JobID    uuid.UUID
	FullName string
	Email    string
	Phone    string
	Location string

	CoverLetter string
	ResumeKey   string
	Links       string
}

// ListParams filters the application listing.
type ListParams struct {
	Status enums.ApplicationStatus
	JobID  uuid.UUID
}

// CreateJobInput carries the fields for a new posting.
type CreateJobInput struct {
	Title       string
	Department  string
	Location    string
	Description string
}

// StatsResult reports the number of applications per status. Every known
// status is present, zero counts included.
type StatsResult struct {
	Total    int64                             `json:"total"`
	ByStatus map[enums.ApplicationStatus]int64 `json:"by_status"`
}

// SubmittedEvent is the payload published on application.submitted.
type SubmittedEvent struct {
	AnonymousID string                  `json:"anonymous_id"`
	JobID       uuid.UUID               `json:"job_id"`
	JobTitle    string                  `json:"job_title"`
	Department  string                  `json:"department"`
	Status      enums.ApplicationStatus `json:"status"`
	SubmittedAt time.Time               `json:"submitted_at"`
}

// UpdatedEvent is the payload published on application.updated.
type UpdatedEvent struct {
	AnonymousID string                  `json:"anonymous_id"`
	Status      enums.ApplicationStatus `json:"status"`
	IsRevealed  bool                    `json:"is_revealed"`
}
