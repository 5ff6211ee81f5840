package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
)

// Application is a job application. Personal identity fields are always
// stored; whether they are disclosed to reviewers is governed by IsRevealed,
// which is only ever true while Status allows reveal.
type Application struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	AnonymousID string                  `gorm:"column:anonymous_id;uniqueIndex;not null"`
	JobID       uuid.UUID               `gorm:"column:job_id;type:uuid;not null;index"`
	JobTitle    string                  `gorm:"column:job_title;not null"`
	Department  string                  `gorm:"column:department;not null"`
	Status      enums.ApplicationStatus `gorm:"column:status;not null;index"`

	FullName string `gorm:"column:full_name;not null"`
	Email    string `gorm:"column:email;not null"`
	Phone    string `gorm:"column:phone"`
	Location string `gorm:"column:location"`

	CoverLetter string `gorm:"column:cover_letter;type:text"`
	ResumeKey   string `gorm:"column:resume_key"`
	Links       string `gorm:"column:links;type:text"`

	IsRevealed bool       `gorm:"column:is_revealed;not null;default:false"`
	RevealedAt *time.Time `gorm:"column:revealed_at"`
	RevealedBy *string    `gorm:"column:revealed_by"`

	Notes         string     `gorm:"column:notes;type:text"`
	Rating        *int       `gorm:"column:rating"`
	InterviewDate *time.Time `gorm:"column:interview_date"`

	SubmittedAt time.Time `gorm:"column:submitted_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
