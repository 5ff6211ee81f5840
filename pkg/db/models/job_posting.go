package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
)

// JobPosting is the catalog entry applications reference. Title and
// department are snapshotted onto each application at submission time.
type JobPosting struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Title       string          `gorm:"column:title;not null"`
	Department  string          `gorm:"column:department;not null"`
	Location    string          `gorm:"column:location"`
	Description string          `gorm:"column:description;type:text"`
	Status      enums.JobStatus `gorm:"column:status;not null;default:open"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
