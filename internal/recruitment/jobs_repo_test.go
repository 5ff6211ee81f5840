package recruitment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/opsdeskhq/opsdesk-backend/pkg/db/models"
	"github.com/opsdeskhq/opsdesk-backend/pkg/enums"
)

func TestJobRepositoryRoundTrip(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewJobRepository(gdb)
	ctx := context.Background()

	posting := &models.JobPosting{
		Title:      "Inventory Analyst",
		Department: "Operations",
		Location:   "Monterrey",
		Status:     enums.JobStatusOpen,
	}
	require.NoError(t, repo.CreateJob(ctx, posting))
	require.NotEqual(t, uuid.Nil, posting.ID, "CreateJob must assign an id")

	loaded, err := repo.GetJob(ctx, posting.ID)
	require.NoError(t, err)
	assert.Equal(t, "Inventory Analyst", loaded.Title)
	assert.Equal(t, enums.JobStatusOpen, loaded.Status)
}

func TestJobRepositoryGetUnknownID(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewJobRepository(gdb)

	_, err := repo.GetJob(context.Background(), uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestJobRepositoryListsNewestFirst(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewJobRepository(gdb)
	ctx := context.Background()

	first := &models.JobPosting{Title: "Warehouse Associate", Department: "Operations", Status: enums.JobStatusOpen}
	require.NoError(t, repo.CreateJob(ctx, first))
	second := &models.JobPosting{Title: "HR Coordinator", Department: "People", Status: enums.JobStatusClosed}
	require.NoError(t, repo.CreateJob(ctx, second))

	jobs, err := repo.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "HR Coordinator", jobs[0].Title)
	assert.Equal(t, "Warehouse Associate", jobs[1].Title)
}
