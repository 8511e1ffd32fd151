package implementation

import (
	"context"
	"os"
	"testing"
	"time"

	"e261-voice-be/internal/entity"
	"e261-voice-be/internal/model"
	"e261-voice-be/internal/repository/specification"
	"e261-voice-be/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimSubmissionRepository(t *testing.T) {
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.ClaimSubmission{}))

	repo := NewClaimSubmissionRepository(db)
	ctx := context.Background()
	sessionID := uuid.NewString()
	t.Cleanup(func() {
		db.Where("session_id = ?", sessionID).Delete(&model.ClaimSubmission{})
	})

	sub := &entity.ClaimSubmission{
		SessionId:   sessionID,
		ClaimId:     "TEST_" + sessionID[:8],
		TestMode:    true,
		ClaimStatus: "New Claim",
		Fields:      map[string]string{"flightNumber": "BA430"},
		SubmittedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, sub))
	assert.NotEqual(t, uuid.Nil, sub.Id)

	// archiving the same session twice keeps the first row
	dup := *sub
	dup.Id = uuid.Nil
	dup.ClaimId = "other"
	require.NoError(t, repo.Create(ctx, &dup))

	found, err := repo.FindOne(ctx, specification.BySessionID{SessionID: sessionID})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, sub.ClaimId, found.ClaimId)
	assert.Equal(t, "BA430", found.Fields["flightNumber"])

	n, err := repo.Count(ctx, specification.BySessionID{SessionID: sessionID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	missing, err := repo.FindOne(ctx, specification.BySessionID{SessionID: "nope"})
	require.NoError(t, err)
	assert.Nil(t, missing)
}
