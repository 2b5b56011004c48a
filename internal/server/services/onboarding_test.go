package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/habitkeeper/internal/apperr"
	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/dmitrijs2005/habitkeeper/internal/server/onboarding"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOnboardingService(t *testing.T) (*OnboardingService, *memStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	store := newMemStore()
	return NewOnboardingService(db, memory.NewManager(store), testLogger()), store, mock
}

func tagNames(t *testing.T, s *memStore, userID string) []string {
	t.Helper()
	list, err := memory.NewManager(s).Tags(nil).List(context.Background(), userID, false)
	require.NoError(t, err)
	names := make([]string, 0, len(list))
	for _, tag := range list {
		names = append(names, tag.Name)
	}
	return names
}

func metricNames(t *testing.T, s *memStore, userID string) []string {
	t.Helper()
	list, err := memory.NewManager(s).Metrics(nil).List(context.Background(), userID, false)
	require.NoError(t, err)
	names := make([]string, 0, len(list))
	for _, m := range list {
		names = append(names, m.Name)
	}
	return names
}

func TestOnboardingService_Complete_CommitsAndReturnsFreshRecord(t *testing.T) {
	svc, store, mock := newTestOnboardingService(t)
	u := seedUser(t, store, "ann@example.com", "ann", "secret123", false)

	mock.ExpectBegin()
	mock.ExpectCommit()

	got, err := svc.Complete(context.Background(), u.ID, OnboardingInput{
		Timezone:   "Europe/Riga",
		Goals:      []string{"Productivity"},
		Activities: []string{"Running", " Reading ", "Running "},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.True(t, got.IsOnboardingComplete)
	assert.Equal(t, "Europe/Riga", got.Timezone)
	assert.Equal(t, []string{"Running", "Reading"}, got.Activities)
	assert.Equal(t, []string{"Running", "Reading"}, tagNames(t, store, u.ID))
	assert.Equal(t, models.DefaultMetricNames, metricNames(t, store, u.ID))
}

func TestOnboardingService_Complete_IsIdempotent(t *testing.T) {
	svc, store, mock := newTestOnboardingService(t)
	u := seedUser(t, store, "ann@example.com", "ann", "secret123", false)
	in := OnboardingInput{Activities: []string{"Running", "Reading"}, Metrics: []string{"Mood"}}

	for range 2 {
		mock.ExpectBegin()
		mock.ExpectCommit()
		_, err := svc.Complete(context.Background(), u.ID, in)
		require.NoError(t, err)
	}
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Len(t, store.Tags, 2)
	assert.Len(t, store.Metrics, 1)
	assert.Equal(t, common.DefaultTimezone, store.Users[u.ID].Timezone)

	// a smaller set deactivates the dropped tag instead of deleting it
	mock.ExpectBegin()
	mock.ExpectCommit()
	_, err := svc.Complete(context.Background(), u.ID, OnboardingInput{Activities: []string{"Reading"}})
	require.NoError(t, err)
	assert.Len(t, store.Tags, 2)
	assert.Equal(t, []string{"Reading"}, tagNames(t, store, u.ID))
	assert.Equal(t, models.DefaultMetricNames, metricNames(t, store, u.ID))
}

func TestOnboardingService_Complete_RollsBackOnFailure(t *testing.T) {
	svc, store, mock := newTestOnboardingService(t)
	u := seedUser(t, store, "ann@example.com", "ann", "secret123", false)
	store.FailTagUpsert = errBoom{}

	mock.ExpectBegin()
	mock.ExpectRollback()

	got, err := svc.Complete(context.Background(), u.ID, OnboardingInput{Activities: []string{"Running"}})
	assert.Nil(t, got)
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOnboardingService_Complete_UnknownUser(t *testing.T) {
	svc, _, mock := newTestOnboardingService(t)

	_, err := svc.Complete(context.Background(), "missing", OnboardingInput{Activities: []string{"Running"}})
	requireAppError(t, err, apperr.CodeNotFound, "User not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOnboardingService_DeactivatedIdentity(t *testing.T) {
	svc, store, mock := newTestOnboardingService(t)
	u := seedUser(t, store, "ann@example.com", "ann", "secret123", false)
	store.Users[u.ID].IsActive = false
	ctx := context.Background()

	_, err := svc.Complete(ctx, u.ID, OnboardingInput{Activities: []string{"Running"}})
	assert.ErrorIs(t, err, common.ErrorInactiveUser)
	assert.False(t, store.Users[u.ID].IsOnboardingComplete)
	assert.Empty(t, tagNames(t, store, u.ID))

	tz := "Europe/Riga"
	_, err = svc.Update(ctx, u.ID, OnboardingPatchInput{Timezone: &tz})
	assert.ErrorIs(t, err, common.ErrorInactiveUser)
	assert.Equal(t, common.DefaultTimezone, store.Users[u.ID].Timezone)

	_, err = svc.Status(ctx, u.ID)
	assert.ErrorIs(t, err, common.ErrorInactiveUser)

	// nothing reached the database
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOnboardingService_Complete_Validation(t *testing.T) {
	svc, store, mock := newTestOnboardingService(t)
	u := seedUser(t, store, "ann@example.com", "ann", "secret123", false)

	_, err := svc.Complete(context.Background(), u.ID, OnboardingInput{})
	requireAppError(t, err, apperr.CodeInvalidArgument, "At least one activity is required")

	_, err = svc.Complete(context.Background(), u.ID, OnboardingInput{Activities: []string{"  "}})
	requireAppError(t, err, apperr.CodeInvalidArgument, "At least one activity is required")

	_, err = svc.Complete(context.Background(), u.ID, OnboardingInput{Timezone: "Nowhere/Land", Activities: []string{"Running"}})
	requireAppError(t, err, apperr.CodeInvalidArgument, "Invalid timezone")

	require.NoError(t, mock.ExpectationsWereMet())
	assert.False(t, store.Users[u.ID].IsOnboardingComplete)
}

func TestOnboardingService_Status(t *testing.T) {
	svc, store, _ := newTestOnboardingService(t)
	u := seedUser(t, store, "ann@example.com", "ann", "secret123", false)

	done, err := svc.Status(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, done)

	store.Users[u.ID].IsOnboardingComplete = true
	done, err = svc.Status(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, done)

	_, err = svc.Status(context.Background(), "missing")
	requireAppError(t, err, apperr.CodeNotFound, "")
}

func TestOnboardingService_Update_KeepsFlag(t *testing.T) {
	svc, store, _ := newTestOnboardingService(t)
	u := seedUser(t, store, "ann@example.com", "ann", "secret123", true)

	tz := "Asia/Tokyo"
	got, err := svc.Update(context.Background(), u.ID, OnboardingPatchInput{Timezone: &tz, Goals: []string{"Productivity", "Productivity"}})
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", got.Timezone)
	assert.Equal(t, []string{"Productivity"}, got.Goals)
	assert.True(t, got.IsOnboardingComplete)
}

func TestOnboardingService_Submitter_DrivesWizard(t *testing.T) {
	svc, store, mock := newTestOnboardingService(t)
	u := seedUser(t, store, "ann@example.com", "ann", "secret123", false)

	w := onboarding.NewWizard("Europe/Riga")
	require.NoError(t, w.Start())
	require.NoError(t, w.SelectGoals([]string{"Productivity"}))
	require.NoError(t, w.SelectActivities([]string{"Running"}))

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, w.Submit(context.Background(), svc.Submitter(u.ID, []string{"Focus"})))
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, onboarding.Done, w.Step())
	assert.True(t, store.Users[u.ID].IsOnboardingComplete)
	assert.Equal(t, []string{"Focus"}, metricNames(t, store, u.ID))
}

func TestOnboardingService_Complete_DeactivatedDuringWrite(t *testing.T) {
	svc, store, mock := newTestOnboardingService(t)
	u := seedUser(t, store, "ann@example.com", "ann", "secret123", false)
	// the guarded update matches no active row
	store.FailCompleteOnboarding = common.ErrorNotFound

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Complete(context.Background(), u.ID, OnboardingInput{Activities: []string{"Running"}})
	assert.ErrorIs(t, err, common.ErrorInactiveUser)
	require.NoError(t, mock.ExpectationsWereMet())
}
