package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/habitkeeper/internal/apperr"
	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/dbx"
	"github.com/dmitrijs2005/habitkeeper/internal/logging"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/dmitrijs2005/habitkeeper/internal/server/onboarding"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/repomanager"
)

// OnboardingService runs the terminal onboarding transition and the partial
// updates allowed before and after it.
type OnboardingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewOnboardingService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *OnboardingService {
	return &OnboardingService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "onboarding"),
	}
}

type OnboardingInput struct {
	Timezone   string   `json:"timezone" validate:"omitempty,timezone"`
	Goals      []string `json:"goals" validate:"max=10,dive,max=100"`
	Activities []string `json:"activities" validate:"min=1,max=50,dive,max=50"`
	Metrics    []string `json:"metrics" validate:"max=20,dive,max=50"`
}

// Status reads the completion flag from the identity record.
func (s *OnboardingService) Status(ctx context.Context, userID string) (bool, error) {
	user, err := activeUser(ctx, s.repomanager.Users(s.db), userID)
	if err != nil {
		return false, err
	}
	return user.IsOnboardingComplete, nil
}

// Complete performs the terminal transition in one transaction: the identity
// record gets its onboarding data and completion flag, and the user's tags
// and metrics are replaced by the chosen sets. Existing rows are deactivated
// and the requested names are upserted, so retries never duplicate records.
func (s *OnboardingService) Complete(ctx context.Context, userID string, in OnboardingInput) (*models.User, error) {
	if err := requestValidator.Struct(in); err != nil {
		return nil, err
	}

	activities := models.UniqueNames(in.Activities)
	if len(activities) == 0 {
		return nil, apperr.Validation("At least one activity is required",
			map[string]string{"activities": "At least one activity is required"})
	}
	metrics := models.UniqueNames(in.Metrics)
	if len(metrics) == 0 {
		metrics = models.DefaultMetricNames
	}
	data := models.OnboardingData{
		Timezone:   in.Timezone,
		Goals:      models.UniqueNames(in.Goals),
		Activities: activities,
	}
	if data.Timezone == "" {
		data.Timezone = common.DefaultTimezone
	}

	if _, err := activeUser(ctx, s.repomanager.Users(s.db), userID); err != nil {
		return nil, err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).CompleteOnboarding(ctx, userID, data); err != nil {
			return err
		}

		tags := s.repomanager.Tags(tx)
		if err := tags.DeactivateAll(ctx, userID); err != nil {
			return err
		}
		for i, name := range activities {
			if _, err := tags.Upsert(ctx, userID, name, i); err != nil {
				return fmt.Errorf("error saving tag %q: %w", name, err)
			}
		}

		mr := s.repomanager.Metrics(tx)
		if err := mr.DeactivateAll(ctx, userID); err != nil {
			return err
		}
		for i, name := range metrics {
			if _, err := mr.Upsert(ctx, userID, name, i); err != nil {
				return fmt.Errorf("error saving metric %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "onboarding rolled back", "user_id", userID, "reason", "inactive")
			return nil, common.ErrorInactiveUser
		}
		s.logger.Error(ctx, "onboarding rolled back", "user_id", userID, "error", err)
		return nil, storageErr(err)
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, storageErr(err)
	}

	s.logger.Info(ctx, "onboarding completed", "user_id", userID,
		"tags", len(activities), "metrics", len(metrics))
	return user, nil
}

// Submitter adapts Complete to the wizard's terminal step for userID.
func (s *OnboardingService) Submitter(userID string, metrics []string) onboarding.Submitter {
	return onboarding.SubmitFunc(func(ctx context.Context, data models.OnboardingData) error {
		_, err := s.Complete(ctx, userID, OnboardingInput{
			Timezone:   data.Timezone,
			Goals:      data.Goals,
			Activities: data.Activities,
			Metrics:    metrics,
		})
		return err
	})
}

type OnboardingPatchInput struct {
	Timezone   *string  `json:"timezone" validate:"omitempty,timezone"`
	Goals      []string `json:"goals" validate:"omitempty,max=10,dive,max=100"`
	Activities []string `json:"activities" validate:"omitempty,max=50,dive,max=50"`
}

// Update changes onboarding fields without touching the completion flag.
func (s *OnboardingService) Update(ctx context.Context, userID string, in OnboardingPatchInput) (*models.User, error) {
	if err := requestValidator.Struct(in); err != nil {
		return nil, err
	}

	patch := models.OnboardingPatch{Timezone: in.Timezone}
	if in.Goals != nil {
		patch.Goals = models.UniqueNames(in.Goals)
	}
	if in.Activities != nil {
		patch.Activities = models.UniqueNames(in.Activities)
	}

	repo := s.repomanager.Users(s.db)
	if _, err := activeUser(ctx, repo, userID); err != nil {
		return nil, err
	}

	user, err := repo.UpdateOnboarding(ctx, userID, patch)
	if err != nil {
		return nil, identityWriteErr(err)
	}
	return user, nil
}
