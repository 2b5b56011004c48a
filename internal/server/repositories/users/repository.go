package users

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
)

var (
	ErrEmailTaken    = fmt.Errorf("email %w", common.ErrorAlreadyExists)
	ErrUsernameTaken = fmt.Errorf("username %w", common.ErrorAlreadyExists)
	ErrGoogleIDTaken = fmt.Errorf("google id %w", common.ErrorAlreadyExists)
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UsernameTaken(ctx context.Context, username, exceptID string) (bool, error)
	TouchLastLogin(ctx context.Context, id string) error
	LinkGoogle(ctx context.Context, id, googleID, avatar string) error
	CompleteOnboarding(ctx context.Context, id string, data models.OnboardingData) error
	UpdateOnboarding(ctx context.Context, id string, patch models.OnboardingPatch) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (*models.User, error)
	SetPassword(ctx context.Context, id, passwordHash string) error
	Deactivate(ctx context.Context, id string) error
}
