package httpapi

import (
	"context"
	"io"

	"github.com/dmitrijs2005/habitkeeper/internal/server/auth"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/dmitrijs2005/habitkeeper/internal/server/oauth"
	"github.com/dmitrijs2005/habitkeeper/internal/server/services"
)

type SessionIssuer interface {
	Issue(u *models.User) (*services.Session, error)
	Verify(token string) (*auth.Claims, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	LoginOAuth(ctx context.Context, id *oauth.Identity) (*services.Session, error)
	Refresh(ctx context.Context, prev auth.Snapshot) (*services.Session, error)
}

type Accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Profile(ctx context.Context, userID string) (*services.Profile, error)
	UpdateProfile(ctx context.Context, userID string, in services.ProfileInput) (*models.User, error)
	Deactivate(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	UploadAvatar(ctx context.Context, userID, filename, contentType string, body io.Reader, size int64) (*models.User, error)
}

type Onboarding interface {
	Status(ctx context.Context, userID string) (bool, error)
	Complete(ctx context.Context, userID string, in services.OnboardingInput) (*models.User, error)
	Update(ctx context.Context, userID string, in services.OnboardingPatchInput) (*models.User, error)
}

type Tags interface {
	List(ctx context.Context, userID string, includeInactive bool) ([]*models.Tag, error)
	Create(ctx context.Context, userID string, in services.TagInput) (*models.Tag, error)
	Update(ctx context.Context, userID, id string, in services.TagInput) (*models.Tag, error)
	Delete(ctx context.Context, userID, id string) error
}

type Metrics interface {
	List(ctx context.Context, userID string, includeInactive bool) ([]*models.Metric, error)
	Create(ctx context.Context, userID string, in services.MetricInput) (*models.Metric, error)
	Update(ctx context.Context, userID, id string, in services.MetricInput) (*models.Metric, error)
	Delete(ctx context.Context, userID, id string) error
}

type Actions interface {
	Log(ctx context.Context, userID, timezone string, in services.ActionInput) (*models.ActionLog, error)
	List(ctx context.Context, userID, timezone string, r services.Range) ([]*models.ActionLog, error)
	Delete(ctx context.Context, userID, id string) error
	DailyCounts(ctx context.Context, userID, timezone string, days int) ([]models.DailyActionCount, error)
}

type Ratings interface {
	Save(ctx context.Context, userID, date string, in services.RatingInput) (*models.DailyRating, error)
	List(ctx context.Context, userID, timezone string, r services.Range) ([]*models.DailyRating, error)
	Averages(ctx context.Context, userID, timezone string, days int) ([]models.MetricAverage, error)
}

type Journals interface {
	Create(ctx context.Context, userID, timezone string, in services.JournalInput) (*models.JournalEntry, error)
	Get(ctx context.Context, userID, id string) (*models.JournalEntry, error)
	Update(ctx context.Context, userID, timezone, id string, in services.JournalInput) (*models.JournalEntry, error)
	Delete(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID, timezone string, r services.Range, limit int) ([]*models.JournalEntry, error)
}

type Insights interface {
	List(ctx context.Context, userID string, status models.InsightStatus, limit int) ([]services.InsightView, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	Dismiss(ctx context.Context, userID, id string) error
	Feedback(ctx context.Context, userID, id string, in services.FeedbackInput) error
}

// Services groups what the handlers call. OAuth is nil when Google sign-in
// is not configured.
type Services struct {
	Sessions   SessionIssuer
	Accounts   Accounts
	Onboarding Onboarding
	Tags       Tags
	Metrics    Metrics
	Actions    Actions
	Ratings    Ratings
	Journals   Journals
	Insights   Insights
	OAuth      oauth.Provider
}
