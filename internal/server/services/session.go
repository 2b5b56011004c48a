// Package services contains server-side business logic. This file implements
// SessionService, which exchanges credentials or an OAuth identity for a
// signed session token and re-issues tokens from the identity record.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/logging"
	"github.com/dmitrijs2005/habitkeeper/internal/server/auth"
	"github.com/dmitrijs2005/habitkeeper/internal/server/config"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/dmitrijs2005/habitkeeper/internal/server/oauth"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/habitkeeper/internal/server/validate"
)

// Session is a freshly signed token together with the snapshot it carries.
type Session struct {
	Token     string
	Snapshot  auth.Snapshot
	ExpiresAt time.Time
}

type SessionService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	secret        []byte
	validity      time.Duration
	lookupTimeout time.Duration
	logger        logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *SessionService {
	return &SessionService{
		db:            db,
		repomanager:   m,
		secret:        []byte(cfg.SecretKey),
		validity:      cfg.SessionValidityDuration,
		lookupTimeout: cfg.LookupTimeout,
		logger:        logger.With("module", "session"),
	}
}

// Issue signs a new token carrying the current state of u. Deactivated
// identities never get a token.
func (s *SessionService) Issue(u *models.User) (*Session, error) {
	if !u.IsActive {
		return nil, common.ErrorInactiveUser
	}
	return s.sign(auth.SnapshotOf(u))
}

func (s *SessionService) sign(snap auth.Snapshot) (*Session, error) {
	token, err := auth.GenerateToken(snap, s.secret, s.validity)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}
	return &Session{Token: token, Snapshot: snap, ExpiresAt: time.Now().Add(s.validity)}, nil
}

// Verify decodes a session token. Any failure means the caller is
// unauthenticated.
func (s *SessionService) Verify(token string) (*auth.Claims, error) {
	return auth.ParseToken(token, s.secret)
}

// Login runs the password path. Unknown email, deactivated account, missing
// password and wrong password are all ErrInvalidCredentials.
func (s *SessionService) Login(ctx context.Context, email, password string) (*Session, error) {
	repo := s.repomanager.Users(s.db)
	email = normalizeEmail(email)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnHash(password)
			s.logger.Info(ctx, "login rejected", "reason", "unknown email")
			return nil, common.ErrInvalidCredentials
		}
		return nil, storageErr(err)
	}

	if !user.IsActive || !user.HasPassword() {
		s.burnHash(password)
		s.logger.Info(ctx, "login rejected", "reason", "no usable password", "user_id", user.ID)
		return nil, common.ErrInvalidCredentials
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("error checking password: %w", err)
	}
	if !ok {
		s.logger.Info(ctx, "login rejected", "reason", "password mismatch", "user_id", user.ID)
		return nil, common.ErrInvalidCredentials
	}

	if err := repo.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, storageErr(err)
	}

	s.logger.Info(ctx, "session issued", "user_id", user.ID, "method", "password")
	return s.Issue(user)
}

// burnHash spends roughly the time of a real comparison so that unknown
// accounts cannot be told apart by latency.
func (s *SessionService) burnHash(password string) {
	s.dummyOnce.Do(func() {
		secret, err := common.MakeRandHexString(16)
		if err != nil {
			return
		}
		s.dummyHash, _ = auth.HashPassword(secret, 0)
	})
	if s.dummyHash != "" {
		_, _ = auth.CheckPassword(s.dummyHash, password)
	}
}

// LoginOAuth runs the OAuth path: create the identity on first sign-in, link
// the subject to an existing unlinked identity, and record the login. Each
// call performs at most one write.
func (s *SessionService) LoginOAuth(ctx context.Context, id *oauth.Identity) (*Session, error) {
	repo := s.repomanager.Users(s.db)
	email := normalizeEmail(id.Email)

	user, err := repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		user, err = s.createOAuthUser(ctx, email, id)
		if err != nil {
			return nil, err
		}
		s.logger.Info(ctx, "oauth identity created", "user_id", user.ID)

	case err != nil:
		return nil, storageErr(err)

	case !user.IsActive:
		s.logger.Info(ctx, "oauth login rejected", "reason", "inactive", "user_id", user.ID)
		return nil, common.ErrInvalidCredentials

	case user.GoogleID != "" && user.GoogleID != id.SubjectID:
		s.logger.Warn(ctx, "oauth login rejected", "reason", "subject mismatch", "user_id", user.ID)
		return nil, common.ErrIdentityConflict

	default:
		if err := repo.LinkGoogle(ctx, user.ID, id.SubjectID, id.AvatarURL); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return nil, common.ErrIdentityConflict
			}
			return nil, storageErr(err)
		}
		if user.GoogleID == "" {
			s.logger.Info(ctx, "oauth identity linked", "user_id", user.ID)
		}
		user.GoogleID = id.SubjectID
		if user.Avatar == "" {
			user.Avatar = id.AvatarURL
		}
	}

	s.logger.Info(ctx, "session issued", "user_id", user.ID, "method", "google")
	return s.Issue(user)
}

func (s *SessionService) createOAuthUser(ctx context.Context, email string, id *oauth.Identity) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	username := usernameFromEmail(email)
	if username != "" {
		taken, err := repo.UsernameTaken(ctx, username, "")
		if err != nil {
			return nil, storageErr(err)
		}
		if taken {
			username = ""
		}
	}

	now := time.Now()
	u := &models.User{
		Email:       email,
		Username:    username,
		GoogleID:    id.SubjectID,
		Name:        id.Name,
		Avatar:      id.AvatarURL,
		Timezone:    common.DefaultTimezone,
		IsActive:    true,
		LastLoginAt: &now,
	}

	created, err := repo.Create(ctx, u)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrIdentityConflict
		}
		return nil, storageErr(err)
	}
	return created, nil
}

// Refresh re-reads the identity record behind prev and signs a token with the
// updated snapshot. When the record cannot be read the previous snapshot is
// re-signed so a session is never lost to a failed read.
func (s *SessionService) Refresh(ctx context.Context, prev auth.Snapshot) (*Session, error) {
	lookupCtx := ctx
	if s.lookupTimeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, s.lookupTimeout)
		defer cancel()
	}

	user, err := s.repomanager.Users(s.db).GetByID(lookupCtx, prev.UserID)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		s.logger.Error(ctx, "identity record missing for live session",
			"user_id", prev.UserID, "error", common.ErrStaleSession)
		return s.sign(prev)
	case err != nil:
		s.logger.Warn(ctx, "session refresh read failed, keeping snapshot", "user_id", prev.UserID, "error", err)
		return s.sign(prev)
	case !user.IsActive:
		return nil, common.ErrorInactiveUser
	}

	next := prev.Refreshed(user)
	if next != prev {
		s.logger.Debug(ctx, "session snapshot refreshed", "user_id", prev.UserID)
	}
	return s.sign(next)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var nonUsernameChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	u := strings.ToLower(nonUsernameChars.ReplaceAllString(local, ""))
	if !validate.Username(u) {
		return ""
	}
	return u
}
