package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/habitkeeper/internal/apperr"
	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/logging"
	"github.com/dmitrijs2005/habitkeeper/internal/server/auth"
	sc "github.com/dmitrijs2005/habitkeeper/internal/server/config"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/habitkeeper/internal/server/validate"
)

var requestValidator = validate.New()

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

const maxAvatarSize = 5 << 20

// AccountService owns the identity record outside of sessions and
// onboarding: registration, profile, password and deactivation.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config, logger logging.Logger) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		config:      cfg,
		logger:      logger.With("module", "account"),
	}
}

type RegisterInput struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required,username,min=3,max=30"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	Name            string `json:"name" validate:"max=100"`
}

// Register creates a password identity. Email and username are stored
// lowercased; duplicates are reported as conflicts.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return nil, apperr.Validation("Email, username, and password are required", nil)
	}
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := requestValidator.Struct(in); err != nil {
		return nil, err
	}
	username := strings.ToLower(in.Username)

	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperr.Conflict("An account with this email already exists")
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, storageErr(err)
	}

	taken, err := repo.UsernameTaken(ctx, username, "")
	if err != nil {
		return nil, storageErr(err)
	}
	if taken {
		return nil, apperr.Conflict("This username is already taken")
	}

	hash, err := auth.HashPassword(in.Password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = username
	}

	user, err := repo.Create(ctx, &models.User{
		Email:        in.Email,
		Username:     username,
		PasswordHash: hash,
		Name:         name,
		Timezone:     common.DefaultTimezone,
		IsActive:     true,
	})
	if err != nil {
		return nil, conflictErr(err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// conflictErr turns the repository's unique violations into user messages.
func conflictErr(err error) error {
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		return apperr.Conflict("An account with this email already exists")
	case errors.Is(err, users.ErrUsernameTaken):
		return apperr.Conflict("This username is already taken")
	}
	return storageErr(err)
}

// activeUser loads the acting identity. A deactivated record yields
// common.ErrorInactiveUser so the caller's session can be ended.
func activeUser(ctx context.Context, repo users.Repository, userID string) (*models.User, error) {
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, storageErr(err)
	}
	if !user.IsActive {
		return nil, common.ErrorInactiveUser
	}
	return user, nil
}

// identityWriteErr maps the error of a write guarded by is_active. The
// identity was read as active just before and records are never removed, so
// a write that matched nothing means it was deactivated in between.
func identityWriteErr(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorInactiveUser
	}
	return conflictErr(err)
}

type ProfileStats struct {
	Tags                 int                 `json:"tags"`
	Metrics              int                 `json:"metrics"`
	Actions              int                 `json:"actions"`
	Ratings              int                 `json:"ratings"`
	JournalEntries       int                 `json:"journalEntries"`
	UnreadInsights       int                 `json:"unreadInsights"`
	DaysActive           int                 `json:"daysActive"`
	ActivitiesByCategory map[string][]string `json:"activitiesByCategory"`
}

type Profile struct {
	User        *models.User
	DisplayName string
	Stats       ProfileStats
}

// Profile loads the identity record with usage counters.
func (s *AccountService) Profile(ctx context.Context, userID string) (*Profile, error) {
	user, err := activeUser(ctx, s.repomanager.Users(s.db), userID)
	if err != nil {
		return nil, err
	}

	stats := ProfileStats{
		DaysActive:           models.DaysActive(user, time.Now()),
		ActivitiesByCategory: map[string][]string{},
	}
	for _, a := range user.Activities {
		c := models.ActivityCategory(a)
		stats.ActivitiesByCategory[c] = append(stats.ActivitiesByCategory[c], a)
	}

	counters := []struct {
		dst   *int
		count func(context.Context, string) (int, error)
	}{
		{&stats.Tags, s.repomanager.Tags(s.db).CountActive},
		{&stats.Metrics, s.repomanager.Metrics(s.db).CountActive},
		{&stats.Actions, s.repomanager.ActionLogs(s.db).Count},
		{&stats.Ratings, s.repomanager.Ratings(s.db).Count},
		{&stats.JournalEntries, s.repomanager.Journals(s.db).Count},
		{&stats.UnreadInsights, s.repomanager.Insights(s.db).UnreadCount},
	}
	for _, c := range counters {
		n, err := c.count(ctx, userID)
		if err != nil {
			return nil, storageErr(err)
		}
		*c.dst = n
	}

	return &Profile{User: user, DisplayName: models.DisplayName(user), Stats: stats}, nil
}

type ProfileInput struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Username *string `json:"username" validate:"omitempty,username,min=3,max=30"`
	Timezone *string `json:"timezone" validate:"omitempty,timezone"`
	Avatar   *string `json:"avatar" validate:"omitempty,url"`
}

// UpdateProfile applies a partial update and returns the new record. The
// caller must re-issue the session since embedded fields may have changed.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	if in.Username != nil {
		u := strings.TrimSpace(*in.Username)
		in.Username = &u
	}
	if err := requestValidator.Struct(in); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	if _, err := activeUser(ctx, repo, userID); err != nil {
		return nil, err
	}
	if in.Username != nil {
		u := strings.ToLower(*in.Username)
		in.Username = &u

		taken, err := repo.UsernameTaken(ctx, u, userID)
		if err != nil {
			return nil, storageErr(err)
		}
		if taken {
			return nil, apperr.Conflict("This username is already taken")
		}
	}

	user, err := repo.UpdateProfile(ctx, userID, models.ProfilePatch{
		Name:     in.Name,
		Username: in.Username,
		Timezone: in.Timezone,
		Avatar:   in.Avatar,
	})
	if err != nil {
		return nil, identityWriteErr(err)
	}
	return user, nil
}

// LookupByEmail finds an identity by its normalized email.
func (s *AccountService) LookupByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, storageErr(err)
	}
	return user, nil
}

// Deactivate soft-deletes the identity; the record is kept.
func (s *AccountService) Deactivate(ctx context.Context, userID string) error {
	if err := s.repomanager.Users(s.db).Deactivate(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return apperr.NotFound("User not found")
		}
		return storageErr(err)
	}
	s.logger.Info(ctx, "user deactivated", "user_id", userID)
	return nil
}

func (s *AccountService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.Validation("Old and new passwords are required", nil)
	}

	repo := s.repomanager.Users(s.db)
	user, err := activeUser(ctx, repo, userID)
	if err != nil {
		return err
	}

	if !user.HasPassword() {
		return apperr.Validation("Password is not set for this account", nil)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, oldPassword)
	if err != nil {
		return fmt.Errorf("error checking password: %w", err)
	}
	if !ok {
		return apperr.Validation("Invalid old password", map[string]string{"oldPassword": "Invalid old password"})
	}

	if len(newPassword) < 8 {
		msg := "Password must be at least 8 characters long"
		return apperr.Validation(msg, map[string]string{"newPassword": msg})
	}

	hash, err := auth.HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	if err := repo.SetPassword(ctx, userID, hash); err != nil {
		return identityWriteErr(err)
	}
	s.logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// AvatarKey is the object key for a user's uploaded avatar.
func AvatarKey(userID, filename string) string {
	name := unsafeFilenameChars.ReplaceAllString(path.Base(filename), "_")
	if name == "" || name == "." || name == "_" {
		name = "avatar"
	}
	return fmt.Sprintf("avatars/%s-%s", userID, name)
}

func (s *AccountService) s3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// UploadAvatar stores the image in the bucket and points the profile at it.
func (s *AccountService) UploadAvatar(ctx context.Context, userID, filename, contentType string, body io.Reader, size int64) (*models.User, error) {
	if filename == "" {
		return nil, apperr.Validation("No file uploaded", nil)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperr.Validation("Avatar must be an image", nil)
	}
	if size <= 0 || size > maxAvatarSize {
		return nil, apperr.Validation("Avatar must be at most 5MB", nil)
	}

	repo := s.repomanager.Users(s.db)
	if _, err := activeUser(ctx, repo, userID); err != nil {
		return nil, err
	}

	client, err := s.s3Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating storage client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := AvatarKey(userID, filename)
	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return nil, fmt.Errorf("error uploading avatar: %w", err)
	}

	avatarURL, err := url.JoinPath(s.config.S3BaseEndpoint, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("error building avatar url: %w", err)
	}

	user, err := repo.UpdateProfile(ctx, userID, models.ProfilePatch{Avatar: &avatarURL})
	if err != nil {
		return nil, identityWriteErr(err)
	}

	s.logger.Info(ctx, "avatar uploaded", "user_id", userID, "key", key)
	return user, nil
}
