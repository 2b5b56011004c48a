package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/habitkeeper/internal/apperr"
	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/server/auth"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/memory"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccountService(t *testing.T) (*AccountService, *memStore) {
	t.Helper()
	store := newMemStore()
	return NewAccountService(nil, memory.NewManager(store), testConfig(), testLogger()), store
}

func requireAppError(t *testing.T, err error, code, message string) *apperr.AppError {
	t.Helper()
	var appErr *apperr.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
	return appErr
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Email:           "Ann@Example.com",
		Username:        "Ann_1",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	}
}

func TestAccountService_Register_Success(t *testing.T) {
	svc, store := newTestAccountService(t)

	u, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, "ann_1", u.Username)
	assert.Equal(t, "ann_1", u.Name)
	assert.Equal(t, common.DefaultTimezone, u.Timezone)
	assert.False(t, u.IsOnboardingComplete)
	assert.True(t, u.IsActive)

	ok, err := auth.CheckPassword(store.Users[u.ID].PasswordHash, "secret123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccountService_Register_DuplicateEmail(t *testing.T) {
	svc, store := newTestAccountService(t)
	seedUser(t, store, "ann@example.com", "someone", "secret123", true)

	_, err := svc.Register(context.Background(), validRegistration())
	requireAppError(t, err, apperr.CodeConflict, "An account with this email already exists")
	assert.Len(t, store.Users, 1)
}

func TestAccountService_Register_DuplicateUsername(t *testing.T) {
	svc, store := newTestAccountService(t)
	seedUser(t, store, "other@example.com", "ann_1", "secret123", true)

	_, err := svc.Register(context.Background(), validRegistration())
	requireAppError(t, err, apperr.CodeConflict, "This username is already taken")
}

func TestAccountService_Register_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
		msg    string
	}{
		{"missing email", func(in *RegisterInput) { in.Email = " " }, "Email, username, and password are required"},
		{"missing password", func(in *RegisterInput) { in.Password = "" }, "Email, username, and password are required"},
		{"bad username", func(in *RegisterInput) { in.Username = "bad name!" }, ""},
		{"short username", func(in *RegisterInput) { in.Username = "ab" }, ""},
		{"short password", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "short", "short" }, "Password must be at least 8 characters long"},
		{"mismatch", func(in *RegisterInput) { in.ConfirmPassword = "different1" }, "Passwords do not match"},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestAccountService(t)
			in := validRegistration()
			tt.mutate(&in)

			_, err := svc.Register(context.Background(), in)
			requireAppError(t, err, apperr.CodeInvalidArgument, tt.msg)
			assert.Empty(t, store.Users)
		})
	}
}

func TestAccountService_Register_StorageError(t *testing.T) {
	svc, store := newTestAccountService(t)
	store.Err = errBoom{}

	_, err := svc.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
}

func TestAccountService_Profile(t *testing.T) {
	svc, store := newTestAccountService(t)
	u := seedUser(t, store, "ann@example.com", "ann", "secret123", true)
	store.Users[u.ID].Activities = []string{"Running", "Reading"}
	tags := memory.NewManager(store).Tags(nil)
	_, err := tags.Upsert(context.Background(), u.ID, "Running", 0)
	require.NoError(t, err)

	p, err := svc.Profile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann", p.DisplayName)
	assert.Equal(t, 1, p.Stats.Tags)
	assert.GreaterOrEqual(t, p.Stats.DaysActive, 0)
	assert.NotEmpty(t, p.Stats.ActivitiesByCategory)

	_, err = svc.Profile(context.Background(), "missing")
	requireAppError(t, err, apperr.CodeNotFound, "User not found")
}

func TestAccountService_UpdateProfile(t *testing.T) {
	svc, store := newTestAccountService(t)
	u := seedUser(t, store, "ann@example.com", "ann", "secret123", true)
	seedUser(t, store, "bob@example.com", "bob", "secret123", true)

	name, tz := "Ann A.", "Europe/Riga"
	got, err := svc.UpdateProfile(context.Background(), u.ID, ProfileInput{Name: &name, Timezone: &tz})
	require.NoError(t, err)
	assert.Equal(t, "Ann A.", got.Name)
	assert.Equal(t, "Europe/Riga", got.Timezone)
	assert.Equal(t, "ann", got.Username)

	same := "ANN"
	got, err = svc.UpdateProfile(context.Background(), u.ID, ProfileInput{Username: &same})
	require.NoError(t, err)
	assert.Equal(t, "ann", got.Username)

	taken := "Bob"
	_, err = svc.UpdateProfile(context.Background(), u.ID, ProfileInput{Username: &taken})
	requireAppError(t, err, apperr.CodeConflict, "This username is already taken")

	badTZ := "Mars/Olympus"
	_, err = svc.UpdateProfile(context.Background(), u.ID, ProfileInput{Timezone: &badTZ})
	requireAppError(t, err, apperr.CodeInvalidArgument, "Invalid timezone")
}

func TestAccountService_Deactivate(t *testing.T) {
	svc, store := newTestAccountService(t)
	u := seedUser(t, store, "ann@example.com", "ann", "secret123", true)

	require.NoError(t, svc.Deactivate(context.Background(), u.ID))
	assert.False(t, store.Users[u.ID].IsActive)

	err := svc.Deactivate(context.Background(), "missing")
	requireAppError(t, err, apperr.CodeNotFound, "")
}

func TestAccountService_LookupByEmail(t *testing.T) {
	svc, store := newTestAccountService(t)
	u := seedUser(t, store, "ann@example.com", "ann", "secret123", true)

	got, err := svc.LookupByEmail(context.Background(), " Ann@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.LookupByEmail(context.Background(), "bob@example.com")
	requireAppError(t, err, apperr.CodeNotFound, "User not found")
}

func TestAccountService_ChangePassword(t *testing.T) {
	svc, store := newTestAccountService(t)
	u := seedUser(t, store, "ann@example.com", "ann", "secret123", true)
	ctx := context.Background()

	requireAppError(t, svc.ChangePassword(ctx, u.ID, "", "x"), apperr.CodeInvalidArgument, "Old and new passwords are required")
	requireAppError(t, svc.ChangePassword(ctx, u.ID, "wrong-old", "newsecret1"), apperr.CodeInvalidArgument, "Invalid old password")
	requireAppError(t, svc.ChangePassword(ctx, u.ID, "secret123", "short"), apperr.CodeInvalidArgument, "Password must be at least 8 characters long")

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "secret123", "newsecret1"))
	ok, err := auth.CheckPassword(store.Users[u.ID].PasswordHash, "newsecret1")
	require.NoError(t, err)
	assert.True(t, ok)

	store.Users[u.ID].PasswordHash = ""
	requireAppError(t, svc.ChangePassword(ctx, u.ID, "a", "newsecret1"), apperr.CodeInvalidArgument, "Password is not set for this account")
}

func TestAvatarKey(t *testing.T) {
	assert.Equal(t, "avatars/u1-me.png", AvatarKey("u1", "me.png"))
	assert.Equal(t, "avatars/u1-my_photo_.jpg", AvatarKey("u1", "../my photo!.jpg"))
	assert.Equal(t, "avatars/u1-avatar", AvatarKey("u1", ""))
}

func stubS3(t *testing.T, put func(in *s3.PutObjectInput) error) {
	t.Helper()
	origLoad, origNew, origPut := loadDefaultAWSConfig, newS3ClientFromConfig, putObject
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig, putObject = origLoad, origNew, origPut
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		assert.True(t, opts.UsePathStyle)
		return &s3.Client{}
	}
	putObject = func(_ *s3.Client, _ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		if err := put(in); err != nil {
			return nil, err
		}
		return &s3.PutObjectOutput{}, nil
	}
}

func TestAccountService_UploadAvatar(t *testing.T) {
	svc, store := newTestAccountService(t)
	u := seedUser(t, store, "ann@example.com", "ann", "secret123", true)

	var gotKey, gotType string
	stubS3(t, func(in *s3.PutObjectInput) error {
		gotKey, gotType = *in.Key, *in.ContentType
		return nil
	})

	got, err := svc.UploadAvatar(context.Background(), u.ID, "me.png", "image/png", strings.NewReader("png"), 3)
	require.NoError(t, err)
	assert.Equal(t, "avatars/"+u.ID+"-me.png", gotKey)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "http://127.0.0.1:9000/avatars/avatars/"+u.ID+"-me.png", got.Avatar)
}

func TestAccountService_UploadAvatar_Rejects(t *testing.T) {
	svc, store := newTestAccountService(t)
	u := seedUser(t, store, "ann@example.com", "ann", "secret123", true)
	ctx := context.Background()

	stubS3(t, func(*s3.PutObjectInput) error { return errors.New("bucket gone") })

	_, err := svc.UploadAvatar(ctx, u.ID, "", "image/png", strings.NewReader("x"), 1)
	requireAppError(t, err, apperr.CodeInvalidArgument, "No file uploaded")

	_, err = svc.UploadAvatar(ctx, u.ID, "a.txt", "text/plain", strings.NewReader("x"), 1)
	requireAppError(t, err, apperr.CodeInvalidArgument, "Avatar must be an image")

	_, err = svc.UploadAvatar(ctx, u.ID, "a.png", "image/png", strings.NewReader("x"), maxAvatarSize+1)
	requireAppError(t, err, apperr.CodeInvalidArgument, "Avatar must be at most 5MB")

	_, err = svc.UploadAvatar(ctx, u.ID, "a.png", "image/png", strings.NewReader("x"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket gone")
	assert.Empty(t, store.Users[u.ID].Avatar)
}

func TestAccountService_DeactivatedIdentity(t *testing.T) {
	svc, store := newTestAccountService(t)
	u := seedUser(t, store, "ann@example.com", "ann", "secret123", true)
	ctx := context.Background()
	require.NoError(t, svc.Deactivate(ctx, u.ID))
	hash := store.Users[u.ID].PasswordHash

	uploaded := false
	stubS3(t, func(*s3.PutObjectInput) error {
		uploaded = true
		return nil
	})

	name := "Still Here"
	_, err := svc.UpdateProfile(ctx, u.ID, ProfileInput{Name: &name})
	assert.ErrorIs(t, err, common.ErrorInactiveUser)
	assert.Equal(t, "ann", store.Users[u.ID].Name)

	err = svc.ChangePassword(ctx, u.ID, "secret123", "newsecret1")
	assert.ErrorIs(t, err, common.ErrorInactiveUser)
	assert.Equal(t, hash, store.Users[u.ID].PasswordHash)

	_, err = svc.UploadAvatar(ctx, u.ID, "me.png", "image/png", strings.NewReader("png"), 3)
	assert.ErrorIs(t, err, common.ErrorInactiveUser)
	assert.False(t, uploaded)

	_, err = svc.Profile(ctx, u.ID)
	assert.ErrorIs(t, err, common.ErrorInactiveUser)
}

func TestIdentityWriteErr(t *testing.T) {
	assert.ErrorIs(t, identityWriteErr(common.ErrorNotFound), common.ErrorInactiveUser)
	requireAppError(t, identityWriteErr(users.ErrUsernameTaken), apperr.CodeConflict, "This username is already taken")
	assert.ErrorIs(t, identityWriteErr(errBoom{}), common.ErrStorageUnavailable)
}
