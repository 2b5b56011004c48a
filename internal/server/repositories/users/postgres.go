package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/dbx"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
)

const userColumns = `id, email, username, password_hash, google_id, name, avatar, timezone,
	goals, activities, is_onboarding_complete, is_active, last_login_at, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	goals, err := json.Marshal(nonNil(user.Goals))
	if err != nil {
		return nil, err
	}
	activities, err := json.Marshal(nonNil(user.Activities))
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO users (email, username, password_hash, google_id, name, avatar, timezone,
			goals, activities, is_onboarding_complete, is_active, last_login_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, created_at, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		user.Email, nullString(user.Username), nullString(user.PasswordHash), nullString(user.GoogleID),
		user.Name, user.Avatar, user.Timezone, goals, activities,
		user.IsOnboardingComplete, user.IsActive, user.LastLoginAt,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) UsernameTaken(ctx context.Context, username, exceptID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id::text <> $2)`

	var taken bool
	if err := r.db.QueryRowContext(ctx, query, username, exceptID).Scan(&taken); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return taken, nil
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login_at = now() WHERE id = $1`
	return r.execOne(ctx, query, id)
}

// LinkGoogle attaches an OAuth subject to an existing identity and records
// the login in the same statement. The avatar is only filled when empty.
func (r *PostgresRepository) LinkGoogle(ctx context.Context, id, googleID, avatar string) error {
	query :=
		`UPDATE users SET google_id = $2,
			avatar = CASE WHEN avatar = '' THEN $3 ELSE avatar END,
			last_login_at = now(), updated_at = now()
		 WHERE id = $1`
	return r.execOne(ctx, query, id, googleID, avatar)
}

// CompleteOnboarding, UpdateOnboarding, UpdateProfile and SetPassword only
// match active identities; a deactivated one reads as common.ErrorNotFound.
func (r *PostgresRepository) CompleteOnboarding(ctx context.Context, id string, data models.OnboardingData) error {
	goals, err := json.Marshal(nonNil(data.Goals))
	if err != nil {
		return err
	}
	activities, err := json.Marshal(nonNil(data.Activities))
	if err != nil {
		return err
	}

	query :=
		`UPDATE users SET timezone = $2, goals = $3, activities = $4,
			is_onboarding_complete = TRUE, updated_at = now()
		 WHERE id = $1 AND is_active`
	return r.execOne(ctx, query, id, data.Timezone, goals, activities)
}

func (r *PostgresRepository) UpdateOnboarding(ctx context.Context, id string, patch models.OnboardingPatch) (*models.User, error) {
	goals, err := jsonOrNil(patch.Goals)
	if err != nil {
		return nil, err
	}
	activities, err := jsonOrNil(patch.Activities)
	if err != nil {
		return nil, err
	}

	query :=
		`UPDATE users SET timezone = COALESCE($2, timezone),
			goals = COALESCE($3::jsonb, goals),
			activities = COALESCE($4::jsonb, activities),
			updated_at = now()
		 WHERE id = $1 AND is_active
		 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, patch.Timezone, goals, activities))
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (*models.User, error) {
	query :=
		`UPDATE users SET name = COALESCE($2, name),
			username = COALESCE($3, username),
			timezone = COALESCE($4, timezone),
			avatar = COALESCE($5, avatar),
			updated_at = now()
		 WHERE id = $1 AND is_active
		 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, patch.Name, patch.Username, patch.Timezone, patch.Avatar))
}

func (r *PostgresRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1 AND is_active`
	return r.execOne(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE users SET is_active = FALSE, updated_at = now() WHERE id = $1`
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if dbx.InvalidText(err) {
			return common.ErrorNotFound
		}
		return mapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var username, passwordHash, googleID sql.NullString
	var goals, activities []byte
	var lastLogin sql.NullTime

	err := row.Scan(&u.ID, &u.Email, &username, &passwordHash, &googleID, &u.Name, &u.Avatar, &u.Timezone,
		&goals, &activities, &u.IsOnboardingComplete, &u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.InvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, mapError(err)
	}

	u.Username = username.String
	u.PasswordHash = passwordHash.String
	u.GoogleID = googleID.String
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	if err := unmarshalList(goals, &u.Goals); err != nil {
		return nil, err
	}
	if err := unmarshalList(activities, &u.Activities); err != nil {
		return nil, err
	}

	return &u, nil
}

func mapError(err error) error {
	if constraint, ok := dbx.UniqueViolation(err); ok {
		switch constraint {
		case "users_email_key":
			return ErrEmailTaken
		case "users_username_key":
			return ErrUsernameTaken
		case "users_google_id_key":
			return ErrGoogleIDTaken
		}
		return common.ErrorAlreadyExists
	}
	return fmt.Errorf("db error: %w", err)
}

func unmarshalList(b []byte, dst *[]string) error {
	*dst = []string{}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode list: %w", err)
	}
	return nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func jsonOrNil(v []string) (any, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
