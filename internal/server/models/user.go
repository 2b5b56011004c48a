package models

import (
	"strings"
	"time"
)

// User is the identity record. Username and PasswordHash are empty for
// identities created through OAuth; GoogleID is empty for password-only ones.
type User struct {
	ID                   string
	Email                string
	Username             string
	PasswordHash         string
	GoogleID             string
	Name                 string
	Avatar               string
	Timezone             string
	Goals                []string
	Activities           []string
	IsOnboardingComplete bool
	IsActive             bool
	LastLoginAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// HasPassword reports whether the password login path is available.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// DisplayName picks the name, then the username, then the email local part.
func DisplayName(u *User) string {
	if u.Name != "" {
		return u.Name
	}
	if u.Username != "" {
		return u.Username
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// DaysActive counts started days between account creation and the last
// login, or now when the user never logged in.
func DaysActive(u *User, now time.Time) int {
	end := now
	if u.LastLoginAt != nil {
		end = *u.LastLoginAt
	}
	diff := end.Sub(u.CreatedAt)
	if diff < 0 {
		diff = -diff
	}
	day := 24 * time.Hour
	days := int(diff / day)
	if diff%day != 0 {
		days++
	}
	return days
}

// OnboardingData is what the onboarding terminal step writes onto the
// identity record.
type OnboardingData struct {
	Timezone   string
	Goals      []string
	Activities []string
}

// OnboardingPatch is a partial update of onboarding fields. Nil fields are
// left untouched.
type OnboardingPatch struct {
	Timezone   *string
	Goals      []string
	Activities []string
}

// ProfilePatch is a partial update of profile fields. Nil fields are left
// untouched.
type ProfilePatch struct {
	Name     *string
	Username *string
	Timezone *string
	Avatar   *string
}
