package httpapi

import (
	"time"

	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/dmitrijs2005/habitkeeper/internal/server/services"
)

type userView struct {
	ID                   string     `json:"id"`
	Email                string     `json:"email"`
	Username             string     `json:"username,omitempty"`
	Name                 string     `json:"name"`
	DisplayName          string     `json:"displayName"`
	Avatar               string     `json:"avatar,omitempty"`
	Timezone             string     `json:"timezone"`
	Goals                []string   `json:"goals"`
	Activities           []string   `json:"activities"`
	IsOnboardingComplete bool       `json:"isOnboardingComplete"`
	HasPassword          bool       `json:"hasPassword"`
	HasGoogle            bool       `json:"hasGoogle"`
	LastLoginAt          *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
}

func newUserView(u *models.User) userView {
	v := userView{
		ID:                   u.ID,
		Email:                u.Email,
		Username:             u.Username,
		Name:                 u.Name,
		DisplayName:          models.DisplayName(u),
		Avatar:               u.Avatar,
		Timezone:             u.Timezone,
		Goals:                u.Goals,
		Activities:           u.Activities,
		IsOnboardingComplete: u.IsOnboardingComplete,
		HasPassword:          u.HasPassword(),
		HasGoogle:            u.GoogleID != "",
		LastLoginAt:          u.LastLoginAt,
		CreatedAt:            u.CreatedAt,
	}
	if v.Goals == nil {
		v.Goals = []string{}
	}
	if v.Activities == nil {
		v.Activities = []string{}
	}
	return v
}

type profileView struct {
	User  userView              `json:"user"`
	Stats services.ProfileStats `json:"stats"`
}

// journalListItem adds the short summary shown in lists.
type journalListItem struct {
	*models.JournalEntry
	Summary string `json:"summary"`
}
