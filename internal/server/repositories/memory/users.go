package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/users"
)

type userRepo struct{ s *Store }

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Goals = append([]string(nil), u.Goals...)
	c.Activities = append([]string(nil), u.Activities...)
	return &c
}

func (r *userRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, e := range r.s.Users {
		switch {
		case e.Email == u.Email:
			return nil, users.ErrEmailTaken
		case u.Username != "" && e.Username == u.Username:
			return nil, users.ErrUsernameTaken
		case u.GoogleID != "" && e.GoogleID == u.GoogleID:
			return nil, users.ErrGoogleIDTaken
		}
	}
	c := cloneUser(u)
	c.ID = newID()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.s.Users[c.ID] = c
	return cloneUser(c), nil
}

func (r *userRepo) get(id string) (*models.User, error) {
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	u, ok := r.s.Users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return cloneUser(u), nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, u := range r.s.Users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *userRepo) UsernameTaken(_ context.Context, username, exceptID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return false, r.s.Err
	}
	for _, u := range r.s.Users {
		if u.Username == username && u.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepo) update(id string, fn func(u *models.User), activeOnly bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, err := r.get(id)
	if err != nil {
		return err
	}
	if activeOnly && !u.IsActive {
		return common.ErrorNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

// updateActive is update restricted to active identities, like the
// is_active guard on the SQL writes.
func (r *userRepo) updateActive(id string, fn func(u *models.User)) error {
	return r.update(id, fn, true)
}

func (r *userRepo) TouchLastLogin(_ context.Context, id string) error {
	return r.update(id, func(u *models.User) {
		now := time.Now()
		u.LastLoginAt = &now
	}, false)
}

func (r *userRepo) LinkGoogle(_ context.Context, id, googleID, avatar string) error {
	return r.update(id, func(u *models.User) {
		now := time.Now()
		u.GoogleID = googleID
		if u.Avatar == "" {
			u.Avatar = avatar
		}
		u.LastLoginAt = &now
	}, false)
}

func (r *userRepo) CompleteOnboarding(_ context.Context, id string, data models.OnboardingData) error {
	if r.s.FailCompleteOnboarding != nil {
		return r.s.FailCompleteOnboarding
	}
	return r.updateActive(id, func(u *models.User) {
		u.Timezone = data.Timezone
		u.Goals = data.Goals
		u.Activities = data.Activities
		u.IsOnboardingComplete = true
	})
}

func (r *userRepo) UpdateOnboarding(_ context.Context, id string, p models.OnboardingPatch) (*models.User, error) {
	var out *models.User
	err := r.updateActive(id, func(u *models.User) {
		if p.Timezone != nil {
			u.Timezone = *p.Timezone
		}
		if p.Goals != nil {
			u.Goals = p.Goals
		}
		if p.Activities != nil {
			u.Activities = p.Activities
		}
		out = cloneUser(u)
	})
	return out, err
}

func (r *userRepo) UpdateProfile(_ context.Context, id string, p models.ProfilePatch) (*models.User, error) {
	var out *models.User
	err := r.updateActive(id, func(u *models.User) {
		if p.Name != nil {
			u.Name = *p.Name
		}
		if p.Username != nil {
			u.Username = *p.Username
		}
		if p.Timezone != nil {
			u.Timezone = *p.Timezone
		}
		if p.Avatar != nil {
			u.Avatar = *p.Avatar
		}
		out = cloneUser(u)
	})
	return out, err
}

func (r *userRepo) SetPassword(_ context.Context, id, hash string) error {
	return r.updateActive(id, func(u *models.User) { u.PasswordHash = hash })
}

func (r *userRepo) Deactivate(_ context.Context, id string) error {
	return r.update(id, func(u *models.User) { u.IsActive = false }, false)
}

