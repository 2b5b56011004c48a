package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/habitkeeper/internal/apperr"
	"github.com/dmitrijs2005/habitkeeper/internal/server/auth"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/dmitrijs2005/habitkeeper/internal/server/services"
	"github.com/labstack/echo/v4"
)

// reissue signs a new cookie from the updated record so the next request
// already sees the change.
func (s *Server) reissue(c echo.Context, u *models.User) error {
	sess, err := s.services.Sessions.Issue(u)
	if err != nil {
		return err
	}
	s.setSessionCookie(c, sess)
	return nil
}

func mustSession(c echo.Context) auth.Snapshot {
	snap, _ := currentSession(c)
	return snap
}

func (s *Server) onboardingStatus(c echo.Context) error {
	done, err := s.services.Onboarding.Status(c.Request().Context(), mustSession(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"isOnboardingComplete": done})
}

func (s *Server) completeOnboarding(c echo.Context) error {
	var req services.OnboardingInput
	if err := bind(c, &req); err != nil {
		return err
	}
	return s.finishOnboarding(c, req)
}

type preferencesRequest struct {
	Metrics    []string `json:"metrics"`
	Activities []string `json:"activities"`
	Timezone   string   `json:"timezone"`
}

// savePreferences is the older entry to the same terminal transition,
// carrying metric and activity names only.
func (s *Server) savePreferences(c echo.Context) error {
	var req preferencesRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	tz := req.Timezone
	if tz == "" {
		tz = mustSession(c).Timezone
	}
	return s.finishOnboarding(c, services.OnboardingInput{
		Timezone:   tz,
		Activities: req.Activities,
		Metrics:    req.Metrics,
	})
}

func (s *Server) finishOnboarding(c echo.Context, in services.OnboardingInput) error {
	u, err := s.services.Onboarding.Complete(c.Request().Context(), mustSession(c).UserID, in)
	if err != nil {
		return err
	}
	if err := s.reissue(c, u); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"onboardingComplete": true, "user": newUserView(u)})
}

func (s *Server) updateOnboarding(c echo.Context) error {
	var req services.OnboardingPatchInput
	if err := bind(c, &req); err != nil {
		return err
	}

	u, err := s.services.Onboarding.Update(c.Request().Context(), mustSession(c).UserID, req)
	if err != nil {
		return err
	}
	if err := s.reissue(c, u); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"user": newUserView(u)})
}

func (s *Server) getProfile(c echo.Context) error {
	p, err := s.services.Accounts.Profile(c.Request().Context(), mustSession(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileView{User: newUserView(p.User), Stats: p.Stats})
}

func (s *Server) updateProfile(c echo.Context) error {
	var req services.ProfileInput
	if err := bind(c, &req); err != nil {
		return err
	}

	u, err := s.services.Accounts.UpdateProfile(c.Request().Context(), mustSession(c).UserID, req)
	if err != nil {
		return err
	}
	if err := s.reissue(c, u); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"user": newUserView(u)})
}

func (s *Server) deleteProfile(c echo.Context) error {
	if err := s.services.Accounts.Deactivate(c.Request().Context(), mustSession(c).UserID); err != nil {
		return err
	}
	s.clearSessionCookie(c)
	return c.JSON(http.StatusOK, map[string]string{"message": "Account deactivated"})
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) changePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	err := s.services.Accounts.ChangePassword(c.Request().Context(), mustSession(c).UserID, req.OldPassword, req.NewPassword)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

// uploadAvatar takes the image as the raw request body.
func (s *Server) uploadAvatar(c echo.Context) error {
	req := c.Request()
	if req.ContentLength <= 0 {
		return apperr.Validation("No file uploaded", nil)
	}

	u, err := s.services.Accounts.UploadAvatar(req.Context(), mustSession(c).UserID,
		c.QueryParam("filename"), req.Header.Get(echo.HeaderContentType), req.Body, req.ContentLength)
	if err != nil {
		return err
	}
	if err := s.reissue(c, u); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"user": newUserView(u)})
}
