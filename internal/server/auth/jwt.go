package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Snapshot is the copy of identity fields carried inside a session token.
// It is taken when the token is issued and does not follow later changes to
// the identity record.
type Snapshot struct {
	UserID               string `json:"userId"`
	Email                string `json:"email"`
	Name                 string `json:"name"`
	Avatar               string `json:"avatar,omitempty"`
	Username             string `json:"username,omitempty"`
	Timezone             string `json:"timezone"`
	IsOnboardingComplete bool   `json:"isOnboardingComplete"`
}

// Claims combines the registered claims with the identity snapshot.
type Claims struct {
	jwt.RegisteredClaims
	Snapshot
}

// SnapshotOf copies the embedded fields from the identity record.
func SnapshotOf(u *models.User) Snapshot {
	return Snapshot{
		UserID:               u.ID,
		Email:                u.Email,
		Name:                 models.DisplayName(u),
		Avatar:               u.Avatar,
		Username:             u.Username,
		Timezone:             u.Timezone,
		IsOnboardingComplete: u.IsOnboardingComplete,
	}
}

// Refreshed overwrites the mutable fields from u and keeps id and email.
func (s Snapshot) Refreshed(u *models.User) Snapshot {
	fresh := SnapshotOf(u)
	fresh.UserID = s.UserID
	fresh.Email = s.Email
	return fresh
}

var now = time.Now

func GenerateToken(s Snapshot, secretKey []byte, validityDuration time.Duration) (string, error) {
	issued := now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(validityDuration)),
		},
		Snapshot: s,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry and returns the claims. Any
// failure is reported as common.ErrInvalidToken wrapping the cause.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", common.ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
