package service

import (
	"context"
	"errors"
	"time"

	"viktorai/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// UserVersionStore is the slice of the user repository token rotation needs:
// reading a user's current revocation counter and bumping it.
type UserVersionStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	BumpJWTVersion(ctx context.Context, id string) error
}

const (
	AccessTokenTTL  = 10 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

type AccessClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// RefreshClaims carries a snapshot of the user's revocation counter. A
// refresh token whose snapshot no longer matches the stored counter is
// rejected, which is how logout invalidates outstanding sessions without
// a denylist.
type RefreshClaims struct {
	UserID     string `json:"id"`
	JWTVersion int    `json:"jwtV"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	userRepo      UserVersionStore
}

func NewTokenService(accessSecret, refreshSecret string, userRepo UserVersionStore) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		userRepo:      userRepo,
	}
}

func (s *TokenService) IssueAccessToken(user *models.User) (string, error) {
	claims := &AccessClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.accessSecret)
}

func (s *TokenService) IssueRefreshToken(user *models.User) (string, error) {
	claims := &RefreshClaims{
		UserID:     user.ID,
		JWTVersion: user.JWTVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(RefreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.refreshSecret)
}

func (s *TokenService) IssuePair(user *models.User) (*TokenPair, error) {
	access, err := s.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccessToken returns the user id the token was issued for. Access
// tokens are stateless: no revocation check happens here.
func (s *TokenService) VerifyAccessToken(tokenString string) (string, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.accessSecret, nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return "", ErrUnauthorized
	}
	return claims.UserID, nil
}

func (s *TokenService) verifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.refreshSecret, nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// Rotate verifies a refresh token against the user's current revocation
// counter and issues a fresh access/refresh pair. A stale counter snapshot
// fails closed with ErrRevoked.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string) (*TokenPair, *models.User, error) {
	claims, err := s.verifyRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrRevoked
	}
	if user.JWTVersion != claims.JWTVersion {
		return nil, nil, ErrRevoked
	}

	pair, err := s.IssuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// RevokeFromToken bumps the revocation counter for the user a refresh token
// belongs to. Used by logout; tolerates an already-deleted user.
func (s *TokenService) RevokeFromToken(ctx context.Context, refreshToken string) error {
	claims, err := s.verifyRefreshToken(refreshToken)
	if err != nil {
		return err
	}
	if err := s.userRepo.BumpJWTVersion(ctx, claims.UserID); err != nil {
		return err
	}
	return nil
}

// UserIDFromRefreshToken verifies the token and returns its subject without
// touching the counter. Used by account deletion.
func (s *TokenService) UserIDFromRefreshToken(tokenString string) (string, error) {
	claims, err := s.verifyRefreshToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
