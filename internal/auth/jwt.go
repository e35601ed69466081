package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

type Claims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	Type   string `json:"typ"` // "access" | "refresh"
	jwt.RegisteredClaims
}

// GeneratePair issues an access/refresh token pair for the user.
func (tm *TokenManager) GeneratePair(userID int64, role string) (access string, refresh string, accessExp time.Time, err error) {
	now := time.Now()

	accClaims := Claims{
		UserID: userID,
		Role:   role,
		Type:   "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.accessTTL)),
		},
	}
	refClaims := Claims{
		UserID: userID,
		Role:   role,
		Type:   "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.refreshTTL)),
		},
	}

	accTok := jwt.NewWithClaims(jwt.SigningMethodHS256, accClaims)
	refTok := jwt.NewWithClaims(jwt.SigningMethodHS256, refClaims)

	access, err = accTok.SignedString(tm.accessSecret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	refresh, err = refTok.SignedString(tm.refreshSecret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return access, refresh, accClaims.ExpiresAt.Time, nil
}

// ParseAccess validates a bearer token and returns its claims.
func (tm *TokenManager) ParseAccess(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return tm.accessSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || claims.Type != "access" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseRefresh validates a refresh token for re-issuing a pair.
func (tm *TokenManager) ParseRefresh(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return tm.refreshSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || claims.Type != "refresh" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
