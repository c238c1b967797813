package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mparfenchuk/Blockchain-Document-Management-System/internal/errs"
	"go.uber.org/zap"
)

// TokenService mints and verifies the bearer credentials the API runs on.
// A token carries the principal's passport claim and an expiry; nothing else.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
}

func NewTokenService(secret string, ttl time.Duration, logger *zap.Logger) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger.With(zap.String("service", "token_service")),
	}
}

type passportClaims struct {
	Passport string `json:"passport"`
	jwt.RegisteredClaims
}

func (ts *TokenService) Issue(passport string) (string, error) {
	now := time.Now()
	claims := passportClaims{
		Passport: passport,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.secret)
	if err != nil {
		return "", errs.Wrap(errs.KindAuthentication, "failed to sign token", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the passport claim.
func (ts *TokenService) Verify(tokenString string) (string, error) {
	claims := &passportClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ts.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errs.New(errs.KindAuthentication, "Your session expired. Sign in again.")
		}
		return "", errs.Wrap(errs.KindAuthentication, "invalid credential", err)
	}
	if !token.Valid || claims.Passport == "" {
		return "", errs.New(errs.KindAuthentication, "invalid credential")
	}
	return claims.Passport, nil
}
