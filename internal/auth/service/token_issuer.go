package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stockroom-app/backend/internal/common/clock"
	commoncrypto "github.com/stockroom-app/backend/internal/common/crypto"
	userdomain "github.com/stockroom-app/backend/internal/user/domain"
)

// TokenClaims is the verified content of an issued token.
type TokenClaims struct {
	UserID    string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies the two token kinds. Access and refresh
// tokens use distinct secrets so one kind can never stand in for the other.
type TokenIssuer struct {
	accessSecret    []byte
	refreshSecret   []byte
	idGenerator     commoncrypto.IDGenerator
	clock           clock.Clock
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

func NewTokenIssuer(
	accessSecret string,
	refreshSecret string,
	idGenerator commoncrypto.IDGenerator,
	accessTokenTTL time.Duration,
	refreshTokenTTL time.Duration,
	clock clock.Clock,
) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:    []byte(accessSecret),
		refreshSecret:   []byte(refreshSecret),
		idGenerator:     idGenerator,
		clock:           clock,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

func (ti *TokenIssuer) AccessTokenTTL() time.Duration {
	return ti.accessTokenTTL
}

func (ti *TokenIssuer) RefreshTokenTTL() time.Duration {
	return ti.refreshTokenTTL
}

func (ti *TokenIssuer) IssueAccessToken(user userdomain.User) (string, error) {
	token, err := ti.issue(user, ti.accessSecret, ti.accessTokenTTL)
	if err != nil {
		return "", err
	}
	incrementAccessTokensIssued()
	return token, nil
}

func (ti *TokenIssuer) IssueRefreshToken(user userdomain.User) (string, error) {
	token, err := ti.issue(user, ti.refreshSecret, ti.refreshTokenTTL)
	if err != nil {
		return "", err
	}
	incrementRefreshTokensIssued()
	return token, nil
}

func (ti *TokenIssuer) issue(user userdomain.User, secret []byte, ttl time.Duration) (string, error) {
	jti, err := ti.idGenerator.NewID()
	if err != nil {
		return "", err
	}

	now := ti.clock.Now()
	claims := jwt.MapClaims{
		"sub":  string(user.ID),
		"eml":  user.Email,
		"role": user.RoleName,
		"jti":  jti,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func (ti *TokenIssuer) VerifyAccessToken(tokenString string) (TokenClaims, error) {
	return ti.verify(tokenString, ti.accessSecret)
}

func (ti *TokenIssuer) VerifyRefreshToken(tokenString string) (TokenClaims, error) {
	return ti.verify(tokenString, ti.refreshSecret)
}

func (ti *TokenIssuer) verify(tokenString string, secret []byte) (TokenClaims, error) {
	incrementJWTValidations()

	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(ti.clock.Now))
	if err != nil || !parsed.Valid {
		incrementJWTValidationsFailed()
		if err == nil {
			err = errors.New("token is not valid")
		}
		return TokenClaims{}, err
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		incrementJWTValidationsFailed()
		return TokenClaims{}, errors.New("unexpected claims type")
	}

	return claimsFromMap(mapClaims)
}

// DecodeUnverified reads the claims without checking the signature. Used when
// only the declared expiry is needed, never for authentication decisions.
func (ti *TokenIssuer) DecodeUnverified(tokenString string) (TokenClaims, error) {
	parser := jwt.NewParser()
	parsed, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return TokenClaims{}, fmt.Errorf("failed to decode token payload: %w", err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, errors.New("unexpected claims type")
	}

	return claimsFromMap(mapClaims)
}

func claimsFromMap(m jwt.MapClaims) (TokenClaims, error) {
	sub, _ := m["sub"].(string)
	if sub == "" {
		return TokenClaims{}, errors.New("token has no subject")
	}

	exp, ok := m["exp"].(float64)
	if !ok {
		return TokenClaims{}, errors.New("token has no expiry")
	}

	email, _ := m["eml"].(string)
	role, _ := m["role"].(string)

	return TokenClaims{
		UserID:    sub,
		Email:     email,
		Role:      role,
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}
