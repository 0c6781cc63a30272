package service

import (
	"net/http"

	commonerrors "github.com/stockroom-app/backend/internal/common/errors"
)

var (
	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid email or password",
	)

	ErrSocialOnlyAccount = commonerrors.NewDomainError(
		"SOCIAL_ONLY_ACCOUNT",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"account has no password, use the identity provider sign-in",
	)

	ErrInvalidAccessToken = commonerrors.NewDomainError(
		"INVALID_ACCESS_TOKEN",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid access token",
	)

	ErrAccessTokenBlocked = commonerrors.NewDomainError(
		"TOKEN_BLOCKED",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"access token has been invalidated",
	)

	ErrInvalidRefreshToken = commonerrors.NewDomainError(
		"INVALID_REFRESH_TOKEN",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid refresh token",
	)

	ErrMissingRefreshToken = commonerrors.NewDomainError(
		"MISSING_REFRESH_TOKEN",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"refresh token is required",
	)

	ErrTokenNotRecognized = commonerrors.NewDomainError(
		"TOKEN_NOT_RECOGNIZED",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"refresh token does not match any active session",
	)

	ErrTokenReuse = commonerrors.NewDomainError(
		"TOKEN_REUSE",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"refresh token has already been used",
	)

	ErrUnknownSubject = commonerrors.NewDomainError(
		"UNKNOWN_SUBJECT",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"token subject no longer exists",
	)

	ErrInvalidProviderToken = commonerrors.NewDomainError(
		"INVALID_PROVIDER_TOKEN",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"identity provider token could not be verified",
	)

	ErrTokenSaveFailed = commonerrors.NewDomainError(
		"TOKEN_SAVE_FAILED",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"failed to persist refresh token",
	)

	ErrTokenPayloadUnreadable = commonerrors.NewDomainError(
		"TOKEN_PAYLOAD_UNREADABLE",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"refresh token payload could not be decoded",
	)

	ErrServiceUnavailable = commonerrors.NewDomainError(
		"SERVICE_UNAVAILABLE",
		commonerrors.CategoryExternal,
		http.StatusServiceUnavailable,
		"service temporarily unavailable",
	)
)
