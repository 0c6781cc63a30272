package http

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/stockroom-app/backend/internal/auth/service"
	"github.com/stockroom-app/backend/internal/common/constants"
	commonhttp "github.com/stockroom-app/backend/internal/common/http"
	"github.com/stockroom-app/backend/internal/common/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Device   string `json:"device"`
}

type oauthLoginRequest struct {
	Token  string `json:"token" validate:"required"`
	Device string `json:"device"`
}

type restoreAppRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type appTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type logoutResponse struct {
	Message string `json:"message"`
}

type meResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Handler struct {
	auth        *service.AuthService
	errs        *commonhttp.ErrorHandler
	cookies     CookiePolicy
	frontendURL string
	validate    *validator.Validate
	log         *logger.Logger
}

type HandlerConfig struct {
	Cookies        CookiePolicy
	FrontendURL    string
	RequestTimeout time.Duration
}

func NewHandler(auth *service.AuthService, cfg HandlerConfig, log *logger.Logger) http.Handler {
	h := &Handler{
		auth:        auth,
		errs:        commonhttp.NewErrorHandler(log),
		cookies:     cfg.Cookies,
		frontendURL: cfg.FrontendURL,
		validate:    validator.New(),
		log:         log,
	}

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = constants.DefaultAuthRequestTimeout
	}
	withTimeout := commonhttp.WithTimeout(timeout)
	post := commonhttp.RequireMethod(http.MethodPost)
	get := commonhttp.RequireMethod(http.MethodGet)

	guard := RequireAccessToken(auth, h.errs)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", commonhttp.HealthHandler(log))
	mux.HandleFunc("/api/auth/login", post(withTimeout(h.login)))
	mux.HandleFunc("/api/auth/login/google", get(withTimeout(h.loginGoogleWeb)))
	mux.HandleFunc("/api/auth/login/google/app", post(withTimeout(h.loginGoogleApp)))
	mux.HandleFunc("/api/auth/restore", post(withTimeout(h.restore)))
	mux.HandleFunc("/api/auth/restore/app", post(withTimeout(h.restoreApp)))
	mux.HandleFunc("/api/auth/logout", post(withTimeout(h.logout)))
	mux.Handle("/api/auth/me", guard(get(withTimeout(h.me))))
	return mux
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid json", nil, "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeValidationFailed, "validation failed", nil, "")
		return
	}

	result, err := h.auth.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Device:   device(r, req.Device),
		ClientIP: commonhttp.GetClientIP(r),
	})
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	h.cookies.setRefreshCookie(w, result.RefreshToken, result.RefreshExpiresAt)
	commonhttp.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: result.AccessToken})
}

// loginGoogleWeb finishes the browser flow: the provider token arrives as a
// query parameter and the browser is sent back to the frontend with the
// access token, the refresh token travelling only in the cookie.
func (h *Handler) loginGoogleWeb(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("id_token")
	if token == "" {
		commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeInvalidToken, "missing provider token", nil, "")
		return
	}

	result, err := h.auth.LoginOAuthWeb(r.Context(), service.OAuthInput{
		ProviderToken: token,
		Device:        device(r, ""),
		ClientIP:      commonhttp.GetClientIP(r),
	})
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	h.cookies.setRefreshCookie(w, result.RefreshToken, result.RefreshExpiresAt)

	redirect := h.frontendURL + "?accessToken=" + url.QueryEscape(result.AccessToken)
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (h *Handler) loginGoogleApp(w http.ResponseWriter, r *http.Request) {
	var req oauthLoginRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid json", nil, "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeValidationFailed, "validation failed", nil, "")
		return
	}

	result, err := h.auth.LoginOAuthApp(r.Context(), service.OAuthInput{
		ProviderToken: req.Token,
		Device:        device(r, req.Device),
		ClientIP:      commonhttp.GetClientIP(r),
	})
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, appTokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeMissingRefreshToken, "refresh token is required", nil, "")
		return
	}

	result, err := h.auth.RestoreWeb(r.Context(), cookie.Value, device(r, ""), commonhttp.GetClientIP(r))
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	h.cookies.setRefreshCookie(w, result.RefreshToken, result.RefreshExpiresAt)
	commonhttp.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: result.AccessToken})
}

func (h *Handler) restoreApp(w http.ResponseWriter, r *http.Request) {
	var req restoreAppRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid json", nil, "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeMissingRefreshToken, "refresh token is required", nil, "")
		return
	}

	result, err := h.auth.RestoreApp(r.Context(), req.RefreshToken, commonhttp.GetClientIP(r))
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, appTokenResponse{AccessToken: result.AccessToken})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	accessToken, _ := bearerToken(r)

	input := service.LogoutInput{AccessToken: accessToken, Source: service.SourceMissing}

	var req restoreAppRequest
	if err := commonhttp.DecodeJSON(r, &req); err == nil && req.RefreshToken != "" {
		input.RefreshToken = req.RefreshToken
		input.Source = service.SourceAppToken
	} else if cookie, err := r.Cookie(constants.RefreshTokenCookieName); err == nil && cookie.Value != "" {
		input.RefreshToken = cookie.Value
		input.Source = service.SourceWebCookie
	}

	// The cookie is cleared even when logout is rejected, so a browser with
	// a dangling cookie can always get to a clean state.
	h.cookies.clearRefreshCookie(w)

	if err := h.auth.Logout(r.Context(), input); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, logoutResponse{Message: "logged out"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeMissingAuthorization, "not authenticated", nil, "")
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, meResponse{
		ID:    string(user.ID),
		Email: user.Email,
		Role:  user.RoleName,
	})
}

func device(r *http.Request, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return r.UserAgent()
}
