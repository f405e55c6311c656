package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"tradeops/internal/auth"
	"tradeops/internal/models"
)

const maxBodyBytes = 1 << 20

// Register creates an account and returns a token for it.
// POST /api/v1/auth/register
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CredentialsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON in request body")
		return
	}

	if problems := req.Validate(); len(problems) > 0 {
		h.writeValidationError(w, r, problems)
		return
	}

	token, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrUserExists) {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeConflict, "Username already registered")
		return
	}
	if err != nil {
		h.logger.Error("Registration failed", "username", req.Username, "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, models.ErrorCodeInternalError, "Internal server error")
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, models.NewTokenResponse(token, h.auth.TokenTTL()))
}

// Token exchanges credentials for a bearer token. It accepts the OAuth2
// password form as well as a JSON body.
// POST /api/v1/auth/token
func (h *Handlers) Token(w http.ResponseWriter, r *http.Request) {
	req, err := readCredentials(w, r)
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid request body")
		return
	}

	problems := make(map[string]string)
	if req.Username == "" {
		problems["username"] = "field required"
	}
	if req.Password == "" {
		problems["password"] = "field required"
	}
	if len(problems) > 0 {
		h.writeValidationError(w, r, problems)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		h.writeErrorResponse(w, r, http.StatusUnauthorized, models.ErrorCodeUnauthorized, "Incorrect username or password")
		return
	}
	if err != nil {
		h.logger.Error("Login failed", "username", req.Username, "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, models.ErrorCodeInternalError, "Internal server error")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, models.NewTokenResponse(token, h.auth.TokenTTL()))
}

// Logout ends the caller's server-side session. The token itself stays valid
// until it expires; the next request opens a fresh session.
// POST /api/v1/auth/logout
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if h.gate.End(identity) {
		h.logger.Info("Session ended", "username", identity)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeValidationError(w http.ResponseWriter, r *http.Request, problems map[string]string) {
	errorResp := models.NewErrorResponse("Request validation failed", models.ErrorCodeValidation)
	errorResp.Details = problems
	errorResp.RequestID = RequestIDFromContext(r.Context())
	h.writeJSONResponse(w, http.StatusUnprocessableEntity, errorResp)
}

func readCredentials(w http.ResponseWriter, r *http.Request) (models.CredentialsRequest, error) {
	var req models.CredentialsRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}

	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Username = r.PostForm.Get("username")
	req.Password = r.PostForm.Get("password")
	return req, nil
}
