package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"chubank/internal/service"
	"chubank/internal/storage"
)

type createUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func validateCreateUser(req createUserRequest) error {
	if req.Username == "" {
		return errors.New("username is required")
	}
	if req.Email == "" {
		return errors.New("email is required")
	}
	if len(req.Password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	return nil
}

func (a *API) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validateCreateUser(req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.auth.CreateUser(r.Context(), req.Username, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			httpError(w, http.StatusConflict, "username or email already exists")
			return
		}
		a.logger.Error("failed to create user", "err", err)
		httpError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	jsonResponse(w, http.StatusCreated, newUserResponse(user))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func (a *API) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httpError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, token, err := a.auth.Authenticate(r.Context(), req.Username, req.Password, clientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTooManyAttempts):
			httpError(w, http.StatusTooManyRequests, "too many login attempts")
		case errors.Is(err, service.ErrAccountLocked),
			errors.Is(err, service.ErrInvalidCredentials):
			// Locked accounts answer like bad credentials so probing
			// cannot distinguish them.
			httpError(w, http.StatusUnauthorized, "invalid credentials")
		default:
			a.logger.Error("login failed", "err", err)
			httpError(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	jsonResponse(w, http.StatusOK, loginResponse{Token: token, User: newUserResponse(user)})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
