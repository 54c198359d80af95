package api

import (
	"net/http"

	"github.com/matheus3301/chatline/internal/apperr"
	"github.com/matheus3301/chatline/internal/model"
)

type userResponse struct {
	Message string          `json:"message,omitempty"`
	User    *model.Identity `json:"user"`
}

type signupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *server) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, "signup", err)
		return
	}
	id, err := s.Accounts.Signup(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		s.writeError(w, "signup", err)
		return
	}
	if err := s.Tokens.SetCookie(w, id.ID); err != nil {
		s.writeError(w, "signup", apperr.Storage(err))
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{Message: "User created successfully", User: id})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, "login", err)
		return
	}
	id, err := s.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, "login", err)
		return
	}
	if err := s.Tokens.SetCookie(w, id.ID); err != nil {
		s.writeError(w, "login", apperr.Storage(err))
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Message: "Login successful", User: id})
}

func (s *server) logout(w http.ResponseWriter, _ *http.Request) {
	s.Tokens.ClearCookie(w)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (s *server) checkAuth(w http.ResponseWriter, r *http.Request) {
	id, err := s.Accounts.Get(r.Context(), userID(r.Context()))
	if err != nil {
		s.writeError(w, "check auth", err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: id})
}

type updateProfileRequest struct {
	ProfilePic string `json:"profilePic"`
}

func (s *server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, "update profile", err)
		return
	}
	id, err := s.Accounts.UpdateProfile(r.Context(), userID(r.Context()), req.ProfilePic)
	if err != nil {
		s.writeError(w, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Message: "Profile updated successfully.", User: id})
}
