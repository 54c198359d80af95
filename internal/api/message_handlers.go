package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

func (s *server) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	out, err := s.Messages.Contacts(r.Context(), userID(r.Context()), page, limit)
	if err != nil {
		s.writeError(w, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) conversation(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.Messages.Conversation(r.Context(), userID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, "list messages", err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

type sendRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

func (s *server) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, "send message", err)
		return
	}
	m, err := s.Messages.Send(r.Context(), userID(r.Context()), mux.Vars(r)["id"], req.Text, req.Image)
	if err != nil {
		s.writeError(w, "send message", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}
