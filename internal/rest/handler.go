package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meetbot-dev/meetbot/pkg/models"
)

func (s *Server) versionHandler(w http.ResponseWriter, _ *http.Request) {
	_, err := fmt.Fprintf(w, "%s\n", s.version)
	if err != nil {
		s.log.Warnf("err during writing to connection: %v", err)
	}
}

// authCallbackHandler completes the OAuth sign-in: the state parameter
// carries the owner/session pair the flow suspended for, the code is
// exchanged for a token and the flow resumes. The user sees a plain
// page and the conversation continues in the chat.
func (s *Server) authCallbackHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		s.writeResponse(w, http.StatusBadRequest, errors.New("missing state or code"))
		return
	}
	if err := s.app.CompleteSignIn(ctx, state, code); err != nil {
		s.log.Warnf("err completing sign-in: %v", err)
		s.writeResponse(w, http.StatusBadRequest, errors.New("sign-in failed"))
		return
	}
	_, err := fmt.Fprintln(w, "Sign-in complete. You can return to the chat.")
	if err != nil {
		s.log.Warnf("err during writing to connection: %v", err)
	}
}

func (s *Server) getRequestHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerKey := chi.URLParam(r, "ownerKey")
	sessionKey := chi.URLParam(r, "sessionKey")
	claims := s.getClaims(ctx)
	if claims == nil || claims.OwnerKey != ownerKey || claims.SessionKey != sessionKey {
		s.writeResponse(w, http.StatusForbidden, ErrForbidden)
		return
	}
	rec, err := s.app.GetMeetingRequest(ctx, ownerKey, sessionKey)
	switch {
	case errors.Is(err, models.ErrRequestNotFound):
		s.writeResponse(w, http.StatusNotFound, err)
		return
	case err != nil:
		s.log.Warnf("err during getting meeting request: %v", err)
		s.writeResponse(w, http.StatusInternalServerError, err)
		return
	}
	s.writeResponse(w, http.StatusOK, rec)
}

func (s *Server) writeResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if x, ok := data.(error); ok {
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: x.Error()}); err != nil {
			s.log.Warnf("err during encoding error: %v", err)
		}
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warnf("err during encoding responce: %v", err)
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}
