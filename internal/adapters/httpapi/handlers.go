package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mikey/email-concierge/internal/core"
	"go.uber.org/zap"
)

// emailRequest is the body of the classify and concierge endpoints. The
// hint fields are optional and override inference when present.
type emailRequest struct {
	Sender    *string `json:"sender"`
	Subject   *string `json:"subject"`
	Body      *string `json:"body"`
	UserNotes *string `json:"user_notes"`
	core.Hints
}

func (req *emailRequest) validate() error {
	var missing []string
	if req.Sender == nil {
		missing = append(missing, "sender")
	}
	if req.Subject == nil {
		missing = append(missing, "subject")
	}
	if req.Body == nil {
		missing = append(missing, "body")
	}
	if len(missing) > 0 {
		return fmt.Errorf("field required: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (req *emailRequest) input() core.EmailInput {
	input := core.EmailInput{
		Sender:  *req.Sender,
		Subject: *req.Subject,
		Body:    *req.Body,
	}
	if req.UserNotes != nil {
		input.UserNotes = *req.UserNotes
	}
	return input
}

type draftResponse struct {
	Draft string `json:"draft"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeEmail(w, r)
	if !ok {
		return
	}

	input := req.input()
	s.writeJSON(w, http.StatusOK, s.service.Assess(input, s.resolveHints(req.Hints, input.Sender)))
}

func (s *Server) handleDraftReply(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeEmail(w, r)
	if !ok {
		return
	}

	input := req.input()
	draft, err := s.service.DraftReply(r.Context(), core.DraftRequest{
		Sender:    input.Sender,
		Subject:   input.Subject,
		Body:      input.Body,
		UserNotes: input.UserNotes,
	})
	if err != nil {
		s.writeDraftingError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, draftResponse{Draft: draft})
}

func (s *Server) handleConcierge(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeEmail(w, r)
	if !ok {
		return
	}

	input := req.input()
	result, err := s.service.Triage(r.Context(), input, s.resolveHints(req.Hints, input.Sender))
	if err != nil {
		s.writeDraftingError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) resolveHints(hints core.Hints, sender string) core.Hints {
	if s.contacts == nil {
		return hints
	}
	return s.contacts.Resolve(hints, sender)
}

// decodeEmail reads and validates the request body, writing the error
// response itself when it fails
func (s *Server) decodeEmail(w http.ResponseWriter, r *http.Request) (*emailRequest, bool) {
	var req emailRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid JSON body: " + err.Error()})
		return nil, false
	}
	if err := req.validate(); err != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
		return nil, false
	}
	return &req, true
}

func (s *Server) writeDraftingError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("Drafting failed",
		zap.String("request_id", requestID(r.Context())),
		zap.Error(err))

	status := http.StatusBadGateway
	if !errors.Is(err, core.ErrDrafting) {
		status = http.StatusInternalServerError
	}
	s.writeJSON(w, status, errorResponse{Detail: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", zap.Error(err))
	}
}
