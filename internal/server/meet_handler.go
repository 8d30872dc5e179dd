package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/teemow/meetlink/internal/instrumentation"
	"github.com/teemow/meetlink/internal/provision"
	"github.com/teemow/meetlink/internal/session"
)

const (
	// MeetPath is the meeting provisioning endpoint.
	MeetPath = "/api/meet"

	maxRequestBody = 64 << 10
	genericFailure = "failed to create meeting"
	invalidBody    = "invalid request body"
)

// Provisioner creates meetings. *provision.Provisioner implements it.
type Provisioner interface {
	Provision(ctx context.Context, sess *session.Session, req provision.MeetingRequest) (*provision.MeetingEvent, error)
}

// MeetHandler serves POST /api/meet.
type MeetHandler struct {
	provisioner Provisioner
	logger      *slog.Logger
}

// NewMeetHandler creates the provisioning endpoint handler. The session is
// read from the request context, so the handler must run behind
// session.Attach.
func NewMeetHandler(p Provisioner, logger *slog.Logger) *MeetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MeetHandler{provisioner: p, logger: logger}
}

func (h *MeetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sess, _ := session.FromContext(r.Context())

	// Without a usable session a malformed body is passed on as an empty
	// request, so 401 and 403 are still reported before 400.
	var req provision.MeetingRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		req = provision.MeetingRequest{}
		if !errors.Is(err, io.EOF) && sess.Complete() {
			h.logger.Info("invalid request body", slog.String("error", err.Error()))
			writeMessage(w, http.StatusBadRequest, invalidBody)
			return
		}
		h.logger.Debug("could not decode request body", slog.String("error", err.Error()))
	}
	req.Source = instrumentation.SourceHTTP

	event, err := h.provisioner.Provision(r.Context(), sess, req)
	if err != nil {
		writeMessage(w, provision.KindOf(err).HTTPStatus(), provision.PublicMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, event)
}
