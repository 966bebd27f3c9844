package sessions

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"slotbook/internal/workflow"
	"slotbook/pkg/dateutil"
	apperrors "slotbook/pkg/errors"
	httputil "slotbook/pkg/http"
	"slotbook/pkg/logger"
)

type SessionHandler struct {
	registry *Registry
	log      *logger.Logger
}

func NewSessionHandler(registry *Registry, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		log:      log,
	}
}

func (h *SessionHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/sessions", h.Create)
	router.GET("/sessions/:id", h.Get)
	router.DELETE("/sessions/:id", h.End)
	router.PUT("/sessions/:id/date", h.SelectDate)
	router.POST("/sessions/:id/date/step", h.StepDate)
	router.PUT("/sessions/:id/slot", h.SelectSlot)
	router.DELETE("/sessions/:id/slot", h.CancelSelection)
	router.POST("/sessions/:id/confirm", h.Confirm)
	router.POST("/sessions/:id/manage", h.OpenManage)
	router.DELETE("/sessions/:id/manage", h.CloseManage)
	router.DELETE("/sessions/:id/booking", h.CancelBooking)
}

type sessionResponse struct {
	SessionID     string            `json:"session_id"`
	Snapshot      workflow.Snapshot `json:"snapshot"`
	Notifications []Notification    `json:"notifications,omitempty"`
}

func (h *SessionHandler) respond(w http.ResponseWriter, status int, session *Session) {
	httputil.WriteJSON(w, status, httputil.SuccessResponse{Data: sessionResponse{
		SessionID:     session.ID,
		Snapshot:      session.Workflow.Snapshot(),
		Notifications: session.Notifier.Drain(),
	}})
}

func (h *SessionHandler) session(w http.ResponseWriter, ps httprouter.Params) (*Session, bool) {
	session, ok := h.registry.Get(ps.ByName("id"))
	if !ok {
		httputil.WriteError(w, apperrors.NotFoundWithID("Session", ps.ByName("id")))
		return nil, false
	}
	return session, true
}

type createSessionRequest struct {
	UserName string `json:"user_name"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	session := h.registry.Create()
	if !session.Workflow.SubmitName(req.UserName) {
		h.registry.Delete(session.ID)
		httputil.WriteError(w, apperrors.InvalidInput("User name cannot be empty"))
		return
	}

	h.log.Info("Session created", "session_id", session.ID)
	h.respond(w, http.StatusCreated, session)
}

func (h *SessionHandler) Get(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	session, ok := h.session(w, ps)
	if !ok {
		return
	}
	h.respond(w, http.StatusOK, session)
}

func (h *SessionHandler) End(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	if _, ok := h.registry.Get(ps.ByName("id")); !ok {
		httputil.WriteError(w, apperrors.NotFoundWithID("Session", ps.ByName("id")))
		return
	}
	h.registry.Delete(ps.ByName("id"))
	httputil.WriteNoContent(w)
}

type selectDateRequest struct {
	Date string `json:"date"`
}

func (h *SessionHandler) SelectDate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, ok := h.session(w, ps)
	if !ok {
		return
	}

	var req selectDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	date, err := dateutil.ParseDate(req.Date)
	if err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Date must be in yyyy-MM-dd format"))
		return
	}

	if !session.Workflow.SelectDate(date) {
		httputil.WriteError(w, apperrors.Conflict("Date is outside the booking window"))
		return
	}
	h.respond(w, http.StatusOK, session)
}

type stepDateRequest struct {
	Direction string `json:"direction"`
}

func (h *SessionHandler) StepDate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, ok := h.session(w, ps)
	if !ok {
		return
	}

	var req stepDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	var dir dateutil.Direction
	switch req.Direction {
	case "backward":
		dir = dateutil.StepBackward
	case "forward":
		dir = dateutil.StepForward
	default:
		httputil.WriteError(w, apperrors.InvalidInput("Direction must be 'backward' or 'forward'"))
		return
	}

	if !session.Workflow.StepDate(dir) {
		httputil.WriteError(w, apperrors.Conflict("Step would leave the booking window"))
		return
	}
	h.respond(w, http.StatusOK, session)
}

type selectSlotRequest struct {
	Time string `json:"time"`
}

func (h *SessionHandler) SelectSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, ok := h.session(w, ps)
	if !ok {
		return
	}

	var req selectSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("Invalid request body"))
		return
	}

	if !session.Workflow.SelectSlot(req.Time) {
		httputil.WriteError(w, apperrors.Conflict("Slot is not available for selection"))
		return
	}
	h.respond(w, http.StatusOK, session)
}

func (h *SessionHandler) CancelSelection(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	session, ok := h.session(w, ps)
	if !ok {
		return
	}

	if !session.Workflow.CancelSelection() {
		httputil.WriteError(w, apperrors.Conflict("No pending slot selection"))
		return
	}
	h.respond(w, http.StatusOK, session)
}

func (h *SessionHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, ok := h.session(w, ps)
	if !ok {
		return
	}

	session.Workflow.Confirm(r.Context())
	h.respond(w, http.StatusOK, session)
}

func (h *SessionHandler) OpenManage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, ok := h.session(w, ps)
	if !ok {
		return
	}

	session.Workflow.RequestManage(r.Context())
	h.respond(w, http.StatusOK, session)
}

func (h *SessionHandler) CloseManage(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	session, ok := h.session(w, ps)
	if !ok {
		return
	}

	session.Workflow.CloseManage()
	h.respond(w, http.StatusOK, session)
}

func (h *SessionHandler) CancelBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	session, ok := h.session(w, ps)
	if !ok {
		return
	}

	session.Workflow.CancelBooking(r.Context())
	h.respond(w, http.StatusOK, session)
}
