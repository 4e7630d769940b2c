package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"alumni/internal/region/cascade"
	"alumni/internal/region/models"
	"alumni/internal/region/providers"
	"alumni/internal/region/session"
	"alumni/pkg/platform/httputil"
	"alumni/pkg/platform/sentinel"
)

// Handler exposes catalog lookups and selector sessions over HTTP.
type Handler struct {
	source      providers.RegionDataSource
	postal      providers.PostalCodeResolver
	sessions    *session.Registry
	logger      *slog.Logger
	waitTimeout time.Duration
}

type Option func(*Handler)

// WithWaitTimeout bounds how long ?wait=true holds a request open.
func WithWaitTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.waitTimeout = d
	}
}

// New constructs a region handler with its dependencies. postal may be nil,
// in which case postal code lookups report the service unavailable.
func New(source providers.RegionDataSource, postal providers.PostalCodeResolver, sessions *session.Registry, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		source:      source,
		postal:      postal,
		sessions:    sessions,
		logger:      logger,
		waitTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts region endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/regions", func(r chi.Router) {
		r.Get("/villages/{code}/postal-code", h.HandlePostalCode)
		r.Get("/{level}", h.HandleChildren)
	})
	r.Route("/selector/sessions", func(r chi.Router) {
		r.Post("/", h.HandleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGetSession)
			r.Delete("/", h.HandleDeleteSession)
			r.Post("/select", h.HandleSelect)
			r.Post("/rehydrate", h.HandleRehydrate)
			r.Post("/postal-code", h.HandlePostalCodeEdit)
			r.Post("/retry", h.HandleRetry)
		})
	})
}

// HandleChildren handles GET /regions/{level}?parent=CODE.
func (h *Handler) HandleChildren(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	level, err := models.ParseLevel(chi.URLParam(r, "level"))
	if err != nil {
		httputil.WriteError(w, httputil.BadRequest("%v", err))
		return
	}
	parent := r.URL.Query().Get("parent")
	if err := providers.ValidateRequest(level, parent); err != nil {
		httputil.WriteError(w, httputil.BadRequest("%s lookup needs parent only below provinces", level))
		return
	}

	options, err := h.source.FetchChildren(ctx, level, parent)
	if err != nil {
		h.logger.WarnContext(ctx, "region lookup failed",
			"level", level.String(),
			"parent", parent,
			"error", err,
		)
		httputil.WriteError(w, catalogError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ChildrenResponse{Level: level, ParentCode: parent, Options: options})
}

// HandlePostalCode handles GET /regions/villages/{code}/postal-code.
func (h *Handler) HandlePostalCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := chi.URLParam(r, "code")
	if h.postal == nil {
		httputil.WriteError(w, fmt.Errorf("postal code lookup not configured: %w", sentinel.ErrUnavailable))
		return
	}

	postal, err := h.postal.ResolvePostalCode(ctx, code)
	if err != nil {
		h.logger.WarnContext(ctx, "postal code lookup failed", "village", code, "error", err)
		httputil.WriteError(w, catalogError(err))
		return
	}
	if postal == nil {
		httputil.WriteError(w, fmt.Errorf("postal code of %s: %w", code, sentinel.ErrNotFound))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PostalCodeResponse{VillageCode: code, PostalCode: *postal})
}

// HandleCreateSession handles POST /selector/sessions.
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeJSON[CreateSessionRequest](r, true)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	id, c, err := h.sessions.Create(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "selector session create failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	if req.Selection != nil {
		if err := c.Rehydrate(*req.Selection); err != nil {
			httputil.WriteError(w, controllerError(err))
			return
		}
	}
	h.writeState(w, r, http.StatusCreated, id, c)
}

// HandleGetSession handles GET /selector/sessions/{id}.
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeState(w, r, http.StatusOK, id, c)
}

// HandleDeleteSession handles DELETE /selector/sessions/{id}.
func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.sessions.Delete(id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSelect handles POST /selector/sessions/{id}/select.
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := httputil.DecodeJSON[SelectRequest](r, false)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := c.OnUserSelect(req.Level, req.Code); err != nil {
		httputil.WriteError(w, controllerError(err))
		return
	}
	h.writeState(w, r, http.StatusOK, id, c)
}

// HandleRehydrate handles POST /selector/sessions/{id}/rehydrate.
func (h *Handler) HandleRehydrate(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := httputil.DecodeJSON[models.Selection](r, false)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := c.Rehydrate(req); err != nil {
		httputil.WriteError(w, controllerError(err))
		return
	}
	h.writeState(w, r, http.StatusAccepted, id, c)
}

// HandlePostalCodeEdit handles POST /selector/sessions/{id}/postal-code.
func (h *Handler) HandlePostalCodeEdit(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := httputil.DecodeJSON[PostalCodeRequest](r, false)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := c.OnPostalCodeManualEdit(req.PostalCode); err != nil {
		httputil.WriteError(w, controllerError(err))
		return
	}
	h.writeState(w, r, http.StatusOK, id, c)
}

// HandleRetry handles POST /selector/sessions/{id}/retry.
func (h *Handler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.session(w, r)
	if !ok {
		return
	}
	req, err := httputil.DecodeJSON[RetryRequest](r, false)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := c.Retry(req.Level); err != nil {
		httputil.WriteError(w, controllerError(err))
		return
	}
	h.writeState(w, r, http.StatusAccepted, id, c)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (uuid.UUID, *cascade.Controller, bool) {
	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return uuid.Nil, nil, false
	}
	c, err := h.sessions.Get(id)
	if err != nil {
		httputil.WriteError(w, err)
		return uuid.Nil, nil, false
	}
	return id, c, true
}

// writeState responds with the session state, first waiting for it to
// settle when the request asks for ?wait=true.
func (h *Handler) writeState(w http.ResponseWriter, r *http.Request, status int, id uuid.UUID, c *cascade.Controller) {
	if r.URL.Query().Get("wait") == "true" {
		ctx, cancel := context.WithTimeout(r.Context(), h.waitTimeout)
		err := c.WaitSettled(ctx)
		cancel()
		if errors.Is(err, cascade.ErrClosed) {
			httputil.WriteError(w, controllerError(err))
			return
		}
	}
	httputil.WriteJSON(w, status, SessionResponse{ID: id.String(), State: c.State()})
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, httputil.BadRequest("invalid session id")
	}
	return id, nil
}

func controllerError(err error) error {
	switch {
	case errors.Is(err, cascade.ErrInvalidLevel):
		return httputil.BadRequest("%v", err)
	case errors.Is(err, cascade.ErrUnknownCode):
		return &httputil.RequestError{Status: http.StatusBadRequest, Code: "unknown_code", Message: err.Error()}
	case errors.Is(err, cascade.ErrLevelDisabled):
		return httputil.Conflict("level_disabled", err.Error())
	case errors.Is(err, cascade.ErrNothingToRetry):
		return httputil.Conflict("nothing_to_retry", err.Error())
	case errors.Is(err, cascade.ErrClosed):
		return fmt.Errorf("selector session closed: %w", sentinel.ErrNotFound)
	}
	return err
}

func catalogError(err error) error {
	switch {
	case providers.IsNotFound(err):
		return fmt.Errorf("%v: %w", err, sentinel.ErrNotFound)
	case errors.Is(err, providers.ErrInvalidRequest):
		return httputil.BadRequest("%v", err)
	case providers.IsRetryable(err):
		return fmt.Errorf("region catalog: %w", sentinel.ErrUnavailable)
	}
	return &httputil.RequestError{Status: http.StatusBadGateway, Code: "bad_gateway", Message: "region catalog returned an unusable response"}
}
