package accounts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/signuphub/signuphub/internal/auth"
	"github.com/signuphub/signuphub/internal/observability"
	"github.com/signuphub/signuphub/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the account lifecycle.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authmw  func(http.Handler) http.Handler
	metrics *observability.Metrics
}

// NewHandler constructs a Handler. authmw guards the owner-scoped
// routes; metrics may be nil.
func NewHandler(logger *slog.Logger, service *Service, authmw func(http.Handler) http.Handler, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, authmw: authmw, metrics: metrics}
}

// MountRoutes registers account routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Group(func(r chi.Router) {
		r.Use(h.authmw)
		r.Get("/{id}", h.get)
		r.Patch("/activate/{id}", h.activate)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Detail(w, http.StatusBadRequest, "The request body is invalid")
		return
	}

	account, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, err, "User not found")
		return
	}

	h.metrics.RecordAccountCreated()
	httpx.JSON(w, http.StatusCreated, toResponse(account))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, err, "User not found")
		return
	}
	httpx.JSON(w, http.StatusOK, ListAccountsResponse{Data: toSummaries(all)})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r, "User not found")
	if !ok {
		return
	}

	account, err := h.service.Get(r.Context(), id, principal(r))
	if err != nil {
		h.respondError(w, err, "User not found")
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(account))
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accountID(w, r, "The user was not found")
	if !ok {
		return
	}
	code := r.URL.Query().Get("code")

	if err := h.service.Activate(r.Context(), id, code, principal(r)); err != nil {
		h.metrics.RecordActivation(activationOutcome(err))
		h.respondError(w, err, "The user was not found")
		return
	}

	h.metrics.RecordActivation("success")
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "User activated"})
}

func principal(r *http.Request) string {
	return auth.PrincipalFromContext(r.Context())
}

func activationOutcome(err error) string {
	switch {
	case errors.Is(err, ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, ErrIncorrectCode):
		return "incorrect_code"
	case errors.Is(err, ErrAlreadyActivated):
		return "already_activated"
	case errors.Is(err, ErrCodeExpired):
		return "code_expired"
	case errors.Is(err, ErrTooManyAttempts):
		return "throttled"
	default:
		return "error"
	}
}

// accountID parses the {id} path segment. A non-numeric id is
// indistinguishable from an unknown account and answers with the
// same per-route not-found message.
func (h *Handler) accountID(w http.ResponseWriter, r *http.Request, notFoundDetail string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Detail(w, http.StatusNotFound, notFoundDetail)
		return 0, false
	}
	return id, true
}

// respondError maps typed lifecycle failures onto client messages.
// notFoundDetail differs between the fetch and activation endpoints.
// Anything untyped is infrastructure: one log line, opaque 500.
func (h *Handler) respondError(w http.ResponseWriter, err error, notFoundDetail string) {
	switch {
	case errors.Is(err, ErrEmptyPassword):
		httpx.Detail(w, http.StatusBadRequest, "The password is empty")
	case errors.Is(err, ErrPasswordTooShort):
		httpx.Detail(w, http.StatusBadRequest, "The password must be at least 8 characters. Consider having a shorter one")
	case errors.Is(err, ErrPasswordTooLong):
		httpx.Detail(w, http.StatusBadRequest, "The password is too long")
	case errors.Is(err, ErrDuplicateEmail):
		httpx.Detail(w, http.StatusBadRequest, "The email already exists")
	case errors.Is(err, ErrInvalidEmail):
		httpx.Detail(w, http.StatusBadRequest, "The email is incorrect")
	case errors.Is(err, ErrEmailTooLong):
		httpx.Detail(w, http.StatusBadRequest, "The email is over 50 characters")
	case errors.Is(err, ErrAccountNotFound):
		httpx.Detail(w, http.StatusNotFound, notFoundDetail)
	case errors.Is(err, ErrIncorrectCode):
		httpx.Detail(w, http.StatusBadRequest, "The code provided is incorrect")
	case errors.Is(err, ErrAlreadyActivated):
		httpx.Detail(w, http.StatusBadRequest, "The user is already activated")
	case errors.Is(err, ErrCodeExpired):
		httpx.Detail(w, http.StatusBadRequest, "The code is no longer available")
	case errors.Is(err, ErrTooManyAttempts):
		httpx.Detail(w, http.StatusTooManyRequests, "Too many activation attempts")
	default:
		h.logger.Error("account operation failed", slog.Any("error", err))
		httpx.Detail(w, http.StatusInternalServerError, "An error has occured")
	}
}
