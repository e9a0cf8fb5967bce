package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jacentio/roster/directory"
)

// Directory is the set of operations served over HTTP.
// *directory.Service satisfies it.
type Directory interface {
	CreateOrganization(ctx context.Context, in directory.CreateOrganizationInput) (directory.Result, error)
	UpdateOrganization(ctx context.Context, in directory.UpdateOrganizationInput) (directory.Result, error)
	CreateUser(ctx context.Context, in directory.CreateUserInput) (directory.Result, error)
	UpdateUser(ctx context.Context, in directory.UpdateUserInput) (directory.Result, error)
	ListOrganizations(ctx context.Context) ([]directory.Organization, error)
	ListUsers(ctx context.Context) ([]directory.User, error)
	ListUsersByOrg(ctx context.Context, orgID string) ([]directory.User, error)
}

// Handler serves the directory routes.
type Handler struct {
	dir    Directory
	router *chi.Mux
	proxy  *chiadapter.ChiLambda
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(dir Directory, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		dir:    dir,
		logger: logger,
	}
	h.router = h.routes()
	h.proxy = chiadapter.New(h.router)
	return h
}

// Router returns the HTTP handler for all routes.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/organizations", func(r chi.Router) {
		r.Get("/", h.listOrganizations)
		r.Post("/", h.createOrganization)
		r.Route("/{orgId}", func(r chi.Router) {
			r.Put("/", h.updateOrganization)
			r.Get("/users", h.listUsersByOrg)
			r.Post("/users", h.createUser)
			r.Put("/users/{userId}", h.updateUser)
		})
	})
	r.Get("/users", h.listUsers)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: string(directory.KindNotFound), Details: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "MethodNotAllowed", Details: "method not allowed"})
	})
	return r
}

// --- Handlers ---

func (h *Handler) createOrganization(w http.ResponseWriter, r *http.Request) {
	var in directory.CreateOrganizationInput
	if !h.decode(w, r, &in) {
		return
	}
	res, err := h.dir.CreateOrganization(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, createdStatus(res), createdBody{
		Message: message(res, "Organization creation initiated", "Organization created"),
		OrgID:   res.ID,
	})
}

func (h *Handler) updateOrganization(w http.ResponseWriter, r *http.Request) {
	in := directory.UpdateOrganizationInput{}
	if !h.decode(w, r, &in) {
		return
	}
	in.OrgID = chi.URLParam(r, "orgId")

	res, err := h.dir.UpdateOrganization(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, updatedStatus(res), messageBody{
		Message: message(res, "Organization update initiated", "Organization updated"),
	})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in directory.CreateUserInput
	if !h.decode(w, r, &in) {
		return
	}
	in.OrgID = chi.URLParam(r, "orgId")

	res, err := h.dir.CreateUser(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, createdStatus(res), createdBody{
		Message: message(res, "User registration initiated", "User registered"),
		UserID:  res.ID,
	})
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var in directory.UpdateUserInput
	if !h.decode(w, r, &in) {
		return
	}
	in.OrgID = chi.URLParam(r, "orgId")
	in.UserID = chi.URLParam(r, "userId")

	res, err := h.dir.UpdateUser(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, updatedStatus(res), messageBody{
		Message: message(res, "User update initiated", "User updated"),
	})
}

func (h *Handler) listOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.dir.ListOrganizations(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orgs)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.dir.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) listUsersByOrg(w http.ResponseWriter, r *http.Request) {
	users, err := h.dir.ListUsersByOrg(r.Context(), chi.URLParam(r, "orgId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// --- Encoding ---

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type messageBody struct {
	Message string `json:"message"`
}

type createdBody struct {
	Message string `json:"message"`
	OrgID   string `json:"orgId,omitempty"`
	UserID  string `json:"userId,omitempty"`
}

// decode reads a JSON body into v. On failure it writes a 400 and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	details := "request body must be a JSON object"
	if errors.Is(err, io.EOF) {
		details = "request body is required"
	}
	writeJSON(w, http.StatusBadRequest, errorBody{Error: string(directory.KindInvalidFormat), Details: details})
	return false
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Error: string(directory.KindUpstreamFailure), Details: "internal error"}

	var derr *directory.Error
	if errors.As(err, &derr) {
		body.Error = string(derr.Kind)
		body.Details = derr.Detail
	}
	kind := directory.Kind(body.Error)
	if kind == directory.KindUpstreamFailure {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"requestId", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, kind.HTTPStatus(), body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func createdStatus(res directory.Result) int {
	if res.Outcome == directory.Accepted {
		return http.StatusAccepted
	}
	return http.StatusCreated
}

func updatedStatus(res directory.Result) int {
	if res.Outcome == directory.Accepted {
		return http.StatusAccepted
	}
	return http.StatusOK
}

func message(res directory.Result, accepted, applied string) string {
	if res.Outcome == directory.Accepted {
		return accepted
	}
	return applied
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"requestId", middleware.GetReqID(r.Context()),
		)
	})
}
