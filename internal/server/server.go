// Package server exposes a notification store over the HTTP contract the
// client's remote.HTTPClient speaks.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/nhle/fleet-notify/internal/model"
	"github.com/nhle/fleet-notify/internal/remote"
	"github.com/nhle/fleet-notify/internal/store"
)

// PathCreate accepts new notifications from the fleet backend.
const PathCreate = "/api/notifications"

const maxBodyBytes = 1 << 20

// Server serves one NotificationStore.
type Server struct {
	store store.NotificationStore
	token string
	now   func() time.Time
	limit int
	log   zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithListLimit caps the notifications returned by the summary.
func WithListLimit(n int) Option {
	return func(s *Server) { s.limit = n }
}

// New returns a server over st. An empty token disables authentication.
func New(st store.NotificationStore, token string, opts ...Option) *Server {
	s := &Server{
		store: st,
		token: token,
		now:   time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with every route of the contract.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, s.logRequests, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, remote.Envelope{Success: true})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)

		r.Get(remote.PathSummary, s.handleSummary)
		r.Post(remote.PathMarkRead, s.handleBatch("markRead", s.store.MarkRead, false))
		r.Post(remote.PathMarkUnread, s.handleBatch("markUnread", s.store.MarkUnread, false))
		r.Post(remote.PathDelete, s.handleBatch("delete", s.store.DeleteNotifications, true))
		r.Post(remote.PathMarkAllRead, s.handleMarkAllRead)
		r.Post(PathCreate, s.handleCreate)
	})

	return r
}

// logRequests writes one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}

		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			writeFailure(w, http.StatusUnauthorized, "invalid or missing API token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := remote.BuildSummary(r.Context(), s.store, s.now(), s.limit)
	if err != nil {
		s.fail(w, r, "fetchSummary", err)
		return
	}
	writeJSON(w, http.StatusOK, remote.SummaryEnvelope{Success: true, Summary: *summary})
}

func (s *Server) handleBatch(
	op string,
	apply func(ctx context.Context, ids []string) (int64, error),
	deleted bool,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req remote.IDsRequest
		if err := decode(w, r, &req); err != nil {
			writeFailure(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if len(req.IDs) == 0 {
			writeFailure(w, http.StatusBadRequest, "ids must not be empty")
			return
		}

		n, err := apply(r.Context(), req.IDs)
		if err != nil {
			s.fail(w, r, op, err)
			return
		}

		count := int(n)
		env := remote.Envelope{Success: true}
		if deleted {
			env.DeletedCount = &count
		} else {
			env.MarkedCount = &count
		}
		writeJSON(w, http.StatusOK, env)
	}
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.MarkAllRead(r.Context())
	if err != nil {
		s.fail(w, r, "markAllRead", err)
		return
	}
	count := int(n)
	writeJSON(w, http.StatusOK, remote.Envelope{Success: true, MarkedCount: &count})
}

// CreateRequest is the body of PathCreate.
type CreateRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	RelatedTo   string          `json:"related_to"`
	Type        model.TypeLabel `json:"type"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decode(w, r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeFailure(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Type != "" && !knownType(req.Type) {
		writeFailure(w, http.StatusBadRequest, "unknown notification type")
		return
	}

	rec, err := s.store.CreateNotification(r.Context(), store.Record{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		RelatedTo:   req.RelatedTo,
		Type:        req.Type,
		CreatedAt:   s.now(),
	})
	if err != nil {
		s.fail(w, r, "create", err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Success      bool               `json:"success"`
		Notification model.Notification `json:"notification"`
	}{true, rec.ToNotification(s.now())})
}

func knownType(t model.TypeLabel) bool {
	for _, k := range model.KnownTypes {
		if k == t {
			return true
		}
	}
	return false
}

// fail logs err and answers success=false. Store errors are not echoed to
// clients.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.log.Error().
		Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("op", op).
		Msg("store operation failed")
	writeFailure(w, http.StatusInternalServerError, "the notification store is unavailable")
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, remote.Envelope{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
