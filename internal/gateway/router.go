package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"

	"github.com/roach88/mobtimer/internal/engine"
	"github.com/roach88/mobtimer/internal/roster"
	"github.com/roach88/mobtimer/internal/state"
)

// Engine is the part of *engine.Engine the HTTP routes use.
type Engine interface {
	Enqueuer
	Do(ctx context.Context, fn func(*engine.Engine)) error
}

// Snapshot is the body of GET /state.
type Snapshot struct {
	State            state.State    `json:"state"`
	Current          *roster.Mobber `json:"current"`
	Next             *roster.Mobber `json:"next"`
	Phase            string         `json:"phase"`
	SecondsRemaining int            `json:"secondsRemaining"`
}

// ValidationError describes one rejected field of a command envelope.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields []ValidationError `json:"fields,omitempty"`
}

const (
	maxCommandBody = 64 * 1024
	stateTimeout   = 5 * time.Second
)

type routes struct {
	eng      Engine
	validate *validator.Validate
}

// NewRouter returns the HTTP handler for the gateway. ws serves /ws.
func NewRouter(eng Engine, ws http.Handler, allowedOrigins []string) http.Handler {
	rt := &routes{eng: eng, validate: newValidator()}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/ws", ws)
	r.Get("/state", rt.getState)
	r.Post("/commands", rt.postCommand)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	})
	return c.Handler(r)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (rt *routes) getState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), stateTimeout)
	defer cancel()

	var snap Snapshot
	err := rt.eng.Do(ctx, func(e *engine.Engine) {
		pair := e.CurrentAndNext()
		snap = Snapshot{
			State:            e.State(),
			Current:          pair.Current,
			Next:             pair.Next,
			Phase:            e.Phase().String(),
			SecondsRemaining: e.SecondsRemaining(),
		}
	})
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (rt *routes) postCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCommandBody))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
		return
	}

	var env engine.CommandEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid JSON: %v", err)})
		return
	}
	if fields := rt.check(env); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid command", Fields: fields})
		return
	}

	cmd, err := env.Decode()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if !rt.eng.Enqueue(cmd) {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: engine.ErrStopped.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"accepted": cmd.CommandName()})
}

func (rt *routes) check(env engine.CommandEnvelope) []ValidationError {
	err := rt.validate.Struct(env)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Code: "INVALID", Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", fe.Field())
		case "max":
			msg = fmt.Sprintf("%s must not exceed %s characters", fe.Field(), fe.Param())
		default:
			msg = fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
		}
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Code:    strings.ToUpper(fe.Tag()),
			Message: msg,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
