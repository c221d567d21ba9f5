package pkgrouter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgerror"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkglog"
)

// Handler returns a payload for the JSON envelope, a File for downloads, or
// an error that is mapped to a status code.
type Handler func(ctx context.Context, r *http.Request) (any, error)

// HealthCheck reports whether a dependency, such as the database, can serve
// requests.
type HealthCheck func(ctx context.Context) error

// File is implemented by responses that are sent as a download instead of a
// JSON envelope.
type File interface {
	ContentType() string
	Filename() string
	Content() []byte
}

type Router struct {
	hr     *httprouter.Router
	mws    []Middleware
	checks map[string]HealthCheck
}

// NewRouter builds the API router with recovery, correlation ids and access
// logging applied to every route, plus "/" and "/health".
func NewRouter(uuid Generator) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, errorResponse{Message: "endpoint not found"}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, errorResponse{Message: "method not allowed"}, http.StatusMethodNotAllowed)
		}),
	}

	ro := &Router{
		hr:     hr,
		checks: map[string]HealthCheck{},
		mws: []Middleware{
			middlewareRecoverer,
			middlewareCorrelationID(uuid),
			middlewareLogging,
		},
	}

	ro.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"message": "chemical equipment analyzer api"}, http.StatusOK)
	}))
	ro.Handle(http.MethodGet, "/health", http.HandlerFunc(ro.health))

	return ro
}

// AddHealthCheck registers a dependency probed by GET /health.
func (r *Router) AddHealthCheck(name string, check HealthCheck) {
	r.checks[name] = check
}

func (r *Router) Use(mws ...Middleware) {
	r.mws = append(r.mws, mws...)
}

func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

func (r *Router) DELETE(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodDelete, path, h, mws...)
}

// Handle registers a raw http.Handler behind the router middlewares.
func (r *Router) Handle(method, path string, h http.Handler, mws ...Middleware) {
	r.hr.Handler(method, path, r.chain(h, mws))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	r.hr.Handler(method, path, r.chain(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(req.Context(), req)
		if err != nil {
			writeError(req.Context(), w, err)
			return
		}
		writeSuccess(w, resp)
	}), mws))
}

func (r *Router) chain(h http.Handler, mws []Middleware) http.Handler {
	all := make([]Middleware, 0, len(r.mws)+len(mws))
	all = append(all, r.mws...)
	return Chain(h, append(all, mws...)...)
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, check := range r.checks {
		if err := check(ctx); err != nil {
			slog.WarnContext(ctx, "health check failed", "check", name, "error", err)
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		writeJSON(w, errorResponse{Message: "service unavailable", Error: failed}, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"message": "server is running well"}, http.StatusOK)
}

type errorResponse struct {
	Message       string            `json:"message"`
	Error         map[string]string `json:"error,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
}

type successResponse struct {
	Message string         `json:"message"`
	Data    any            `json:"data"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// writeError maps business errors to their status. Anything else is logged
// and hidden behind a 500 that carries the correlation id.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var gerr *pkgerror.Error
	if errors.As(err, &gerr) {
		writeJSON(w, errorResponse{Message: gerr.Msg(), Error: gerr.Fields()}, gerr.StatusCode())
		return
	}

	slog.ErrorContext(ctx, "unhandled error", "error", err)
	writeJSON(w, errorResponse{
		Message:       "Internal server error",
		CorrelationID: pkglog.GetCorrelationID(ctx),
	}, http.StatusInternalServerError)
}

func writeSuccess(w http.ResponseWriter, resp any) {
	if f, ok := resp.(File); ok {
		writeFile(w, f)
		return
	}

	code := http.StatusOK
	if sc, ok := resp.(interface{ StatusCode() int }); ok {
		code = sc.StatusCode()
	}
	if code == http.StatusNoContent || resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	out := successResponse{Message: "request has been successfully", Data: resp}
	if m, ok := resp.(interface{ Message() string }); ok {
		out.Message = m.Message()
	}
	if m, ok := resp.(interface{ Meta() map[string]any }); ok {
		out.Meta = m.Meta()
	}

	writeJSON(w, out, code)
}

func writeFile(w http.ResponseWriter, f File) {
	content := f.Content()
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	if name := f.Filename(); name != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		slog.Error("failed to write file response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode json response", "error", err)
	}
}
