package pkgrouter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkglog"
)

// middlewareRecoverer turns a panicking handler into a 500 response. A broken
// CSV row or a bad PDF font must not take the whole server down.
//
//nolint:errcheck,gosec,contextcheck // response is already committed
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:err113,errorlint // sentinel must be compared directly
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			ctx := r.Context()
			slog.ErrorContext(ctx, "panic while serving request",
				"method", r.Method,
				"path", r.URL.Path,
				"because", rvr,
				"stack", internalFrames(debug.Stack()),
			)

			body := map[string]string{"message": "Internal server error"}
			if cid := pkglog.GetCorrelationID(ctx); cid != "" {
				body["correlation_id"] = cid
			}

			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			if r.Header.Get("Connection") != "Upgrade" {
				w.WriteHeader(http.StatusInternalServerError)
			}
			json.NewEncoder(w).Encode(body)
		}()

		next.ServeHTTP(w, r)
	})
}

// internalFrames keeps the "internal/<pkg>/<file>.go:<line>" locations of a
// stack trace and drops runtime and third-party frames.
func internalFrames(stack []byte) []string {
	var frames []string
	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, "/internal/")
		if idx == -1 || !strings.Contains(line, ".go:") {
			continue
		}
		loc := line[idx+1:]
		if sp := strings.IndexByte(loc, ' '); sp != -1 {
			loc = loc[:sp]
		}
		frames = append(frames, loc)
	}
	return frames
}
