package pkgrouter

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
)

// maxLoggedBodyBytes caps request bodies and error responses copied into a
// log record.
const maxLoggedBodyBytes = 4 * 1024

//nolint:gochecknoglobals // read-only lookup table
var sensitiveKeys = map[string]struct{}{
	"password":         {},
	"password_confirm": {},
	"token":            {},
	"authorization":    {},
	"cookie":           {},
	"x-goog-api-key":   {},
}

func isSensitive(key string) bool {
	_, found := sensitiveKeys[strings.ToLower(key)]
	return found
}

func maskHeaders(headers http.Header) http.Header {
	result := headers.Clone()
	for key := range result {
		if isSensitive(key) {
			result.Set(key, "***")
		}
	}
	return result
}

func maskData(v any) any {
	switch val := v.(type) {
	case map[string]any:
		masked := make(map[string]any, len(val))
		for k, v2 := range val {
			if isSensitive(k) {
				masked[k] = "***"
			} else {
				masked[k] = maskData(v2)
			}
		}
		return masked
	case []any:
		res := make([]any, len(val))
		for i, v2 := range val {
			res[i] = maskData(v2)
		}
		return res
	default:
		return v
	}
}

// describeBody renders a captured body for logging. CSV uploads are never
// read here; the upload handler owns that stream and its size limit.
func describeBody(contentType string, body []byte) any {
	if strings.HasPrefix(strings.ToLower(contentType), "multipart/") {
		return "<multipart body omitted>"
	}
	if len(body) == 0 {
		return nil
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err == nil {
		return maskData(parsed)
	}
	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	if len(body) > maxLoggedBodyBytes {
		return string(body[:maxLoggedBodyBytes]) + "...(truncated)"
	}
	return string(body)
}

// statusRecorder tracks the status and size of a response. It keeps a copy
// of the body only once an error status is written, so dataset payloads and
// PDF reports are never buffered.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	errBuf bytes.Buffer
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if w.status >= http.StatusBadRequest {
		if room := maxLoggedBodyBytes - w.errBuf.Len(); room > 0 {
			w.errBuf.Write(p[:min(len(p), room)])
		}
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

func middlewareLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := matchedRoutePath(r)
		start := time.Now()
		contentType := r.Header.Get("Content-Type")

		var reqBody []byte
		if r.Body != nil && !strings.HasPrefix(strings.ToLower(contentType), "multipart/") {
			//nolint:errcheck // best effort for logging only
			reqBody, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(reqBody))
		}

		slog.InfoContext(r.Context(), "request received",
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"content_length", r.ContentLength,
			"headers", maskHeaders(r.Header),
			"body", describeBody(contentType, reqBody),
		)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}

		attrs := []any{
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", rec.bytes,
			"content_type", rec.Header().Get("Content-Type"),
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if status >= http.StatusBadRequest {
			attrs = append(attrs, "body", describeBody(rec.Header().Get("Content-Type"), rec.errBuf.Bytes()))
		}

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "response sent", attrs...)
	})
}
