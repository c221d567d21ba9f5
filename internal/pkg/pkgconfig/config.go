package pkgconfig

import "time"

// Config is the read-only view of configuration handed to modules.
type Config interface {
	GetInt(key string) int64
	GetBool(key string) bool
	GetString(key string) string
	GetDuration(key string) time.Duration
	GetArray(key string) []string
	Close() error
}

// Defaults apply when a key is absent from both the file and the
// environment. They describe a single local instance backed by sqlite.
//
//nolint:gochecknoglobals // read-only table
var Defaults = map[string]any{
	"tz":                               "UTC",
	"server.address.http":              ":8000",
	"database.driver":                  "sqlite",
	"database.dsn":                     "file:chemicalanalyzer.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
	"storage.uploads_dir":              "./media",
	"modules.auth.enabled":             true,
	"modules.dataset.enabled":          true,
	"modules.dataset.max_upload_bytes": 10 << 20,
	"modules.dataset.preview_limit":    100,
	"modules.dataset.retention.limit":  5,
	"modules.dataset.retention.scope":  "user",
	"modules.dataset.report.font_path": "",
	"insights.enabled":                 true,
	"insights.model":                   "gemini-2.5-flash",
	"insights.timeout":                 "30s",
	"insights.retry_max":               3,
	"metrics.datadog.flush_interval":   "60s",
}
