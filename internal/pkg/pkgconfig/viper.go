package pkgconfig

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variables that override file values,
// e.g. CHEMVIZ_DATABASE_DSN overrides database.dsn.
const EnvPrefix = "CHEMVIZ"

// Viper is the Config used by the server.
type Viper struct {
	v *viper.Viper
}

// NewViper reads the file at pathFile, layered over Defaults and under
// CHEMVIZ_* environment variables. The format follows the file extension.
func NewViper(pathFile string) (*Viper, error) {
	v := viper.New()
	for key, value := range Defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigFile(filepath.Clean(pathFile))
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	// modules read their settings once at startup
	v.OnConfigChange(func(e fsnotify.Event) {
		slog.Warn("config file changed, restart to apply", "file", e.Name, "op", e.Op.String())
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

func (vc *Viper) GetInt(key string) int64 {
	return vc.v.GetInt64(key)
}

func (vc *Viper) GetBool(key string) bool {
	return vc.v.GetBool(key)
}

func (vc *Viper) GetString(key string) string {
	return vc.v.GetString(key)
}

// GetDuration parses values such as "30s" or "2m".
func (vc *Viper) GetDuration(key string) time.Duration {
	return vc.v.GetDuration(key)
}

// GetArray accepts a YAML sequence or a comma separated string, which is
// the only form an environment variable can take. Unset keys yield nil.
func (vc *Viper) GetArray(key string) []string {
	switch vc.v.Get(key).(type) {
	case nil:
		return nil
	case []any, []string:
		return vc.v.GetStringSlice(key)
	}

	raw := vc.v.GetString(key)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (vc *Viper) Close() error {
	return nil
}
