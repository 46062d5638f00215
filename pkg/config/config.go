package config

import (
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	configFileENV     = "CONFIG_FILE"
	defaultConfigFile = "/config/samanbooks.yaml"
)

type Config struct {
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries" default:"5"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" validate:"required"`

	// LibraryPath is the directory scanned when no directory is given on the
	// command line.
	LibraryPath    string   `koanf:"library_path"`
	IgnoredFolders []string `koanf:"ignored_folders" default:"[\"Libros\",\"ePub\",\"PDF\",\"biblioteca\"]"`
	// NameMatch controls how authors and series are matched during
	// find-or-create: "exact" (case-insensitive equality) or "substring".
	NameMatch         string `koanf:"name_match" default:"exact" validate:"oneof=exact substring"`
	SkipExistingPaths bool   `koanf:"skip_existing_paths"`
	EnrichAuthors     bool   `koanf:"enrich_authors"`

	BookProviders     []string `koanf:"book_providers" default:"[\"openlibrary\",\"googlebooks\"]" validate:"dive,oneof=openlibrary googlebooks"`
	GoogleBooksAPIKey string   `koanf:"google_books_api_key"`
	// ProviderTimeout of zero falls back to the HTTP client's own default;
	// ProviderRequestsPerSecond of zero disables throttling.
	ProviderTimeout           time.Duration `koanf:"provider_timeout" default:"10s"`
	ProviderRequestsPerSecond float64       `koanf:"provider_requests_per_second" default:"1"`
	ProviderMaxRetries        int           `koanf:"provider_max_retries"`
	ProviderUserAgent         string        `koanf:"provider_user_agent" default:"SamanBooks/1.0 (+https://github.com/samanbooks/samanbooks)"`
	CoverSize                 string        `koanf:"cover_size" default:"L" validate:"oneof=S M L"`
}

// New loads the configuration in layers: struct defaults first, then the
// YAML file named by CONFIG_FILE (a missing file is fine), then environment
// variables named after the upper-cased keys. Explicit zero values in the file
// or environment are kept. List keys read from the environment are
// comma-separated.
func New() (*Config, error) {
	k := koanf.New(".")

	path := os.Getenv(configFileENV)
	if path == "" {
		path = defaultConfigFile
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(err, "failed to load config file %s", path)
	}

	known := knownKeys()
	err := k.Load(env.ProviderWithValue("", ".", func(name, value string) (string, interface{}) {
		key := strings.ToLower(name)
		kind, ok := known[key]
		if !ok || value == "" {
			return "", nil
		}
		if kind == reflect.Slice {
			return key, splitList(value)
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a configuration backed by an in-memory database.
func NewForTest() *Config {
	cfg := &Config{DatabaseFilePath: ":memory:"}
	_ = defaults.Set(cfg)
	cfg.DatabaseConnectRetryDelay = 10 * time.Millisecond
	return cfg
}

func (cfg *Config) validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("koanf")
	})

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return errors.WithStack(err)
	}

	fe := errs[0]
	// Dive errors carry an index suffix, e.g. book_providers[1].
	key := strings.SplitN(fe.Field(), "[", 2)[0]
	if fe.Tag() == "required" {
		return errors.Errorf("missing required config: %s (%s)", strings.ToUpper(key), key)
	}
	return errors.Errorf("invalid config: %s must be one of [%s], got %q", key, fe.Param(), fmt.Sprint(fe.Value()))
}

func knownKeys() map[string]reflect.Kind {
	keys := map[string]reflect.Kind{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		if key := t.Field(i).Tag.Get("koanf"); key != "" {
			keys[key] = t.Field(i).Type.Kind()
		}
	}
	return keys
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
