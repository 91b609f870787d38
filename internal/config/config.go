// Package config reads the console's settings from an optional TOML file
// and the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/util"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/api"

	"github.com/go-playground/validator"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type RabbitMQ struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Exchange string `koanf:"exchange" validate:"required"`
	// ArchiveQueue is the queue the archive worker consumes graph events from.
	ArchiveQueue string `koanf:"archive_queue" validate:"required"`
}

// Enabled reports whether events are forwarded to RabbitMQ.
func (r RabbitMQ) Enabled() bool {
	return r.Host != ""
}

// URL is the AMQP connection url.
func (r RabbitMQ) URL() string {
	port := r.Port
	if port == "" {
		port = "5672"
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", r.User, r.Password, r.Host, port)
}

type S3 struct {
	Region         string `koanf:"region"`
	Endpoint       string `koanf:"endpoint" validate:"omitempty,url"`
	AccessKey      string `koanf:"access_key"`
	SecretKey      string `koanf:"secret_key"`
	Bucket         string `koanf:"bucket"`
	PublicEndpoint string `koanf:"public_endpoint" validate:"omitempty,url"`
	Prefix         string `koanf:"prefix"`
}

// Enabled reports whether graph snapshots can be exported.
func (s S3) Enabled() bool {
	return s.Bucket != ""
}

// Config holds every setting of the server and the CLI.
type Config struct {
	APIBaseURL         string        `koanf:"api_base_url" validate:"required,url"`
	PollInterval       time.Duration `koanf:"poll_interval" validate:"gt=0"`
	RequestTimeout     time.Duration `koanf:"request_timeout" validate:"gte=0"`
	Port               string        `koanf:"port" validate:"required,numeric"`
	Debug              bool          `koanf:"debug"`
	LogFormat          string        `koanf:"log_format" validate:"oneof=text json"`
	MaxUploadSize      string        `koanf:"max_upload_size" validate:"required"`
	MetricsPrometheus  bool          `koanf:"metrics_prometheus"`
	RefreshParallelism int           `koanf:"refresh_parallelism" validate:"gte=1,lte=64"`
	AllowedOrigins     []string      `koanf:"allowed_origins"`

	RabbitMQ RabbitMQ `koanf:"rabbitmq"`
	S3       S3       `koanf:"s3"`
}

// FileEnv names the optional TOML file read before the environment.
const FileEnv = "RELMINER_CONFIG"

var defaults = map[string]any{
	"api_base_url":           api.DefaultBaseURL,
	"poll_interval":          "2s",
	"request_timeout":        "30s",
	"port":                   "8080",
	"debug":                  false,
	"log_format":             "text",
	"max_upload_size":        "64M",
	"metrics_prometheus":     false,
	"refresh_parallelism":    4,
	"rabbitmq.exchange":      "relminer_events",
	"rabbitmq.archive_queue": "relminer_graph_archive",
	"s3.region":              "us-east-1",
	"s3.prefix":              "graphs",
}

// Load reads the configuration file named by RELMINER_CONFIG (if any), then
// the environment, and validates the result.
func Load() (Config, error) {
	return LoadFile(util.GetEnv(FileEnv))
}

// LoadFile is Load with an explicit TOML file. Environment variables win
// over the file; an empty path reads defaults and the environment only.
func LoadFile(path string) (Config, error) {
	base, err := loadBase(path)
	if err != nil {
		return Config{}, err
	}

	origins := base.AllowedOrigins
	if v := util.GetEnv("ALLOWED_ORIGINS"); v != "" {
		origins = splitList(v)
	}

	cfg := Config{
		APIBaseURL:         util.GetEnvString("RELMINER_API_BASE_URL", base.APIBaseURL),
		PollInterval:       util.GetEnvDuration("RELMINER_POLL_INTERVAL", base.PollInterval),
		RequestTimeout:     util.GetEnvDuration("RELMINER_REQUEST_TIMEOUT", base.RequestTimeout),
		Port:               util.GetEnvString("PORT", base.Port),
		Debug:              util.GetEnvBool("DEBUG", base.Debug),
		LogFormat:          strings.ToLower(util.GetEnvString("LOG_FORMAT", base.LogFormat)),
		MaxUploadSize:      util.GetEnvString("MAX_UPLOAD_SIZE", base.MaxUploadSize),
		MetricsPrometheus:  util.GetEnvBool("METRICS_PROMETHEUS", base.MetricsPrometheus),
		RefreshParallelism: int(util.GetEnvNumeric("RELMINER_REFRESH_PARALLELISM", base.RefreshParallelism)),
		AllowedOrigins:     origins,
		RabbitMQ: RabbitMQ{
			Host:         util.GetEnvString("RABBITMQ_HOST", base.RabbitMQ.Host),
			Port:         util.GetEnvString("RABBITMQ_PORT", base.RabbitMQ.Port),
			User:         util.GetEnvString("RABBITMQ_USER", base.RabbitMQ.User),
			Password:     util.GetEnvString("RABBITMQ_PASSWORD", base.RabbitMQ.Password),
			Exchange:     util.GetEnvString("RABBITMQ_EXCHANGE", base.RabbitMQ.Exchange),
			ArchiveQueue: util.GetEnvString("RABBITMQ_ARCHIVE_QUEUE", base.RabbitMQ.ArchiveQueue),
		},
		S3: S3{
			Region:         util.GetEnvString("AWS_REGION", base.S3.Region),
			Endpoint:       util.GetEnvString("AWS_ENDPOINT", base.S3.Endpoint),
			AccessKey:      util.GetEnvString("AWS_ACCESS_KEY", base.S3.AccessKey),
			SecretKey:      util.GetEnvString("AWS_SECRET_KEY", base.S3.SecretKey),
			Bucket:         util.GetEnvString("AWS_BUCKET", base.S3.Bucket),
			PublicEndpoint: util.GetEnvString("AWS_PUBLIC_ENDPOINT", base.S3.PublicEndpoint),
			Prefix:         util.GetEnvString("AWS_PREFIX", base.S3.Prefix),
		},
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadBase layers the TOML file over the defaults.
func loadBase(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Config{}, fmt.Errorf("error loading defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return Config{}, fmt.Errorf("error loading config %s: %w", path, err)
		}
	}

	var base Config
	if err := k.Unmarshal("", &base); err != nil {
		return Config{}, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return base, nil
}

// Validate checks cfg against its validate tags.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
