package config

import "fmt"
import "net"
import "strconv"
import "strings"
import "time"

import "github.com/Netflix/go-env"
import "github.com/go-playground/validator/v10"
import "github.com/joho/godotenv"

type Config struct {
	Host     string `env:"GENRECAST_HOST"`
	Port     int    `env:"GENRECAST_PORT,default=8501" validate:"min=1,max=65535"`
	LogLevel string `env:"GENRECAST_LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`

	ModelURL     string        `env:"GENRECAST_MODEL_URL" validate:"omitempty,url"`
	ModelFileID  string        `env:"GENRECAST_MODEL_FILE_ID" validate:"omitempty,excluded_with=ModelURL"`
	ModelPath    string        `env:"GENRECAST_MODEL_PATH,default=model.gcm" validate:"required"`
	ModelRefresh bool          `env:"GENRECAST_MODEL_REFRESH"`
	FetchTimeout time.Duration `env:"GENRECAST_FETCH_TIMEOUT,default=10m" validate:"gt=0"`

	ArtifactDir      string `env:"GENRECAST_ARTIFACT_DIR"`
	UploadExtensions string `env:"GENRECAST_UPLOAD_EXTENSIONS"`
	UploadMemoryMB   int    `env:"GENRECAST_UPLOAD_MEMORY_MB,default=32" validate:"min=1"`
}

var validate = validator.New()

// Load reads an optional .env file and the environment, then validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnviron()
}

// FromEnviron reads the process environment only.
func FromEnviron() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Extensions splits UploadExtensions. An empty setting yields nil.
func (c *Config) Extensions() []string {
	var out []string
	for _, e := range strings.Split(c.UploadExtensions, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// UploadMemory is the multipart buffering limit in bytes.
func (c *Config) UploadMemory() int64 {
	return int64(c.UploadMemoryMB) << 20
}
