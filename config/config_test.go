package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var vars = []string{
	"GENRECAST_HOST", "GENRECAST_PORT", "GENRECAST_LOG_LEVEL",
	"GENRECAST_MODEL_URL", "GENRECAST_MODEL_FILE_ID", "GENRECAST_MODEL_PATH",
	"GENRECAST_MODEL_REFRESH", "GENRECAST_FETCH_TIMEOUT", "GENRECAST_ARTIFACT_DIR",
	"GENRECAST_UPLOAD_EXTENSIONS", "GENRECAST_UPLOAD_MEMORY_MB",
}

// clearEnv unsets every variable for the duration of the test.
func clearEnv(t *testing.T) {
	for _, k := range vars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestDefaults(t *testing.T) {
	req := require.New(t)
	clearEnv(t)

	cfg, err := FromEnviron()
	req.NoError(err)
	req.Equal(8501, cfg.Port)
	req.Equal("INFO", cfg.LogLevel)
	req.Equal("model.gcm", cfg.ModelPath)
	req.Equal(10*time.Minute, cfg.FetchTimeout)
	req.Equal(32, cfg.UploadMemoryMB)
	req.Equal(int64(32<<20), cfg.UploadMemory())
	req.Nil(cfg.Extensions())
	req.Equal(":8501", cfg.Addr())
	req.False(cfg.ModelRefresh)
}

func TestFromEnv(t *testing.T) {
	req := require.New(t)
	clearEnv(t)
	t.Setenv("GENRECAST_HOST", "127.0.0.1")
	t.Setenv("GENRECAST_PORT", "9000")
	t.Setenv("GENRECAST_LOG_LEVEL", "debug")
	t.Setenv("GENRECAST_MODEL_FILE_ID", "14y7xPjVyBg_oFasSuODSHQP3b2BSm6vt")
	t.Setenv("GENRECAST_MODEL_PATH", "/var/cache/genrecast/model.gcm")
	t.Setenv("GENRECAST_MODEL_REFRESH", "true")
	t.Setenv("GENRECAST_FETCH_TIMEOUT", "90s")
	t.Setenv("GENRECAST_UPLOAD_EXTENSIONS", "mp3, wav,flac,")
	t.Setenv("GENRECAST_UPLOAD_MEMORY_MB", "8")

	cfg, err := FromEnviron()
	req.NoError(err)
	req.Equal("127.0.0.1:9000", cfg.Addr())
	req.Equal("DEBUG", cfg.LogLevel)
	req.Equal("14y7xPjVyBg_oFasSuODSHQP3b2BSm6vt", cfg.ModelFileID)
	req.Equal("/var/cache/genrecast/model.gcm", cfg.ModelPath)
	req.True(cfg.ModelRefresh)
	req.Equal(90*time.Second, cfg.FetchTimeout)
	req.Equal([]string{"mp3", "wav", "flac"}, cfg.Extensions())
	req.Equal(int64(8<<20), cfg.UploadMemory())
}

func TestInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"port":        {"GENRECAST_PORT": "70000"},
		"level":       {"GENRECAST_LOG_LEVEL": "LOUD"},
		"url":         {"GENRECAST_MODEL_URL": "not a url"},
		"both":        {"GENRECAST_MODEL_URL": "https://example.com/model.gcm", "GENRECAST_MODEL_FILE_ID": "abc"},
		"memory":      {"GENRECAST_UPLOAD_MEMORY_MB": "0"},
		"port-format": {"GENRECAST_PORT": "eighty"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnviron()
			require.Error(t, err)
		})
	}
}
