package config

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUniqueInstance(t *testing.T) {
	id := CreateUniqueInstance("test")

	parsed, err := uuid.FromString(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.V4, parsed.Version())
	assert.Equal(t, id, GetInstanceId())
}

func TestLoggingTo(t *testing.T) {
	defer log.SetOutput(os.Stderr)

	dir := filepath.Join(t.TempDir(), "logs")
	LoggingTo(dir, "unit")
	log.Info("hello from the test")

	data, err := os.ReadFile(filepath.Join(dir, "unit.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the test")
}

func TestCustomLoggerMiddlewarePassesThrough(t *testing.T) {
	h := CustomLoggerMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestLoadEnvOptionalWithoutFile(t *testing.T) {
	assert.False(t, LoadEnvOptional("test"))
}
