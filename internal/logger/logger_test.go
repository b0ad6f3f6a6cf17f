package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }

func TestLogger_WritesJSONLines(t *testing.T) {
	var terminal bytes.Buffer
	file := nopCloser{&bytes.Buffer{}}
	l := &Logger{terminal: &terminal, logFile: file, minLevel: DEBUG}

	l.LogAccess("event-1", "DENY", "ticket required")

	var entry LogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(file.Bytes()), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "ACCESS", entry.Category)
	assert.Equal(t, "[DENY] event event-1 - ticket required", entry.Message)
	assert.Contains(t, terminal.String(), "ticket required")
}

func TestLogger_RespectsMinLevel(t *testing.T) {
	file := nopCloser{&bytes.Buffer{}}
	l := &Logger{terminal: &bytes.Buffer{}, logFile: file, minLevel: WARN}

	l.Info("APP", "hidden")
	l.Warn("APP", "shown")

	assert.NotContains(t, file.String(), "hidden")
	assert.Contains(t, file.String(), "shown")
}

func TestNewLoggerIn_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	l := NewLoggerIn(dir, "test")
	l.Info("APP", "hello")
	l.Close()

	matches, err := filepath.Glob(filepath.Join(dir, "test-*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "hello"))
}

func TestRequestLogger(t *testing.T) {
	file := nopCloser{&bytes.Buffer{}}
	l := &Logger{terminal: &bytes.Buffer{}, logFile: file, minLevel: DEBUG}

	h := RequestLogger(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cpf/check", nil))

	assert.Contains(t, file.String(), "GET /api/cpf/check - 418")
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Error("APP", "nothing")
	l.Close()
}
