package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/investorportal/internal/handlers/testutil"
)

func TestHealthEndpoints(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.GetJSON("/health")
	require.Equal(t, http.StatusOK, w.Code)
	var summary map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	require.Equal(t, true, summary["success"])
	require.Equal(t, "up", summary["status"])
	require.NotContains(t, summary, "checks")

	w = env.GetJSON("/health/ready")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"database"`)

	w = env.GetJSON("/health/live")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHealthReportsDatabaseOutage(t *testing.T) {
	env := testutil.NewEnv(t)

	sqlDB, err := env.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w := env.GetJSON("/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = env.GetJSON("/health/live")
	require.Equal(t, http.StatusOK, w.Code)
}
