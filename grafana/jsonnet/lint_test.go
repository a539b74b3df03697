package jsonnet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestShippedDashboardsAreValid validates every dashboard under
// grafana/dashboards against the provisioning schema.
func TestShippedDashboardsAreValid(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "dashboards", "*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no dashboard definitions found")

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			dashboardBytes, err := os.ReadFile(path)
			require.NoError(t, err)

			valid, violations, err := ValidateDashboard(dashboardBytes)
			require.NoError(t, err)
			assert.True(t, valid, "dashboard schema is not valid: %v", violations)
		})
	}
}

func TestValidateDashboardRejectsMissingPanels(t *testing.T) {
	valid, violations, err := ValidateDashboard([]byte(`{"title": "No Panels"}`))
	require.NoError(t, err)
	assert.False(t, valid)

	var fields []string
	for _, v := range violations {
		fields = append(fields, v.Description())
	}
	assert.Contains(t, strings.Join(fields, "; "), "panels")
}

func TestValidateDashboardRejectsMalformedJSON(t *testing.T) {
	_, _, err := ValidateDashboard([]byte(`{not json`))
	assert.Error(t, err)
}
