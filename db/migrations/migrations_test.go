package migrations

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// findProjectRoot searches for the project root directory (where go.mod is
// located) starting from the current working directory and moving upwards.
func findProjectRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err, "Failed to get working directory")

	for i := 0; i < 5; i++ {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd
		}
		prevWd := wd
		wd = filepath.Dir(wd)
		if wd == prevWd {
			break
		}
	}
	t.Fatalf("Failed to find project root (go.mod)")
	return ""
}

func migrationFiles(t *testing.T) []string {
	t.Helper()
	dir := filepath.Join(findProjectRoot(t), "db", "migrations")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err, "Failed to read migrations directory: %s", dir)

	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	require.NotEmpty(t, files, "No .sql migration files found in %s", dir)
	return files
}

// TestMigrationsNotEmpty catches accidental empty migration files.
func TestMigrationsNotEmpty(t *testing.T) {
	dir := filepath.Join(findProjectRoot(t), "db", "migrations")
	for _, name := range migrationFiles(t) {
		content, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, "Failed to read migration file: %s", name)
		require.NotEmpty(t, content, "Migration file is empty: %s", name)
	}
}

// TestMigrationFileNames enforces the NNNNNN_description.up.sql naming the
// migrate tool expects, and that every up has a matching down.
func TestMigrationFileNames(t *testing.T) {
	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, name := range migrationFiles(t) {
		base := strings.TrimSuffix(name, ".sql")
		switch {
		case strings.HasSuffix(base, ".up"):
			ups[strings.TrimSuffix(base, ".up")] = true
		case strings.HasSuffix(base, ".down"):
			downs[strings.TrimSuffix(base, ".down")] = true
		default:
			t.Fatalf("File %q is neither an up nor a down migration", name)
		}

		parts := strings.SplitN(base, "_", 2)
		require.Len(t, parts, 2, "File name %q does not match format NNNNNN_description", name)
		_, err := strconv.Atoi(parts[0])
		require.NoError(t, err, "File name %q does not start with a number", name)
	}

	for stem := range ups {
		require.True(t, downs[stem], "Migration %q has no matching down file", stem)
	}
	for stem := range downs {
		require.True(t, ups[stem], "Migration %q has no matching up file", stem)
	}
}
