package command

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pkg.jsn.cam/permgen/internal/config"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := NewApp(&stdout, &stderr).Run(append([]string{"permgen"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestGenerateFlags(t *testing.T) {
	dir := t.TempDir()
	stdout, stderr, err := run(t, "-o", dir, "-n", "3", "-l", "10", "--seed", "9", "--key-min", "5", "--key-max", "6")
	require.NoError(t, err)
	require.Equal(t, "test 1 generated\ntest 2 generated\ntest 3 generated\n", stdout)
	require.Contains(t, stderr, "Fixtures generated")
	require.Contains(t, stderr, "seed=9")

	for _, name := range []string{"test_001.in", "test_002.in", "test_003.in"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
			require.Regexp(t, `^((s )?k [56]|r)$`, line)
		}
	}
	_, err = os.Stat(filepath.Join(dir, "test_004.in"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigFileWithFlagOverride(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "permgen.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
output_dir: `+filepath.Join(dir, "fixtures")+`
create_dir: true
files: 4
lines: 2
progress: none
`), 0o644))

	stdout, _, err := run(t, "-c", cfgPath, "--count", "1")
	require.NoError(t, err)
	require.Empty(t, stdout)

	entries, err := os.ReadDir(filepath.Join(dir, "fixtures"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestGenerateRejectsInvalid(t *testing.T) {
	_, _, err := run(t, "-o", t.TempDir(), "--reset-chance", "1.5")
	require.ErrorIs(t, err, config.ErrInvalid)

	_, _, err = run(t, "-o", t.TempDir(), "stray")
	require.Error(t, err)
}

func TestGenerateMissingDir(t *testing.T) {
	_, _, err := run(t, "-o", filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRuns(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "manifest.db")

	stdout, _, err := run(t, "runs", "--manifest", db)
	require.NoError(t, err)
	require.Equal(t, "No runs recorded\n", stdout)

	_, _, err = run(t, "-o", dir, "-n", "2", "-l", "5", "--seed", "77", "--manifest", db, "--progress", "none")
	require.NoError(t, err)

	stdout, _, err = run(t, "runs", "-m", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "RUN ID")
	fields := strings.Fields(lines[2])
	require.Contains(t, fields, "77")
	require.Contains(t, fields, "2")
	require.Equal(t, dir, fields[len(fields)-1])
}
