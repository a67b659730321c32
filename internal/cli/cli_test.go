package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/friendlyid"
	"github.com/dmitrymomot/friendlyid/internal/cli"
	"github.com/dmitrymomot/friendlyid/internal/config"
)

const testConfig = `
log:
  level: error
types:
  - name: posts
    max_length: 12
  - name: articles
    mode: history
    reserved_words: [about]
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "friendlyid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	var out, errOut bytes.Buffer
	root := cli.NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", path}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default options", []string{"normalize", "Hello World!", "Ærøskøbing"}, "hello-world\naeroskobing\n"},
		{"type max length", []string{"normalize", "--type", "posts", "A Rather Long Title"}, "a-rather-lon\n"},
		{"reserved word", []string{"normalize", "-t", "articles", "About", "Edit"}, "about (reserved)\nedit\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	t.Run("blank text", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "normalize", "--type", "posts", "!!!")
		require.ErrorIs(t, err, friendlyid.ErrBlankSlug)
	})

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "normalize", "--type", "missing", "x")
		require.ErrorIs(t, err, friendlyid.ErrUnknownType)
	})
}

func TestCommands_RequireDatabase(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{
		{"migrate"},
		{"find", "--type", "posts", "hello"},
		{"backfill", "--type", "posts"},
		{"check"},
	} {
		t.Run(args[0], func(t *testing.T) {
			t.Parallel()

			_, err := run(t, args...)
			require.ErrorIs(t, err, config.ErrInvalidConfig)
			assert.Contains(t, err.Error(), "database.url")
		})
	}
}

func TestCommands_RequiredFlags(t *testing.T) {
	t.Parallel()

	_, err := run(t, "backfill")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "type" not set`)
}

func TestExecute_InvalidConfig(t *testing.T) {
	t.Parallel()

	code := cli.Execute(context.Background(), []string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "check"})
	assert.Equal(t, 1, code)
}
