package execenv

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	smerrors "github.com/systmms/secretmap/internal/errors"
	"github.com/systmms/secretmap/internal/logging"
)

func newTestExecutor(out *bytes.Buffer) *Executor {
	logger := logging.New(false, true)
	if out == nil {
		return New(logger)
	}
	return New(logger, WithOutput(out))
}

func TestMaskValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", "(empty)"},
		{"single_char", "a", "*"},
		{"two_chars", "ab", "**"},
		{"three_chars", "abc", "***"},
		{"four_chars", "abcd", "a**d"},
		{"eight_chars", "abcdefgh", "a******h"},
		{"nine_chars", "abcdefghi", "abc********hi"},
		{"long_value", "mysupersecretpassword", "mys********rd"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, maskValue(tt.input))
		})
	}
}

func TestEnvironment(t *testing.T) {
	// Not parallel because some subtests use t.Setenv.

	t.Run("adds_mapped_variables", func(t *testing.T) {
		env := Environment(map[string]string{
			"DB_HOST": "db.internal",
			"DB_PORT": "5432",
		}, false)

		found := 0
		for _, e := range env {
			if strings.HasPrefix(e, "DB_HOST=") || strings.HasPrefix(e, "DB_PORT=") {
				found++
			}
		}
		assert.Equal(t, 2, found)
	})

	t.Run("mapped_values_override_inherited", func(t *testing.T) {
		t.Setenv("SECRETMAP_EXEC_TEST", "inherited")

		env := Environment(map[string]string{"SECRETMAP_EXEC_TEST": "mapped"}, false)

		assert.Contains(t, env, "SECRETMAP_EXEC_TEST=mapped")
	})

	t.Run("preserve_existing_keeps_inherited", func(t *testing.T) {
		t.Setenv("SECRETMAP_EXEC_TEST", "inherited")

		env := Environment(map[string]string{"SECRETMAP_EXEC_TEST": "mapped"}, true)

		assert.Contains(t, env, "SECRETMAP_EXEC_TEST=inherited")
	})

	t.Run("inherits_process_environment", func(t *testing.T) {
		env := Environment(map[string]string{"NEW_VAR": "value"}, false)

		assert.Greater(t, len(env), 1)
		hasPath := false
		for _, e := range env {
			if strings.HasPrefix(e, "PATH=") {
				hasPath = true
				break
			}
		}
		assert.True(t, hasPath, "PATH should survive the merge")
	})

	t.Run("sorted_by_name", func(t *testing.T) {
		env := Environment(map[string]string{
			"ZZZ_VAR": "last",
			"AAA_VAR": "first",
			"MMM_VAR": "middle",
		}, false)

		assert.True(t, sortedStrings(env), "environment slice should be sorted")
	})
}

func sortedStrings(values []string) bool {
	for i := 1; i < len(values); i++ {
		if values[i-1] > values[i] {
			return false
		}
	}
	return true
}

func TestExecEmptyCommand(t *testing.T) {
	t.Parallel()

	err := newTestExecutor(nil).Exec(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No command specified")
}

func TestExecCommandNotFound(t *testing.T) {
	t.Parallel()

	err := newTestExecutor(nil).Exec(context.Background(), Options{
		Command: []string{"secretmap_no_such_command_xyz"},
	})
	require.Error(t, err)

	var cmdErr smerrors.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Contains(t, cmdErr.Message, "command not found")
}

func TestExecPropagatesExitCode(t *testing.T) {
	t.Parallel()

	err := newTestExecutor(nil).Exec(context.Background(), Options{
		Command: []string{"sh", "-c", "exit 3"},
	})
	require.Error(t, err)

	var cmdErr smerrors.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 3, cmdErr.ExitCode)
}

func TestExecInjectsVariables(t *testing.T) {
	err := newTestExecutor(nil).Exec(context.Background(), Options{
		Command:   []string{"sh", "-c", `test "$MAPPED_TEST_VAR" = expected`},
		Variables: map[string]string{"MAPPED_TEST_VAR": "expected"},
	})
	assert.NoError(t, err)
}

func TestExecPrintsMaskedVariables(t *testing.T) {
	var out bytes.Buffer

	err := newTestExecutor(&out).Exec(context.Background(), Options{
		Command:   []string{"sh", "-c", "true"},
		Variables: map[string]string{"API_KEY": "supersecretkey123"},
		PrintVars: true,
	})
	require.NoError(t, err)

	output := out.String()
	assert.Contains(t, output, "Mapped 1 environment variables")
	assert.Contains(t, output, "API_KEY")
	assert.NotContains(t, output, "supersecretkey123")
}

func TestPrintVariablesEmpty(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	newTestExecutor(&out).printVariables(nil)
	assert.Contains(t, out.String(), "No variables mapped")
}

func TestPrintVariablesSorted(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	newTestExecutor(&out).printVariables(map[string]string{
		"ZZZ": "zzz-value",
		"AAA": "aaa-value",
		"MMM": "mmm-value",
	})

	output := out.String()
	assert.Less(t, strings.Index(output, "AAA"), strings.Index(output, "MMM"))
	assert.Less(t, strings.Index(output, "MMM"), strings.Index(output, "ZZZ"))
}
