package secret

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSourcePrefersEnvironment(t *testing.T) {
	t.Setenv("ROYALTY_TEST_SECRET", "from-env")
	src := NewSource("ROYALTY_TEST_SECRET", "signing secret")
	src.prompt = func() (string, error) {
		t.Fatal("prompt should not run when the variable is set")
		return "", nil
	}
	value, err := src.Get()
	require.NoError(t, err)
	require.Equal(t, "from-env", value)
}

func TestSourceRejectsEmptyEnvironment(t *testing.T) {
	t.Setenv("ROYALTY_TEST_SECRET", "  ")
	_, err := NewSource("ROYALTY_TEST_SECRET", "signing secret").Get()
	require.ErrorContains(t, err, "set but empty")
}

func TestSourcePromptsOnceAndCaches(t *testing.T) {
	calls := 0
	src := NewSource("", "signing secret")
	src.prompt = func() (string, error) {
		calls++
		return "typed", nil
	}
	for i := 0; i < 2; i++ {
		value, err := src.Get()
		require.NoError(t, err)
		require.Equal(t, "typed", value)
	}
	require.Equal(t, 1, calls)
}

func TestSourceWithoutTerminal(t *testing.T) {
	src := NewSource("ROYALTY_UNSET_SECRET", "signing secret")
	src.prompt = func() (string, error) { return "", errNoTerminal }
	_, err := src.Get()
	require.ErrorContains(t, err, "set ROYALTY_UNSET_SECRET or run interactively")

	blank := NewSource("", "signing secret")
	blank.prompt = func() (string, error) { return " ", nil }
	_, err = blank.Get()
	require.ErrorContains(t, err, "cannot be empty")

	failing := NewSource("", "signing secret")
	failing.prompt = func() (string, error) { return "", errors.New("tty closed") }
	_, err = failing.Get()
	require.ErrorContains(t, err, "tty closed")
}
