package task

import (
	"strings"
	"testing"

	"github.com/SanjoDeundiak/build-runner/pkg/lib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"
)

func TestCatalogueLookupAndList(t *testing.T) {
	c, err := NewCatalogue([]Task{
		{Name: "osx", Command: "node", Args: []string{"build.js", "--osx"}},
		{Name: "exe", Command: "node", Args: []string{"build.js", "--exe"}},
		{Name: "win", Command: "node", Args: []string{"build.js", "--win"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	got, err := c.Lookup("win")
	require.NoError(t, err)
	assert.Equal(t, []string{"build.js", "--win"}, got.Args)

	names := make([]string, 0, 3)
	for _, tk := range c.List() {
		names = append(names, tk.Name)
	}
	assert.Equal(t, []string{"exe", "osx", "win"}, names)
}

func TestLookupUnknown(t *testing.T) {
	c, err := NewCatalogue(nil)
	require.NoError(t, err)

	_, err = c.Lookup("missing")
	require.ErrorIs(t, err, lib.ErrUnknownTask)

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	assert.Equal(t, "missing", zErr.Metadata()["task"])

	var nilCatalogue *Catalogue
	_, err = nilCatalogue.Lookup("x")
	assert.ErrorIs(t, err, lib.ErrUnknownTask)
	assert.Empty(t, nilCatalogue.List())
}

func TestCatalogueValidation(t *testing.T) {
	tests := []struct {
		name  string
		tasks []Task
		want  string
	}{
		{"empty name", []Task{{Command: "make"}}, "name is required"},
		{"whitespace name", []Task{{Name: "a b", Command: "make"}}, "whitespace"},
		{"missing command", []Task{{Name: "a"}}, "command is required"},
		{"bad env", []Task{{Name: "a", Command: "make", Env: []string{"NOVALUE"}}}, "KEY=VALUE"},
		{"duplicate", []Task{{Name: "a", Command: "make"}, {Name: "a", Command: "make"}}, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalogue(tt.tasks)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), "got %v", err)
		})
	}
}

func TestTaskCommandExpandsEnv(t *testing.T) {
	t.Setenv("BRN_TEST_OUT", "/tmp/out")

	cmd := Task{
		Name:    "pkg",
		Command: "make",
		Args:    []string{"$BRN_TEST_OUT"},
		Dir:     "${BRN_TEST_OUT}/src",
		Env:     []string{"DEST=$BRN_TEST_OUT/bin", "KEEP=$BRN_TEST_MISSING"},
	}.RunnerCommand()

	assert.Equal(t, "make", cmd.Command)
	// Arguments are passed through untouched.
	assert.Equal(t, []string{"$BRN_TEST_OUT"}, cmd.Args)
	assert.Equal(t, "/tmp/out/src", cmd.Dir)
	assert.Equal(t, []string{"DEST=/tmp/out/bin", "KEEP=$BRN_TEST_MISSING"}, cmd.Env)
	assert.Equal(t, "pkg", cmd.Task)
}

func TestExpandEnvUIDGID(t *testing.T) {
	value := ExpandEnv("$UID/$GID")
	assert.NotContains(t, value, "$")
}

func TestResolveAppendsArgs(t *testing.T) {
	c, err := NewCatalogue([]Task{{Name: "build", Command: "make", Args: []string{"all"}}})
	require.NoError(t, err)

	cmd, err := c.Resolve("build", "-j4", "V=1")
	require.NoError(t, err)
	assert.Equal(t, []string{"all", "-j4", "V=1"}, cmd.Args)

	// The catalogue entry is not modified.
	again, err := c.Resolve("build")
	require.NoError(t, err)
	assert.Equal(t, []string{"all"}, again.Args)

	_, err = c.Resolve("missing")
	assert.ErrorIs(t, err, lib.ErrUnknownTask)
}
