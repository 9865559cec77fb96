package lab_test

import (
	"testing"

	"github.com/ctfops-io/scoring-api/pkg/lab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T) *lab.StaticRunner {
	t.Helper()
	return lab.NewStaticRunner(map[string]map[string]string{
		"web-1": {
			"/home/ctf/flag.txt":   "FLAG{virtual}",
			"/home/ctf/.notes":     "hidden notes",
			"/home/ctf/www/app.py": "print('hi')",
			"/README":              "welcome",
		},
	})
}

func run(t *testing.T, runner *lab.StaticRunner, command, cwd string) *lab.Result {
	t.Helper()
	result, err := runner.Execute("web-1", command, cwd)
	require.NoError(t, err)
	return result
}

func TestHasLab(t *testing.T) {
	runner := newRunner(t)
	assert.True(t, runner.HasLab("web-1"))
	assert.False(t, runner.HasLab("web-2"))
}

func TestExecuteWithoutLab(t *testing.T) {
	runner := newRunner(t)
	_, err := runner.Execute("web-2", "ls", "/")
	assert.ErrorIs(t, err, lab.NoLabError)
}

func TestPwdAndEcho(t *testing.T) {
	runner := newRunner(t)

	result := run(t, runner, "pwd", "/home/ctf")
	assert.Equal(t, "/home/ctf", result.Output)
	assert.Zero(t, result.ExitCode)

	result = run(t, runner, "echo hello world", "/")
	assert.Equal(t, "hello world", result.Output)
}

func TestInvalidCwdFallsBackToRoot(t *testing.T) {
	runner := newRunner(t)
	result := run(t, runner, "pwd", "/no/such/dir")
	assert.Equal(t, "/", result.Output)
	assert.Equal(t, "/", result.Cwd)
}

func TestChangeDir(t *testing.T) {
	runner := newRunner(t)

	result := run(t, runner, "cd /home/ctf", "/")
	assert.Equal(t, "/home/ctf", result.Cwd)
	assert.Zero(t, result.ExitCode)

	result = run(t, runner, "cd www", "/home/ctf")
	assert.Equal(t, "/home/ctf/www", result.Cwd)

	result = run(t, runner, "cd ..", "/home/ctf/www")
	assert.Equal(t, "/home/ctf", result.Cwd)

	result = run(t, runner, "cd", "/home/ctf")
	assert.Equal(t, "/", result.Cwd)

	result = run(t, runner, "cd /etc", "/home/ctf")
	assert.Equal(t, "/home/ctf", result.Cwd, "a failed cd keeps the working directory")
	assert.Equal(t, 1, result.ExitCode)
}

func TestListHidesDotfilesByDefault(t *testing.T) {
	runner := newRunner(t)

	result := run(t, runner, "ls", "/home/ctf")
	assert.Equal(t, "flag.txt\nwww", result.Output)

	result = run(t, runner, "ls -a", "/home/ctf")
	assert.Equal(t, ".\n..\n.notes\nflag.txt\nwww", result.Output)

	result = run(t, runner, "ls /", "/home/ctf")
	assert.Equal(t, "README\nhome", result.Output)

	result = run(t, runner, "ls /missing", "/")
	assert.Equal(t, 1, result.ExitCode)
}

func TestCat(t *testing.T) {
	runner := newRunner(t)

	result := run(t, runner, "cat flag.txt", "/home/ctf")
	assert.Equal(t, "FLAG{virtual}", result.Output)
	assert.Zero(t, result.ExitCode)

	result = run(t, runner, "cat /README flag.txt", "/home/ctf")
	assert.Equal(t, "welcome\nFLAG{virtual}", result.Output)

	result = run(t, runner, "cat missing.txt", "/home/ctf")
	assert.Equal(t, "cat: missing.txt: No such file or directory", result.Output)
	assert.Equal(t, 1, result.ExitCode)

	result = run(t, runner, "cat", "/")
	assert.Equal(t, 1, result.ExitCode)
}

func TestUnknownCommand(t *testing.T) {
	runner := newRunner(t)
	result := run(t, runner, "rm -rf /", "/")
	assert.Equal(t, 127, result.ExitCode)
	assert.Equal(t, "rm: command not found", result.Output)
}

func TestEmptyCommand(t *testing.T) {
	runner := newRunner(t)
	result := run(t, runner, "   ", "/home/ctf")
	assert.Empty(t, result.Output)
	assert.Zero(t, result.ExitCode)
	assert.Equal(t, "/home/ctf", result.Cwd)
}

func TestHelpListsCommands(t *testing.T) {
	runner := newRunner(t)
	result := run(t, runner, "help", "/")
	assert.Contains(t, result.Output, "ls")
	assert.Contains(t, result.Output, "cat")
}
