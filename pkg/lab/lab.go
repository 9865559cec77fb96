// Package lab runs the command-shell simulation of optional lab
// challenges. A lab is a read-only virtual file tree per challenge slug; no
// real process is ever executed.
package lab

import (
	"errors"
	"fmt"
	"strings"
)

// NoLabError is returned, when no lab is configured for a challenge.
var NoLabError = errors.New("no lab is configured for this challenge")

// Result is the outcome of one executed lab command.
type Result struct {
	// Output is the combined output of the command.
	Output string
	// Cwd is the working directory after the command ran.
	Cwd string
	// ExitCode mimics a shell exit code. Unknown commands yield 127
	// without failing the call.
	ExitCode int
}

// Runner is the collaborator interface the scoring API delegates lab
// commands to.
type Runner interface {

	// HasLab reports whether a lab is configured for the challenge with
	// the given slug.
	HasLab(slug string) bool

	// Execute runs a single command in the lab of the given challenge,
	// relative to the given working directory. NoLabError is returned,
	// when the challenge has no lab.
	Execute(slug, command, cwd string) (*Result, error)
}

// StaticRunner is a Runner over in-memory file trees configured at
// startup.
type StaticRunner struct {
	labs map[string]*filesystem
}

// NewStaticRunner creates a runner for the given labs, keyed by challenge
// slug. Each lab maps absolute file paths to file contents.
func NewStaticRunner(labs map[string]map[string]string) *StaticRunner {
	runner := &StaticRunner{labs: make(map[string]*filesystem, len(labs))}
	for slug, files := range labs {
		runner.labs[slug] = newFilesystem(files)
	}
	return runner
}

func (r *StaticRunner) HasLab(slug string) bool {
	_, found := r.labs[slug]
	return found
}

func (r *StaticRunner) Execute(slug, command, cwd string) (*Result, error) {
	fs, found := r.labs[slug]
	if !found {
		return nil, NoLabError
	}
	if cwd == "" || !fs.isDir(cwd) {
		cwd = "/"
	} else {
		cwd = normalizePath(cwd)
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return &Result{Cwd: cwd}, nil
	}
	name, args := fields[0], fields[1:]
	switch name {
	case "help":
		return &Result{Output: "available commands: cat cd echo help ls pwd", Cwd: cwd}, nil
	case "pwd":
		return &Result{Output: cwd, Cwd: cwd}, nil
	case "echo":
		return &Result{Output: strings.Join(args, " "), Cwd: cwd}, nil
	case "cd":
		return fs.changeDir(cwd, args)
	case "ls":
		return fs.list(cwd, args)
	case "cat":
		return fs.cat(cwd, args)
	}
	return &Result{
		Output:   fmt.Sprintf("%s: command not found", name),
		Cwd:      cwd,
		ExitCode: 127,
	}, nil
}
