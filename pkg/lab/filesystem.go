package lab

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// filesystem is a read-only virtual file tree. Directories are derived
// from the configured file paths.
type filesystem struct {
	files       map[string]string
	directories map[string]bool
}

func newFilesystem(files map[string]string) *filesystem {
	fs := &filesystem{
		files:       make(map[string]string, len(files)),
		directories: map[string]bool{"/": true},
	}
	for filePath, content := range files {
		normalized := normalizePath(filePath)
		fs.files[normalized] = content
		parent := path.Dir(normalized)
		for parent != "/" {
			fs.directories[parent] = true
			parent = path.Dir(parent)
		}
	}
	return fs
}

func normalizePath(p string) string {
	normalized := path.Clean(strings.TrimSpace(p))
	if normalized == "" || normalized == "." {
		return "/"
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return normalized
}

// resolve joins a target against the working directory, keeping absolute
// targets as they are.
func (fs *filesystem) resolve(cwd, target string) string {
	if strings.HasPrefix(target, "/") {
		return normalizePath(target)
	}
	return normalizePath(path.Join(cwd, target))
}

func (fs *filesystem) isFile(p string) bool {
	_, found := fs.files[normalizePath(p)]
	return found
}

func (fs *filesystem) isDir(p string) bool {
	return fs.directories[normalizePath(p)]
}

func (fs *filesystem) changeDir(cwd string, args []string) (*Result, error) {
	target := "/"
	if len(args) > 0 {
		target = fs.resolve(cwd, args[0])
	}
	if !fs.isDir(target) {
		return &Result{
			Output:   fmt.Sprintf("cd: %s: No such directory", strings.Join(args, " ")),
			Cwd:      cwd,
			ExitCode: 1,
		}, nil
	}
	return &Result{Cwd: target}, nil
}

func (fs *filesystem) list(cwd string, args []string) (*Result, error) {
	showAll := false
	target := cwd
	for _, arg := range args {
		if arg == "-a" {
			showAll = true
			continue
		}
		target = fs.resolve(cwd, arg)
	}
	if !fs.isDir(target) {
		if fs.isFile(target) {
			return &Result{Output: target, Cwd: cwd}, nil
		}
		return &Result{
			Output:   fmt.Sprintf("ls: %s: No such file or directory", target),
			Cwd:      cwd,
			ExitCode: 1,
		}, nil
	}
	prefix := "/"
	if target != "/" {
		prefix = target + "/"
	}
	children := make(map[string]bool)
	for candidate := range fs.files {
		if strings.HasPrefix(candidate, prefix) {
			children[strings.SplitN(candidate[len(prefix):], "/", 2)[0]] = true
		}
	}
	for candidate := range fs.directories {
		if candidate != target && strings.HasPrefix(candidate, prefix) {
			children[strings.SplitN(candidate[len(prefix):], "/", 2)[0]] = true
		}
	}
	names := make([]string, 0, len(children))
	for name := range children {
		if showAll || !strings.HasPrefix(name, ".") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if showAll {
		names = append([]string{".", ".."}, names...)
	}
	return &Result{Output: strings.Join(names, "\n"), Cwd: cwd}, nil
}

func (fs *filesystem) cat(cwd string, args []string) (*Result, error) {
	if len(args) == 0 {
		return &Result{Output: "cat: missing operand", Cwd: cwd, ExitCode: 1}, nil
	}
	outputs := make([]string, 0, len(args))
	exitCode := 0
	for _, arg := range args {
		target := fs.resolve(cwd, arg)
		content, found := fs.files[target]
		if !found {
			outputs = append(outputs, fmt.Sprintf("cat: %s: No such file or directory", arg))
			exitCode = 1
			continue
		}
		outputs = append(outputs, content)
	}
	return &Result{Output: strings.Join(outputs, "\n"), Cwd: cwd, ExitCode: exitCode}, nil
}
