package computer

import (
	"fmt"
	"strings"
)

// Remote paths follow the remote machine's convention, not the harness
// host's, so filepath cannot be used here. Windows-style paths are detected
// syntactically: drive-letter prefix, UNC prefix, or a backslash separator.

// IsWindowsPath 判断远端路径是否为 Windows 风格 / reports whether a remote path is Windows-style.
func IsWindowsPath(path string) bool {
	if len(path) >= 2 && path[1] == ':' && isDriveLetter(path[0]) {
		return true
	}
	if strings.HasPrefix(path, `\\`) {
		return true
	}
	return strings.Contains(path, `\`)
}

func isDriveLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// SplitRemote splits a remote path into parent directory and base name,
// using the convention-appropriate separator.
func SplitRemote(path string) (dir, base string) {
	sep := "/"
	if IsWindowsPath(path) {
		sep = `\`
		// Paths like C:/Users/... mix separators; normalize on the one
		// that actually appears last.
		if strings.LastIndex(path, "/") > strings.LastIndex(path, `\`) {
			sep = "/"
		}
	}
	idx := strings.LastIndex(path, sep)
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

// MkdirCommand returns the shell command that creates dir (and parents) on
// the remote side, for the convention dir is written in.
func MkdirCommand(dir string) string {
	if IsWindowsPath(dir) {
		return fmt.Sprintf(`if not exist "%s" mkdir "%s"`, dir, dir)
	}
	return fmt.Sprintf(`mkdir -p "%s"`, dir)
}
