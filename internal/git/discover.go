package git

import (
	"runtime"
	"strings"
)

// Default executable locations. PATH is never searched.
const (
	UnixExecPath       = "/usr/bin/git"
	WindowsExecPath    = "C:/Program Files/Git/bin/git.exe"
	WindowsX86ExecPath = "C:/Program Files (x86)/Git/bin/git.exe"
)

var (
	goos   = runtime.GOOS
	goarch = runtime.GOARCH
)

// DetectExecutable returns the git executable to use: the configured path
// when set, otherwise the platform's conventional install location.
func DetectExecutable(configured string) string {
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured
	}
	if goos != "windows" {
		return UnixExecPath
	}
	if strings.HasSuffix(goarch, "64") || goarch == "s390x" {
		return WindowsExecPath
	}
	return WindowsX86ExecPath
}
