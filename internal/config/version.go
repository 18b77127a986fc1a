package config

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
)

const fallbackVersion = "0.1.0"

// GetVersion returns APP_VERSION when set (CI builds), otherwise the VERSION file plus the git
// commit count for local builds
func GetVersion() string {
	if v := strings.TrimSpace(os.Getenv("APP_VERSION")); v != "" {
		return v
	}
	base := getBaseVersion()
	if n := getGitCommitCount(); n > 0 {
		return base + "." + strconv.Itoa(n)
	}
	if rev := buildRevision(); rev != "" {
		return base + "+" + rev
	}
	return base
}

// getBaseVersion reads the nearest VERSION file walking up from the working directory
func getBaseVersion() string {
	dir, err := os.Getwd()
	if err != nil {
		return fallbackVersion
	}
	for {
		if content, err := os.ReadFile(filepath.Join(dir, "VERSION")); err == nil {
			if v := strings.TrimSpace(string(content)); v != "" {
				return v
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return fallbackVersion
		}
		dir = parent
	}
}

// getGitCommitCount returns the number of commits reachable from HEAD, 0 outside a repository
func getGitCommitCount() int {
	out, err := exec.Command("git", "rev-list", "--count", "HEAD").Output()
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0
	}
	return n
}

// buildRevision returns the short VCS revision stamped into the binary
func buildRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}
