package git

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// MinimumVersion is the oldest git providing `switch` and `restore`.
const MinimumVersion = "2.23.0"

var (
	versionNumber  = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)
	minimumVersion = semver.MustParse(MinimumVersion)
)

// ParseVersion extracts the semantic version from `git version` output such
// as "git version 2.43.0.windows.1".
func ParseVersion(output string) (*semver.Version, error) {
	m := versionNumber.FindStringSubmatch(output)
	if m == nil {
		return nil, fmt.Errorf("no version number in %q", output)
	}
	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	return semver.NewVersion(fmt.Sprintf("%s.%s.%s", m[1], m[2], patch))
}

// CheckVersion fails when the installed git predates MinimumVersion.
func CheckVersion(output string) error {
	v, err := ParseVersion(output)
	if err != nil {
		return err
	}
	if v.LessThan(minimumVersion) {
		return fmt.Errorf("git %s is older than %s: switch and restore are unavailable", v, MinimumVersion)
	}
	return nil
}
