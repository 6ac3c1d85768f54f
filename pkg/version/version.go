package version

import (
	"github.com/Masterminds/semver"
)

var (
	// Version contains the current version of netlistend
	Version = "dev"

	// CommitHash contains the current git commit hash
	CommitHash = "unknown"

	// BuildTime contains the time of build
	BuildTime = "unknown"
)

// Satisfies reports whether this build is at least minVersion. Development
// builds without a semantic version satisfy any minimum.
func Satisfies(minVersion string) (bool, error) {
	constraint, err := semver.NewConstraint(">= " + minVersion)
	if err != nil {
		return false, err
	}
	current, err := semver.NewVersion(Version)
	if err != nil {
		return true, nil
	}
	return constraint.Check(current), nil
}
