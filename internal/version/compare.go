package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/barsim/pkg/errors"
)

// CheckCompatibility reports whether a config written for requiredVersion can run on engineVersion.
//
// Rules:
//   - an empty required version or a "main" build on either side skips the check
//   - major versions must match
//   - the engine minor version must be at least the required minor version
//
// Examples:
//   - engine 1.2.0, required 1.2.0 -> OK
//   - engine 1.3.1, required 1.2.0 -> OK
//   - engine 1.1.0, required 1.2.0 -> ERROR
//   - engine 2.0.0, required 1.2.0 -> ERROR
func CheckCompatibility(engineVersion, requiredVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	requiredVersion = strings.TrimPrefix(requiredVersion, "v")

	if requiredVersion == "" || engineVersion == "main" || requiredVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine version '%s'", engineVersion)
	}

	requiredSemver, err := semver.NewVersion(requiredVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid required version '%s'", requiredVersion)
	}

	if engineSemver.Major() != requiredSemver.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "major version mismatch: engine is %d.x.x but config requires %d.x.x",
			engineSemver.Major(), requiredSemver.Major())
	}

	if engineSemver.Minor() < requiredSemver.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "engine %s is older than required %d.%d.x",
			engineSemver.String(), requiredSemver.Major(), requiredSemver.Minor())
	}

	return nil
}
