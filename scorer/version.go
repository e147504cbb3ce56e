package scorer

// Version represents the current semantic version of the newsletter-automation library.
//
// This constant follows semantic versioning format (MAJOR.MINOR.PATCH) and is
// automatically updated during the release process. Applications can use this
// for version logging, compatibility validation, or feature detection.
//
// Current version: 0.3.0 indicates pre-1.0 development phase with potential
// breaking changes between minor versions.
const Version = "0.3.0"

// VersionInfo encapsulates comprehensive version metadata for the
// newsletter-automation library.
//
// This struct provides structured access to version information, enabling
// applications to perform version comparisons, logging, and runtime
// compatibility checks without parsing version strings manually.
type VersionInfo struct {
	// Version contains the semantic version string following semver format
	Version string

	// Name contains the canonical library name for identification purposes
	Name string
}

// GetVersion returns structured version information for the
// newsletter-automation library.
//
// Usage:
//
//	info := GetVersion()
//	log.Printf("Using %s version %s", info.Name, info.Version)
func GetVersion() VersionInfo {
	return VersionInfo{
		Version: Version,
		Name:    "newsletter-automation",
	}
}
