// Package misc holds build time information injected by the linker.
package misc

var (
	appName = "cardgen"
	version = "development"
	gitHash = "unknown"
)

// GetAppName returns program name to be used in logs and configuration.
func GetAppName() string {
	return appName
}

// GetVersion returns program version set during build.
func GetVersion() string {
	return version
}

// GetGitHash returns git commit hash set during build.
func GetGitHash() string {
	return gitHash
}
