// Package dnf builds structured argument lists for the external package
// management tools this mirror depends on: dnf (cache maintenance and
// reposync) and createrepo_c (repodata regeneration).
//
// Arguments are returned as argv slices and must be passed to a process
// spawning primitive directly, never joined into a shell command line.
package dnf

import "os/exec"

var (
	// ExecutablePath is the dnf executable used for cache maintenance
	// and repository synchronization.
	ExecutablePath string

	// CreaterepoExecutablePath is the tool used to (re)generate the
	// repodata of a local repository.
	CreaterepoExecutablePath string
)

func init() {
	ExecutablePath = exec.Command("dnf").String()
	CreaterepoExecutablePath = exec.Command("createrepo_c").String()
}

// CleanExpireCacheArgs marks cached repository metadata as expired so the
// next metadata download is forced.
func CleanExpireCacheArgs() []string {
	return []string{"clean", "expire-cache"}
}

// RepolistArgs refreshes the list of enabled repositories.
func RepolistArgs() []string {
	return []string{"repolist"}
}

// ReposyncArgs builds the argument list to mirror the repository with the
// given repoid into targetPath. Stale packages which are no longer present
// on the remote are deleted unless keepOldRPMs is set.
func ReposyncArgs(targetPath, repoid string, keepOldRPMs bool) []string {
	args := []string{
		"reposync",
		"--assumeyes",
		"--download-metadata",
		"--download-path=" + targetPath,
		"--downloadcomps",
		"--newest-only",
		"--norepopath",
		"--repoid=" + repoid,
	}
	if !keepOldRPMs {
		args = append(args, "--delete")
	}
	return args
}

// CreaterepoArgs builds the argument list to regenerate the repodata of
// the repository at targetPath, reusing existing metadata where possible.
func CreaterepoArgs(targetPath string) []string {
	return []string{"--update", targetPath}
}
