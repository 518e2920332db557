package mirrorsync

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config is the declarative description of all local mirrors.
// It is loaded once at process start and not mutated afterwards.
type Config struct {
	// BasePath is the absolute path to an existing directory under which
	// all repository target directories are created
	BasePath string `yaml:"base_path"`

	// List of mirrored repositories, processed in order.
	Repositories []RepoConfig `yaml:"reposync_repos"`
}

// RepoConfig describes a single mirrored repository.
type RepoConfig struct {
	// RepoID is the repository id known to dnf, unique within the config
	RepoID string `yaml:"repoid"`

	// RelativeTargetPath is joined with base_path to form the absolute
	// target directory of the mirror
	RelativeTargetPath string `yaml:"relative_target_path"`

	// KeepOldRPMs disables deletion of packages which are no longer
	// present on the remote
	KeepOldRPMs bool `yaml:"keep_old_rpms"`

	// CreateRepo regenerates the repodata of the target directory after
	// a successful sync
	CreateRepo bool `yaml:"createrepo"`
}

// TargetPath returns the absolute target directory for the repository.
func (rc RepoConfig) TargetPath(basePath string) string {
	return filepath.Join(basePath, rc.RelativeTargetPath)
}

// Validate evaluates all checks on the config without short-circuiting
// on the first failure, so a single run reports every violation. Each
// violation is logged individually and the joined error is returned,
// nil means the config is valid.
func (conf *Config) Validate(log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	var errs []error

	if conf.BasePath == "" {
		log.Error("base_path is required and must not be empty")
		errs = append(errs, fmt.Errorf("base_path is required"))
	} else if fi, err := os.Stat(conf.BasePath); err != nil || !fi.IsDir() {
		// only checked for a non-empty base_path, statting "" can
		// never succeed and would just repeat the error above
		log.Error("base_path is not an existing directory", "base_path", conf.BasePath)
		errs = append(errs, fmt.Errorf("base_path '%s' is not an existing directory", conf.BasePath))
	}

	seen := make(map[string]bool)
	for i, repo := range conf.Repositories {
		if repo.RepoID == "" {
			log.Error("repoid is required and must not be empty", "index", i)
			errs = append(errs, fmt.Errorf("reposync_repos[%d]: repoid is required", i))
			// without an id the remaining checks for this entry can't
			// produce a usable message
			continue
		}

		if seen[repo.RepoID] {
			log.Warn("duplicate repoid", "repoid", repo.RepoID)
			errs = append(errs, fmt.Errorf("duplicate repoid '%s'", repo.RepoID))
		}
		seen[repo.RepoID] = true

		if repo.RelativeTargetPath == "" {
			log.Error("relative_target_path is required and must not be empty", "repoid", repo.RepoID)
			errs = append(errs, fmt.Errorf("repo '%s': relative_target_path is required", repo.RepoID))
		} else if escapesBase(repo.RelativeTargetPath) {
			log.Error("relative_target_path must stay under base_path", "repoid", repo.RepoID, "relative_target_path", repo.RelativeTargetPath)
			errs = append(errs, fmt.Errorf("repo '%s': relative_target_path '%s' escapes base_path", repo.RepoID, repo.RelativeTargetPath))
		}
	}

	return errors.Join(errs...)
}

// escapesBase reports whether the relative path resolves to a location
// outside the dir it is joined with, either by being absolute or by
// traversing above it with "..".
func escapesBase(relative string) bool {
	if filepath.IsAbs(relative) {
		return true
	}
	cleaned := filepath.Clean(relative)
	return cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator))
}
