package mirrorsync

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// PruneOrphans deletes directories directly under base_path which are no
// longer referenced by any configured repository, e.g. after a repository
// was removed from the config. This is best effort clean up, removal
// failures are logged and skipped.
func (s *Syncer) PruneOrphans() {
	var keep []string
	for _, repo := range s.conf.Repositories {
		target := repo.TargetPath(s.conf.BasePath)
		rel, err := filepath.Rel(s.conf.BasePath, target)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		// only the top level element counts, nested targets keep
		// their whole subtree
		first, _, _ := strings.Cut(rel, string(os.PathSeparator))
		keep = append(keep, filepath.Join(s.conf.BasePath, first))
	}

	entries, err := os.ReadDir(s.conf.BasePath)
	if err != nil {
		s.log.Error("unable to read base_path for clean up", "err", err)
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		fullPath := filepath.Join(s.conf.BasePath, entry.Name())

		if slices.Contains(keep, fullPath) {
			continue
		}

		// only dirs which look like a synced mirror are removed,
		// anything else under base_path must be left alone
		ok, err := isMirrorDir(fullPath)
		if err != nil {
			s.log.Error("unable to check dir for repodata", "path", fullPath, "err", err)
			continue
		}

		if !ok {
			continue
		}

		s.log.Info("removing orphaned mirror dir...", "path", fullPath)
		if err := os.RemoveAll(fullPath); err != nil {
			s.log.Error("unable to remove orphaned mirror dir", "path", fullPath, "err", err)
			continue
		}
	}
}

// isMirrorDir reports whether the dir contains repository metadata,
// reposync always downloads repodata because of --download-metadata.
func isMirrorDir(path string) (bool, error) {
	fi, err := os.Stat(filepath.Join(path, "repodata"))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.IsDir(), nil
}
