package mirrorsync

import (
	"os"
	"path/filepath"
	"testing"
)

func mkMirrorDir(t *testing.T, base string, name string, withRepodata bool) string {
	t.Helper()
	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if withRepodata {
		if err := os.MkdirAll(filepath.Join(dir, "repodata"), 0755); err != nil {
			t.Fatalf("failed to create repodata dir: %v", err)
		}
	}
	return dir
}

func TestSyncer_PruneOrphans(t *testing.T) {
	basePath := t.TempDir()

	configured := mkMirrorDir(t, basePath, "epel9", true)
	nested := mkMirrorDir(t, basePath, "rocky", true)
	orphan := mkMirrorDir(t, basePath, "old-fedora", true)
	notAMirror := mkMirrorDir(t, basePath, "scratch", false)

	// plain file under base_path must be ignored
	if err := os.WriteFile(filepath.Join(basePath, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	conf := Config{
		BasePath: basePath,
		Repositories: []RepoConfig{
			{RepoID: "epel", RelativeTargetPath: "epel9"},
			{RepoID: "baseos", RelativeTargetPath: "rocky/baseos"},
		},
	}

	s, _ := newTestSyncer(conf, testLog, nil)
	s.PruneOrphans()

	for _, dir := range []string{configured, nested, notAMirror} {
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("expected %q to survive pruning: %v", dir, err)
		}
	}
	if _, err := os.Stat(filepath.Join(basePath, "notes.txt")); err != nil {
		t.Errorf("expected plain file to survive pruning: %v", err)
	}

	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Errorf("expected orphaned dir %q to be removed, stat err: %v", orphan, err)
	}
}
