package mirrorsync

import (
	"log/slog"
	"os"
	"testing"
)

var testLog = slog.New(slog.NewTextHandler(os.Stderr, nil))

// violations unwraps the joined error returned by Validate into the
// individual violation errors.
func violations(t *testing.T, err error) []error {
	t.Helper()
	if err == nil {
		return nil
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	return joined.Unwrap()
}

func TestConfig_Validate(t *testing.T) {
	tempRoot := t.TempDir()

	tests := []struct {
		name           string
		config         Config
		wantViolations int
	}{
		{
			name:           "valid_no_repos",
			config:         Config{BasePath: tempRoot},
			wantViolations: 0,
		},
		{
			name: "valid_with_repos",
			config: Config{
				BasePath: tempRoot,
				Repositories: []RepoConfig{
					{RepoID: "epel", RelativeTargetPath: "epel9"},
					{RepoID: "baseos", RelativeTargetPath: "rocky/baseos", KeepOldRPMs: true, CreateRepo: true},
				},
			},
			wantViolations: 0,
		},
		{
			name:           "missing_base_path",
			config:         Config{},
			wantViolations: 1,
		},
		{
			name:           "base_path_not_a_dir",
			config:         Config{BasePath: "/no/such/dir"},
			wantViolations: 1,
		},
		{
			name: "missing_repoid_skips_remaining_repo_checks",
			config: Config{
				BasePath: tempRoot,
				Repositories: []RepoConfig{
					{RelativeTargetPath: "epel9"},
					{}, // missing repoid only, no extra error for the missing target path
				},
			},
			wantViolations: 2,
		},
		{
			name: "duplicate_repoid_is_a_violation",
			config: Config{
				BasePath: tempRoot,
				Repositories: []RepoConfig{
					{RepoID: "epel", RelativeTargetPath: "epel9"},
					{RepoID: "epel", RelativeTargetPath: "epel10"},
				},
			},
			wantViolations: 1,
		},
		{
			name: "duplicate_repoid_other_keys_still_checked",
			config: Config{
				BasePath: tempRoot,
				Repositories: []RepoConfig{
					{RepoID: "epel", RelativeTargetPath: "epel9"},
					{RepoID: "epel"}, // duplicate AND missing target path
				},
			},
			wantViolations: 2,
		},
		{
			name: "missing_target_path_other_repos_still_validated",
			config: Config{
				BasePath: tempRoot,
				Repositories: []RepoConfig{
					{RepoID: "epel"},
					{RepoID: "baseos", RelativeTargetPath: "rocky/baseos"},
					{RepoID: "appstream"},
				},
			},
			wantViolations: 2,
		},
		{
			name: "target_path_escaping_base_path_rejected",
			config: Config{
				BasePath: tempRoot,
				Repositories: []RepoConfig{
					{RepoID: "escape", RelativeTargetPath: "../elsewhere"},
					{RepoID: "sneaky", RelativeTargetPath: "epel9/../../elsewhere"},
					{RepoID: "absolute", RelativeTargetPath: "/etc"},
					{RepoID: "fine", RelativeTargetPath: "epel9/../epel10"},
				},
			},
			wantViolations: 3,
		},
		{
			name: "all_violations_collected_in_one_run",
			config: Config{
				BasePath: "/no/such/dir",
				Repositories: []RepoConfig{
					{},
					{RepoID: "epel"},
					{RepoID: "epel", RelativeTargetPath: "epel9"},
				},
			},
			// bad base_path, missing repoid, missing target path, duplicate
			wantViolations: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate(testLog)
			got := violations(t, err)
			if len(got) != tt.wantViolations {
				t.Errorf("Validate() violations = %d (%v), want %d", len(got), got, tt.wantViolations)
			}
			if (err != nil) != (tt.wantViolations > 0) {
				t.Errorf("Validate() error = %v, want error %v", err, tt.wantViolations > 0)
			}
		})
	}
}

func TestRepoConfig_TargetPath(t *testing.T) {
	tests := []struct {
		name     string
		basePath string
		relative string
		want     string
	}{
		{name: "simple", basePath: "/srv/mirror", relative: "epel9", want: "/srv/mirror/epel9"},
		{name: "nested", basePath: "/srv/mirror", relative: "rocky/baseos", want: "/srv/mirror/rocky/baseos"},
		{name: "trailing_slash", basePath: "/srv/mirror/", relative: "epel9/", want: "/srv/mirror/epel9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := RepoConfig{RelativeTargetPath: tt.relative}
			if got := rc.TargetPath(tt.basePath); got != tt.want {
				t.Errorf("TargetPath() = %v, want %v", got, tt.want)
			}
		})
	}
}
