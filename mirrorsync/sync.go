package mirrorsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utilitywarehouse/rpm-mirror/dnf"
	"github.com/utilitywarehouse/rpm-mirror/internal/utils"
)

// RunFunc executes an external command and classifies its outcome.
// utils.RunCommand satisfies it, tests substitute their own.
type RunFunc func(ctx context.Context, log *slog.Logger, envs []string, cwd string, command string, args ...string) (string, error)

// Syncer runs one synchronization pass over all configured repositories.
// Repositories are processed strictly sequentially, a Syncer holds no
// shared mutable state beyond the logger.
type Syncer struct {
	conf           Config
	log            *slog.Logger
	envs           []string // envs passed to every external command
	run            RunFunc
	dnfExec        string
	createrepoExec string
}

// New creates a syncer for the given, already validated config.
// Nothing is executed until Run is called.
func New(conf Config, log *slog.Logger, envs []string) *Syncer {
	if log == nil {
		log = slog.Default()
	}

	return &Syncer{
		conf:           conf,
		log:            log,
		envs:           envs,
		run:            utils.RunCommand,
		dnfExec:        dnf.ExecutablePath,
		createrepoExec: dnf.CreaterepoExecutablePath,
	}
}

// Run performs the full synchronization pass: cache maintenance followed
// by every configured repository in order. A repository failure is logged
// and isolated, the remaining repositories are still attempted. Run only
// returns an error when the context is cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	s.log.Info("start of reposync repos")

	s.maintainCache(ctx)

	for _, repo := range s.conf.Repositories {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.syncRepository(ctx, repo)
	}

	s.log.Info("end of reposync repos")
	return nil
}

// maintainCache expires the dnf metadata cache and refreshes the
// repository list. Failures here are logged but never abort the run,
// reposync fetches fresh metadata on its own anyway.
func (s *Syncer) maintainCache(ctx context.Context) {
	for _, args := range [][]string{dnf.CleanExpireCacheArgs(), dnf.RepolistArgs()} {
		if _, err := s.run(ctx, s.log, s.envs, "", s.dnfExec, args...); err != nil {
			s.log.Error("cache maintenance command failed", "err", err)
		}
	}
}

// syncRepository mirrors a single repository. Any step failure skips the
// remaining steps of this repository, in that case the trailing "end"
// event is replaced by a failure event naming the failed stage.
func (s *Syncer) syncRepository(ctx context.Context, repo RepoConfig) {
	log := s.log.With("repoid", repo.RepoID)
	target := repo.TargetPath(s.conf.BasePath)

	log.Info("start")
	start := time.Now()

	err := s.mirror(ctx, log, repo, target)
	recordSync(repo.RepoID, err == nil)
	updateSyncLatency(repo.RepoID, start)
	if err != nil {
		log.Error("repository skipped", "err", err)
		return
	}

	log.Info("end", "time", time.Since(start))
}

func (s *Syncer) mirror(ctx context.Context, log *slog.Logger, repo RepoConfig, target string) error {
	if err := utils.EnsureDir(target); err != nil {
		return fmt.Errorf("unable to create target dir '%s': %w", target, err)
	}

	args := dnf.ReposyncArgs(target, repo.RepoID, repo.KeepOldRPMs)
	if _, err := s.run(ctx, log, s.envs, "", s.dnfExec, args...); err != nil {
		return fmt.Errorf("reposync failed: %w", err)
	}
	log.Info("sync complete", "target", target)

	if repo.CreateRepo {
		if _, err := s.run(ctx, log, s.envs, "", s.createrepoExec, dnf.CreaterepoArgs(target)...); err != nil {
			return fmt.Errorf("metadata regeneration failed: %w", err)
		}
		log.Info("metadata regenerated", "target", target)
	}

	return nil
}
