// Package mirrorsync synchronizes local mirrors of remote RPM package
// repositories by invoking the external dnf and createrepo_c tools.
// Repositories are processed sequentially and a repository failure never
// prevents the remaining repositories from being attempted.
//
// # Logging:
//
// package takes slog reference for logging and prints logs up to 'trace' level
//
// Example:
//
//	loggerLevel  = new(slog.LevelVar)
//	levelStrings = map[string]slog.Level{
//		"trace": slog.Level(-8),
//		"debug": slog.LevelDebug,
//		"info":  slog.LevelInfo,
//		"warn":  slog.LevelWarn,
//		"error": slog.LevelError,
//	}
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//		Level: loggerLevel,
//	}))
//	loggerLevel.Set(levelStrings["trace"])
//
//	syncer := mirrorsync.New(conf, logger.With("logger", "rpm-mirror"), nil)
//	if err := syncer.Run(ctx); err != nil {
//		panic(err)
//	}
package mirrorsync
