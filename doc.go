// Package rotolog is the runtime engine behind a structured logging facade
// for long-running processes. For every submitted record it decides whether
// the record passes the currently effective severity/module filter, which
// output channels receive it in which textual format, and how the managed
// log file is rotated, cleaned up and optionally compressed over the
// program's lifetime.
//
// The filter is directive text like "info, server::conn = trace": a root
// level plus module-path prefixes with their own thresholds. The effective
// specification can be replaced while writers are mid-call, either
// programmatically (PushTempSpec/PopTempSpec) or by editing a watched spec
// file (WithSpecFile), without restarting the process or losing in-flight
// records.
//
// A minimal rotating setup:
//
//	logger, err := rotolog.New("info",
//		rotolog.LogToFile(),
//		rotolog.WithDirectory("traces"),
//		rotolog.WithRotate(
//			rotolog.RotateSize(10*1024*1024),
//			rotolog.NamingTimestamps,
//			rotolog.KeepLogFiles(7),
//		),
//		rotolog.WithDuplicateToStderr(rotolog.LevelWarn),
//	)
//	if err != nil {
//		// ...
//	}
//	defer logger.Shutdown(context.Background())
//
//	logger.Infof("server::conn", "listening on %s", addr)
//
// Rotation, cleanup and spec-file watching run on background tasks;
// Shutdown cancels them, drains all buffers and closes the destinations.
// Log calls after Shutdown are no-ops.
//
// The engine provides no cross-process coordination: if multiple processes
// write to the same rotating file concurrently, behavior is undefined.
package rotolog
