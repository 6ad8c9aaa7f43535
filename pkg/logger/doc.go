// Package logger is a thin factory around log/slog.
//
// New builds a *slog.Logger from functional options (format, level, output,
// static attributes, context extractors). NewFromConfig does the same from an
// environment-driven Config. Attribute helpers in attr.go keep key names
// consistent across the registry, the throttle and the HTTP layer:
//
//	log := logger.NewFromConfig(cfg,
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "session closed",
//		logger.SessionID(id),
//		logger.Reason("takeover"),
//	)
//
// Components accept a logger through a WithLogger option and fall back to
// Discard when none is given.
package logger
