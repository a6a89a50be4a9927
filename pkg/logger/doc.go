// Package logger builds *slog.Logger instances for the dispatcher.
//
// New applies functional options (format, level, static attributes, context
// extractors). Extractors run on every record and pull request-scoped values
// such as the request id out of context.Context.
//
// Attribute helpers in attr.go keep key names consistent across components:
//
//	log.LogAttrs(ctx, slog.LevelWarn, "envelope dropped",
//		logger.Component("dispatch"),
//		logger.Topic(env.Topic),
//		logger.EventType(env.EventType),
//		logger.Error(err),
//	)
//
// Helpers that receive an empty value return an empty slog.Attr, which slog
// skips, so optional ids can be passed unconditionally.
package logger
