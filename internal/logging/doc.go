// Package logging provides structured logging using uber/zap.
//
// Production loggers write JSON; development loggers write colored console
// lines with stack traces and panic on DPanic.
//
// Components derive a named child with Component, and anything bound to a
// sandbox adds the user and sandbox ids with Sandbox:
//
//	logger, _ := logging.New(logging.Config{Level: "info"})
//	log := logger.Component("channel").Sandbox(userID, sandboxID)
//	log.Info("Connected", zap.String("url", url))
package logging
