// Package logger provides component-scoped structured logging on top of logrus.
//
// Entries are filtered by level and by component before they reach the
// logrus backend, so disabled components cost a map lookup.
//
// Usage:
//
//	log := logger.WithComponent(logger.ComponentCipher)
//	log.Debug("derived program", map[string]interface{}{
//		"ops": 3,
//	})
//
//	config := logger.DefaultConfig()
//	config.Level = logger.DEBUG
//	config.Format = logger.FormatJSON
//	logger.SetGlobalLogger(logger.New(config))
//
// Components:
//   - ComponentApp: resolver facade and CLI
//   - ComponentClient: HTTP client
//   - ComponentFetcher: metadata, watch page and player script fetches
//   - ComponentPayload: metadata payload parsing
//   - ComponentFormat: stream format resolution
//   - ComponentCipher: signature program derivation
//   - ComponentAPI: HTTP API server
package logger
