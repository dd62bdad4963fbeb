// Package logging provides the leveled logger used throughout PixelPeek.
//
// Levels, from most to least verbose:
//   - DEBUG: per-URL fetch details and worker lifecycle
//   - INFO: batch start/finish, configuration, server lifecycle
//   - WARN: recoverable problems (observer panics, relaxed TLS, bad config values)
//   - ERROR: fatal batch conditions and failed history writes
//
// The initial level comes from the DEBUG or LOG_LEVEL environment variables
// and can be changed at runtime with SetLevel (the CLI -v flag does this).
package logging
