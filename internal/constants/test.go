package constants

import "time"

// Test Constants
//
// IMPORTANT: These constants are for testing only. DO NOT use in production code.

const (
	// TestIOTimeout bounds a single read or accept by a fake login/game server.
	TestIOTimeout = 5 * time.Second

	// TestRestartDelay replaces RestartDelay so restart paths finish quickly.
	TestRestartDelay = 10 * time.Millisecond

	// TestWriteInterval replaces ServerWriteInterval in tests that do not measure spacing.
	TestWriteInterval = time.Millisecond
)
