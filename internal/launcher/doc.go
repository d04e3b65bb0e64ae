// Package launcher starts batch commands behind a gate so that none of them
// executes before the controller says so.
//
// Each child is a re-execution of the current binary with argv[0] set to
// GateName. The gate writes one byte on its ready pipe (fd 3), then blocks
// reading its release pipe (fd 4). Once released it stops itself with SIGSTOP
// and, when the scheduler first continues it, replaces its image with the real
// command. A command that cannot be executed makes the gate exit with
// ExitLaunchFailed.
//
// Binaries that use this package must call MaybeRunGate at the very start of
// main (and of TestMain in tests that launch children).
package launcher
