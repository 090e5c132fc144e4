// Package bootstrap brings formdb's document store to a ready state on
// process start.
//
// A run resolves the configuration, connects, attaches lifecycle
// observers, repairs read preferences for replica sets with no secondary,
// seeds bootstrap agencies, and hands back a live connection:
//
//	resolve -> connect (one retry) -> observe -> repair -> seed -> Result
//
// # Resolution
//
// Resolve never mutates the loaded config.Config. With a connection string
// it passes the string through. Without one it requires a mongod binary
// version, launches an ephemeral instance, and takes that instance's URI.
// A missing version is a *PrerequisiteError and nothing is connected.
//
// # Failure
//
// Connection is attempted exactly twice with no backoff. Both failing
// yields a *ConnectError. Topology and seeding failures are fatal too: the
// connection is closed and any instance this run started is stopped before
// the error is returned.
//
// # Journal
//
// Every step is logged with an "action" attribute (init, schema, seed) and,
// when a Recorder is configured, appended to the run journal under a UUIDv7
// run ID. Recorder failures are logged and otherwise ignored.
package bootstrap
