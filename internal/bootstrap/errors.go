package bootstrap

import "fmt"

// PrerequisiteError reports a missing environment value that ephemeral mode
// cannot run without. It is never retried.
type PrerequisiteError struct {
	Env string
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("environment var %s is missing", e.Env)
}

// ConnectError reports that every connection attempt failed.
type ConnectError struct {
	URI      string
	Attempts int
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s failed after %d attempts: %v", e.URI, e.Attempts, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}
