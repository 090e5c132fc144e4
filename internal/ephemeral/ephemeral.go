// Package ephemeral launches a disposable in-memory mongod for local
// development. The binary is downloaded and cached by memongo on first use.
package ephemeral

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tryvium-travels/memongo"

	"github.com/roach88/formdb/internal/config"
)

// StartupTimeout bounds how long a mongod may take to accept connections.
// Includes the binary download on a cold cache.
const StartupTimeout = 2 * time.Minute

// ErrNoVersion is returned when Spec.Version is empty.
var ErrNoVersion = errors.New("mongod binary version is required")

// Spec is the address and version of the instance to launch.
type Spec struct {
	Version  string
	Host     string
	Port     int
	Database string
}

// SpecFromConfig copies the fallback section of the configuration.
func SpecFromConfig(f config.FallbackConfig) Spec {
	return Spec{
		Version:  f.BinaryVersion,
		Host:     f.Host,
		Port:     f.Port,
		Database: f.Database,
	}
}

// URI is the connection string clients use to reach the instance.
func (s Spec) URI() string {
	return fmt.Sprintf("mongodb://%s:%d/%s", s.Host, s.Port, s.Database)
}

// Instance is a running mongod owned by this process.
type Instance struct {
	server *memongo.Server
	uri    string
	once   sync.Once
}

// Launch starts a mongod for spec. It blocks until the server accepts
// connections or ctx is done.
func Launch(ctx context.Context, spec Spec, logger *slog.Logger) (*Instance, error) {
	if spec.Version == "" {
		return nil, ErrNoVersion
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := &memongo.Options{
		MongoVersion:   spec.Version,
		Port:           spec.Port,
		StartupTimeout: StartupTimeout,
		Logger:         slog.NewLogLogger(logger.Handler(), slog.LevelDebug),
	}

	type started struct {
		server *memongo.Server
		err    error
	}
	done := make(chan started, 1)
	go func() {
		s, err := memongo.StartWithOptions(opts)
		done <- started{s, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("start mongod %s: %w", spec.Version, r.err)
		}
		logger.Debug("ephemeral mongod started", "version", spec.Version, "port", r.server.Port())
		return &Instance{server: r.server, uri: spec.URI()}, nil
	case <-ctx.Done():
		// The launch goroutine still owns the process; stop it once it lands.
		go func() {
			if r := <-done; r.err == nil {
				r.server.Stop()
			}
		}()
		return nil, ctx.Err()
	}
}

// URI returns the instance's connection string.
func (i *Instance) URI() string {
	return i.uri
}

// Stop kills the mongod. Safe to call more than once.
func (i *Instance) Stop() {
	i.once.Do(func() {
		if i.server != nil {
			i.server.Stop()
		}
	})
}
