package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/formdb/internal/agency"
	"github.com/roach88/formdb/internal/bootstrap"
	"github.com/roach88/formdb/internal/config"
	"github.com/roach88/formdb/internal/ephemeral"
	"github.com/roach88/formdb/internal/lifecycle"
	"github.com/roach88/formdb/internal/model"
	"github.com/roach88/formdb/internal/topology"
)

// memConn is an in-memory bootstrap.Conn.
type memConn struct {
	mu       sync.Mutex
	agencies []agency.Agency
	events   *lifecycle.Monitor
	models   *model.Registry
	topo     topology.Description
	closed   int
}

func (c *memConn) Events() *lifecycle.Monitor { return c.events }
func (c *memConn) Topology() topology.Description { return c.topo }
func (c *memConn) Models() *model.Registry { return c.models }
func (c *memConn) EnsureIndexes(context.Context) error { return nil }

func (c *memConn) CountAgencies(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.agencies)), nil
}

func (c *memConn) UpsertAgency(_ context.Context, a agency.Agency) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, have := range c.agencies {
		if have.ShortName == a.ShortName {
			return false, nil
		}
	}
	c.agencies = append(c.agencies, a)
	return true, nil
}

func (c *memConn) InsertAgencies(_ context.Context, agencies []agency.Agency) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agencies = append(c.agencies, agencies...)
	return nil
}

func (c *memConn) Close(context.Context) error {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
	return nil
}

// memConnector hands out memConns, failing every attempt when err is set.
type memConnector struct {
	err   error
	topo  topology.Description
	calls int
	last  *memConn
}

func (m *memConnector) Connect(_ context.Context, _ string, _ config.DriverOptions, models *model.Registry) (bootstrap.Conn, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	m.last = &memConn{events: lifecycle.NewMonitor(), models: models, topo: m.topo}
	return m.last, nil
}

type memInstance struct {
	uri     string
	stopped int
}

func (i *memInstance) URI() string { return i.uri }
func (i *memInstance) Stop() { i.stopped++ }

type memLauncher struct {
	calls int
	last  *memInstance
}

func (l *memLauncher) Launch(_ context.Context, spec ephemeral.Spec) (bootstrap.Instance, error) {
	l.calls++
	l.last = &memInstance{uri: spec.URI()}
	return l.last, nil
}

func singleTopology() topology.Description {
	return topology.Description{
		Kind:    topology.Single,
		Servers: []topology.Server{{Addr: "127.0.0.1:3000", Kind: topology.Standalone}},
	}
}

func lonePrimaryTopology() topology.Description {
	return topology.Description{
		Kind:    topology.ReplicaSetWithPrimary,
		SetName: "rs0",
		Servers: []topology.Server{{Addr: "db0:27017", Kind: topology.RSPrimary}},
	}
}

// envFunc serves Getenv from a map.
func envFunc(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

// writeConfig writes a YAML config into a temp dir and returns its path.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "formdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// execute runs the root command with args and captures both streams.
func execute(t *testing.T, ctx context.Context, opts *RootOptions, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCommand(opts)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}
