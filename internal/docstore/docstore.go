// Package docstore is the MongoDB side of formdb: it opens the client,
// reports lifecycle events and the cluster topology, and performs the few
// document operations bootstrap needs.
//
// # Lifecycle events
//
// Driver monitors are installed before the client connects, so no event is
// missed. They feed a lifecycle.Monitor:
//
//   - open: a server's connection pool became ready
//   - error: a heartbeat failed or a pool was cleared with an error
//   - close: a pool or the whole topology closed
//
// Reconnection is the driver's job; formdb only observes.
//
// # Topology
//
// Topology returns the latest description delivered by the server monitor.
// It is a snapshot: callers inspect it once at startup.
package docstore

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/event"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/roach88/formdb/internal/agency"
	"github.com/roach88/formdb/internal/config"
	"github.com/roach88/formdb/internal/lifecycle"
	"github.com/roach88/formdb/internal/model"
	"github.com/roach88/formdb/internal/topology"
)

// Pool event types, as reported in event.PoolEvent.Type.
const (
	poolReady   = "ConnectionPoolReady"
	poolCleared = "ConnectionPoolCleared"
	poolClosed  = "ConnectionPoolClosed"
)

// Conn is a live MongoDB connection.
type Conn struct {
	client *mongo.Client
	db     *mongo.Database
	uri    string
	events *lifecycle.Monitor
	models *model.Registry

	mu   sync.RWMutex
	topo topology.Description
}

// Connect opens a client for uri and pings it. On ping failure the client
// is disconnected before the error is returned.
func Connect(ctx context.Context, uri string, o config.DriverOptions, models *model.Registry) (*Conn, error) {
	if models == nil {
		models = model.DefaultRegistry()
	}
	c := &Conn{
		uri:    uri,
		events: lifecycle.NewMonitor(),
		models: models,
		topo:   topology.Description{Kind: topology.Unknown},
	}

	opts, err := clientOptions(uri, o)
	if err != nil {
		return nil, fmt.Errorf("client options: %w", err)
	}
	opts.SetServerMonitor(c.serverMonitor())
	opts.SetPoolMonitor(&event.PoolMonitor{Event: c.handlePoolEvent})

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ping %s: %w", RedactURI(uri), err)
	}

	c.client = client
	c.db = client.Database(DatabaseFromURI(uri))
	return c, nil
}

// Events returns the lifecycle monitor fed by the driver.
func (c *Conn) Events() *lifecycle.Monitor {
	return c.events
}

// Topology returns the latest cluster description.
func (c *Conn) Topology() topology.Description {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topo
}

// Models returns the model registry this connection reads preferences from.
func (c *Conn) Models() *model.Registry {
	return c.models
}

// URI returns the connection string with the password hidden.
func (c *Conn) URI() string {
	return RedactURI(c.uri)
}

// Database returns the name of the database in use.
func (c *Conn) Database() string {
	return c.db.Name()
}

// Client returns the underlying driver client.
func (c *Conn) Client() *mongo.Client {
	return c.client
}

// Collection returns a handle for name using the read preference of the
// model registered for it, if any.
func (c *Conn) Collection(name string) *mongo.Collection {
	m, ok := c.models.ByCollection(name)
	if !ok {
		return c.db.Collection(name)
	}
	return c.db.Collection(name, options.Collection().SetReadPreference(readPref(m.ReadPref)))
}

// EnsureIndexes creates the unique short-name index on agencies.
func (c *Conn) EnsureIndexes(ctx context.Context) error {
	_, err := c.Collection(agency.CollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "shortName", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("ensure agency index: %w", err)
	}
	return nil
}

// CountAgencies counts agency documents.
func (c *Conn) CountAgencies(ctx context.Context) (int64, error) {
	n, err := c.Collection(agency.CollectionName).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count agencies: %w", err)
	}
	return n, nil
}

// UpsertAgency inserts a unless an agency with the same short name exists.
// inserted is false when the document was already there.
func (c *Conn) UpsertAgency(ctx context.Context, a agency.Agency) (inserted bool, err error) {
	res, err := c.Collection(agency.CollectionName).UpdateOne(ctx,
		bson.D{{Key: "shortName", Value: a.ShortName}},
		bson.D{{Key: "$setOnInsert", Value: a}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("upsert agency %s: %w", a.ShortName, err)
	}
	return res.UpsertedCount > 0, nil
}

// InsertAgencies inserts every agency without checking for existing ones.
func (c *Conn) InsertAgencies(ctx context.Context, agencies []agency.Agency) error {
	if len(agencies) == 0 {
		return nil
	}
	if _, err := c.Collection(agency.CollectionName).InsertMany(ctx, agencies); err != nil {
		return fmt.Errorf("insert agencies: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (c *Conn) Close(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Disconnect(ctx)
}

func (c *Conn) serverMonitor() *event.ServerMonitor {
	return &event.ServerMonitor{
		TopologyDescriptionChanged: func(e *event.TopologyDescriptionChangedEvent) {
			c.setTopology(convertTopology(e.NewDescription))
		},
		ServerHeartbeatFailed: func(e *event.ServerHeartbeatFailedEvent) {
			c.events.Error(fmt.Errorf("heartbeat on %s failed: %w", e.ConnectionID, e.Failure))
		},
		TopologyClosed: func(*event.TopologyClosedEvent) {
			c.events.Close("topology closed")
		},
	}
}

func (c *Conn) handlePoolEvent(e *event.PoolEvent) {
	switch e.Type {
	case poolReady:
		c.events.Open()
	case poolCleared:
		if e.Error != nil {
			c.events.Error(fmt.Errorf("pool for %s cleared: %w", e.Address, e.Error))
		}
	case poolClosed:
		c.events.Close("pool closed: " + e.Address)
	}
}

func (c *Conn) setTopology(d topology.Description) {
	c.mu.Lock()
	c.topo = d
	c.mu.Unlock()
}

// convertTopology copies the driver's description into formdb's own type.
// Kinds are rendered with fmt so the driver's spelling is kept verbatim.
func convertTopology(d event.TopologyDescription) topology.Description {
	out := topology.Description{
		Kind:    topology.Kind(fmt.Sprint(d.Kind)),
		SetName: d.SetName,
		Servers: make([]topology.Server, 0, len(d.Servers)),
	}
	for _, s := range d.Servers {
		out.Servers = append(out.Servers, topology.Server{
			Addr: fmt.Sprint(s.Addr),
			Kind: topology.ServerKind(fmt.Sprint(s.Kind)),
		})
	}
	return out
}
