// Package topology describes a MongoDB cluster as seen at startup and plans
// the read-preference repair for replica sets without secondaries.
package topology

import (
	"sort"

	"github.com/roach88/formdb/internal/model"
)

// Kind is the cluster topology type, spelled as the driver reports it.
type Kind string

const (
	Single                Kind = "Single"
	ReplicaSet            Kind = "ReplicaSet"
	ReplicaSetNoPrimary   Kind = "ReplicaSetNoPrimary"
	ReplicaSetWithPrimary Kind = "ReplicaSetWithPrimary"
	Sharded               Kind = "Sharded"
	LoadBalanced          Kind = "LoadBalanced"
	Unknown               Kind = "Unknown"
)

// ServerKind is a server's role, spelled as the driver reports it.
type ServerKind string

const (
	Standalone   ServerKind = "Standalone"
	RSOther      ServerKind = "RSOther"
	RSPrimary    ServerKind = "RSPrimary"
	RSSecondary  ServerKind = "RSSecondary"
	RSArbiter    ServerKind = "RSArbiter"
	RSGhost      ServerKind = "RSGhost"
	Mongos       ServerKind = "Mongos"
	LoadBalancer ServerKind = "LoadBalancer"
	UnknownRole  ServerKind = "Unknown"
)

// Server is one member of the topology.
type Server struct {
	Addr string     `json:"addr"`
	Kind ServerKind `json:"kind"`
}

// Description is a read-only snapshot of the cluster.
type Description struct {
	Kind    Kind     `json:"kind"`
	SetName string   `json:"setName,omitempty"`
	Servers []Server `json:"servers"`
}

// HasSecondary reports whether any server is a replica-set secondary.
func (d Description) HasSecondary() bool {
	for _, s := range d.Servers {
		if s.Kind == RSSecondary {
			return true
		}
	}
	return false
}

// NeedsReadPrefRepair reports whether queries pinned to secondary would fail:
// the set has a primary but no secondary member.
func NeedsReadPrefRepair(d Description) bool {
	return d.Kind == ReplicaSetWithPrimary && !d.HasSecondary()
}

// PlanReadPrefRepair returns the sorted names of models whose schema read
// preference must be downgraded from secondary to secondaryPreferred.
// It returns nil when the topology needs no repair.
func PlanReadPrefRepair(d Description, models []model.Model) []string {
	if !NeedsReadPrefRepair(d) {
		return nil
	}

	var names []string
	for _, m := range models {
		if m.ReadPref == model.Secondary {
			names = append(names, m.Name)
		}
	}
	sort.Strings(names)
	return names
}

// ApplyReadPrefRepair downgrades the planned models in reg and returns the
// names actually changed.
func ApplyReadPrefRepair(reg *model.Registry, plan []string) ([]string, error) {
	var changed []string
	for _, name := range plan {
		if err := reg.SetReadPref(name, model.SecondaryPreferred); err != nil {
			return changed, err
		}
		changed = append(changed, name)
	}
	return changed, nil
}
