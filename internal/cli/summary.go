package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/formdb/internal/bootstrap"
	"github.com/roach88/formdb/internal/model"
	"github.com/roach88/formdb/internal/topology"
)

// BootstrapSummary is what init and up report about a run.
type BootstrapSummary struct {
	RunID    string               `json:"run_id"`
	Mode     string               `json:"mode"`
	URI      string               `json:"uri"`
	Database string               `json:"database"`
	Topology topology.Description `json:"topology"`
	Repaired []string             `json:"repaired"`
	Seeded   []string             `json:"seeded"`
}

func summarize(res *bootstrap.Result) BootstrapSummary {
	return BootstrapSummary{
		RunID:    res.RunID,
		Mode:     string(res.Mode),
		URI:      res.URI,
		Database: res.Database,
		Topology: res.Topology,
		Repaired: nonNil(res.Repaired),
		Seeded:   nonNil(res.Seeded),
	}
}

func (s BootstrapSummary) renderText(w io.Writer, verbose bool) error {
	fmt.Fprintf(w, "Bootstrap %s\n", s.RunID)
	fmt.Fprintf(w, "  Mode:     %s\n", s.Mode)
	fmt.Fprintf(w, "  URI:      %s\n", s.URI)
	fmt.Fprintf(w, "  Database: %s\n", s.Database)
	fmt.Fprintf(w, "  Topology: %s\n", s.Topology.Kind)
	if verbose {
		writeServers(w, s.Topology.Servers)
	}
	fmt.Fprintf(w, "  Repaired: %s\n", listOrNone(s.Repaired))
	fmt.Fprintf(w, "  Seeded:   %s\n", listOrNone(s.Seeded))
	return nil
}

// TopologyReport is the dry-run output of the topology command.
type TopologyReport struct {
	Mode     string               `json:"mode"`
	URI      string               `json:"uri"`
	Database string               `json:"database"`
	Topology topology.Description `json:"topology"`
	Models   []ModelReport        `json:"models"`
	Plan     []string             `json:"plan"`
}

// ModelReport is one model's read preference before and after repair.
type ModelReport struct {
	Name       string `json:"name"`
	Collection string `json:"collection"`
	ReadPref   string `json:"read_preference"`
	Planned    string `json:"planned,omitempty"`
}

func reportTopology(in *bootstrap.Inspection) TopologyReport {
	planned := make(map[string]bool, len(in.Plan))
	for _, name := range in.Plan {
		planned[name] = true
	}

	models := make([]ModelReport, 0, len(in.Models))
	for _, m := range in.Models {
		r := ModelReport{Name: m.Name, Collection: m.Collection, ReadPref: string(m.ReadPref)}
		if planned[m.Name] {
			r.Planned = string(model.SecondaryPreferred)
		}
		models = append(models, r)
	}

	return TopologyReport{
		Mode:     string(in.Mode),
		URI:      in.URI,
		Database: in.Database,
		Topology: in.Topology,
		Models:   models,
		Plan:     nonNil(in.Plan),
	}
}

func (r TopologyReport) renderText(w io.Writer, verbose bool) error {
	fmt.Fprintf(w, "Topology: %s", r.Topology.Kind)
	if r.Topology.SetName != "" {
		fmt.Fprintf(w, " (set %s)", r.Topology.SetName)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  URI:      %s\n", r.URI)
	fmt.Fprintf(w, "  Database: %s\n", r.Database)
	writeServers(w, r.Topology.Servers)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Models ===")
	for _, m := range r.Models {
		if m.Planned != "" {
			fmt.Fprintf(w, "  %-20s %-20s %s -> %s\n", m.Name, m.Collection, m.ReadPref, m.Planned)
			continue
		}
		fmt.Fprintf(w, "  %-20s %-20s %s\n", m.Name, m.Collection, m.ReadPref)
	}
	fmt.Fprintln(w)

	if len(r.Plan) == 0 {
		fmt.Fprintln(w, "No read preference repair needed.")
		return nil
	}
	fmt.Fprintf(w, "Repair plan: %s\n", strings.Join(r.Plan, ", "))
	return nil
}

func writeServers(w io.Writer, servers []topology.Server) {
	for _, s := range servers {
		fmt.Fprintf(w, "    %-24s %s\n", s.Addr, s.Kind)
	}
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
