// Package model keeps the registry of data models and their schema-level
// read preference.
package model

import (
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/formdb/internal/config"
)

// ReadMode is a MongoDB read preference mode.
type ReadMode string

const (
	Primary            ReadMode = "primary"
	PrimaryPreferred   ReadMode = "primaryPreferred"
	Secondary          ReadMode = "secondary"
	SecondaryPreferred ReadMode = "secondaryPreferred"
	Nearest            ReadMode = "nearest"
)

// ParseReadMode validates s. The empty string maps to Primary.
func ParseReadMode(s string) (ReadMode, error) {
	switch m := ReadMode(s); m {
	case "":
		return Primary, nil
	case Primary, PrimaryPreferred, Secondary, SecondaryPreferred, Nearest:
		return m, nil
	default:
		return "", fmt.Errorf("unknown read preference %q", s)
	}
}

// Model is a registered data model.
type Model struct {
	Name       string
	Collection string
	ReadPref   ReadMode
}

// Registry holds models by name. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	models map[string]Model
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]Model)}
}

// DefaultRegistry registers the application's models.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, m := range []Model{
		{Name: "Agency", Collection: "agencies", ReadPref: Primary},
		{Name: "User", Collection: "users", ReadPref: Primary},
		{Name: "Form", Collection: "forms", ReadPref: Primary},
		{Name: "Submission", Collection: "submissions", ReadPref: Primary},
		{Name: "FormFeedback", Collection: "formfeedback", ReadPref: Primary},
		{Name: "FormStatisticsTotal", Collection: "formStatisticsTotal", ReadPref: Secondary},
	} {
		r.Register(m)
	}
	return r
}

// Register adds or replaces a model. An empty ReadPref means Primary.
func (r *Registry) Register(m Model) {
	if m.ReadPref == "" {
		m.ReadPref = Primary
	}
	r.mu.Lock()
	r.models[m.Name] = m
	r.mu.Unlock()
}

// Extend registers configured models over the existing ones.
func (r *Registry) Extend(cfgs []config.ModelConfig) error {
	for _, c := range cfgs {
		mode, err := ParseReadMode(c.ReadPreference)
		if err != nil {
			return fmt.Errorf("model %s: %w", c.Name, err)
		}
		r.Register(Model{Name: c.Name, Collection: c.Collection, ReadPref: mode})
	}
	return nil
}

// Get returns the named model.
func (r *Registry) Get(name string) (Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	return m, ok
}

// ByCollection returns the model backed by collection.
func (r *Registry) ByCollection(collection string) (Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.models {
		if m.Collection == collection {
			return m, true
		}
	}
	return Model{}, false
}

// All returns every model sorted by name.
func (r *Registry) All() []Model {
	r.mu.RLock()
	out := make([]Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetReadPref changes the read preference of a registered model.
func (r *Registry) SetReadPref(name string, mode ReadMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.models[name]
	if !ok {
		return fmt.Errorf("model %s is not registered", name)
	}
	m.ReadPref = mode
	r.models[name] = m
	return nil
}
