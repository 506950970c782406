// Package hub is the catalogue of maker tools served by the application.
package hub

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type Category string

const (
	CategoryCostos     Category = "costos"
	CategoryCalidad    Category = "calidad"
	CategoryMateriales Category = "materiales"
	CategoryDiseno     Category = "diseño"
	CategoryUtilidades Category = "utilidades"
)

type Status string

const (
	StatusBeta       Status = "beta"
	StatusStable     Status = "stable"
	StatusDeprecated Status = "deprecated"
)

type Tier string

const (
	TierFree       Tier = "free"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

type Features struct {
	Exportable  bool `json:"exportable"`
	Saveable    bool `json:"saveable"`
	Shareable   bool `json:"shareable"`
	Versionable bool `json:"versionable"`
}

type SEO struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Manifest describes one tool.
type Manifest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Icon        string   `json:"icon,omitempty"`
	Color       string   `json:"color,omitempty"`
	Status      Status   `json:"status"`
	Tier        Tier     `json:"tier"`
	Features    Features `json:"features"`
	SEO         *SEO     `json:"seo,omitempty"`
	Path        string   `json:"path"`
}

var ErrInvalidManifest = errors.New("invalid tool manifest")

// Validate checks required fields and enum values.
func (m Manifest) Validate() error {
	var problems []string
	if strings.TrimSpace(m.ID) == "" {
		problems = append(problems, "id is required")
	}
	if strings.TrimSpace(m.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(m.Description) == "" {
		problems = append(problems, "description is required")
	}
	switch m.Category {
	case CategoryCostos, CategoryCalidad, CategoryMateriales, CategoryDiseno, CategoryUtilidades:
	default:
		problems = append(problems, fmt.Sprintf("unknown category %q", m.Category))
	}
	switch m.Status {
	case StatusBeta, StatusStable, StatusDeprecated:
	default:
		problems = append(problems, fmt.Sprintf("unknown status %q", m.Status))
	}
	switch m.Tier {
	case TierFree, TierPro, TierEnterprise:
	default:
		problems = append(problems, fmt.Sprintf("unknown tier %q", m.Tier))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w %q: %s", ErrInvalidManifest, m.ID, strings.Join(problems, "; "))
	}
	return nil
}

// Registry holds manifests by ID. Build one at startup and pass it to
// whoever needs it.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Manifest
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Manifest)}
}

// Register adds m, replacing any manifest with the same ID. It reports
// whether one was replaced.
func (r *Registry) Register(m Manifest) (replaced bool, err error) {
	if err := m.Validate(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, replaced = r.tools[m.ID]
	r.tools[m.ID] = m
	return replaced, nil
}

func (r *Registry) Get(id string) (Manifest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.tools[id]
	return m, ok
}

// All returns every manifest ordered by ID.
func (r *Registry) All() []Manifest {
	r.mu.RLock()
	out := make([]Manifest, 0, len(r.tools))
	for _, m := range r.tools {
		out = append(out, m)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) filter(keep func(Manifest) bool) []Manifest {
	var out []Manifest
	for _, m := range r.All() {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func (r *Registry) ByCategory(c Category) []Manifest {
	return r.filter(func(m Manifest) bool { return m.Category == c })
}

func (r *Registry) ByTier(t Tier) []Manifest {
	return r.filter(func(m Manifest) bool { return m.Tier == t })
}

// Available returns tools that are not deprecated.
func (r *Registry) Available() []Manifest {
	return r.filter(func(m Manifest) bool { return m.Status != StatusDeprecated })
}

// Search matches q against name, description and category,
// case-insensitively.
func (r *Registry) Search(q string) []Manifest {
	q = strings.ToLower(q)
	return r.filter(func(m Manifest) bool {
		return strings.Contains(strings.ToLower(m.Name), q) ||
			strings.Contains(strings.ToLower(m.Description), q) ||
			strings.Contains(strings.ToLower(string(m.Category)), q)
	})
}
