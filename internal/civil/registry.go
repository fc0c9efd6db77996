package civil

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"astroref/internal/errs"
)

// Location is a named place with coordinates and its offset rule.
type Location struct {
	Label     string  `json:"label" yaml:"label"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Rule      Rule    `json:"rule" yaml:"rule"`
}

// Registry resolves city labels into locations.
type Registry struct {
	mu        sync.RWMutex
	locations map[string]Location
}

var builtinLocations = []Location{
	{Label: "New York", Latitude: 40.7128, Longitude: -74.0060, Rule: Rule{Standard: -5, DST: -4, Kind: Northern}},
	{Label: "Chicago", Latitude: 41.8781, Longitude: -87.6298, Rule: Rule{Standard: -6, DST: -5, Kind: Northern}},
	{Label: "Denver", Latitude: 39.7392, Longitude: -104.9903, Rule: Rule{Standard: -7, DST: -6, Kind: Northern}},
	{Label: "Phoenix", Latitude: 33.4484, Longitude: -112.0740, Rule: Rule{Standard: -7, DST: -7, Kind: Fixed}},
	{Label: "Los Angeles", Latitude: 34.0522, Longitude: -118.2437, Rule: Rule{Standard: -8, DST: -7, Kind: Northern}},
	{Label: "London", Latitude: 51.5074, Longitude: -0.1278, Rule: Rule{Standard: 0, DST: 1, Kind: Northern}},
	{Label: "Athens", Latitude: 37.9838, Longitude: 23.7275, Rule: Rule{Standard: 2, DST: 3, Kind: Northern}},
	{Label: "Mumbai", Latitude: 19.0760, Longitude: 72.8777, Rule: Rule{Standard: 5.5, DST: 5.5, Kind: Fixed}},
	{Label: "Beijing", Latitude: 39.9042, Longitude: 116.4074, Rule: Rule{Standard: 8, DST: 8, Kind: Fixed}},
	{Label: "Tokyo", Latitude: 35.6762, Longitude: 139.6503, Rule: Rule{Standard: 9, DST: 9, Kind: Fixed}},
	{Label: "Sydney", Latitude: -33.8688, Longitude: 151.2093, Rule: Rule{Standard: 10, DST: 11, Kind: Southern}},
	{Label: "Santiago", Latitude: -33.4489, Longitude: -70.6693, Rule: Rule{Standard: -4, DST: -3, Kind: Southern}},
	{Label: "Sao Paulo", Latitude: -23.5505, Longitude: -46.6333, Rule: Rule{Standard: -3, DST: -3, Kind: Fixed}},
}

// NewRegistry returns a registry seeded with the built-in cities.
func NewRegistry() *Registry {
	r := &Registry{locations: make(map[string]Location, len(builtinLocations))}
	for _, loc := range builtinLocations {
		r.locations[key(loc.Label)] = loc
	}
	return r
}

type registryFile struct {
	Locations []Location `yaml:"locations"`
}

// LoadFile overlays locations from a YAML file; entries replace built-ins of the same label.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read locations: %w", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode locations: %w", err)
	}
	for i, loc := range file.Locations {
		if strings.TrimSpace(loc.Label) == "" {
			return errs.Invalid("civil.load_locations", "label", "location %d has no label", i)
		}
		kind, ok := ParseKind(string(loc.Rule.Kind))
		if !ok {
			return errs.Invalid("civil.load_locations", "rule.kind", "location %q has unknown rule kind %q", loc.Label, loc.Rule.Kind)
		}
		loc.Rule.Kind = kind
		r.Add(loc)
	}
	return nil
}

// Add registers or replaces a location.
func (r *Registry) Add(loc Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations[key(loc.Label)] = loc
}

// Lookup finds a location by label, ignoring case and surrounding spaces.
func (r *Registry) Lookup(label string) (Location, error) {
	if strings.TrimSpace(label) == "" {
		return Location{}, errs.Invalid("civil.lookup", "city", "city label is required")
	}
	r.mu.RLock()
	loc, ok := r.locations[key(label)]
	r.mu.RUnlock()
	if !ok {
		return Location{}, &errs.OpError{
			Op:    "civil.lookup",
			Kind:  errs.KindUnknownLocation,
			Field: "city",
			Err:   fmt.Errorf("no location named %q", label),
		}
	}
	return loc, nil
}

// Labels lists registered labels alphabetically.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.locations))
	for _, loc := range r.locations {
		out = append(out, loc.Label)
	}
	sort.Strings(out)
	return out
}

func key(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}
