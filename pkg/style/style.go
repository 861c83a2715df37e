// pkg/style/style.go - Per-area-type style descriptors
package style

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Descriptor describes how one administrative level is drawn
type Descriptor struct {
	Stroke    string  `mapstructure:"stroke" json:"stroke" yaml:"stroke"`
	Fill      string  `mapstructure:"fill" json:"fill" yaml:"fill"`
	Order     int     `mapstructure:"order" json:"order" yaml:"order"`
	Tolerance float64 `mapstructure:"tolerance" json:"tolerance" yaml:"tolerance"`
}

// Table maps an area type name (province, regency, ...) to its descriptor
type Table map[string]Descriptor

// DefaultTable returns the built-in descriptors for every administrative level.
// Lower levels are smaller on the ground, so they get finer tolerances.
func DefaultTable() Table {
	return Table{
		"province": {Stroke: "#2563eb", Fill: "#2563eb33", Order: 1, Tolerance: 0.01},
		"regency":  {Stroke: "#16a34a", Fill: "#16a34a33", Order: 2, Tolerance: 0.005},
		"district": {Stroke: "#d97706", Fill: "#d9770633", Order: 3, Tolerance: 0.002},
		"village":  {Stroke: "#dc2626", Fill: "#dc262633", Order: 4, Tolerance: 0.0005},
	}
}

// Lookup returns the descriptor for an area type
func (t Table) Lookup(areaType string) (Descriptor, bool) {
	d, ok := t[strings.ToLower(areaType)]
	return d, ok
}

// Merge returns a new table where every non-zero field of overrides replaces
// the corresponding field of t. Unknown area types are added as-is.
func (t Table) Merge(overrides Table) Table {
	out := make(Table, len(t)+len(overrides))
	for k, v := range t {
		out[k] = v
	}

	for k, o := range overrides {
		k = strings.ToLower(k)
		d := out[k]
		if o.Stroke != "" {
			d.Stroke = o.Stroke
		}
		if o.Fill != "" {
			d.Fill = o.Fill
		}
		if o.Order != 0 {
			d.Order = o.Order
		}
		if o.Tolerance != 0 {
			d.Tolerance = o.Tolerance
		}
		out[k] = d
	}
	return out
}

// Names returns the area types of the table ordered by draw order
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for k := range t {
		names = append(names, k)
	}
	sort.SliceStable(names, func(i, j int) bool {
		if t[names[i]].Order != t[names[j]].Order {
			return t[names[i]].Order < t[names[j]].Order
		}
		return names[i] < names[j]
	})
	return names
}

// Validate checks both colors and the tolerance of a descriptor
func (d Descriptor) Validate() error {
	if _, err := colorful.Hex(d.Stroke); err != nil {
		return fmt.Errorf("invalid stroke color %q: %w", d.Stroke, err)
	}

	fill := ParseFillColor(d.Fill)
	if _, err := colorful.Hex(fill.Color); err != nil {
		return fmt.Errorf("invalid fill color %q: %w", d.Fill, err)
	}

	if d.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %f", d.Tolerance)
	}
	return nil
}

// Validate checks every descriptor of the table
func (t Table) Validate() error {
	for _, name := range t.Names() {
		if err := t[name].Validate(); err != nil {
			return fmt.Errorf("style %s: %w", name, err)
		}
	}
	return nil
}
