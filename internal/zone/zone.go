// Package zone maps display VP addresses to zones on the audio device.
package zone

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateAddress is returned when two bindings share a display address.
var ErrDuplicateAddress = errors.New("duplicate zone address")

// Binding ties one display address to one device zone.
type Binding struct {
	// Address is the display VP address of the volume control.
	Address uint16 `yaml:"address"`
	// ZoneID is the device-side zone identity sent in update bodies.
	ZoneID uint32 `yaml:"zone_id"`
	// ZoneNumber is the ordinal used in the device URL path.
	ZoneNumber uint32 `yaml:"zone_number"`
	// Label is a human-readable name for logs and CLI output.
	Label string `yaml:"label"`
}

// String returns a human-readable representation for debugging
func (b Binding) String() string {
	label := b.Label
	if label == "" {
		label = "-"
	}
	return fmt.Sprintf("Zone{Addr: 0x%04X, Id: %d, Number: %d, Label: %s}",
		b.Address, b.ZoneID, b.ZoneNumber, label)
}

// Registry is a read-only address lookup built once at startup.
type Registry struct {
	bindings []Binding
	byAddr   map[uint16]int
}

// NewRegistry builds a registry from bindings. Addresses must be unique.
func NewRegistry(bindings []Binding) (*Registry, error) {
	r := &Registry{
		bindings: make([]Binding, 0, len(bindings)),
		byAddr:   make(map[uint16]int, len(bindings)),
	}
	for _, b := range bindings {
		if _, exists := r.byAddr[b.Address]; exists {
			return nil, fmt.Errorf("%w: 0x%04X", ErrDuplicateAddress, b.Address)
		}
		r.byAddr[b.Address] = len(r.bindings)
		r.bindings = append(r.bindings, b)
	}
	return r, nil
}

// Lookup returns the binding for addr. The boolean is false when no zone is
// configured for that address, which is an expected outcome.
func (r *Registry) Lookup(addr uint16) (Binding, bool) {
	i, ok := r.byAddr[addr]
	if !ok {
		return Binding{}, false
	}
	return r.bindings[i], true
}

// All returns a copy of every binding, ordered by address.
func (r *Registry) All() []Binding {
	out := make([]Binding, len(r.bindings))
	copy(out, r.bindings)
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Len returns the number of configured zones.
func (r *Registry) Len() int {
	return len(r.bindings)
}
