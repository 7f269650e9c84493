// Package capability provides the capability domain for the arbiter.
// It includes the host port, classification decisions, a catalog of
// human-readable descriptions, risk analysis, and the ports used by
// emulated platforms for grant storage and interactive prompting.
package capability

import (
	"sort"
	"sync"
)

// Info describes a capability for prompts and rationale dialogs.
type Info struct {
	Description string
	Risk        RiskLevel
}

// Catalog manages the registration and retrieval of capability descriptions.
type Catalog struct {
	entries map[Capability]Info
	mu      sync.RWMutex
}

// NewCatalog creates a new, empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		entries: make(map[Capability]Info),
	}
}

// DefaultCatalog returns a catalog seeded with common mobile capabilities.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	c.Register("camera", Info{Description: "Take pictures and record video", Risk: RiskHigh})
	c.Register("microphone", Info{Description: "Record audio", Risk: RiskHigh})
	c.Register("location", Info{Description: "Access precise location", Risk: RiskHigh})
	c.Register("contacts", Info{Description: "Read your contacts", Risk: RiskMedium})
	c.Register("calendar", Info{Description: "Read and edit calendar events", Risk: RiskMedium})
	c.Register("photos", Info{Description: "Access photos and media", Risk: RiskMedium})
	c.Register("storage", Info{Description: "Read and write shared storage", Risk: RiskMedium})
	c.Register("notifications", Info{Description: "Show notifications", Risk: RiskLow})
	return c
}

// Register adds or replaces the description of a capability.
func (c *Catalog) Register(name Capability, info Info) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = info
}

// Get retrieves the description for a capability.
// Returns false if nothing is registered.
func (c *Catalog) Get(name Capability) (Info, bool) {
	if c == nil {
		return Info{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.entries[name]
	return info, ok
}

// Describe returns the registered description, or the capability itself.
func (c *Catalog) Describe(name Capability) string {
	if info, ok := c.Get(name); ok && info.Description != "" {
		return info.Description
	}
	return string(name)
}

// List returns all registered capabilities in sorted order.
func (c *Catalog) List() []Capability {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Capability, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
