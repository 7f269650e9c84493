package capability

import "sort"

// GrantEntry is the platform's record for one capability.
type GrantEntry struct {
	Granted bool `yaml:"granted" json:"granted"`
	// Denials counts how many times the user refused the capability.
	Denials int `yaml:"denials,omitempty" json:"denials,omitempty"`
	// NeverAsk is set once the user chose "don't ask again".
	NeverAsk bool `yaml:"never_ask,omitempty" json:"never_ask,omitempty"`
}

// GrantState is the platform-side grant database, keyed by capability.
type GrantState struct {
	Entries map[Capability]GrantEntry `yaml:"capabilities" json:"capabilities"`
}

// NewGrantState returns an empty state.
func NewGrantState() *GrantState {
	return &GrantState{Entries: make(map[Capability]GrantEntry)}
}

// Get returns the entry for c and whether one exists.
func (s *GrantState) Get(c Capability) (GrantEntry, bool) {
	if s == nil || s.Entries == nil {
		return GrantEntry{}, false
	}
	e, ok := s.Entries[c]
	return e, ok
}

// Record applies a user answer to the entry for c.
func (s *GrantState) Record(c Capability, a Answer) {
	if s.Entries == nil {
		s.Entries = make(map[Capability]GrantEntry)
	}
	e := s.Entries[c]
	switch a {
	case AnswerGrant, AnswerAlways:
		e.Granted = true
		e.NeverAsk = false
	case AnswerNever:
		e.Granted = false
		e.Denials++
		e.NeverAsk = true
	default:
		e.Granted = false
		e.Denials++
	}
	s.Entries[c] = e
}

// Clone returns a deep copy.
func (s *GrantState) Clone() *GrantState {
	out := NewGrantState()
	if s == nil {
		return out
	}
	for k, v := range s.Entries {
		out.Entries[k] = v
	}
	return out
}

// Capabilities returns the recorded capabilities in sorted order.
func (s *GrantState) Capabilities() []Capability {
	if s == nil {
		return nil
	}
	out := make([]Capability, 0, len(s.Entries))
	for k := range s.Entries {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
