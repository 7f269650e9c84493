package arbiter

import "github.com/reglet-dev/capability-arbiter/capability"

// Partition is the three-way classification of a capability list.
// Each input capability lands in exactly one bucket, in input order.
type Partition struct {
	Granted        []capability.Capability
	Explain        []capability.Capability
	NeverRequested []capability.Capability
}

// Len returns the number of classified capabilities.
func (p Partition) Len() int {
	return len(p.Granted) + len(p.Explain) + len(p.NeverRequested)
}

// Decide classifies a single capability against the host.
func Decide(h capability.Host, c capability.Capability) capability.Decision {
	if h.IsGranted(c) {
		return capability.Granted
	}
	if h.ShouldExplain(c) {
		return capability.DeniedRequiresExplanation
	}
	return capability.NeverRequested
}

// Classify partitions caps by asking the host about each one.
// Hosts that predate the runtime model are not queried; everything is granted.
func Classify(h capability.Host, caps []capability.Capability) Partition {
	var p Partition
	if h.PredatesRuntimeModel() {
		p.Granted = append(p.Granted, caps...)
		return p
	}

	for _, c := range caps {
		switch Decide(h, c) {
		case capability.Granted:
			p.Granted = append(p.Granted, c)
		case capability.DeniedRequiresExplanation:
			p.Explain = append(p.Explain, c)
		default:
			p.NeverRequested = append(p.NeverRequested, c)
		}
	}
	return p
}
