package arbiter

import (
	"slices"

	"github.com/reglet-dev/capability-arbiter/capability"
)

// Report is the outcome of one Check or DeliverResult call.
type Report struct {
	Granted  []capability.Capability
	Denied   []capability.Capability
	Prompted []capability.Capability
	Code     int
	Token    int
	// Pending is set when a prompt was issued; the outcome is reported through
	// DeliverResult, possibly before Check returns.
	Pending bool
}

// Resolved reports whether the outcome is final.
func (r Report) Resolved() bool {
	return !r.Pending
}

// request is the in-flight state of one Check call.
type request struct {
	callback capability.Callback
	granted  []capability.Capability
	// denied holds capabilities refused before the prompt followed by those refused in it.
	denied   []capability.Capability
	prompted []capability.Capability
	explain  int
	code     int
	token    int
}

func newRequest(token, code int, cb capability.Callback, p Partition) *request {
	r := &request{
		callback: cb,
		code:     code,
		token:    token,
		granted:  slices.Clone(p.Granted),
		denied:   slices.Clone(p.Explain),
		prompted: slices.Clone(p.NeverRequested),
	}
	r.explain = len(r.denied)
	return r
}

// merge appends an index-aligned prompt outcome to the buckets.
func (r *request) merge(caps []capability.Capability, grants []bool) {
	for i, c := range caps {
		if grants[i] {
			r.granted = append(r.granted, c)
		} else {
			r.denied = append(r.denied, c)
		}
	}
}

func (r *request) report(pending bool) Report {
	return Report{
		Code:     r.code,
		Token:    r.token,
		Granted:  slices.Clone(r.granted),
		Denied:   slices.Clone(r.denied),
		Prompted: slices.Clone(r.prompted),
		Pending:  pending,
	}
}
