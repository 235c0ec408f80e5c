package model

import (
	"reflect"

	"github.com/samber/lo"
)

// Digests maps project -> fingerprint of its resolved dependencies.
type Digests map[string]string

// Report is the in-memory form of the blob attached to a commit.
type Report struct {
	Footprints Footprints
	Digests    Digests
}

func NewReport() *Report {
	return &Report{
		Footprints: NewFootprints(),
		Digests:    make(Digests),
	}
}

func (r *Report) IsEmpty() bool {
	return len(r.Footprints) == 0 && len(r.Digests) == 0
}

func (r *Report) Clone() *Report {
	return &Report{
		Footprints: r.Footprints.Clone(),
		Digests:    lo.Assign(r.Digests),
	}
}

func (r *Report) Equal(o *Report) bool {
	return reflect.DeepEqual(r.Footprints.ToSlices(), o.Footprints.ToSlices()) &&
		reflect.DeepEqual(normalizeDigests(r.Digests), normalizeDigests(o.Digests))
}

func normalizeDigests(d Digests) map[string]string {
	if d == nil {
		return map[string]string{}
	}
	return d
}
