package source

import "context"

// Descriptor identifies one downloadable resource and where it belongs in
// the categorized store.
type Descriptor struct {
	URL      string
	Category string
	Filename string
	Meta     map[string]string
}

// CandidateSource produces a lazy, finite sequence of descriptors. The
// pipeline makes no assumption about how the sequence is generated (a link
// discovery crawler, a file of URLs, a fixed list) and treats it as
// exhausted once Next reports ok=false.
type CandidateSource interface {
	// Next returns the next descriptor. ok is false once the source is
	// exhausted. A non-nil error ends the sequence.
	Next(ctx context.Context) (d Descriptor, ok bool, err error)
}

// SliceSource serves a fixed list of descriptors. Useful for tests and for
// URLs passed directly on the command line.
type SliceSource struct {
	descriptors []Descriptor
	pos         int
}

// NewSliceSource creates a source over the given descriptors.
func NewSliceSource(descriptors []Descriptor) *SliceSource {
	return &SliceSource{descriptors: descriptors}
}

// Next returns the next descriptor in the slice.
func (s *SliceSource) Next(ctx context.Context) (Descriptor, bool, error) {
	if err := ctx.Err(); err != nil {
		return Descriptor{}, false, err
	}
	if s.pos >= len(s.descriptors) {
		return Descriptor{}, false, nil
	}
	d := s.descriptors[s.pos]
	s.pos++
	return d, true, nil
}
