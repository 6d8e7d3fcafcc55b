package model

// Source records where a resolved booking came from.
type Source string

const (
	SourcePrimary     Source = "primary"
	SourceMirror      Source = "mirror"
	SourceSynthesized Source = "synthesized"
	SourceNone        Source = "none"
)

// Resolution is the result of resolving a booking identifier.  Booking is
// nil when Found is false.
type Resolution struct {
	Found   bool     `json:"found"`
	Booking *Booking `json:"booking,omitempty"`
	Source  Source   `json:"source"`
}

// NotFound is the terminal resolution when no source knows the id.
func NotFound() Resolution { return Resolution{Source: SourceNone} }

// Found wraps a booking with its provenance.
func Found(b Booking, src Source) Resolution {
	return Resolution{Found: true, Booking: &b, Source: src}
}
