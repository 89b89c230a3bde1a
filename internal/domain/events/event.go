package events

import "time"

// DefaultSource is the source value stamped on outbound events when the
// deployment does not configure one.
const DefaultSource = "mozdef-proxy"

// ClientEvent is the payload a client submits to be queued.
type ClientEvent struct {
	Category string         `json:"category" validate:"required"`
	Hostname string         `json:"hostname" validate:"required"`
	Severity Severity       `json:"severity" validate:"required,severity"`
	Process  string         `json:"process" validate:"required"`
	Summary  string         `json:"summary" validate:"required"`
	Tags     []string       `json:"tags"`
	Details  map[string]any `json:"details" validate:"required"`
}

// OutboundEvent is the document MozDef consumes from the queue. Field names
// and encodings are the downstream contract.
type OutboundEvent struct {
	Category     string         `json:"category"`
	Hostname     string         `json:"hostname"`
	Severity     Severity       `json:"severity"`
	Process      string         `json:"process"`
	Summary      string         `json:"summary"`
	Tags         []string       `json:"tags"`
	Details      map[string]any `json:"details"`
	Source       string         `json:"source"`
	Timestamp    time.Time      `json:"timestamp"`
	UTCTimestamp time.Time      `json:"utctimestamp"`
}

// Normalizer turns client events into outbound events. It is safe for
// concurrent use.
type Normalizer struct {
	source string
	now    func() time.Time
	loc    *time.Location
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) {
		n.now = now
	}
}

// WithLocation sets the zone used for the local timestamp. Defaults to time.Local.
func WithLocation(loc *time.Location) NormalizerOption {
	return func(n *Normalizer) {
		n.loc = loc
	}
}

// NewNormalizer stamps source on every outbound event. The clock defaults to
// time.Now in the local zone.
func NewNormalizer(source string, opts ...NormalizerOption) *Normalizer {
	if source == "" {
		source = DefaultSource
	}
	n := &Normalizer{
		source: source,
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Normalizer) Source() string {
	return n.source
}

// Normalize copies the client fields and stamps provenance. Both timestamps
// come from a single clock reading.
func (n *Normalizer) Normalize(in ClientEvent) OutboundEvent {
	now := n.now()

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	return OutboundEvent{
		Category:     in.Category,
		Hostname:     in.Hostname,
		Severity:     in.Severity,
		Process:      in.Process,
		Summary:      in.Summary,
		Tags:         tags,
		Details:      in.Details,
		Source:       n.source,
		Timestamp:    now.In(n.loc),
		UTCTimestamp: now.UTC(),
	}
}
