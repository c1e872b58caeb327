package domain

// Source identifies one of the hazard data sources contributing to
// aggregated context.
type Source string

const (
	SourceWeather Source = "weather"
	SourceSeismic Source = "seismic"
	SourceEvents  Source = "events"
	SourceNews    Source = "news"
)

// SourceOrder fixes the rendering order of fragments. Prompt text must be
// reproducible regardless of which adapter answers first.
var SourceOrder = []Source{SourceWeather, SourceSeismic, SourceEvents, SourceNews}

// FragmentStatus is the outcome of a single data-source call.
type FragmentStatus string

const (
	FragmentOK    FragmentStatus = "ok"
	FragmentEmpty FragmentStatus = "empty"
	FragmentError FragmentStatus = "error"
)

// ResolutionStatus records how the request's location was obtained.
type ResolutionStatus string

const (
	ResolutionDefault            ResolutionStatus = "DEFAULT"
	ResolutionResolved           ResolutionStatus = "RESOLVED"
	ResolutionFailedUsingDefault ResolutionStatus = "FAILED_USING_DEFAULT"
)

// Fallback centroid used whenever no location is supplied or geocoding fails.
const (
	DefaultLatitude  = 20.5937
	DefaultLongitude = 78.9629
	DefaultLabel     = "India"
)

// LocationContext is created once per request and never mutated afterwards.
type LocationContext struct {
	RawInput         string           `json:"raw_input,omitempty"`
	ResolvedLabel    string           `json:"resolved_label"`
	Latitude         float64          `json:"latitude"`
	Longitude        float64          `json:"longitude"`
	ResolutionStatus ResolutionStatus `json:"resolution_status"`
}

// DefaultLocation returns the fixed fallback centroid.
func DefaultLocation() LocationContext {
	return LocationContext{
		ResolvedLabel:    DefaultLabel,
		Latitude:         DefaultLatitude,
		Longitude:        DefaultLongitude,
		ResolutionStatus: ResolutionDefault,
	}
}

// ContextFragment is one data-source's contribution to a single request.
// Fragments with status error are retained for observability but excluded
// from the prompt.
type ContextFragment struct {
	Source      Source         `json:"source"`
	Status      FragmentStatus `json:"status"`
	Summary     string         `json:"summary,omitempty"`
	ErrorDetail string         `json:"error_detail,omitempty"`
}

// AggregatedContext holds the location plus exactly one fragment per known
// source, in SourceOrder. It is owned by a single request and discarded when
// the request completes.
type AggregatedContext struct {
	Location  LocationContext   `json:"location"`
	Fragments []ContextFragment `json:"fragments"`
}

// Fragment returns the fragment for the given source.
func (a AggregatedContext) Fragment(s Source) (ContextFragment, bool) {
	for _, f := range a.Fragments {
		if f.Source == s {
			return f, true
		}
	}
	return ContextFragment{}, false
}

// PromptRequest is produced by the prompt builder and consumed once by the
// LLM gateway.
type PromptRequest struct {
	UserText        string
	MaxOutputTokens int
	Context         AggregatedContext

	// System carries the fixed instruction block; Body carries the rendered
	// context and user sections.
	System string
	Body   string
}
