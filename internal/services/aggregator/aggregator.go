package aggregator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"hazardwatch/internal/adapter/events"
	"hazardwatch/internal/adapter/geocode"
	"hazardwatch/internal/adapter/news"
	"hazardwatch/internal/adapter/seismic"
	"hazardwatch/internal/adapter/weather"
	"hazardwatch/internal/domain"
	"hazardwatch/internal/observability"
	"hazardwatch/internal/services/prompt"
)

// disasterTerms is appended to every news query so headlines stay on topic.
const disasterTerms = "disaster OR flood OR cyclone OR earthquake OR heatwave OR landslide"

// Geocoder resolves a free-text place name to coordinates.
type Geocoder interface {
	Forward(ctx context.Context, place string) (geocode.Result, error)
}

// WeatherSource reports current conditions for a city.
type WeatherSource interface {
	CurrentByCity(ctx context.Context, city string) (weather.Report, error)
}

// SeismicSource lists recent earthquakes near a point.
type SeismicSource interface {
	RecentNearPoint(ctx context.Context, q seismic.Query) (seismic.Result, error)
}

// EventSource lists open satellite-observed natural events.
type EventSource interface {
	OpenEvents(ctx context.Context, q events.Query) (events.Result, error)
}

// NewsSource searches recent headlines.
type NewsSource interface {
	Search(ctx context.Context, q news.Query) (news.Result, error)
}

// Timeouts bounds each outbound call independently, so one slow upstream
// cannot starve the rest of the fan-out.
type Timeouts struct {
	Geocode time.Duration
	Weather time.Duration
	Seismic time.Duration
	Events  time.Duration
	News    time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	def := func(d *time.Duration, fallback time.Duration) {
		if *d <= 0 {
			*d = fallback
		}
	}
	def(&t.Geocode, 10*time.Second)
	def(&t.Weather, 10*time.Second)
	def(&t.Seismic, 15*time.Second)
	def(&t.Events, 15*time.Second)
	def(&t.News, 15*time.Second)
	return t
}

// Aggregator resolves the request location and gathers hazard context from
// all sources concurrently.
type Aggregator struct {
	geocoder Geocoder
	weather  WeatherSource
	seismic  SeismicSource
	events   EventSource
	news     NewsSource

	timeouts Timeouts
	metrics  *observability.Metrics
}

func New(geocoder Geocoder, w WeatherSource, s SeismicSource, e EventSource, n NewsSource, timeouts Timeouts, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{
		geocoder: geocoder,
		weather:  w,
		seismic:  s,
		events:   e,
		news:     n,
		timeouts: timeouts.withDefaults(),
		metrics:  metrics,
	}
}

// Gather resolves the location, then queries every source concurrently. It
// always returns a complete AggregatedContext: failed sources are recorded
// as error fragments, never dropped, and the fragment slice is in SourceOrder
// no matter which call finishes first.
func (a *Aggregator) Gather(ctx context.Context, userText, location string) domain.AggregatedContext {
	loc := a.resolveLocation(ctx, location)

	fragments := make([]domain.ContextFragment, len(domain.SourceOrder))
	g, gctx := errgroup.WithContext(ctx)

	run := func(i int, source domain.Source, timeout time.Duration, fetch func(context.Context) (string, error)) {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()

			start := time.Now()
			summary, err := fetch(callCtx)
			a.observe(source, start, summary, err)

			fragments[i] = fragment(source, summary, err)
			return nil
		})
	}

	for i, source := range domain.SourceOrder {
		switch source {
		case domain.SourceWeather:
			run(i, source, a.timeouts.Weather, func(ctx context.Context) (string, error) {
				return a.fetchWeather(ctx, loc)
			})
		case domain.SourceSeismic:
			run(i, source, a.timeouts.Seismic, func(ctx context.Context) (string, error) {
				return a.fetchSeismic(ctx, loc)
			})
		case domain.SourceEvents:
			run(i, source, a.timeouts.Events, func(ctx context.Context) (string, error) {
				return a.fetchEvents(ctx)
			})
		case domain.SourceNews:
			run(i, source, a.timeouts.News, func(ctx context.Context) (string, error) {
				return a.fetchNews(ctx, userText, loc)
			})
		}
	}

	// Workers only ever return nil; errors live in the fragments.
	_ = g.Wait()

	return domain.AggregatedContext{Location: loc, Fragments: fragments}
}

// resolveLocation maps empty input to the default centroid and geocoding
// failures to the centroid with the raw input preserved for the prompt.
func (a *Aggregator) resolveLocation(ctx context.Context, location string) domain.LocationContext {
	location = strings.TrimSpace(location)
	if location == "" {
		a.countGeocode("default")
		return domain.DefaultLocation()
	}

	geoCtx, cancel := context.WithTimeout(ctx, a.timeouts.Geocode)
	defer cancel()

	res, err := a.geocoder.Forward(geoCtx, location)
	if err != nil {
		log.Warn().Err(err).Str("location", location).Msg("geocoding failed, using default region")
		a.countGeocode("failed")
		loc := domain.DefaultLocation()
		loc.RawInput = location
		loc.ResolutionStatus = domain.ResolutionFailedUsingDefault
		return loc
	}

	a.countGeocode("resolved")
	label := res.DisplayName
	if label == "" {
		label = location
	}
	return domain.LocationContext{
		RawInput:         location,
		ResolvedLabel:    label,
		Latitude:         res.Latitude,
		Longitude:        res.Longitude,
		ResolutionStatus: domain.ResolutionResolved,
	}
}

func (a *Aggregator) fetchWeather(ctx context.Context, loc domain.LocationContext) (string, error) {
	city := cityFor(loc)
	report, err := a.weather.CurrentByCity(ctx, city)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s: %s, %.1f°C (feels like %.1f°C), humidity %d%%, wind %.1f m/s",
		report.City, report.Description, report.TemperatureC, report.FeelsLikeC,
		report.HumidityPct, report.WindSpeedMPS), nil
}

func (a *Aggregator) fetchSeismic(ctx context.Context, loc domain.LocationContext) (string, error) {
	res, err := a.seismic.RecentNearPoint(ctx, seismic.Query{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	})
	if err != nil {
		return "", err
	}
	if res.Count == 0 {
		return "", nil
	}

	quakes := res.Quakes
	if len(quakes) > 3 {
		quakes = quakes[:3]
	}
	parts := make([]string, 0, len(quakes))
	for _, q := range quakes {
		parts = append(parts, fmt.Sprintf("M%.1f near %s on %s", q.Magnitude, q.Place, q.Time.Format("2006-01-02")))
	}
	return fmt.Sprintf("%d earthquake(s) in the past week within 500 km: %s",
		res.Count, strings.Join(parts, "; ")), nil
}

func (a *Aggregator) fetchEvents(ctx context.Context) (string, error) {
	bbox := events.IndiaBBox
	res, err := a.events.OpenEvents(ctx, events.Query{BBox: &bbox})
	if err != nil {
		return "", err
	}
	if res.Count == 0 {
		return "", nil
	}

	evs := res.Events
	if len(evs) > 5 {
		evs = evs[:5]
	}
	parts := make([]string, 0, len(evs))
	for _, ev := range evs {
		parts = append(parts, fmt.Sprintf("%s (%s)", ev.Title, ev.Category))
	}
	return fmt.Sprintf("%d open natural event(s) over India: %s",
		res.Count, strings.Join(parts, "; ")), nil
}

func (a *Aggregator) fetchNews(ctx context.Context, userText string, loc domain.LocationContext) (string, error) {
	res, err := a.news.Search(ctx, news.Query{Query: newsQuery(userText, loc)})
	if err != nil {
		return "", err
	}
	if len(res.Articles) == 0 {
		return "", nil
	}

	articles := res.Articles
	if len(articles) > 5 {
		articles = articles[:5]
	}
	parts := make([]string, 0, len(articles))
	for _, art := range articles {
		parts = append(parts, fmt.Sprintf("%q (%s)", art.Title, art.Source))
	}
	return "recent headlines: " + strings.Join(parts, "; "), nil
}

// newsQuery combines the (bounded) user text, the place, and fixed disaster
// terms into one search expression.
func newsQuery(userText string, loc domain.LocationContext) string {
	parts := []string{}
	if t := prompt.TruncateUserText(userText); t != "" {
		parts = append(parts, t)
	}
	parts = append(parts, cityFor(loc), disasterTerms)
	return strings.Join(parts, " ")
}

// cityFor picks the query term for city-keyed upstreams. The raw user input
// is preferred over Nominatim's long display name.
func cityFor(loc domain.LocationContext) string {
	if loc.ResolutionStatus == domain.ResolutionResolved && loc.RawInput != "" {
		return loc.RawInput
	}
	if loc.RawInput != "" && loc.ResolutionStatus == domain.ResolutionFailedUsingDefault {
		return domain.DefaultLabel
	}
	if loc.ResolvedLabel != "" {
		return loc.ResolvedLabel
	}
	return domain.DefaultLabel
}

func fragment(source domain.Source, summary string, err error) domain.ContextFragment {
	switch {
	case err != nil:
		log.Warn().Err(err).Str("source", string(source)).Msg("context source failed")
		return domain.ContextFragment{Source: source, Status: domain.FragmentError, ErrorDetail: err.Error()}
	case strings.TrimSpace(summary) == "":
		return domain.ContextFragment{Source: source, Status: domain.FragmentEmpty}
	default:
		return domain.ContextFragment{Source: source, Status: domain.FragmentOK, Summary: summary}
	}
}

func (a *Aggregator) observe(source domain.Source, start time.Time, summary string, err error) {
	if a.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case strings.TrimSpace(summary) == "":
		outcome = "empty"
	}
	a.metrics.AdapterRequests.WithLabelValues(string(source), outcome).Inc()
	a.metrics.AdapterDuration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())
}

func (a *Aggregator) countGeocode(outcome string) {
	if a.metrics == nil {
		return
	}
	a.metrics.GeocodeRequests.WithLabelValues(outcome).Inc()
}
