package aggregator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hazardwatch/internal/adapter/events"
	"hazardwatch/internal/adapter/geocode"
	"hazardwatch/internal/adapter/news"
	"hazardwatch/internal/adapter/seismic"
	"hazardwatch/internal/adapter/weather"
	"hazardwatch/internal/domain"
	"hazardwatch/internal/observability"
)

type stubGeocoder struct {
	result geocode.Result
	err    error
}

func (s *stubGeocoder) Forward(_ context.Context, _ string) (geocode.Result, error) {
	return s.result, s.err
}

type stubWeather struct {
	report weather.Report
	err    error
	delay  time.Duration
}

func (s *stubWeather) CurrentByCity(ctx context.Context, _ string) (weather.Report, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return weather.Report{}, ctx.Err()
		}
	}
	return s.report, s.err
}

type stubSeismic struct {
	result seismic.Result
	err    error
}

func (s *stubSeismic) RecentNearPoint(_ context.Context, _ seismic.Query) (seismic.Result, error) {
	return s.result, s.err
}

type stubEvents struct {
	result events.Result
	err    error
}

func (s *stubEvents) OpenEvents(_ context.Context, _ events.Query) (events.Result, error) {
	return s.result, s.err
}

type stubNews struct {
	result news.Result
	err    error
	gotQ   news.Query
}

func (s *stubNews) Search(_ context.Context, q news.Query) (news.Result, error) {
	s.gotQ = q
	return s.result, s.err
}

func testAggregator(g Geocoder, w WeatherSource, se SeismicSource, ev EventSource, n NewsSource) *Aggregator {
	return New(g, w, se, ev, n, Timeouts{}, observability.NewMetricsForTesting())
}

func healthyStubs() (*stubGeocoder, *stubWeather, *stubSeismic, *stubEvents, *stubNews) {
	return &stubGeocoder{result: geocode.Result{Latitude: 22.5726, Longitude: 88.3639, DisplayName: "Kolkata, West Bengal, India"}},
		&stubWeather{report: weather.Report{City: "Kolkata", TemperatureC: 29, FeelsLikeC: 33, HumidityPct: 85, WindSpeedMPS: 4.2, Description: "heavy rain"}},
		&stubSeismic{result: seismic.Result{Count: 1, Quakes: []seismic.Quake{{Magnitude: 4.8, Place: "Bay of Bengal", Time: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}}}},
		&stubEvents{result: events.Result{Count: 1, Events: []events.Event{{Title: "Cyclone Remal", Category: "severeStorms"}}}},
		&stubNews{result: news.Result{TotalResults: 2, Articles: []news.Article{
			{Title: "Cyclone warning issued", Source: "The Hindu"},
			{Title: "Flooding in low-lying areas", Source: "NDTV"},
		}}}
}

func TestGather_AllSourcesHealthy(t *testing.T) {
	g, w, se, ev, n := healthyStubs()
	agg := testAggregator(g, w, se, ev, n)

	got := agg.Gather(context.Background(), "is it safe to travel to Kolkata?", "Kolkata")

	assert.Equal(t, domain.ResolutionResolved, got.Location.ResolutionStatus)
	assert.Equal(t, "Kolkata, West Bengal, India", got.Location.ResolvedLabel)
	assert.InDelta(t, 22.5726, got.Location.Latitude, 0.0001)

	require.Len(t, got.Fragments, len(domain.SourceOrder))
	for i, source := range domain.SourceOrder {
		assert.Equal(t, source, got.Fragments[i].Source)
		assert.Equal(t, domain.FragmentOK, got.Fragments[i].Status)
	}

	weatherFrag, ok := got.Fragment(domain.SourceWeather)
	require.True(t, ok)
	assert.Contains(t, weatherFrag.Summary, "heavy rain")
	assert.Contains(t, weatherFrag.Summary, "29.0°C")
}

func TestGather_FragmentOrderIndependentOfCompletion(t *testing.T) {
	g, w, se, ev, n := healthyStubs()
	// Weather finishes last; it must still be the first fragment.
	w.delay = 50 * time.Millisecond
	agg := testAggregator(g, w, se, ev, n)

	got := agg.Gather(context.Background(), "query", "Kolkata")

	require.Len(t, got.Fragments, 4)
	assert.Equal(t, domain.SourceWeather, got.Fragments[0].Source)
	assert.Equal(t, domain.SourceSeismic, got.Fragments[1].Source)
	assert.Equal(t, domain.SourceEvents, got.Fragments[2].Source)
	assert.Equal(t, domain.SourceNews, got.Fragments[3].Source)
}

func TestGather_EmptyLocationUsesDefault(t *testing.T) {
	g, w, se, ev, n := healthyStubs()
	g.err = errors.New("geocoder should not be called")
	agg := testAggregator(g, w, se, ev, n)

	got := agg.Gather(context.Background(), "query", "   ")

	assert.Equal(t, domain.ResolutionDefault, got.Location.ResolutionStatus)
	assert.Equal(t, domain.DefaultLabel, got.Location.ResolvedLabel)
	assert.InDelta(t, domain.DefaultLatitude, got.Location.Latitude, 0.0001)
	assert.Empty(t, got.Location.RawInput)
}

func TestGather_GeocodeFailureFallsBackToDefault(t *testing.T) {
	g, w, se, ev, n := healthyStubs()
	g.err = errors.New("nominatim unavailable")
	agg := testAggregator(g, w, se, ev, n)

	got := agg.Gather(context.Background(), "query", "Atlantis")

	assert.Equal(t, domain.ResolutionFailedUsingDefault, got.Location.ResolutionStatus)
	assert.Equal(t, "Atlantis", got.Location.RawInput)
	assert.InDelta(t, domain.DefaultLatitude, got.Location.Latitude, 0.0001)
	assert.InDelta(t, domain.DefaultLongitude, got.Location.Longitude, 0.0001)

	// The rest of the pipeline still runs against the default centroid.
	require.Len(t, got.Fragments, 4)
	for _, f := range got.Fragments {
		assert.Equal(t, domain.FragmentOK, f.Status)
	}
}

func TestGather_AllSourcesFailing(t *testing.T) {
	g := &stubGeocoder{result: geocode.Result{Latitude: 1, Longitude: 2, DisplayName: "Somewhere"}}
	w := &stubWeather{err: errors.New("weather down")}
	se := &stubSeismic{err: errors.New("usgs down")}
	ev := &stubEvents{err: errors.New("eonet down")}
	n := &stubNews{err: errors.New("newsapi down")}
	agg := testAggregator(g, w, se, ev, n)

	got := agg.Gather(context.Background(), "query", "Somewhere")

	require.Len(t, got.Fragments, 4)
	for _, f := range got.Fragments {
		assert.Equal(t, domain.FragmentError, f.Status)
		assert.NotEmpty(t, f.ErrorDetail)
		assert.Empty(t, f.Summary)
	}
}

func TestGather_EmptyResultsBecomeEmptyFragments(t *testing.T) {
	g, w, _, _, n := healthyStubs()
	se := &stubSeismic{result: seismic.Result{Count: 0}}
	ev := &stubEvents{result: events.Result{Count: 0}}
	agg := testAggregator(g, w, se, ev, n)

	got := agg.Gather(context.Background(), "query", "Kolkata")

	seismicFrag, _ := got.Fragment(domain.SourceSeismic)
	assert.Equal(t, domain.FragmentEmpty, seismicFrag.Status)
	eventsFrag, _ := got.Fragment(domain.SourceEvents)
	assert.Equal(t, domain.FragmentEmpty, eventsFrag.Status)
}

func TestGather_NewsQueryIncludesPlaceAndDisasterTerms(t *testing.T) {
	g, w, se, ev, n := healthyStubs()
	agg := testAggregator(g, w, se, ev, n)

	agg.Gather(context.Background(), "flooding near me", "Kolkata")

	assert.Contains(t, n.gotQ.Query, "flooding near me")
	assert.Contains(t, n.gotQ.Query, "Kolkata")
	assert.Contains(t, n.gotQ.Query, "earthquake")
}

func TestGather_SlowSourceTimesOutOthersSurvive(t *testing.T) {
	g, w, se, ev, n := healthyStubs()
	w.delay = 500 * time.Millisecond
	agg := New(g, w, se, ev, n, Timeouts{Weather: 20 * time.Millisecond}, observability.NewMetricsForTesting())

	got := agg.Gather(context.Background(), "query", "Kolkata")

	weatherFrag, _ := got.Fragment(domain.SourceWeather)
	assert.Equal(t, domain.FragmentError, weatherFrag.Status)

	newsFrag, _ := got.Fragment(domain.SourceNews)
	assert.Equal(t, domain.FragmentOK, newsFrag.Status)
}
