package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hazardwatch/internal/adapter/classifier"
	"hazardwatch/internal/adapter/events"
	"hazardwatch/internal/adapter/news"
	"hazardwatch/internal/adapter/seismic"
	"hazardwatch/internal/adapter/weather"
	"hazardwatch/internal/cache"
	"hazardwatch/internal/domain"
	"hazardwatch/internal/notify"
	"hazardwatch/internal/services/assist"
	"hazardwatch/internal/services/snapshot"
)

// AdvisoryHandler serves the advisory pipeline plus the raw context
// endpoints used by dashboards.
type AdvisoryHandler struct {
	assist     *assist.Service
	weather    *weather.Client
	seismic    *seismic.Client
	events     *events.Client
	news       *news.Client
	snapshots  *snapshot.Refresher
	classifier *classifier.Client
	sms        *notify.TwilioClient
	cache      *cache.RedisCache
}

func NewAdvisoryHandler(
	assistSvc *assist.Service,
	weatherClient *weather.Client,
	seismicClient *seismic.Client,
	eventsClient *events.Client,
	newsClient *news.Client,
	snapshots *snapshot.Refresher,
	classifierClient *classifier.Client,
	sms *notify.TwilioClient,
	redisCache *cache.RedisCache,
) *AdvisoryHandler {
	return &AdvisoryHandler{
		assist:     assistSvc,
		weather:    weatherClient,
		seismic:    seismicClient,
		events:     eventsClient,
		news:       newsClient,
		snapshots:  snapshots,
		classifier: classifierClient,
		sms:        sms,
		cache:      redisCache,
	}
}

// RegisterRoutes mounts all advisory and context routes.
func (h *AdvisoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/process", h.Process)

		r.Get("/context/weather", h.ContextWeather)
		r.Get("/context/earthquakes", h.ContextEarthquakes)
		r.Get("/context/natural_events", h.ContextNaturalEvents)
		r.Get("/context/news", h.ContextNews)
		r.Get("/context/snapshot", h.ContextSnapshot)

		r.Post("/analyze/image", h.AnalyzeImage)
		r.Post("/alerts/send_sms", h.SendSMS)
	})
}

// Process runs the full advisory pipeline for one request.
func (h *AdvisoryHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req assist.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid request body"))
		return
	}

	resp, err := h.assist.Process(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ContextWeather returns current conditions for a city, cached briefly to
// spare the upstream quota.
func (h *AdvisoryHandler) ContextWeather(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		writeError(w, domain.NewError(domain.KindValidation, "city parameter is required"))
		return
	}

	data, err := h.cache.GetOrSet(r.Context(), cache.WeatherKey(city), cache.WeatherTTL, func() (interface{}, error) {
		return h.weather.CurrentByCity(r.Context(), city)
	})
	if err != nil {
		writeError(w, domain.WrapError(domain.KindInternal, "failed to fetch weather", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ContextEarthquakes returns recent quakes near a point.
func (h *AdvisoryHandler) ContextEarthquakes(w http.ResponseWriter, r *http.Request) {
	q := seismic.Query{
		Latitude:  domain.DefaultLatitude,
		Longitude: domain.DefaultLongitude,
	}

	var ok bool
	if q.Latitude, ok = floatParam(w, r, "lat", q.Latitude, -90, 90); !ok {
		return
	}
	if q.Longitude, ok = floatParam(w, r, "lon", q.Longitude, -180, 180); !ok {
		return
	}
	if q.RadiusKM, ok = floatParam(w, r, "radius_km", 0, 1, 5000); !ok {
		return
	}
	if q.MinMagnitude, ok = floatParam(w, r, "min_magnitude", 0, 0.1, 10); !ok {
		return
	}
	if q.Days, ok = intParam(w, r, "days", 0, 1, 30); !ok {
		return
	}

	res, err := h.seismic.RecentNearPoint(r.Context(), q)
	if err != nil {
		writeError(w, domain.WrapError(domain.KindInternal, "failed to fetch earthquakes", err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ContextNaturalEvents returns open satellite-observed events over India.
func (h *AdvisoryHandler) ContextNaturalEvents(w http.ResponseWriter, r *http.Request) {
	bbox := events.IndiaBBox
	q := events.Query{
		Category: r.URL.Query().Get("category"),
		BBox:     &bbox,
	}

	var ok bool
	if q.Days, ok = intParam(w, r, "days", 0, 1, 60); !ok {
		return
	}
	if q.Limit, ok = intParam(w, r, "limit", 0, 1, 100); !ok {
		return
	}

	res, err := h.events.OpenEvents(r.Context(), q)
	if err != nil {
		writeError(w, domain.WrapError(domain.KindInternal, "failed to fetch natural events", err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ContextNews returns recent disaster-related headlines.
func (h *AdvisoryHandler) ContextNews(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, domain.NewError(domain.KindValidation, "q parameter is required"))
		return
	}

	q := news.Query{Query: query}
	var ok bool
	if q.PageSize, ok = intParam(w, r, "page_size", 0, 1, 50); !ok {
		return
	}

	res, err := h.news.Search(r.Context(), q)
	if err != nil {
		writeError(w, domain.WrapError(domain.KindInternal, "failed to fetch news", err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ContextSnapshot returns the periodically refreshed country-level snapshot.
func (h *AdvisoryHandler) ContextSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeError(w, domain.NewError(domain.KindConfiguration, "snapshot service is not enabled"))
		return
	}

	snap, err := h.snapshots.Latest(r.Context())
	if err != nil {
		writeError(w, domain.WrapError(domain.KindInternal, "snapshot is not available yet", err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type analyzeImageRequest struct {
	ImageURL string `json:"image_url"`
}

// AnalyzeImage forwards an image to the disaster classifier service.
func (h *AdvisoryHandler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	if h.classifier == nil || !h.classifier.Configured() {
		writeError(w, domain.NewError(domain.KindConfiguration, "image analysis is not enabled"))
		return
	}

	var req analyzeImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid request body"))
		return
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		writeError(w, domain.NewError(domain.KindValidation, "image_url is required"))
		return
	}

	result, err := h.classifier.AnalyzeImageURL(r.Context(), req.ImageURL)
	if err != nil {
		writeError(w, domain.WrapError(domain.KindInternal, "image analysis failed", err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type sendSMSRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type sendSMSResponse struct {
	Sent bool   `json:"sent"`
	To   string `json:"to"`
}

// SendSMS dispatches an alert SMS via Twilio. Delivery is best effort; the
// response reports whether the message was accepted.
func (h *AdvisoryHandler) SendSMS(w http.ResponseWriter, r *http.Request) {
	if h.sms == nil {
		writeError(w, domain.NewError(domain.KindConfiguration, "SMS alerts are not enabled"))
		return
	}

	var req sendSMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.KindValidation, "invalid request body"))
		return
	}
	if strings.TrimSpace(req.To) == "" || strings.TrimSpace(req.Body) == "" {
		writeError(w, domain.NewError(domain.KindValidation, "to and body are required"))
		return
	}

	sent := h.sms.Send(r.Context(), req.To, req.Body)
	writeJSON(w, http.StatusOK, sendSMSResponse{Sent: sent, To: req.To})
}

// floatParam parses an optional float query parameter, writing a validation
// error when the value is malformed or out of range.
func floatParam(w http.ResponseWriter, r *http.Request, name string, def, min, max float64) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < min || v > max {
		writeError(w, domain.NewError(domain.KindValidation, "invalid "+name+" value"))
		return 0, false
	}
	return v, true
}

func intParam(w http.ResponseWriter, r *http.Request, name string, def, min, max int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		writeError(w, domain.NewError(domain.KindValidation, "invalid "+name+" value"))
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindLLMBlocked, domain.KindLLMEmpty:
		return http.StatusUnprocessableEntity
	case domain.KindLLMTransport:
		return http.StatusBadGateway
	case domain.KindConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)

	message := "Internal server error"
	var de *domain.Error
	if errors.As(err, &de) {
		message = de.Message
	}

	writeJSON(w, statusFor(kind), map[string]interface{}{
		"error": map[string]interface{}{
			"code":    string(kind),
			"message": message,
		},
	})
}
