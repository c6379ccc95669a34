package api

import (
	"net/http"
	"time"

	"routeplanner/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	c := s.Cfg
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"PORT":                 c.Port,
			"APP_ENV":              c.Env,
			"RATE_RPS":             c.RateRPS,
			"RATE_BURST":           c.RateBurst,
			"UPSTREAM_TIMEOUT":     c.UpstreamTimeout.String(),
			"UPSTREAM_RPS":         c.UpstreamRPS,
			"MAX_ROUTES":           c.MaxRoutes,
			"SAMPLE_EVERY":         c.SampleEvery,
			"MAX_LOCATIONS":        c.MaxLocations,
			"CACHE_TTL":            c.CacheTTL.String(),
			"HAS_DATABASE_URL":     c.DatabaseURL != "",
			"HAS_REDIS_URL":        c.RedisURL != "",
			"HAS_TOMTOM_API_KEY":   c.TomTomAPIKey != "",
			"HAS_GOOGLE_API_KEY":   c.GoogleAPIKey != "",
			"HAS_OPEN_WEATHER_KEY": c.OpenWeatherAPIKey != "",
			"HAS_MAPS_BROWSER_KEY": c.GoogleMapsBrowserKey != "",
			"STATIC_DIR":           c.StaticDir,
		},
	}
	writeJSON(w, http.StatusOK, info)
}
