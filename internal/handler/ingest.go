package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/devaloi/picstream/internal/domain"
	"github.com/devaloi/picstream/internal/fanout"
)

// Ingest accepts webhook events and hands them to the fan-out service.
// Malformed payloads never reach Publish; bursts past the limiter are
// rejected with 429.
func Ingest(svc *fanout.Service, limiter *rate.Limiter, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}

		var ev domain.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
			return
		}
		if ev.City == "" || ev.Pic == "" {
			http.Error(w, `{"error":"city and pic required"}`, http.StatusBadRequest)
			return
		}
		if ev.City == domain.Universe {
			// The universe channel is written by the fan-out itself.
			http.Error(w, `{"error":"city name is reserved"}`, http.StatusBadRequest)
			return
		}

		svc.Publish(ev.City, ev.Pic)
		log.Info().Str("city", ev.City).Msg("event ingested")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
	}
}
