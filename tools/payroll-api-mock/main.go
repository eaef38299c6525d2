package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"sync"

	"attendance.service/internal/worker/legacyapi"
	"github.com/rs/zerolog/log"
)

// A stand-in for the payroll system. FAIL_EVERY_N makes every nth request
// fail with 503 to exercise retries and the circuit breaker.

var (
	mu       sync.Mutex
	received = map[string]legacyapi.SummaryPayload{}
	calls    int
)

func summaryHandler(failEvery int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload legacyapi.SummaryPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		mu.Lock()
		calls++
		fail := failEvery > 0 && calls%failEvery == 0
		if !fail {
			received[r.Header.Get("Idempotency-Key")] = payload
		}
		stored := len(received)
		mu.Unlock()

		if fail {
			log.Warn().Str("employee_id", payload.EmployeeID).Msg("Simulating payroll outage")
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
			return
		}

		log.Info().
			Str("employee_id", payload.EmployeeID).
			Str("period", payload.Period).
			Str("worked_hours", payload.WorkedHours.String()).
			Int("stored", stored).
			Msg("Received monthly summary")
		w.WriteHeader(http.StatusOK)
	}
}

func main() {
	failEvery := 0
	if v := os.Getenv("FAIL_EVERY_N"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Fatal().Err(err).Msg("FAIL_EVERY_N must be a number")
		}
		failEvery = n
	}

	http.HandleFunc("/", summaryHandler(failEvery))
	log.Info().Msg("Payroll API mock server starting on port 8081...")
	if err := http.ListenAndServe(":8081", nil); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}
