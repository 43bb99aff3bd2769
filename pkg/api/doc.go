/*
Package api provides Mend's HTTP query surface.

The API is read-only: it exposes what the daemon has observed and done,
never a way to mutate it. Operators and the mend CLI query error history,
recovery outcomes, and per-service health over plain JSON.

# Endpoints

	GET /v1/errors/recent       recent classified errors (?limit=N, default 50)
	GET /v1/errors/stats        totals by kind, severity, resolution
	GET /v1/recovery/recent     recent recovery actions (?limit=N)
	GET /v1/recovery/stats      totals by action, success rate
	GET /v1/health/summary      aggregated component health
	GET /v1/health/services     per-service poller state
	                            (?history=true&limit=N for snapshots)
	GET /healthz                daemon liveness + version
	GET /metrics                Prometheus exposition

All endpoints are GET-only; other methods get 405. Responses are JSON with
Content-Type set; list endpoints fall back to the default limit on missing
or garbage input.

# Architecture

	┌────────────────── API SERVER ───────────────────┐
	│                                                 │
	│  http.ServeMux                                  │
	│     │                                           │
	│     ├── /v1/errors/*    ──► history.Store       │
	│     ├── /v1/recovery/*  ──► history.Store       │
	│     ├── /v1/health/services ──► []*poller.Poller│
	│     ├── /v1/health/summary ──► HealthRegistry   │
	│     ├── /healthz        ──► status + version    │
	│     └── /metrics        ──► prometheus handler  │
	└─────────────────────────────────────────────────┘

The server reads through the same copy-on-read accessors the rest of the
daemon uses, so a slow scrape never holds a lock against the classifier or
the engine.

# Usage

	srv := api.NewServer(store, pollers, healthReg, version)
	go func() {
		if err := srv.Start(cfg.APIAddr); err != nil {
			log.Errorf("api server: %v", err)
		}
	}()
	defer srv.Stop()

Start blocks until shutdown; Stop drains in-flight requests with a five
second grace period. Handler() exposes the mux for httptest-based tests.

# See Also

  - pkg/client for the typed Go client over these endpoints
  - pkg/metrics for what /metrics exports
*/
package api
