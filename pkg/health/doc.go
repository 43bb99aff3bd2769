/*
Package health provides service health checkers for Mend.

A Checker answers one question about one endpoint: is it healthy right now.
Implementations cover TCP reachability, HTTP status, Redis PING, PostgreSQL
connectivity, and arbitrary host commands. Pollers compose them into
per-service probes; recovery actions reuse them to verify repairs.

# Architecture

	┌──────────────────── HEALTH CHECKERS ──────────────────────┐
	│                                                           │
	│          Checker interface                                │
	│          Check(ctx) Result │ Type() CheckType             │
	│                    │                                      │
	│   ┌────────────┬───┴─────────┬────────────┬───────────┐   │
	│   ▼            ▼             ▼            ▼           ▼   │
	│  TCPChecker  HTTPChecker  RedisChecker  Postgres   Exec   │
	│  net.Dial    GET, 2xx/3xx  PING via     Checker   Checker │
	│  with        is healthy    go-redis     pgx       command │
	│  timeout                                connect   exit 0  │
	│                                         + ping            │
	└───────────────────────────────────────────────────────────┘

# Result

Every check produces a Result with Healthy, a Message describing what was
observed, and the check Duration. Messages are written to read well inside
classified errors: a refused connection reports the dial error verbatim so
the taxonomy can attribute it to the network rather than to the service.

# Checkers

TCPChecker:
  - Dials the address with a short timeout; success is connect, nothing more

HTTPChecker:
  - GET against a health endpoint; 2xx and 3xx are healthy
  - WithTimeout overrides the default client timeout

RedisChecker:
  - PING through go-redis; any error is unhealthy

PostgresChecker:
  - Connects and pings via pgx, catching auth and config faults that a
    bare TCP dial would miss

ExecChecker:
  - Runs a host command through command.Runner; exit code zero is healthy
  - Used for config probes (pg_isready, redis-cli CONFIG GET dir)

# Usage

	chk := health.NewHTTPChecker("http://localhost:3000/api/health")
	res := chk.Check(ctx)
	if !res.Healthy {
		cerr := clf.Classify(res.Message, map[string]string{"service": "reports"})
	}

# See Also

  - pkg/poller for how checkers compose into service probes
  - pkg/executor restart-service, which re-checks health after a repair
*/
package health
