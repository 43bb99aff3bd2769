/*
Package client provides a typed Go client for the Mend API.

The client wraps the daemon's HTTP endpoints with typed methods, one per
endpoint, decoding straight into the same response types the server
encodes. The mend CLI is the primary consumer; anything else that wants to
ask a running daemon about errors, recoveries, or fleet health can use it
the same way.

# Usage

	c := client.New("http://localhost:8400")

	hz, err := c.Healthz(ctx)
	errs, err := c.RecentErrors(ctx, 20)
	stats, err := c.ErrorStats(ctx)
	svcs, err := c.Services(ctx)

Every method takes a context and honors its deadline; the underlying HTTP
client also carries a five second default timeout so a wedged daemon fails
fast. A non-2xx response becomes an error carrying the status and body.

# See Also

  - pkg/api for the endpoints and response shapes
  - cmd/mend status/errors/recoveries for the CLI built on this client
*/
package client
