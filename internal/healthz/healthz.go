// Package healthz mounts the liveness/readiness endpoints every pipeline
// stage exposes alongside its consumer loop.
package healthz

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by both broker.Client and store.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterRoutes mounts /healthz (always ok once the process is up) and
// /readyz (ok only when every dependency the stage actually holds responds).
// Callers pass only the Pingers they have wired; stages with no broker
// dependency (batchcorr, alertsagg) pass just the store.
func RegisterRoutes(e *echo.Echo, deps ...Pinger) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	e.GET("/readyz", func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := pingAll(ctx, deps...); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	})
}

func pingAll(ctx context.Context, pingers ...Pinger) error {
	for _, p := range pingers {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}
