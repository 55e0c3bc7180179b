package handler // declare the package name; contains HTTP handlers

import (
    "net/http" // net/http provides status codes and response helpers
    "time"

    "github.com/labstack/echo/v4" // echo is the web framework used for this project

    "github.com/iliyamo/event-ticket-storefront/internal/catalog"
)

// Health is a simple liveness endpoint used by load balancers and
// monitoring systems.  It returns a plain text "ok" with 200.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready reports 503 until the first catalog snapshot exists, then the age
// of the latest one.
func Ready(r *catalog.Refresher) echo.HandlerFunc {
    return func(c echo.Context) error {
        snap := r.Snapshot()
        if snap == nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "warming up"})
        }
        return c.JSON(http.StatusOK, echo.Map{
            "status":   "ok",
            "events":   len(snap.Assessments),
            "taken_at": snap.TakenAt,
            "age":      r.Now().Sub(snap.TakenAt).Round(time.Second).String(),
        })
    }
}
