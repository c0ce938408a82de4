package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"citycost/internal/core"
)

// Resolver is the lookup side of the API.
type Resolver interface {
	Resolve(ctx context.Context, id core.CityIdentity) (core.Record, error)
	ResolveCoordinates(ctx context.Context, c core.Coordinates) (core.Record, error)
	RentEstimate(ctx context.Context, address string) (core.Record, error)
	Ping(ctx context.Context) error
}

// Handler holds the HTTP handlers
type Handler struct {
	resolver Resolver
}

// NewHandler creates a new handler with the given resolver
func NewHandler(resolver Resolver) *Handler {
	return &Handler{
		resolver: resolver,
	}
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	if err := h.resolver.Ping(c.Request().Context()); err != nil {
		slog.WarnContext(c.Request().Context(), "cache store ping failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Lookup handles GET /lookup. It resolves by lat/lon when either is present,
// otherwise by city_name and country_name.
func (h *Handler) Lookup(c echo.Context) error {
	ctx := c.Request().Context()

	lat, lon := c.QueryParam("lat"), c.QueryParam("lon")
	if lat != "" || lon != "" {
		coords, err := parseCoordinates(lat, lon)
		if err != nil {
			return handleError(c, err)
		}
		rec, err := h.resolver.ResolveCoordinates(ctx, coords)
		if err != nil {
			return handleError(c, err)
		}
		return c.JSONBlob(http.StatusOK, rec)
	}

	rec, err := h.resolver.Resolve(ctx, core.CityIdentity{
		CityName:    c.QueryParam("city_name"),
		CountryName: c.QueryParam("country_name"),
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSONBlob(http.StatusOK, rec)
}

// RentEstimate handles GET /rent-estimate
func (h *Handler) RentEstimate(c echo.Context) error {
	rec, err := h.resolver.RentEstimate(c.Request().Context(), c.QueryParam("city"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSONBlob(http.StatusOK, rec)
}

// LegacyRentEstimate handles GET /api/rentEstimate, the older combined route:
// a city parameter returns a rent estimate, anything else is a lookup.
func (h *Handler) LegacyRentEstimate(c echo.Context) error {
	if strings.TrimSpace(c.QueryParam("city")) != "" {
		return h.RentEstimate(c)
	}
	return h.Lookup(c)
}

func parseCoordinates(lat, lon string) (core.Coordinates, error) {
	latVal, latErr := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	lonVal, lonErr := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if latErr != nil || lonErr != nil {
		return core.Coordinates{}, core.NewValidationError("lat and lon must be numeric")
	}
	return core.Coordinates{Lat: latVal, Lon: lonVal}, nil
}

// handleError converts lookup errors to the {error, details?} envelope
func handleError(c echo.Context, err error) error {
	var lookupErr *core.Error
	if errors.As(err, &lookupErr) {
		status := lookupErr.HTTPStatusCode()
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(c.Request().Context(), "lookup failed",
				"kind", lookupErr.Kind,
				"provider_status", lookupErr.Status,
				"error", err,
			)
		}
		return c.JSON(status, lookupErr.ToJSON())
	}

	slog.ErrorContext(c.Request().Context(), "unexpected error", "error", err)
	return c.JSON(http.StatusInternalServerError, map[string]any{
		"error": "an unexpected error occurred",
	})
}
