package rapidapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"citycost/internal/core"
)

// Provider names
const (
	CostOfLivingProvider = "cost-of-living"
	ZillowProvider       = "zillow"
)

// Upstream groups the cost-of-living and rent-estimate providers.
type Upstream struct {
	costOfLiving *Client
	zillow       *Client
}

// New creates the upstream clients. Provider names are filled in when empty.
func New(costOfLiving, zillow Config, httpClient *http.Client) *Upstream {
	if costOfLiving.Name == "" {
		costOfLiving.Name = CostOfLivingProvider
	}
	if zillow.Name == "" {
		zillow.Name = ZillowProvider
	}
	return &Upstream{
		costOfLiving: NewClient(costOfLiving, httpClient),
		zillow:       NewClient(zillow, httpClient),
	}
}

// CheckCostOfLiving reports whether the cost-of-living credential is configured.
func (u *Upstream) CheckCostOfLiving() error {
	return u.costOfLiving.CheckCredentials()
}

// CheckRentEstimate reports whether the rent-estimate credential is configured.
func (u *Upstream) CheckRentEstimate() error {
	return u.zillow.CheckCredentials()
}

// FetchCostOfLiving fetches prices for a city by name.
func (u *Upstream) FetchCostOfLiving(ctx context.Context, id core.CityIdentity) (core.Record, error) {
	return u.costOfLiving.Get(ctx, "/prices", url.Values{
		"city_name":    {strings.TrimSpace(id.CityName)},
		"country_name": {strings.TrimSpace(id.CountryName)},
	})
}

// FetchCostOfLivingByCoordinates fetches prices for the city nearest to c.
func (u *Upstream) FetchCostOfLivingByCoordinates(ctx context.Context, c core.Coordinates) (core.Record, error) {
	return u.costOfLiving.Get(ctx, "/prices", url.Values{
		"lat": {strconv.FormatFloat(c.Lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(c.Lon, 'f', -1, 64)},
	})
}

// FetchRentEstimate fetches a single-family rent estimate for a free-text address.
func (u *Upstream) FetchRentEstimate(ctx context.Context, address string) (core.Record, error) {
	return u.zillow.Get(ctx, "/rentEstimate", url.Values{
		"address":      {strings.TrimSpace(address)},
		"d":            {"0.5"},
		"propertyType": {"SingleFamily"},
	})
}
