package paths

import (
	"context"
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/platform/obs"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// resolve maps addresses to coordinates, cache first. Addresses that fail
// to geocode are reported in failed; the rest are cached and returned.
func (o *ORSPathSource) resolve(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, failed map[string]error, err error) {
	defer obs.Time(ctx, "ors.resolve")(&err)

	norms := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if n := normalize(a); n != "" {
			norms = append(norms, n)
		}
	}

	out := map[string]domain.Coordinates{}
	if o.geocodeCache != nil {
		cached, err := o.geocodeCache.GetMany(ctx, norms)
		if err != nil {
			log.Warn().Err(err).Msg("geocode cache read failed")
		} else if cached != nil {
			out = cached
		}
	}

	fresh := map[string]domain.Coordinates{}
	failed = map[string]error{}
	for _, n := range norms {
		if _, ok := out[n]; ok {
			continue
		}
		if _, ok := failed[n]; ok {
			continue
		}

		c, err := o.geocodeOne(ctx, n)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			failed[n] = err
			continue
		}
		out[n] = c
		fresh[n] = c
	}

	if o.geocodeCache != nil && len(fresh) > 0 {
		if err := o.geocodeCache.PutMany(ctx, fresh); err != nil {
			log.Warn().Err(err).Int("n", len(fresh)).Msg("geocode cache write failed")
		}
	}

	return out, failed, nil
}

// geocodeOne resolves one normalized address using OpenRouteService (/geocode/search).
func (o *ORSPathSource) geocodeOne(ctx context.Context, address string) (domain.Coordinates, error) {
	query := url.Values{
		"text":             {address},
		"boundary.country": {o.country},
		"size":             {"1"},
	}
	resp, err := o.call(ctx, http.MethodGet, "/geocode/search", query, nil)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: execute request: %w", address, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: decode response: %w", address, err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", address, errNoGeocodeResult)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: invalid coordinate format", address)
	}

	c := domain.Coordinates{Lon: coords[0], Lat: coords[1]}
	if !c.Valid() {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: coordinates out of range", address)
	}
	return c, nil
}

var errNoGeocodeResult = errors.New("no geocode results")
