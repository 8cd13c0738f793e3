package paths

import (
	"context"
	"delivery-sim-service/internal/adapters/cache"
	"delivery-sim-service/internal/domain"
	"delivery-sim-service/internal/platform/obs"
	"delivery-sim-service/internal/services"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}

type PathCache interface {
	Get(ctx context.Context, key string) (domain.Path, bool, error)
	Put(ctx context.Context, key string, path domain.Path) error
}

// ORSPathSource implements PathSource using OpenRouteService.
//
// It coordinates:
//   - Hub and destination geocoding with a persistent cache
//   - Nearest-neighbor ordering of delivery stops
//   - Directions requests with retry/backoff
//   - Persistent path caching
//
// The source is safe for concurrent use.
type ORSPathSource struct {
	session      *http.Client
	apiKey       string
	baseURL      string
	profile      string
	country      string
	hubAddress   string
	returnToHub  bool
	backoff      time.Duration
	geocodeCache GeocodeCache
	pathCache    PathCache
}

type Option func(*ORSPathSource)

func WithBaseURL(u string) Option {
	return func(o *ORSPathSource) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithProfile(profile string) Option {
	return func(o *ORSPathSource) { o.profile = profile }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *ORSPathSource) { o.session = c }
}

// WithReturnToHub appends the hub as the last stop.
func WithReturnToHub(v bool) Option {
	return func(o *ORSPathSource) { o.returnToHub = v }
}

func NewORSPathSource(
	apiKey string,
	hubAddress string,
	geocodeCache GeocodeCache,
	pathCache PathCache,
	opts ...Option,
) (*ORSPathSource, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	o := &ORSPathSource{
		session:      &http.Client{Timeout: 10 * time.Second},
		apiKey:       apiKey,
		baseURL:      "https://api.openrouteservice.org",
		profile:      "driving-car",
		country:      "US",
		hubAddress:   hubAddress,
		backoff:      200 * time.Millisecond,
		geocodeCache: geocodeCache,
		pathCache:    pathCache,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// GetPath returns a driving path from the hub through the vehicle's stops.
//
// Packages without coordinates are geocoded by destination and updated in
// place; a package that cannot be geocoded is left as is and logged.
func (o *ORSPathSource) GetPath(ctx context.Context, vehicle *domain.Vehicle) (_ domain.Path, err error) {
	defer obs.Time(ctx, "ors.GetPath")(&err)

	if vehicle == nil {
		return nil, errors.New("get ORS path: vehicle is nil")
	}

	hubAddress := normalize(vehicle.StartLocation)
	if hubAddress == "" {
		hubAddress = normalize(o.hubAddress)
	}
	if hubAddress == "" {
		return nil, errors.New("get ORS path: hub address must be non-empty")
	}

	addresses := []string{hubAddress}
	for _, pkg := range vehicle.Packages {
		if _, ok := pkg.DestinationCoordinates(); !ok {
			addresses = append(addresses, pkg.Destination)
		}
	}

	resolved, failed, err := o.resolve(ctx, addresses)
	if err != nil {
		return nil, fmt.Errorf("get ORS path: %w", err)
	}

	hub, ok := resolved[hubAddress]
	if !ok {
		return nil, fmt.Errorf("get ORS path: geocode hub: %w", failed[hubAddress])
	}

	for _, pkg := range vehicle.Packages {
		if _, ok := pkg.DestinationCoordinates(); ok {
			continue
		}
		n := normalize(pkg.Destination)
		c, ok := resolved[n]
		if !ok {
			log.Warn().
				Err(failed[n]).
				Str("vehicle_id", vehicle.VehicleID).
				Int("package_id", pkg.PackageID).
				Msg("destination not geocoded")
			continue
		}
		lat, lon := c.Lat, c.Lon
		pkg.DestinationLat, pkg.DestinationLon = &lat, &lon
	}

	stops := services.NearestNeighborOrder(hub, vehicle.Packages)
	if len(stops) == 0 {
		return nil, fmt.Errorf("get ORS path: vehicle %s has no routable stops", vehicle.VehicleID)
	}

	points := make([]domain.Coordinates, 0, len(stops)+2)
	points = append(points, hub)
	for _, s := range stops {
		points = append(points, s.Coordinates)
	}
	if o.returnToHub {
		points = append(points, hub)
	}

	key := cache.PathKey(o.profile, points)
	if o.pathCache != nil {
		path, ok, err := o.pathCache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("path cache read failed")
		} else if ok {
			return path, nil
		}
	}

	path, err := o.directions(ctx, points)
	if err != nil {
		return nil, fmt.Errorf("get ORS path: vehicle %s: %w", vehicle.VehicleID, err)
	}

	if o.pathCache != nil {
		if err := o.pathCache.Put(ctx, key, path); err != nil {
			log.Warn().Err(err).Msg("path cache write failed")
		}
	}

	log.Info().
		Str("vehicle_id", vehicle.VehicleID).
		Int("stops", len(stops)).
		Int("points", len(path)).
		Msg("path fetched")

	return path, nil
}
