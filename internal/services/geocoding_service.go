package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// FallbackDistanceKM is used whenever the routing provider cannot produce a
// distance. Pricing always has a number to work with.
const FallbackDistanceKM = 100.0

const (
	geocodeCacheTTL     = 24 * time.Hour
	geocodeTimeout      = 5 * time.Second
	directionsTimeout   = 8 * time.Second
	openRouteServiceURL = "https://api.openrouteservice.org"
)

// GeocodingService resolves addresses and driving distances through
// OpenRouteService, with a Redis cache in front of the geocoder. It never
// returns an error: any failure degrades to the fallback distance so that
// shipment creation keeps working without the provider.
type GeocodingService struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *redis.Client
	logger  *slog.Logger
}

type GeocodingConfig struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Cache   *redis.Client
	Logger  *slog.Logger
}

func NewGeocodingService(cfg GeocodingConfig) *GeocodingService {
	base := cfg.BaseURL
	if base == "" {
		base = openRouteServiceURL
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: directionsTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GeocodingService{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: base,
		client:  client,
		cache:   cfg.Cache,
		logger:  logger,
	}
}

// DistanceKM returns the driving distance in kilometers between two
// addresses, or FallbackDistanceKM when either the geocoder or the router
// cannot answer.
func (g *GeocodingService) DistanceKM(ctx context.Context, pickupAddress, deliveryAddress string) float64 {
	if g.apiKey == "" {
		return FallbackDistanceKM
	}

	from, ok := g.geocode(ctx, pickupAddress)
	if !ok {
		return FallbackDistanceKM
	}
	to, ok := g.geocode(ctx, deliveryAddress)
	if !ok {
		return FallbackDistanceKM
	}

	km, ok := g.drivingDistance(ctx, from, to)
	if !ok {
		return FallbackDistanceKM
	}
	return km
}

type lonLat [2]float64

func (g *GeocodingService) geocode(ctx context.Context, address string) (lonLat, bool) {
	normalized := strings.ToLower(strings.Join(strings.Fields(address), " "))
	cacheKey := "geocode:" + normalized

	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, cacheKey).Result(); err == nil {
			var point lonLat
			if json.Unmarshal([]byte(cached), &point) == nil {
				return point, true
			}
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, geocodeTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/geocode/search?api_key=%s&text=%s&size=1",
		g.baseURL, url.QueryEscape(g.apiKey), url.QueryEscape(address))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return lonLat{}, false
	}
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("geocode request failed", "err", err)
		return lonLat{}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("geocode request rejected", "status", resp.Status)
		return lonLat{}, false
	}

	var parsed struct {
		Features []struct {
			Geometry struct {
				Coordinates lonLat `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || len(parsed.Features) == 0 {
		return lonLat{}, false
	}
	point := parsed.Features[0].Geometry.Coordinates

	if g.cache != nil {
		if encoded, err := json.Marshal(point); err == nil {
			if err := g.cache.Set(ctx, cacheKey, encoded, geocodeCacheTTL).Err(); err != nil {
				g.logger.Warn("geocode cache write failed", "err", err)
			}
		}
	}
	return point, true
}

func (g *GeocodingService) drivingDistance(ctx context.Context, from, to lonLat) (float64, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, directionsTimeout)
	defer cancel()

	body, _ := json.Marshal(map[string]interface{}{
		"coordinates": []lonLat{from, to},
	})
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, g.baseURL+"/v2/directions/driving-car", strings.NewReader(string(body)))
	if err != nil {
		return 0, false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("directions request failed", "err", err)
		return 0, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("directions request rejected", "status", resp.Status)
		return 0, false
	}

	var parsed struct {
		Routes []struct {
			Summary struct {
				Distance float64 `json:"distance"`
			} `json:"summary"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || len(parsed.Routes) == 0 {
		return 0, false
	}
	meters := parsed.Routes[0].Summary.Distance
	if meters <= 0 {
		return 0, false
	}
	return math.Round(meters/100) / 10, true
}
