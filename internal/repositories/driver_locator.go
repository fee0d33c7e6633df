package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const driverGeoKey = "drivers:live"

// DriverLocator keeps driver live positions in a Redis GEO set. Positions
// are a pass-through snapshot for dashboards; no history is kept.
type DriverLocator struct {
	rdb *redis.Client
}

// NewDriverLocator creates a locator backed by the given Redis client.
func NewDriverLocator(rdb *redis.Client) *DriverLocator {
	return &DriverLocator{rdb: rdb}
}

func driverMember(userID int64) string {
	return fmt.Sprintf("driver:%d", userID)
}

// Update validates and stores a driver's current position.
func (l *DriverLocator) Update(ctx context.Context, userID int64, lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("locator: invalid coords lat=%.6f lng=%.6f", lat, lng)
	}
	return l.rdb.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
		Name:      driverMember(userID),
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// Clear removes the driver's position, typically on disconnect.
func (l *DriverLocator) Clear(ctx context.Context, userID int64) error {
	return l.rdb.ZRem(ctx, driverGeoKey, driverMember(userID)).Err()
}

// Nearby returns user ids of drivers within radiusKM of a point.
func (l *DriverLocator) Nearby(ctx context.Context, lat, lng, radiusKM float64) ([]int64, error) {
	locs, err := l.rdb.GeoSearchLocation(ctx, driverGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  lng,
			Latitude:   lat,
			Radius:     radiusKM,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
	}).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(locs))
	for _, loc := range locs {
		parts := strings.Split(loc.Name, ":")
		if len(parts) != 2 {
			continue
		}
		id, parseErr := strconv.ParseInt(parts[1], 10, 64)
		if parseErr != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
