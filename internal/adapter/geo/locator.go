package geo

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Temirlan0k/ride-dispatch/internal/domain/models"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
)

const (
	geoKey        = "drivers:geo"
	availableHash = "drivers:available"
)

// RedisLocator keeps driver positions in a Redis GEO set and their
// availability flags in a hash alongside it.
type RedisLocator struct {
	client *redis.Client
}

func NewRedisLocator(client *redis.Client) *RedisLocator {
	return &RedisLocator{client: client}
}

func (l *RedisLocator) FindAvailableNear(ctx context.Context, origin models.GeoPoint, radiusKm float64, limit int) ([]models.AvailableDriver, error) {
	locs, err := l.client.GeoSearchLocation(ctx, geoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  origin.Longitude,
			Latitude:   origin.Latitude,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis locator: geosearch: %w", err)
	}

	out := make([]models.AvailableDriver, 0, len(locs))
	for _, loc := range locs {
		if limit > 0 && len(out) >= limit {
			break
		}

		id, err := uuid.Parse(loc.Name)
		if err != nil {
			continue // чужая запись в гео-сете, пропускаем
		}

		available, err := l.client.HGet(ctx, availableHash, loc.Name).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, fmt.Errorf("redis locator: availability check: %w", err)
		}
		if available != "1" {
			continue
		}

		out = append(out, models.AvailableDriver{
			ID:         id,
			Location:   models.GeoPoint{Latitude: loc.Latitude, Longitude: loc.Longitude},
			DistanceKm: loc.Dist,
		})
	}

	return out, nil
}

func (l *RedisLocator) SetAvailable(ctx context.Context, driverID uuid.UUID, available bool) error {
	flag := "0"
	if available {
		flag = "1"
	}

	if err := l.client.HSet(ctx, availableHash, driverID.String(), flag).Err(); err != nil {
		return fmt.Errorf("redis locator: set available: %w", err)
	}

	return nil
}

// UpdateLocation records the driver's latest position in the geo set.
func (l *RedisLocator) UpdateLocation(ctx context.Context, driverID uuid.UUID, loc models.GeoPoint) error {
	err := l.client.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      driverID.String(),
		Longitude: loc.Longitude,
		Latitude:  loc.Latitude,
	}).Err()
	if err != nil {
		return fmt.Errorf("redis locator: geoadd: %w", err)
	}

	return nil
}
