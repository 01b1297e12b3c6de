package services

import (
	"context"
	"log"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"travelbuddy-server/models"
	"travelbuddy-server/store"
	"travelbuddy-server/utils/errors"
)

const (
	geoKey    = "users:geo"
	geoTTL    = 24 * time.Hour
	earthR    = 6371e3 // meters
	defaultKM = 1000.0
)

// GeoService answers nearby-user queries. The Redis GEO index fed by location
// pings is the primary path; when it is unavailable the service falls back to
// scanning all users and computing great-circle distances directly.
type GeoService struct {
	users       store.UserStore
	redisClient *redis.Client
}

func NewGeoService(users store.UserStore, redisClient *redis.Client) *GeoService {
	return &GeoService{users: users, redisClient: redisClient}
}

func validCoordinates(lng, lat float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// LocationPing records a user's current position in the document store and
// the Redis geospatial index.
func (s *GeoService) LocationPing(ctx context.Context, userID string, lng, lat float64) error {
	if !validCoordinates(lng, lat) {
		return errors.ErrInvalidInput
	}

	point := models.GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
	if _, err := s.users.UpdateProfile(ctx, userID, store.ProfilePatch{Coordinates: &point}); err != nil {
		if err == store.ErrNotFound {
			return errors.NotFound("User not found.")
		}
		return errors.Wrap(err, "DB_ERROR", "Failed to update location", http.StatusInternalServerError)
	}

	err := s.redisClient.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      userID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
	if err != nil {
		// The index is opportunistic; the scan fallback still works.
		log.Printf("Failed to update Redis geospatial index: %v", err)
		return nil
	}
	s.redisClient.Expire(ctx, geoKey, geoTTL)
	return nil
}

// Nearby returns users within radius meters of the given origin, closest
// first. The caller and users still at the default origin are excluded.
func (s *GeoService) Nearby(ctx context.Context, userID string, lng, lat, radius float64) ([]models.PublicProfile, error) {
	if !validCoordinates(lng, lat) {
		return nil, errors.ErrInvalidInput
	}
	if radius <= 0 {
		radius = 5000
	}

	profiles, err := s.nearbyFromRedis(ctx, userID, lng, lat, radius)
	if err == nil {
		return profiles, nil
	}
	log.Printf("Geospatial index unavailable, scanning users: %v", err)
	return s.nearbyFromScan(ctx, userID, lng, lat, radius)
}

func (s *GeoService) nearbyFromRedis(ctx context.Context, userID string, lng, lat, radius float64) ([]models.PublicProfile, error) {
	geoResults, err := s.redisClient.GeoRadius(ctx, geoKey, lng, lat, &redis.GeoRadiusQuery{
		Radius:   radius / defaultKM,
		Unit:     "km",
		WithDist: true,
		Sort:     "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	profiles := make([]models.PublicProfile, 0, len(geoResults))
	for _, geoResult := range geoResults {
		if geoResult.Name == userID {
			continue
		}
		user, err := s.users.GetByID(ctx, geoResult.Name)
		if err != nil {
			log.Printf("Failed to load nearby user %s: %v", geoResult.Name, err)
			continue
		}
		// Stale index entries for users back at the default origin are skipped,
		// matching the scan path.
		if user.Coordinates.AtOrigin() {
			continue
		}
		profile := user.Public()
		profile.Distance = geoResult.Dist * defaultKM
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (s *GeoService) nearbyFromScan(ctx context.Context, userID string, lng, lat, radius float64) ([]models.PublicProfile, error) {
	users, err := s.users.ListOthers(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load users", http.StatusInternalServerError)
	}

	var profiles []models.PublicProfile
	for _, user := range users {
		if user.Coordinates.AtOrigin() {
			continue
		}
		userLng, userLat := user.Coordinates.Coordinates[0], user.Coordinates.Coordinates[1]
		distance := haversine(lat, lng, userLat, userLng)
		if distance > radius {
			continue
		}
		profile := user.Public()
		profile.Distance = distance
		profiles = append(profiles, profile)
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Distance < profiles[j].Distance
	})
	return profiles, nil
}

// haversine returns the great-circle distance in meters between two points.
func haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthR * c
}
