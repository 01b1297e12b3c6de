package models

import "time"

type User struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	Name           string    `json:"name" bson:"name"`
	Email          string    `json:"email" bson:"email"`
	PasswordHash   string    `json:"-" bson:"password"`
	GoogleID       string    `json:"-" bson:"google_id,omitempty"`
	GoogleEmail    string    `json:"-" bson:"google_email,omitempty"`
	Bio            string    `json:"bio" bson:"bio"`
	Location       string    `json:"location" bson:"location"`
	Coordinates    GeoPoint  `json:"coordinates" bson:"coordinates"`
	Interests      []string  `json:"interests" bson:"interests"`
	ProfilePicture string    `json:"profilePicture" bson:"profile_picture"`
	Followers      []string  `json:"followers" bson:"followers"`
	Following      []string  `json:"following" bson:"following"`
	IsPublic       bool      `json:"isPublic" bson:"is_public"`
	CreatedAt      time.Time `json:"createdAt" bson:"created_at"`
	LastActive     time.Time `json:"lastActive" bson:"last_active"`
}

type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"` // [longitude, latitude]
}

// Origin is the default coordinate pair assigned at registration. Users still
// at the origin are excluded from nearby queries.
func Origin() GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{0, 0}}
}

// AtOrigin reports whether the point is unset or still the registration default.
func (p GeoPoint) AtOrigin() bool {
	return len(p.Coordinates) != 2 || (p.Coordinates[0] == 0 && p.Coordinates[1] == 0)
}

// PublicProfile is the trimmed view of a user returned by search, nearby and
// recommendation queries.
type PublicProfile struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Bio            string   `json:"bio"`
	Location       string   `json:"location"`
	Interests      []string `json:"interests"`
	ProfilePicture string   `json:"profilePicture,omitempty"`
	Distance       float64  `json:"distance,omitempty"` // meters, nearby queries only
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:             u.ID,
		Name:           u.Name,
		Bio:            u.Bio,
		Location:       u.Location,
		Interests:      u.Interests,
		ProfilePicture: u.ProfilePicture,
	}
}

// IsFollowing reports whether the user follows other.
func (u *User) IsFollowing(otherID string) bool {
	for _, id := range u.Following {
		if id == otherID {
			return true
		}
	}
	return false
}
