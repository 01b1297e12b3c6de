package models

import "testing"

func TestValidCategory(t *testing.T) {
	for _, c := range Categories() {
		if !ValidCategory(c.Value) {
			t.Errorf("Catalog value %q rejected", c.Value)
		}
	}
	for _, value := range []string{"", "all", "skydiving", "Dinner"} {
		if ValidCategory(value) {
			t.Errorf("Expected %q to be rejected", value)
		}
	}
}

func TestNotificationTypesDistinct(t *testing.T) {
	types := []string{
		NotificationNewFollower,
		NotificationNewParticipant,
		NotificationActivityJoined,
		NotificationActivityLeft,
		NotificationActivityUpdated,
		NotificationReminder,
		NotificationMessage,
	}
	seen := make(map[string]bool, len(types))
	for _, typ := range types {
		if typ == "" {
			t.Error("Empty notification type constant")
		}
		if seen[typ] {
			t.Errorf("Duplicate notification type %q", typ)
		}
		seen[typ] = true
	}
}

func TestGeoPointAtOrigin(t *testing.T) {
	if !Origin().AtOrigin() {
		t.Error("Expected the registration default to read as origin")
	}
	if (GeoPoint{}).AtOrigin() == false {
		t.Error("Expected an unset point to read as origin")
	}
	set := GeoPoint{Type: "Point", Coordinates: []float64{-9.1393, 38.7223}}
	if set.AtOrigin() {
		t.Error("Expected real coordinates to not read as origin")
	}
}
