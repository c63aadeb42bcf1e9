// Package notification contains the domain models shared between the
// fan-out engine, the storage layer and the push gateway.
package notification

import "time"

// NotificationRecord is the user-facing content of a notification as written
// by the authoring collaborator. It is immutable once created and read-only
// to this service.
type NotificationRecord struct {
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	ImageURL  string            `json:"imageUrl,omitempty"`
	Type      string            `json:"type"`
	ActionURL string            `json:"actionUrl,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// CreatedEvent is the "notification record created" trigger as it arrives on
// the wire. It carries the storage location (user + record ID) alongside the
// full record so the engine never has to read the record back.
type CreatedEvent struct {
	UserID         string             `json:"userId"`
	NotificationID string             `json:"notificationId"`
	Record         NotificationRecord `json:"notification"`
}

// DeviceToken is one registered delivery address for a user. LastUsed is
// refreshed by the registration collaborator, never by the engine.
type DeviceToken struct {
	Token    string    `json:"token" firestore:"token"`
	LastUsed time.Time `json:"lastUsed" firestore:"lastUsed"`
}

// Payload is the provider-agnostic message handed to the push gateway.
// Data carries the flattened key/value extras; platform delivery hints
// (sound, channel, badge) are gateway configuration, not payload.
type Payload struct {
	Title    string
	Body     string
	ImageURL string
	Data     map[string]string
}
