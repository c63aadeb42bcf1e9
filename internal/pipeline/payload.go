package pipeline

import "github.com/devmantra/tasker-push-service/pkg/notification"

// BuildPayload maps a NotificationRecord onto the provider-agnostic payload.
//
// The data map starts from the fixed keys (notificationId, type, actionUrl)
// and then merges the record's extras over them, so an extra with the same
// key overwrites the fixed value. Extras-win ordering is a behavioural
// contract with the mobile client and must not be reversed.
func BuildPayload(event *notification.CreatedEvent, defaultTitle string) notification.Payload {
	record := event.Record

	title := record.Title
	if title == "" {
		title = defaultTitle
	}

	data := map[string]string{
		"notificationId": event.NotificationID,
		"type":           record.Type,
		"actionUrl":      record.ActionURL,
	}
	for k, v := range record.Data {
		data[k] = v
	}

	return notification.Payload{
		Title:    title,
		Body:     record.Body,
		ImageURL: record.ImageURL,
		Data:     data,
	}
}
