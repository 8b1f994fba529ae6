package messaging

import (
	"CampusBroadcast/internal/persist"

	"go.mongodb.org/mongo-driver/mongo"
)

// messageSafeFields lists the message columns present on every deployed
// schema revision; warm-up falls back to these when older deployments miss
// the newer engagement columns.
var messageSafeFields = []string{
	"id", "title", "content", "sender", "sender_role", "recipients",
	"custom_groups", "manual_recipients", "priority", "attachments",
	"schedule_type", "schedule_date", "schedule_time", "total_recipients",
	"read_count", "acknowledged", "created_at", "updated_at",
}

// NewMessageStore returns the remote persister for messages.
func NewMessageStore(db *mongo.Database) persist.Persister[Message] {
	return persist.NewMongoPersister[Message](db, "messages", messageSafeFields)
}

// NewNotificationStore returns the remote persister for notifications.
func NewNotificationStore(db *mongo.Database) persist.Persister[Notification] {
	return persist.NewMongoPersister[Notification](db, "notifications", nil)
}

// NewCommentStore returns the remote persister for comments.
func NewCommentStore(db *mongo.Database) persist.Persister[Comment] {
	return persist.NewMongoPersister[Comment](db, "comments", nil)
}
