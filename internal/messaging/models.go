package messaging

import "time"

// Message is a broadcast sent to a computed audience. The audience size is
// frozen in TotalRecipients at send time; ReadBy and AcknowledgedBy only ever
// grow, one entry per user.
type Message struct {
	ID               int64       `bson:"id" json:"id"`
	Title            string      `bson:"title" json:"title"`
	Content          string      `bson:"content" json:"content"`
	Sender           string      `bson:"sender" json:"sender"`           // Author display name as captured at send time
	SenderRole       string      `bson:"sender_role" json:"sender_role"` // Author role at send time
	Recipients       AddressMode `bson:"recipients" json:"recipients"`   // Addressing mode
	CustomGroups     []int64     `bson:"custom_groups,omitempty" json:"custom_groups,omitempty"`
	ManualRecipients []string    `bson:"manual_recipients,omitempty" json:"manual_recipients,omitempty"`
	Priority         string      `bson:"priority" json:"priority"`           // low, medium or high
	Attachments      []string    `bson:"attachments,omitempty" json:"attachments,omitempty"` // File names only
	ScheduleType     string      `bson:"schedule_type" json:"schedule_type"` // now or later; later is recorded, not executed here
	ScheduleDate     string      `bson:"schedule_date,omitempty" json:"schedule_date,omitempty"`
	ScheduleTime     string      `bson:"schedule_time,omitempty" json:"schedule_time,omitempty"`
	TotalRecipients  int         `bson:"total_recipients" json:"total_recipients"` // Audience size frozen at send time
	ReadCount        int         `bson:"read_count" json:"read_count"`             // Always equals len(ReadBy)
	ReadBy           []int64     `bson:"read_by" json:"read_by"`
	Acknowledged     bool        `bson:"acknowledged" json:"acknowledged"` // True once anyone acknowledged
	AcknowledgedBy   []int64     `bson:"acknowledged_by" json:"acknowledged_by"`
	CreatedAt        time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time   `bson:"updated_at" json:"updated_at"`
}

// Addressing reassembles the message's addressing for re-resolution.
func (m *Message) Addressing() Addressing {
	return Addressing{Mode: m.Recipients, GroupIDs: m.CustomGroups, ManualEmails: m.ManualRecipients}
}

// Notification is one row per (message, user, triggering event). Repeated
// events for the same message produce new rows; there is no deduplication.
type Notification struct {
	ID        int64     `bson:"id" json:"id"`
	MessageID int64     `bson:"message_id" json:"message_id"`
	UserID    int64     `bson:"user_id" json:"user_id"`
	Text      string    `bson:"message" json:"message"` // Human readable notification text
	Read      bool      `bson:"read" json:"read"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Comment is a node in a message's discussion forest. The author identity is
// snapshotted so the comment survives directory changes.
type Comment struct {
	ID              int64     `bson:"id" json:"id"`
	MessageID       int64     `bson:"message_id" json:"message_id"`
	ParentCommentID *int64    `bson:"parent_comment_id,omitempty" json:"parent_comment_id,omitempty"` // Nil for root comments
	UserID          int64     `bson:"user_id" json:"user_id"`
	UserName        string    `bson:"user_name" json:"user_name"`
	UserEmail       string    `bson:"user_email" json:"user_email"`
	UserRole        string    `bson:"user_role" json:"user_role"`
	UserDepartment  string    `bson:"user_department,omitempty" json:"user_department,omitempty"`
	Content         string    `bson:"content" json:"content"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

// CommentNode is a comment with its replies, as served to thread views.
type CommentNode struct {
	Comment
	Replies []*CommentNode `json:"replies"`
}
