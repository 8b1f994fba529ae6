package messaging

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"CampusBroadcast/internal/directory"
	"CampusBroadcast/internal/persist"

	"go.uber.org/zap"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrCommentNotFound = errors.New("comment not found")
)

// EmailDispatcher sends the outbound copy of a message to resolved addresses.
// Delivery is fire-and-forget from the engine's perspective.
type EmailDispatcher interface {
	SendBatch(ctx context.Context, to []string, subject, html string) error
}

// Service is the caller-facing messaging engine. It owns the authoritative
// local message state for the running session and mirrors mutations to the
// remote store on a best-effort basis; no remote failure ever surfaces to the
// caller, only input validation does.
type Service struct {
	mu       sync.Mutex
	nextID   int64
	messages []*Message
	byID     map[int64]*Message

	directory *directory.Service
	fanout    *Fanout
	comments  *CommentThread
	tracker   *EngagementTracker
	email     EmailDispatcher
	sync      *persist.Syncer
	store     persist.Persister[Message]
	log       *zap.Logger
}

// NewService wires the messaging engine together.
func NewService(
	dir *directory.Service,
	fanout *Fanout,
	comments *CommentThread,
	tracker *EngagementTracker,
	email EmailDispatcher,
	syncer *persist.Syncer,
	store persist.Persister[Message],
	log *zap.Logger,
) *Service {
	return &Service{
		nextID:    1,
		byID:      make(map[int64]*Message),
		directory: dir,
		fanout:    fanout,
		comments:  comments,
		tracker:   tracker,
		email:     email,
		sync:      syncer,
		store:     store,
		log:       log,
	}
}

// Load warms message, notification and comment state from the remote store.
// Any fetch failure leaves that slice empty and the engine running local-only.
func (s *Service) Load(ctx context.Context) {
	if s.store != nil {
		rows, err := s.store.Select(ctx)
		if err != nil {
			s.log.Warn("message warm-up failed, starting with empty local state", zap.Error(err))
		} else {
			s.mu.Lock()
			s.messages = s.messages[:0]
			s.byID = make(map[int64]*Message, len(rows))
			for i := range rows {
				m := rows[i]
				s.messages = append(s.messages, &m)
				s.byID[m.ID] = &m
				if m.ID >= s.nextID {
					s.nextID = m.ID + 1
				}
			}
			s.mu.Unlock()
		}
	}
	s.fanout.Load(ctx)
	s.comments.Load(ctx)
}

// CreateMessageInput carries everything needed to compose and send a message.
type CreateMessageInput struct {
	Title        string
	Content      string
	Addressing   Addressing
	Priority     string
	Attachments  []string
	ScheduleType string
	ScheduleDate string
	ScheduleTime string
	Sender       directory.User
}

// CreateMessage resolves the audience, freezes its size into the message,
// fans out notifications and hands the email copy to the dispatcher. Only
// validation failures are returned; everything downstream is absorbed.
func (s *Service) CreateMessage(in CreateMessageInput) (*Message, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, errors.New("title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, errors.New("content is required")
	}
	if in.Priority == "" {
		in.Priority = "medium"
	}
	if in.ScheduleType == "" {
		in.ScheduleType = "now"
	}

	res := Resolve(in.Addressing, s.directory.Snapshot(), in.Sender)
	now := time.Now()

	s.mu.Lock()
	msg := &Message{
		ID:               s.nextID,
		Title:            in.Title,
		Content:          in.Content,
		Sender:           in.Sender.Name,
		SenderRole:       in.Sender.Role,
		Recipients:       in.Addressing.Mode,
		CustomGroups:     in.Addressing.GroupIDs,
		ManualRecipients: in.Addressing.ManualEmails,
		Priority:         in.Priority,
		Attachments:      in.Attachments,
		ScheduleType:     in.ScheduleType,
		ScheduleDate:     in.ScheduleDate,
		ScheduleTime:     in.ScheduleTime,
		TotalRecipients:  res.Count(),
		ReadBy:           []int64{},
		AcknowledgedBy:   []int64{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.nextID++
	s.messages = append(s.messages, msg)
	s.byID[msg.ID] = msg
	rec := *msg
	s.mu.Unlock()

	persist.Insert(s.sync, s.store, "message", rec)

	if _, failures := s.fanout.Notify(msg, res.Users, "New message: "+msg.Title); len(failures) > 0 {
		s.log.Warn("message fanout completed with failures",
			zap.Int64("message_id", msg.ID), zap.Int("failed", len(failures)))
	}
	s.dispatchEmail(msg, res.Emails)
	return msg, nil
}

// dispatchEmail hands the resolved addresses to the email dispatcher in the
// background. A delivery failure never rolls back the message or the
// notifications already created.
func (s *Service) dispatchEmail(msg *Message, emails []string) {
	if s.email == nil {
		return
	}
	var valid []string
	for _, e := range emails {
		if strings.Contains(e, "@") {
			valid = append(valid, e)
		}
	}
	if len(valid) == 0 {
		return
	}
	subject := "New Message: " + msg.Title
	preview := msg.Content
	if runes := []rune(preview); len(runes) > 100 {
		preview = string(runes[:100])
	}
	body := "<p><strong>" + msg.Sender + "</strong> sent a " + msg.Priority + " priority message.</p><p>" + preview + "</p>"
	s.sync.Go("dispatch", "email", func(ctx context.Context) error {
		return s.email.SendBatch(ctx, valid, subject, body)
	})
}

// RecipientPreview reports how many addresses an addressing reaches.
type RecipientPreview struct {
	Count  int      `json:"count"`
	Emails []string `json:"emails"`
}

// GetRecipients previews the audience an addressing would resolve to right now.
func (s *Service) GetRecipients(addr Addressing, sender directory.User) RecipientPreview {
	res := Resolve(addr, s.directory.Snapshot(), sender)
	emails := res.Emails
	if emails == nil {
		emails = []string{}
	}
	return RecipientPreview{Count: res.Count(), Emails: emails}
}

// ListMessages returns all messages, newest first.
func (s *Service) ListMessages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, 0, len(s.messages))
	for i := len(s.messages) - 1; i >= 0; i-- {
		out = append(out, *s.messages[i])
	}
	return out
}

// GetMessage returns one message by id.
func (s *Service) GetMessage(id int64) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.byID[id]
	if !ok {
		return Message{}, ErrMessageNotFound
	}
	return *msg, nil
}

// MarkRead records a read transition for the user. Repeat calls are silent
// no-ops.
func (s *Service) MarkRead(messageID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.byID[messageID]
	if !ok {
		return ErrMessageNotFound
	}
	s.tracker.MarkRead(msg, userID)
	return nil
}

// Acknowledge records an acknowledge transition for the user. Repeat calls
// are silent no-ops.
func (s *Service) Acknowledge(messageID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.byID[messageID]
	if !ok {
		return ErrMessageNotFound
	}
	s.tracker.Acknowledge(msg, userID)
	return nil
}

// StatsReport combines completion rates with the acknowledged/pending split.
type StatsReport struct {
	Stats
	Breakdown
}

// Stats reports engagement for one message against its frozen audience size.
func (s *Service) Stats(messageID int64) (*StatsReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.byID[messageID]
	if !ok {
		return nil, ErrMessageNotFound
	}
	snap := s.directory.Snapshot()
	sender, _ := findSender(snap, msg.Sender)
	return &StatsReport{
		Stats:     s.tracker.Stats(msg),
		Breakdown: s.tracker.Breakdown(msg, snap, sender),
	}, nil
}

// AddComment appends a comment to the message's thread and runs the
// notification cascade.
func (s *Service) AddComment(messageID int64, parentID *int64, author directory.User, content string) (*Comment, error) {
	s.mu.Lock()
	msg, ok := s.byID[messageID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrMessageNotFound
	}
	c, err := s.comments.Add(messageID, parentID, author, content)
	if err != nil {
		return nil, err
	}
	s.comments.Cascade(msg, c, author, s.directory.Snapshot(), s.fanout)
	return c, nil
}

// DeleteComment removes one comment node. Replies stay and surface as roots.
func (s *Service) DeleteComment(id int64) error {
	if !s.comments.Delete(id) {
		return ErrCommentNotFound
	}
	return nil
}

// Thread returns the comment forest for a message.
func (s *Service) Thread(messageID int64) []*CommentNode {
	return s.comments.Thread(messageID)
}

// Notifications returns a user's notifications, optionally only unread ones.
func (s *Service) Notifications(userID int64, unreadOnly bool) []Notification {
	if unreadOnly {
		return s.fanout.Unread(userID)
	}
	return s.fanout.ForUser(userID)
}

// MarkNotificationRead flips one notification to read.
func (s *Service) MarkNotificationRead(id int64) error {
	if !s.fanout.MarkRead(id) {
		return errors.New("notification not found")
	}
	return nil
}

// MarkMessageNotificationsRead clears a user's notification trail for one
// message, returning how many rows changed.
func (s *Service) MarkMessageNotificationsRead(messageID, userID int64) int {
	return s.fanout.MarkReadForMessage(messageID, userID)
}
