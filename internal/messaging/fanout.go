package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CampusBroadcast/internal/directory"
	"CampusBroadcast/internal/persist"

	"go.uber.org/zap"
)

// Fanout creates one notification per recipient for a single triggering event
// and owns the local notification inbox. Rows are never deduplicated against
// earlier events: a user legitimately receives one notification per trigger.
type Fanout struct {
	mu     sync.Mutex
	nextID int64
	items  []*Notification

	store persist.Persister[Notification]
	sync  *persist.Syncer
	log   *zap.Logger
}

// NewFanout creates the notification fanout over the given store.
func NewFanout(store persist.Persister[Notification], syncer *persist.Syncer, log *zap.Logger) *Fanout {
	return &Fanout{nextID: 1, store: store, sync: syncer, log: log}
}

// Load warms the local inbox from the remote store. A fetch failure is logged
// and leaves the inbox empty rather than failing.
func (f *Fanout) Load(ctx context.Context) {
	if f.store == nil {
		return
	}
	rows, err := f.store.Select(ctx)
	if err != nil {
		f.log.Warn("notification warm-up failed, starting with empty inbox", zap.Error(err))
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = f.items[:0]
	for i := range rows {
		n := rows[i]
		f.items = append(f.items, &n)
		if n.ID >= f.nextID {
			f.nextID = n.ID + 1
		}
	}
}

// Notify synthesizes one unread notification per recipient. Every row is
// applied to local state unconditionally; the remote insert is attempted per
// item, and an item failure is collected without aborting the batch, so the
// caller receives both the created rows and the failures.
func (f *Fanout) Notify(msg *Message, recipients []directory.User, text string) ([]Notification, []error) {
	if len(recipients) == 0 {
		return nil, nil
	}
	now := time.Now()
	created := make([]Notification, 0, len(recipients))

	f.mu.Lock()
	for _, u := range recipients {
		n := &Notification{
			ID:        f.nextID,
			MessageID: msg.ID,
			UserID:    u.ID,
			Text:      text,
			Read:      false,
			CreatedAt: now,
		}
		f.nextID++
		f.items = append(f.items, n)
		created = append(created, *n)
	}
	f.mu.Unlock()

	var failures []error
	for i := range created {
		rec := created[i]
		err := f.sync.Try("insert", "notification", func(ctx context.Context) error {
			return f.store.Insert(ctx, &rec)
		})
		if err != nil {
			failures = append(failures, fmt.Errorf("notification %d for user %d: %w", rec.ID, rec.UserID, err))
		}
	}
	return created, failures
}

// ForUser returns the user's notifications, newest first.
func (f *Fanout) ForUser(userID int64) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Notification
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i].UserID == userID {
			out = append(out, *f.items[i])
		}
	}
	return out
}

// Unread returns the user's unread notifications, newest first.
func (f *Fanout) Unread(userID int64) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Notification
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i].UserID == userID && !f.items[i].Read {
			out = append(out, *f.items[i])
		}
	}
	return out
}

// MarkRead flips one notification to read. Already-read rows are a no-op.
func (f *Fanout) MarkRead(id int64) bool {
	f.mu.Lock()
	var rec *Notification
	for _, n := range f.items {
		if n.ID == id {
			if !n.Read {
				n.Read = true
				rec = n
			}
			break
		}
	}
	var copied Notification
	if rec != nil {
		copied = *rec
	}
	f.mu.Unlock()

	if rec != nil {
		persist.Update(f.sync, f.store, "notification", copied.ID, copied)
		return true
	}
	return false
}

// MarkReadForMessage flips every notification a user holds for one message,
// returning how many changed. Opening a message clears its whole trail.
func (f *Fanout) MarkReadForMessage(messageID, userID int64) int {
	f.mu.Lock()
	var changed []Notification
	for _, n := range f.items {
		if n.MessageID == messageID && n.UserID == userID && !n.Read {
			n.Read = true
			changed = append(changed, *n)
		}
	}
	f.mu.Unlock()

	for _, rec := range changed {
		persist.Update(f.sync, f.store, "notification", rec.ID, rec)
	}
	return len(changed)
}
