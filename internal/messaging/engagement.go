package messaging

import (
	"math"
	"time"

	"CampusBroadcast/internal/directory"
	"CampusBroadcast/internal/persist"

	"go.uber.org/zap"
)

// EngagementTracker records per-user read and acknowledge transitions on a
// message. Transitions are idempotent no-ops on repeat, applied to local state
// immediately and mirrored to the remote store in the background; a remote
// failure never reverses a transition.
type EngagementTracker struct {
	store persist.Persister[Message]
	sync  *persist.Syncer
	log   *zap.Logger
}

// NewEngagementTracker creates a tracker persisting through the message store.
func NewEngagementTracker(store persist.Persister[Message], syncer *persist.Syncer, log *zap.Logger) *EngagementTracker {
	return &EngagementTracker{store: store, sync: syncer, log: log}
}

// MarkRead records that the user opened the message. Returns false when the
// user was already in the read set.
func (t *EngagementTracker) MarkRead(msg *Message, userID int64) bool {
	for _, id := range msg.ReadBy {
		if id == userID {
			return false
		}
	}
	msg.ReadBy = append(msg.ReadBy, userID)
	msg.ReadCount = len(msg.ReadBy)
	msg.UpdatedAt = time.Now()
	persist.Update(t.sync, t.store, "message", msg.ID, *msg)
	return true
}

// Acknowledge records the user's acknowledgement. Only the acknowledge fields
// are touched; a user may acknowledge without appearing in the read set, which
// mirrors how the engagement lifecycle is driven by the UI.
func (t *EngagementTracker) Acknowledge(msg *Message, userID int64) bool {
	for _, id := range msg.AcknowledgedBy {
		if id == userID {
			return false
		}
	}
	msg.AcknowledgedBy = append(msg.AcknowledgedBy, userID)
	msg.Acknowledged = true
	msg.UpdatedAt = time.Now()
	persist.Update(t.sync, t.store, "message", msg.ID, *msg)
	return true
}

// Stats are read/acknowledge completion rates in whole percent.
type Stats struct {
	ReadRate int `json:"read_rate"`
	AckRate  int `json:"ack_rate"`
}

// Stats computes completion rates against the frozen audience size. An empty
// audience yields zero rates.
func (t *EngagementTracker) Stats(msg *Message) Stats {
	return Stats{
		ReadRate: rate(len(msg.ReadBy), msg.TotalRecipients),
		AckRate:  rate(len(msg.AcknowledgedBy), msg.TotalRecipients),
	}
}

func rate(part, total int) int {
	if total <= 0 {
		return 0
	}
	r := int(math.Round(float64(part) / float64(total) * 100))
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}

// Breakdown partitions a message's audience into acknowledged and pending
// user lists for reporting views.
type Breakdown struct {
	Acknowledged []directory.User `json:"acknowledged"`
	Pending      []directory.User `json:"pending"`
}

// Breakdown re-resolves the audience from the message's original addressing
// and splits it by acknowledgement state.
func (t *EngagementTracker) Breakdown(msg *Message, snap directory.Snapshot, sender directory.User) Breakdown {
	res := Resolve(msg.Addressing(), snap, sender)
	acked := make(map[int64]bool, len(msg.AcknowledgedBy))
	for _, id := range msg.AcknowledgedBy {
		acked[id] = true
	}
	b := Breakdown{Acknowledged: []directory.User{}, Pending: []directory.User{}}
	for _, u := range res.Users {
		if acked[u.ID] {
			b.Acknowledged = append(b.Acknowledged, u)
		} else {
			b.Pending = append(b.Pending, u)
		}
	}
	return b
}
