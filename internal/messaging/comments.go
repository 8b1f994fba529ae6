package messaging

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"CampusBroadcast/internal/directory"
	"CampusBroadcast/internal/persist"

	"go.uber.org/zap"
)

var mentionPattern = regexp.MustCompile(`@(staff|students|admins)\b`)

// CommentThread stores the discussion forest under each message and derives
// the notification cascade a submission triggers.
type CommentThread struct {
	mu     sync.Mutex
	nextID int64
	items  []*Comment

	store persist.Persister[Comment]
	sync  *persist.Syncer
	log   *zap.Logger
}

// NewCommentThread creates the comment engine over the given store.
func NewCommentThread(store persist.Persister[Comment], syncer *persist.Syncer, log *zap.Logger) *CommentThread {
	return &CommentThread{nextID: 1, store: store, sync: syncer, log: log}
}

// Load warms the local comment list from the remote store.
func (t *CommentThread) Load(ctx context.Context) {
	if t.store == nil {
		return
	}
	rows, err := t.store.Select(ctx)
	if err != nil {
		t.log.Warn("comment warm-up failed, starting with empty threads", zap.Error(err))
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = t.items[:0]
	for i := range rows {
		c := rows[i]
		t.items = append(t.items, &c)
		if c.ID >= t.nextID {
			t.nextID = c.ID + 1
		}
	}
}

// Add appends a comment to a message's thread. A parent id that does not
// resolve to a comment on the same message is kept but logged; the tree
// builder surfaces such orphans as roots instead of dropping them. A parent id
// the counter has not allocated yet is dropped entirely: once the counter
// caught up it could point back at this comment and close a cycle. Parent ids
// therefore always point at strictly older comments. The remote insert failure
// is absorbed, so a stored comment is never rolled back.
func (t *CommentThread) Add(messageID int64, parentID *int64, author directory.User, content string) (*Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("comment content is required")
	}
	now := time.Now()

	t.mu.Lock()
	if parentID != nil {
		parent := t.findLocked(*parentID)
		if parent == nil || parent.MessageID != messageID {
			if *parentID >= t.nextID {
				t.log.Warn("comment parent id not allocated yet, storing as a root",
					zap.Int64("message_id", messageID), zap.Int64("parent_id", *parentID))
				parentID = nil
			} else {
				t.log.Warn("comment parent not found on message, reply will surface as a root",
					zap.Int64("message_id", messageID), zap.Int64("parent_id", *parentID))
			}
		}
	}
	c := &Comment{
		ID:              t.nextID,
		MessageID:       messageID,
		ParentCommentID: parentID,
		UserID:          author.ID,
		UserName:        author.Name,
		UserEmail:       author.Email,
		UserRole:        author.Role,
		UserDepartment:  author.Department,
		Content:         content,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	t.nextID++
	t.items = append(t.items, c)
	rec := *c
	t.mu.Unlock()

	t.sync.Try("insert", "comment", func(ctx context.Context) error {
		return t.store.Insert(ctx, &rec)
	})
	return c, nil
}

// Find returns the comment with the given id, or nil.
func (t *CommentThread) Find(id int64) *Comment {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c := t.findLocked(id); c != nil {
		copied := *c
		return &copied
	}
	return nil
}

func (t *CommentThread) findLocked(id int64) *Comment {
	for _, c := range t.items {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Delete removes the comment node only. Children keep their parent pointer
// and surface as roots; notifications already sent are not retracted.
func (t *CommentThread) Delete(id int64) bool {
	t.mu.Lock()
	found := false
	for i, c := range t.items {
		if c.ID == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			found = true
			break
		}
	}
	t.mu.Unlock()

	if found {
		persist.Delete(t.sync, t.store, "comment", id)
	}
	return found
}

// ForMessage returns a message's comments in chronological order.
func (t *CommentThread) ForMessage(messageID int64) []Comment {
	t.mu.Lock()
	var out []Comment
	for _, c := range t.items {
		if c.MessageID == messageID {
			out = append(out, *c)
		}
	}
	t.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Thread builds the comment forest for a message with a single parent to
// children pass. Roots and siblings stay chronological; a node whose parent
// is missing or is itself becomes a root.
func (t *CommentThread) Thread(messageID int64) []*CommentNode {
	list := t.ForMessage(messageID)
	nodes := make(map[int64]*CommentNode, len(list))
	for i := range list {
		nodes[list[i].ID] = &CommentNode{Comment: list[i], Replies: []*CommentNode{}}
	}
	roots := []*CommentNode{}
	for i := range list {
		n := nodes[list[i].ID]
		pid := list[i].ParentCommentID
		if pid != nil && *pid != list[i].ID {
			if parent, ok := nodes[*pid]; ok {
				parent.Replies = append(parent.Replies, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}

// Cascade evaluates the notification rules for a newly added comment, in
// order, each rule independent of the others. Rows produced by different rules
// for the same user are intentionally kept; only the author/parent pair within
// one submission is deduplicated.
func (t *CommentThread) Cascade(msg *Message, c *Comment, commenter directory.User, snap directory.Snapshot, fanout *Fanout) []Notification {
	var created []Notification
	notify := func(users []directory.User, text string) {
		rows, failures := fanout.Notify(msg, users, text)
		created = append(created, rows...)
		if len(failures) > 0 {
			t.log.Warn("comment cascade fanout completed with failures",
				zap.Int64("message_id", msg.ID), zap.Int64("comment_id", c.ID), zap.Int("failed", len(failures)))
		}
	}

	// 1. The message author hears about every comment they did not write.
	msgAuthor, hasAuthor := findSender(snap, msg.Sender)
	if hasAuthor && msgAuthor.ID != commenter.ID {
		notify([]directory.User{msgAuthor}, "New comment on: "+msg.Title)
	}

	// 2. The parent comment's author hears about replies, unless rule 1
	// already reached them.
	if c.ParentCommentID != nil {
		if parent := t.Find(*c.ParentCommentID); parent != nil && parent.UserID != commenter.ID {
			if !hasAuthor || msgAuthor.ID != parent.UserID {
				if u, ok := userByID(snap, parent.UserID); ok {
					notify([]directory.User{u}, commenter.Name+" replied to your comment")
				}
			}
		}
	}

	// 3. The author commenting on their own message doubles as a broadcast
	// update to the full recomputed audience.
	if hasAuthor && msgAuthor.ID == commenter.ID {
		res := Resolve(msg.Addressing(), snap, msgAuthor)
		var targets []directory.User
		for _, u := range res.Users {
			if u.ID != commenter.ID {
				targets = append(targets, u)
			}
		}
		notify(targets, "New update on: "+msg.Title)
	}

	// 4. Role mentions broadcast to every holder of the role.
	for _, role := range mentionedRoles(c.Content) {
		notify(usersByRole(snap, role), "You were mentioned in a comment")
	}
	return created
}

func userByID(snap directory.Snapshot, id int64) (directory.User, bool) {
	for _, u := range snap.Users {
		if u.ID == id {
			return u, true
		}
	}
	return directory.User{}, false
}

// mentionedRoles extracts the distinct roles mentioned in comment content,
// mapping the plural mention tokens onto directory roles.
func mentionedRoles(content string) []string {
	seen := make(map[string]bool)
	var roles []string
	for _, m := range mentionPattern.FindAllStringSubmatch(content, -1) {
		role := m[1]
		switch role {
		case "students":
			role = directory.RoleStudent
		case "admins":
			role = directory.RoleAdmin
		}
		if !seen[role] {
			seen[role] = true
			roles = append(roles, role)
		}
	}
	return roles
}
