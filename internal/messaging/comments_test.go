package messaging

import (
	"testing"

	"CampusBroadcast/internal/directory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestThread() *CommentThread {
	return NewCommentThread(newStubStore[Comment](), testSyncer(), zap.NewNop())
}

func TestAddRequiresContent(t *testing.T) {
	thread := newTestThread()
	author := testUser(1, "A", "a@campus.edu", directory.RoleStudent, "")

	_, err := thread.Add(1, nil, author, "   ")

	assert.Error(t, err)
}

func TestAddSnapshotsAuthorIdentity(t *testing.T) {
	thread := newTestThread()
	author := testUser(4, "Dave", "dave@campus.edu", directory.RoleStudent, "Science")

	c, err := thread.Add(1, nil, author, "first!")

	require.NoError(t, err)
	assert.Equal(t, "Dave", c.UserName)
	assert.Equal(t, "dave@campus.edu", c.UserEmail)
	assert.Equal(t, directory.RoleStudent, c.UserRole)
	assert.Equal(t, "Science", c.UserDepartment)
}

func TestThreadBuildsForest(t *testing.T) {
	thread := newTestThread()
	author := testUser(1, "A", "a@campus.edu", directory.RoleStudent, "")

	root1, _ := thread.Add(1, nil, author, "root one")
	reply, _ := thread.Add(1, &root1.ID, author, "reply to one")
	root2, _ := thread.Add(1, nil, author, "root two")
	nested, _ := thread.Add(1, &reply.ID, author, "nested reply")

	forest := thread.Thread(1)

	require.Len(t, forest, 2)
	assert.Equal(t, root1.ID, forest[0].ID)
	assert.Equal(t, root2.ID, forest[1].ID)
	require.Len(t, forest[0].Replies, 1)
	assert.Equal(t, reply.ID, forest[0].Replies[0].ID)
	require.Len(t, forest[0].Replies[0].Replies, 1)
	assert.Equal(t, nested.ID, forest[0].Replies[0].Replies[0].ID)
}

func TestThreadOrphanSurfacesAsRoot(t *testing.T) {
	thread := newTestThread()
	author := testUser(1, "A", "a@campus.edu", directory.RoleStudent, "")
	missing := int64(999)

	c, err := thread.Add(1, &missing, author, "reply to nobody")

	require.NoError(t, err, "an unresolvable parent does not reject the comment")
	forest := thread.Thread(1)
	require.Len(t, forest, 1)
	assert.Equal(t, c.ID, forest[0].ID)
}

func TestThreadForwardParentCannotFormCycle(t *testing.T) {
	thread := newTestThread()
	author := testUser(1, "A", "a@campus.edu", directory.RoleStudent, "")

	// The parent id names the comment the counter will allocate next; keeping
	// it would let that later comment reply to this one and close a cycle in
	// which neither node is a root.
	future := int64(2)
	c1, err := thread.Add(1, &future, author, "points forward")
	require.NoError(t, err)
	assert.Nil(t, c1.ParentCommentID, "an unallocated parent id is dropped, not stored")

	c2, err := thread.Add(1, &c1.ID, author, "replies backward")
	require.NoError(t, err)

	forest := thread.Thread(1)
	require.Len(t, forest, 1, "both comments must stay reachable")
	assert.Equal(t, c1.ID, forest[0].ID)
	require.Len(t, forest[0].Replies, 1)
	assert.Equal(t, c2.ID, forest[0].Replies[0].ID)
}

func TestThreadScopedToMessage(t *testing.T) {
	thread := newTestThread()
	author := testUser(1, "A", "a@campus.edu", directory.RoleStudent, "")

	onOther, _ := thread.Add(2, nil, author, "comment on another message")
	// A parent on a different message counts as unresolved.
	c, _ := thread.Add(1, &onOther.ID, author, "cross-message reply")

	forest := thread.Thread(1)
	require.Len(t, forest, 1)
	assert.Equal(t, c.ID, forest[0].ID)
	assert.Empty(t, forest[0].Replies)
}

func TestDeleteKeepsReplies(t *testing.T) {
	thread := newTestThread()
	author := testUser(1, "A", "a@campus.edu", directory.RoleStudent, "")
	parent, _ := thread.Add(1, nil, author, "parent")
	child, _ := thread.Add(1, &parent.ID, author, "child")

	require.True(t, thread.Delete(parent.ID))
	assert.False(t, thread.Delete(parent.ID))

	forest := thread.Thread(1)
	require.Len(t, forest, 1, "the orphaned reply surfaces as a root")
	assert.Equal(t, child.ID, forest[0].ID)
}

func TestMentionedRoles(t *testing.T) {
	assert.Equal(t, []string{directory.RoleStaff}, mentionedRoles("cc @staff please review"))
	assert.Equal(t,
		[]string{directory.RoleStudent, directory.RoleAdmin},
		mentionedRoles("@students and @admins and @students again"))
	assert.Empty(t, mentionedRoles("email me at staff@campus.edu"))
	assert.Empty(t, mentionedRoles("@staffing is not a role"))
}

// Cascade scenarios. The snapshot has one admin author and five students; the
// messages address the student audience unless noted.

func cascadeFixture() (directory.Snapshot, directory.User, []directory.User) {
	author := testUser(1, "Alice", "alice@campus.edu", directory.RoleAdmin, "")
	students := []directory.User{
		testUser(2, "S1", "s1@campus.edu", directory.RoleStudent, ""),
		testUser(3, "S2", "s2@campus.edu", directory.RoleStudent, ""),
		testUser(4, "S3", "s3@campus.edu", directory.RoleStudent, ""),
		testUser(5, "S4", "s4@campus.edu", directory.RoleStudent, ""),
		testUser(6, "S5", "s5@campus.edu", directory.RoleStudent, ""),
	}
	snap := directory.Snapshot{Users: append([]directory.User{author}, students...)}
	return snap, author, students
}

func TestCascadeRootCommentNotifiesAuthor(t *testing.T) {
	snap, author, students := cascadeFixture()
	thread := newTestThread()
	fanout := NewFanout(newStubStore[Notification](), testSyncer(), zap.NewNop())
	msg := &Message{ID: 1, Title: "Library hours", Sender: author.Name, Recipients: AddressStudents}

	c, err := thread.Add(msg.ID, nil, students[0], "will these change during exams?")
	require.NoError(t, err)
	created := thread.Cascade(msg, c, students[0], snap, fanout)

	require.Len(t, created, 1)
	assert.Equal(t, author.ID, created[0].UserID)
	assert.Equal(t, "New comment on: Library hours", created[0].Text)
}

func TestCascadeAuthorReplyBroadcasts(t *testing.T) {
	snap, author, students := cascadeFixture()
	thread := newTestThread()
	fanout := NewFanout(newStubStore[Notification](), testSyncer(), zap.NewNop())
	msg := &Message{ID: 1, Title: "Library hours", Sender: author.Name, Recipients: AddressStudents}

	root, _ := thread.Add(msg.ID, nil, students[0], "will these change during exams?")
	thread.Cascade(msg, root, students[0], snap, fanout)

	reply, _ := thread.Add(msg.ID, &root.ID, author, "yes, extended to midnight")
	created := thread.Cascade(msg, reply, author, snap, fanout)

	// One reply notification for S1 plus a broadcast update to all five
	// students. S1 keeps both rows.
	require.Len(t, created, 6)
	assert.Equal(t, students[0].ID, created[0].UserID)
	assert.Equal(t, "Alice replied to your comment", created[0].Text)
	updates := 0
	s1Rows := 0
	for _, n := range created {
		if n.Text == "New update on: Library hours" {
			updates++
			assert.NotEqual(t, author.ID, n.UserID, "the commenting author is excluded from their own broadcast")
		}
		if n.UserID == students[0].ID {
			s1Rows++
		}
	}
	assert.Equal(t, 5, updates)
	assert.Equal(t, 2, s1Rows, "rows from different rules are kept, not deduplicated")
}

func TestCascadeReplyToOwnComment(t *testing.T) {
	snap, author, students := cascadeFixture()
	thread := newTestThread()
	fanout := NewFanout(newStubStore[Notification](), testSyncer(), zap.NewNop())
	msg := &Message{ID: 1, Title: "t", Sender: author.Name, Recipients: AddressStudents}

	root, _ := thread.Add(msg.ID, nil, students[0], "first")
	reply, _ := thread.Add(msg.ID, &root.ID, students[0], "adding to my own comment")
	created := thread.Cascade(msg, reply, students[0], snap, fanout)

	// Author notification only; replying to yourself is not a reply event.
	require.Len(t, created, 1)
	assert.Equal(t, author.ID, created[0].UserID)
}

func TestCascadeParentAuthorNotDoubleNotified(t *testing.T) {
	snap, author, students := cascadeFixture()
	thread := newTestThread()
	fanout := NewFanout(newStubStore[Notification](), testSyncer(), zap.NewNop())
	msg := &Message{ID: 1, Title: "t", Sender: author.Name, Recipients: AddressStudents}

	// The message author starts the thread; a student replies to them.
	root, _ := thread.Add(msg.ID, nil, author, "thread opener")
	reply, _ := thread.Add(msg.ID, &root.ID, students[1], "a question")
	created := thread.Cascade(msg, reply, students[1], snap, fanout)

	// Alice is both the message author and the parent author; within one
	// submission she gets a single row.
	require.Len(t, created, 1)
	assert.Equal(t, author.ID, created[0].UserID)
	assert.Equal(t, "New comment on: t", created[0].Text)
}

func TestCascadeRoleMention(t *testing.T) {
	author := testUser(1, "Alice", "alice@campus.edu", directory.RoleAdmin, "")
	staff := []directory.User{
		testUser(2, "T1", "t1@campus.edu", directory.RoleStaff, ""),
		testUser(3, "T2", "t2@campus.edu", directory.RoleStaff, ""),
		testUser(4, "T3", "t3@campus.edu", directory.RoleStaff, ""),
	}
	snap := directory.Snapshot{Users: append([]directory.User{author}, staff...)}
	thread := newTestThread()
	fanout := NewFanout(newStubStore[Notification](), testSyncer(), zap.NewNop())
	// Manual addressing to an outside address keeps the broadcast audience
	// empty, isolating the mention rule.
	msg := &Message{ID: 1, Title: "t", Sender: author.Name, Recipients: AddressManual,
		ManualRecipients: []string{"outsider@example.com"}}

	c, _ := thread.Add(msg.ID, nil, author, "cc @staff please review")
	created := thread.Cascade(msg, c, author, snap, fanout)

	require.Len(t, created, 3)
	for _, n := range created {
		assert.Equal(t, "You were mentioned in a comment", n.Text)
	}
}
