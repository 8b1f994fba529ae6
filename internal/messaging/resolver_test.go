package messaging

import (
	"testing"

	"CampusBroadcast/internal/directory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func campusSnapshot() directory.Snapshot {
	return directory.Snapshot{
		Users: []directory.User{
			testUser(1, "Alice Admin", "alice@campus.edu", directory.RoleAdmin, "Administration"),
			testUser(2, "Bob Staff", "bob@campus.edu", directory.RoleStaff, "Science"),
			testUser(3, "Carol Staff", "carol@campus.edu", directory.RoleStaff, "Arts"),
			testUser(4, "Dave Student", "dave@campus.edu", directory.RoleStudent, "Science"),
			testUser(5, "Eve Student", "eve@campus.edu", directory.RoleStudent, "Arts"),
		},
		Groups: []directory.Group{
			{ID: 10, Name: "Chess Club", Members: []string{"Dave@Campus.edu", "guest@elsewhere.org"}},
			{ID: 11, Name: "Lab Assistants", Members: []string{"bob@campus.edu"}},
		},
	}
}

func TestResolveAllExcludesSender(t *testing.T) {
	snap := campusSnapshot()
	sender := snap.Users[0]

	res := Resolve(Addressing{Mode: AddressAll}, snap, sender)

	assert.Equal(t, 4, res.Count())
	for _, u := range res.Users {
		assert.NotEqual(t, sender.ID, u.ID, "sender must not receive their own broadcast")
	}
}

func TestResolveRoleModesIncludeSender(t *testing.T) {
	snap := campusSnapshot()
	sender := snap.Users[1] // Bob, staff

	res := Resolve(Addressing{Mode: AddressStaff}, snap, sender)

	require.Equal(t, 2, res.Count())
	emails := []string{res.Users[0].Email, res.Users[1].Email}
	assert.Contains(t, emails, "bob@campus.edu", "role modes do not exclude the sender")
}

func TestResolveDedupAcrossRoleAndGroup(t *testing.T) {
	snap := campusSnapshot()
	sender := snap.Users[0]

	// Dave is both a student and a Chess Club member with a differently cased
	// address; he must count once. The non-directory guest still counts.
	res := Resolve(Addressing{Mode: AddressStudents, GroupIDs: []int64{10}}, snap, sender)

	assert.Equal(t, 3, res.Count())
	assert.Len(t, res.Users, 2, "only directory members become fanout targets")
	assert.Contains(t, res.Emails, "guest@elsewhere.org")
}

func TestResolveDepartmentStaff(t *testing.T) {
	snap := campusSnapshot()
	sender := testUser(6, "Frank Staff", "frank@campus.edu", directory.RoleStaff, "Science")

	res := Resolve(Addressing{Mode: AddressDepartmentStaff}, snap, sender)

	require.Equal(t, 1, res.Count())
	assert.Equal(t, "bob@campus.edu", res.Users[0].Email)
}

func TestResolveGroupModeOnlyGroups(t *testing.T) {
	snap := campusSnapshot()
	sender := snap.Users[0]

	res := Resolve(Addressing{Mode: AddressGroup, GroupIDs: []int64{11}}, snap, sender)

	require.Equal(t, 1, res.Count())
	assert.Equal(t, "bob@campus.edu", res.Users[0].Email)
}

func TestResolveManualUnfiltered(t *testing.T) {
	snap := campusSnapshot()
	sender := snap.Users[0]

	// One address matches a directory user case-insensitively, one is unknown.
	// Both count; groups are ignored in manual mode.
	res := Resolve(Addressing{
		Mode:         AddressManual,
		ManualEmails: []string{"EVE@campus.edu", "outsider@example.com"},
		GroupIDs:     []int64{10, 11},
	}, snap, sender)

	assert.Equal(t, 2, res.Count())
	require.Len(t, res.Users, 1)
	assert.Equal(t, int64(5), res.Users[0].ID)
}

func TestResolveEmptyAudience(t *testing.T) {
	snap := campusSnapshot()
	sender := snap.Users[0]

	res := Resolve(Addressing{Mode: AddressGroup, GroupIDs: []int64{999}}, snap, sender)

	assert.Equal(t, 0, res.Count())
	assert.Empty(t, res.Users)
}

func TestParseAddressMode(t *testing.T) {
	mode, err := ParseAddressMode("department_staff")
	require.NoError(t, err)
	assert.Equal(t, AddressDepartmentStaff, mode)

	_, err = ParseAddressMode("everyone")
	assert.Error(t, err)
}

func TestParseManualEmails(t *testing.T) {
	emails := ParseManualEmails(" a@x.com, ,b@y.com ,")
	assert.Equal(t, []string{"a@x.com", "b@y.com"}, emails)
}
