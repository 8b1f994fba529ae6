package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seededService() *Service {
	svc := NewService(nil, nil, zap.NewNop())
	svc.Seed(
		[]User{
			{ID: 1, Name: "Alice", Email: "alice@campus.edu", Role: RoleAdmin, Department: "Administration"},
			{ID: 2, Name: "Bob", Email: "bob@campus.edu", Role: RoleStaff, Department: "Science"},
			{ID: 3, Name: "Carol", Email: "carol@campus.edu", Role: RoleStudent, Department: "Science"},
		},
		[]Group{{ID: 10, Name: "Newsletter", Members: []string{"bob@campus.edu"}}},
		[]Department{{ID: 20, Name: "Science"}, {ID: 21, Name: "Administration"}},
	)
	return svc
}

func TestFindByEmailCaseInsensitive(t *testing.T) {
	svc := seededService()

	u, ok := svc.FindByEmail("BOB@Campus.EDU")

	require.True(t, ok)
	assert.Equal(t, int64(2), u.ID)

	_, ok = svc.FindByEmail("nobody@campus.edu")
	assert.False(t, ok)
}

func TestUsersByRole(t *testing.T) {
	svc := seededService()

	students := svc.UsersByRole(RoleStudent)

	require.Len(t, students, 1)
	assert.Equal(t, "Carol", students[0].Name)
}

func TestRenameDepartmentCascadesToUsers(t *testing.T) {
	svc := seededService()

	updated, err := svc.RenameDepartment("Science", "Natural Sciences")

	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	for _, d := range svc.Departments() {
		assert.NotEqual(t, "Science", d.Name)
	}
	bob, _ := svc.FindByEmail("bob@campus.edu")
	assert.Equal(t, "Natural Sciences", bob.Department)
	alice, _ := svc.FindByEmail("alice@campus.edu")
	assert.Equal(t, "Administration", alice.Department, "other departments are untouched")
}

func TestRenameDepartmentErrors(t *testing.T) {
	svc := seededService()

	_, err := svc.RenameDepartment("History", "Modern History")
	assert.Error(t, err)

	_, err = svc.RenameDepartment("Science", "   ")
	assert.Error(t, err)
}

func TestSnapshotIsACopy(t *testing.T) {
	svc := seededService()

	snap := svc.Snapshot()
	snap.Users[0].Name = "mutated"
	snap.Groups[0].Name = "mutated"

	assert.Equal(t, "Alice", svc.Users()[0].Name)
	assert.Equal(t, "Newsletter", svc.Groups()[0].Name)
}
