package directory

// Roles recognised across the platform.
const (
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
	RoleStudent = "student"
)

// User represents a member of the campus directory.
type User struct {
	ID          int64  `bson:"id" json:"id"`                 // Numeric identifier shared with the remote store
	Name        string `bson:"name" json:"name"`             // Full display name
	Email       string `bson:"email" json:"email"`           // Unique email, compared case-insensitively
	Role        string `bson:"role" json:"role"`             // admin, staff or student
	Status      string `bson:"status" json:"status"`         // active or inactive
	Department  string `bson:"department" json:"department"` // Department name, rewritten on department rename
	Course      string `bson:"course,omitempty" json:"course,omitempty"`
	SubCourse   string `bson:"sub_course,omitempty" json:"sub_course,omitempty"`
	PhoneNumber string `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
}

// Group is a named set of member email addresses used for message addressing.
type Group struct {
	ID          int64    `bson:"id" json:"id"`
	Name        string   `bson:"name" json:"name"`
	Description string   `bson:"description" json:"description"`
	Department  string   `bson:"department,omitempty" json:"department,omitempty"` // Optional department scope
	CreatedBy   string   `bson:"created_by" json:"created_by"`
	Members     []string `bson:"members" json:"members"` // Member email addresses
}

// Department groups users for department-scoped addressing.
type Department struct {
	ID               int64  `bson:"id" json:"id"`
	Name             string `bson:"name" json:"name"`
	Description      string `bson:"description" json:"description"`
	HeadOfDepartment string `bson:"head_of_department,omitempty" json:"head_of_department,omitempty"`
	CreatedBy        string `bson:"created_by" json:"created_by"`
}

// Snapshot is a point-in-time copy of the catalog handed to recipient
// resolution. Audiences computed from a snapshot are not affected by later
// directory changes.
type Snapshot struct {
	Users  []User
	Groups []Group
}
