package messaging

import (
	"fmt"
	"strings"
)

// AddressMode enumerates how a message's audience is specified.
type AddressMode string

const (
	AddressAll             AddressMode = "all"              // Everyone except the sender
	AddressStudents        AddressMode = "students"         // Every student
	AddressStaff           AddressMode = "staff"            // Every staff member
	AddressAdmins          AddressMode = "admins"           // Every admin
	AddressDepartmentStaff AddressMode = "department_staff" // Staff in the sender's department
	AddressGroup           AddressMode = "group"            // Members of referenced custom groups
	AddressManual          AddressMode = "manual"           // A literal email list, not filtered through the directory
)

// ParseAddressMode validates a wire-level mode string. Keeping the dispatch on
// a closed enum removes the silent unknown-mode fallthrough the string form
// invites.
func ParseAddressMode(s string) (AddressMode, error) {
	switch mode := AddressMode(s); mode {
	case AddressAll, AddressStudents, AddressStaff, AddressAdmins,
		AddressDepartmentStaff, AddressGroup, AddressManual:
		return mode, nil
	}
	return "", fmt.Errorf("unknown addressing mode %q", s)
}

// Addressing bundles a mode with its parameters. GroupIDs may accompany any
// non-manual mode; ManualEmails applies only to AddressManual.
type Addressing struct {
	Mode         AddressMode
	GroupIDs     []int64
	ManualEmails []string
}

// ParseManualEmails splits a comma separated address list into trimmed,
// non-empty entries.
func ParseManualEmails(raw string) []string {
	var emails []string
	for _, part := range strings.Split(raw, ",") {
		if email := strings.TrimSpace(part); email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}
