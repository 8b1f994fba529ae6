package messaging

import (
	"strings"

	"CampusBroadcast/internal/directory"
)

// Resolution is the concrete audience computed for one addressing event.
// Emails carries every distinct address, including manual or group-member
// addresses with no directory record; Users carries only directory members
// and is what notification fanout targets.
type Resolution struct {
	Users  []directory.User
	Emails []string
}

// Count returns the audience cardinality frozen into total_recipients.
func (r Resolution) Count() int {
	return len(r.Emails)
}

// Resolve expands an addressing into a recipient set against a directory
// snapshot. Recipients are deduplicated by lowercased email, so a user present
// in both a role audience and a referenced group is counted once.
func Resolve(addr Addressing, snap directory.Snapshot, sender directory.User) Resolution {
	var res Resolution
	seen := make(map[string]bool)
	addUser := func(u directory.User) {
		key := strings.ToLower(u.Email)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		res.Users = append(res.Users, u)
		res.Emails = append(res.Emails, u.Email)
	}
	addEmail := func(email string) {
		key := strings.ToLower(email)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		res.Emails = append(res.Emails, email)
	}

	switch addr.Mode {
	case AddressAll:
		for _, u := range snap.Users {
			if u.ID != sender.ID {
				addUser(u)
			}
		}
	case AddressStudents:
		for _, u := range snap.Users {
			if u.Role == directory.RoleStudent {
				addUser(u)
			}
		}
	case AddressStaff:
		for _, u := range snap.Users {
			if u.Role == directory.RoleStaff {
				addUser(u)
			}
		}
	case AddressAdmins:
		for _, u := range snap.Users {
			if u.Role == directory.RoleAdmin {
				addUser(u)
			}
		}
	case AddressDepartmentStaff:
		for _, u := range snap.Users {
			if u.Role == directory.RoleStaff && u.Department == sender.Department {
				addUser(u)
			}
		}
	case AddressGroup:
		// Audience comes entirely from the referenced groups below.
	case AddressManual:
		// The literal list, unfiltered. Addresses matching a directory user
		// become fanout targets; the rest still count as recipients.
		for _, email := range addr.ManualEmails {
			if u, ok := userByEmail(snap, email); ok {
				addUser(u)
			} else {
				addEmail(email)
			}
		}
		return res
	}

	for _, groupID := range addr.GroupIDs {
		for _, g := range snap.Groups {
			if g.ID != groupID {
				continue
			}
			for _, member := range g.Members {
				if u, ok := userByEmail(snap, member); ok {
					addUser(u)
				} else {
					addEmail(member)
				}
			}
		}
	}
	return res
}

func userByEmail(snap directory.Snapshot, email string) (directory.User, bool) {
	for _, u := range snap.Users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return directory.User{}, false
}

func usersByRole(snap directory.Snapshot, role string) []directory.User {
	var out []directory.User
	for _, u := range snap.Users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out
}

// findSender locates the directory record behind a stored sender identity.
// Messages store the sender's display name; older rows stored the email, so
// both are tried.
func findSender(snap directory.Snapshot, sender string) (directory.User, bool) {
	for _, u := range snap.Users {
		if u.Name == sender {
			return u, true
		}
	}
	for _, u := range snap.Users {
		if strings.EqualFold(u.Email, sender) {
			return u, true
		}
	}
	return directory.User{}, false
}
