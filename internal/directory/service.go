package directory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"CampusBroadcast/internal/persist"

	"go.uber.org/zap"
)

// Service holds the authoritative in-memory catalog for a running session.
// The remote store is read on warm-up and mirrored on mutation, but every
// lookup is served from local state so the catalog keeps working when the
// remote store is unavailable.
type Service struct {
	mu   sync.RWMutex
	repo *Repository
	sync *persist.Syncer
	log  *zap.Logger

	users       []User
	groups      []Group
	departments []Department
}

// NewService creates a directory service. Load must be called before the
// catalog is useful.
func NewService(repo *Repository, syncer *persist.Syncer, log *zap.Logger) *Service {
	return &Service{repo: repo, sync: syncer, log: log}
}

// Load fetches the catalog from the remote store. Each list failure is logged
// and leaves the previously held records in place, so the service degrades to
// whatever it already has rather than failing.
func (s *Service) Load(ctx context.Context) {
	if s.repo == nil {
		return
	}
	if users, err := s.repo.ListUsers(ctx); err != nil {
		s.log.Warn("directory user fetch failed, keeping local records", zap.Error(err))
	} else {
		s.mu.Lock()
		s.users = users
		s.mu.Unlock()
	}
	if groups, err := s.repo.ListGroups(ctx); err != nil {
		s.log.Warn("directory group fetch failed, keeping local records", zap.Error(err))
	} else {
		s.mu.Lock()
		s.groups = groups
		s.mu.Unlock()
	}
	if departments, err := s.repo.ListDepartments(ctx); err != nil {
		s.log.Warn("directory department fetch failed, keeping local records", zap.Error(err))
	} else {
		s.mu.Lock()
		s.departments = departments
		s.mu.Unlock()
	}
}

// Seed replaces the local catalog. Used for bootstrap data and tests.
func (s *Service) Seed(users []User, groups []Group, departments []Department) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.groups = groups
	s.departments = departments
}

// Snapshot returns a point-in-time copy of users and groups for recipient
// resolution.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Users:  append([]User(nil), s.users...),
		Groups: append([]Group(nil), s.groups...),
	}
}

// Users returns a copy of all user records.
func (s *Service) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]User(nil), s.users...)
}

// Groups returns a copy of all group records.
func (s *Service) Groups() []Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Group(nil), s.groups...)
}

// Departments returns a copy of all department records.
func (s *Service) Departments() []Department {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Department(nil), s.departments...)
}

// FindByEmail looks a user up by email, case-insensitively.
func (s *Service) FindByEmail(email string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return User{}, false
}

// UsersByRole returns every user with the given role.
func (s *Service) UsersByRole(role string) []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []User
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out
}

// RenameDepartment renames a department and cascades the new name to every
// user carrying the old one. The cascade is applied locally first; the remote
// update runs in the background. Returns the number of users updated.
func (s *Service) RenameDepartment(oldName, newName string) (int, error) {
	if strings.TrimSpace(newName) == "" {
		return 0, errors.New("department name is required")
	}
	s.mu.Lock()
	var dept *Department
	for i := range s.departments {
		if s.departments[i].Name == oldName {
			dept = &s.departments[i]
			break
		}
	}
	if dept == nil {
		s.mu.Unlock()
		return 0, errors.New("department not found")
	}
	dept.Name = newName
	updated := 0
	for i := range s.users {
		if s.users[i].Department == oldName {
			s.users[i].Department = newName
			updated++
		}
	}
	id := dept.ID
	s.mu.Unlock()

	if s.repo != nil && s.sync != nil {
		s.sync.Go("update", "department", func(ctx context.Context) error {
			return s.repo.RenameDepartment(ctx, id, oldName, newName)
		})
	}
	s.log.Info("department renamed",
		zap.String("old", oldName), zap.String("new", newName), zap.Int("users_updated", updated))
	return updated, nil
}
