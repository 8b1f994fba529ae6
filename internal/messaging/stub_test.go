package messaging

import (
	"context"
	"sync"

	"CampusBroadcast/internal/directory"
	"CampusBroadcast/internal/persist"

	"go.uber.org/zap"
)

// stubStore is an in-memory Persister that records calls and can be told to
// fail specific insert attempts.
type stubStore[T any] struct {
	mu       sync.Mutex
	inserts  []T
	updates  map[int64]T
	deletes  []int64
	rows     []T
	attempts int
	failOn   map[int]error // insert attempt index -> error
	selErr   error
}

func newStubStore[T any]() *stubStore[T] {
	return &stubStore[T]{updates: make(map[int64]T), failOn: make(map[int]error)}
}

func (s *stubStore[T]) Insert(ctx context.Context, rec *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt := s.attempts
	s.attempts++
	if err, ok := s.failOn[attempt]; ok {
		return err
	}
	s.inserts = append(s.inserts, *rec)
	return nil
}

func (s *stubStore[T]) Update(ctx context.Context, id int64, rec *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates[id] = *rec
	return nil
}

func (s *stubStore[T]) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, id)
	return nil
}

func (s *stubStore[T]) Select(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selErr != nil {
		return nil, s.selErr
	}
	return append([]T(nil), s.rows...), nil
}

func (s *stubStore[T]) insertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inserts)
}

func testSyncer() *persist.Syncer {
	return persist.NewSyncer(zap.NewNop())
}

func testUser(id int64, name, email, role, dept string) directory.User {
	return directory.User{ID: id, Name: name, Email: email, Role: role, Status: "active", Department: dept}
}

func testDirectory(users []directory.User, groups []directory.Group) *directory.Service {
	svc := directory.NewService(nil, nil, zap.NewNop())
	svc.Seed(users, groups, nil)
	return svc
}
