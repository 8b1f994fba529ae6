package persist

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Persister is the contract the remote store satisfies for one entity type.
// Records are keyed by their numeric id field.
type Persister[T any] interface {
	Insert(ctx context.Context, rec *T) error
	Update(ctx context.Context, id int64, rec *T) error
	Delete(ctx context.Context, id int64) error
	Select(ctx context.Context) ([]T, error)
}

// Syncer runs remote persistence calls for mutations that have already been
// applied to local state. Local state is the source of truth for the running
// session; a remote failure is logged with context and absorbed, never
// propagated across the mutation boundary.
type Syncer struct {
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewSyncer creates a Syncer with a bounded per-call timeout.
func NewSyncer(log *zap.Logger) *Syncer {
	return &Syncer{log: log, timeout: 10 * time.Second}
}

// Go runs a remote call in the background. The caller observes only the local
// effect of its mutation; the remote outcome is reported via logging.
func (s *Syncer) Go(op, entity string, fn func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.log.Warn("remote persistence failed, continuing on local state",
				zap.String("op", op), zap.String("entity", entity), zap.Error(err))
		}
	}()
}

// Try runs a remote call synchronously. The failure is logged and returned so
// callers that batch per-item writes can collect it; it must still not abort
// the surrounding operation.
func (s *Syncer) Try(op, entity string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		s.log.Warn("remote persistence failed, continuing on local state",
			zap.String("op", op), zap.String("entity", entity), zap.Error(err))
		return err
	}
	return nil
}

// Wait blocks until all background remote calls have finished. Used on
// shutdown so in-flight writes get their chance to land.
func (s *Syncer) Wait() {
	s.wg.Wait()
}

// Insert mirrors a locally applied insert to the remote store. The record is
// copied so later local mutations do not race the background write.
func Insert[T any](s *Syncer, p Persister[T], entity string, rec T) {
	s.Go("insert", entity, func(ctx context.Context) error {
		return p.Insert(ctx, &rec)
	})
}

// Update mirrors a locally applied update to the remote store.
func Update[T any](s *Syncer, p Persister[T], entity string, id int64, rec T) {
	s.Go("update", entity, func(ctx context.Context) error {
		return p.Update(ctx, id, &rec)
	})
}

// Delete mirrors a locally applied delete to the remote store.
func Delete[T any](s *Syncer, p Persister[T], entity string, id int64) {
	s.Go("delete", entity, func(ctx context.Context) error {
		return p.Delete(ctx, id)
	})
}
