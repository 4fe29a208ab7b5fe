package versioning

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowkit-dev/flowkit/pkg/events"
	"github.com/flowkit-dev/flowkit/pkg/models"
)

// DefaultLockTimeout bounds how long a caller waits for a per-workflow lock
// before failing with a LockTimeoutError.
const DefaultLockTimeout = 5 * time.Second

// Publisher is the event-publishing surface the store needs. The eventbus
// package provides implementations.
type Publisher interface {
	Publish(ctx context.Context, key string, event events.Event) error
}

// Store keeps per-workflow version histories. It is safe for concurrent use:
// operations on distinct workflow IDs proceed fully in parallel, while
// operations on the same ID are serialized by a per-ID lock created lazily
// under a short-held guard.
type Store struct {
	mu       sync.RWMutex
	versions map[string][]*models.WorkflowVersion
	locks    map[string]chan struct{}

	lockTimeout time.Duration
	logger      *slog.Logger
	publisher   Publisher
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLockTimeout sets how long lock acquisition may block.
func WithLockTimeout(d time.Duration) StoreOption {
	return func(s *Store) { s.lockTimeout = d }
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithPublisher makes the store emit version lifecycle events after
// successful mutations. Publish failures are logged, never propagated.
func WithPublisher(p Publisher) StoreOption {
	return func(s *Store) { s.publisher = p }
}

// NewStore creates an empty version store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		versions:    make(map[string][]*models.WorkflowVersion),
		locks:       make(map[string]chan struct{}),
		lockTimeout: DefaultLockTimeout,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// lockFor lazily creates the lock channel for a workflow ID. Only this
// creation step runs under the store-wide guard, so unrelated workflows
// never contend.
func (s *Store) lockFor(workflowID string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[workflowID]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[workflowID] = l
	}

	return l
}

// acquire takes the per-workflow lock, honoring both the configured timeout
// and context cancellation. The returned release function must be called
// exactly once.
func (s *Store) acquire(ctx context.Context, workflowID string) (func(), error) {
	l := s.lockFor(workflowID)

	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()

	select {
	case l <- struct{}{}:
		return func() { <-l }, nil
	case <-timer.C:
		return nil, &LockTimeoutError{WorkflowID: workflowID, Timeout: s.lockTimeout}
	case <-ctx.Done():
		return nil, fmt.Errorf("acquiring lock for workflow %q: %w", workflowID, ctx.Err())
	}
}

// CreateVersion snapshots the workflow under an explicit version string and
// appends it to the workflow's history. The version string must be valid
// semver; it is stored in canonical form.
func (s *Store) CreateVersion(ctx context.Context, wf *models.Workflow, version string, changelog []string, workflowID string) (*models.WorkflowVersion, error) {
	parsed, err := ParseVersion(version)
	if err != nil {
		return nil, err
	}

	// Checksums are pure functions of content; computing them outside the
	// critical section keeps lock hold times short.
	checksum, err := Checksum(wf)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	record := s.appendLocked(workflowID, wf.Name, parsed, changelog, checksum)
	release()

	s.publish(ctx, events.NewVersionCreated(workflowID, record))
	s.logger.Info("version created",
		"workflow_id", workflowID, "version", record.Version, "checksum", record.Checksum)

	return record, nil
}

// VersionBump reads the workflow's current semver-maximum version (0.0.0
// when the history is empty), applies the bump rule, and stores the result.
// The read-then-write sequence is one atomic unit under the per-workflow
// lock. An invalid bump type is an immediate error.
func (s *Store) VersionBump(ctx context.Context, wf *models.Workflow, bumpType BumpType, workflowID string) (*models.WorkflowVersion, error) {
	if !bumpType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBumpType, bumpType)
	}

	checksum, err := Checksum(wf)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	current := s.latestLocked(workflowID)
	next, err := current.Bump(bumpType)
	if err != nil {
		release()

		return nil, err
	}

	changelog := []string{fmt.Sprintf("%s bump from %s", bumpType, current)}
	record := s.appendLocked(workflowID, wf.Name, next, changelog, checksum)
	release()

	s.publish(ctx, events.NewVersionBumped(workflowID, record, string(bumpType), current.String()))
	s.logger.Info("version bumped",
		"workflow_id", workflowID, "bump", bumpType, "from", current.String(), "to", record.Version)

	return record, nil
}

// appendLocked stores a new version record. Callers must hold the
// per-workflow lock; the store-wide guard protects the map write itself.
func (s *Store) appendLocked(workflowID, workflowName string, version Version, changelog []string, checksum string) *models.WorkflowVersion {
	if changelog == nil {
		changelog = []string{}
	}

	record := &models.WorkflowVersion{
		Version:      version.String(),
		VersionID:    uuid.New().String(),
		WorkflowID:   workflowID,
		WorkflowName: workflowName,
		Changelog:    changelog,
		CreatedAt:    time.Now().UTC(),
		Checksum:     checksum,
	}

	s.mu.Lock()
	s.versions[workflowID] = append(s.versions[workflowID], record)
	s.mu.Unlock()

	return record
}

// latestLocked resolves the semver-maximum stored version, defaulting to
// 0.0.0. Among equal numbers the most recently stored record wins.
func (s *Store) latestLocked(workflowID string) Version {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := Version{}

	for _, record := range s.versions[workflowID] {
		v, err := ParseVersion(record.Version)
		if err != nil {
			continue // stored records are validated on the way in
		}

		if v.Compare(latest) >= 0 {
			latest = v
		}
	}

	return latest
}

// Versions returns a copy of the stored history for a workflow, in storage
// order. Records are append-only and must not be mutated.
func (s *Store) Versions(workflowID string) []*models.WorkflowVersion {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.versions[workflowID]
	out := make([]*models.WorkflowVersion, len(history))
	copy(out, history)

	return out
}

// Latest returns the semver-maximum version record for a workflow, or nil
// when the history is empty. Latest is the semver max, not the most recently
// created record.
func (s *Store) Latest(workflowID string) *models.WorkflowVersion {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		latest       *models.WorkflowVersion
		latestParsed Version
	)

	for _, record := range s.versions[workflowID] {
		v, err := ParseVersion(record.Version)
		if err != nil {
			continue
		}

		if latest == nil || v.Compare(latestParsed) >= 0 {
			latest = record
			latestParsed = v
		}
	}

	return latest
}

// WorkflowIDs returns the IDs with stored history.
func (s *Store) WorkflowIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.versions))
	for id := range s.versions {
		ids = append(ids, id)
	}

	return ids
}

func (s *Store) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, event.Key(), event); err != nil {
		s.logger.Error("failed to publish version event",
			"event_type", event.GetType(), "error", err)
	}
}
