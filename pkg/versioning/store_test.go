package versioning

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowkit-dev/flowkit/pkg/events"
)

func TestStore_CreateVersion(t *testing.T) {
	store := NewStore()
	wf := sampleWorkflow()

	record, err := store.CreateVersion(context.Background(), wf, "1.0.0", []string{"initial release"}, "wf-1")
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", record.Version)
	assert.Equal(t, "wf-1", record.WorkflowID)
	assert.Equal(t, "Sample", record.WorkflowName)
	assert.Equal(t, []string{"initial release"}, record.Changelog)
	assert.NotEmpty(t, record.VersionID)
	assert.False(t, record.CreatedAt.IsZero())

	expectedSum, err := Checksum(wf)
	require.NoError(t, err)
	assert.Equal(t, expectedSum, record.Checksum)

	history := store.Versions("wf-1")
	require.Len(t, history, 1)
	assert.Equal(t, record, history[0])
}

func TestStore_CreateVersion_CanonicalizesVersion(t *testing.T) {
	store := NewStore()

	record, err := store.CreateVersion(context.Background(), sampleWorkflow(), "01.02.03", nil, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", record.Version)
	assert.Equal(t, []string{}, record.Changelog)
}

func TestStore_CreateVersion_RejectsInvalidVersion(t *testing.T) {
	store := NewStore()

	_, err := store.CreateVersion(context.Background(), sampleWorkflow(), "1.0", nil, "wf-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVersionFormat))
	assert.Empty(t, store.Versions("wf-1"))
}

func TestStore_VersionBump_Sequence(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	wf := sampleWorkflow()

	steps := []struct {
		bump BumpType
		want string
	}{
		{BumpMinor, "0.1.0"}, // empty history starts from 0.0.0
		{BumpMajor, "1.0.0"},
		{BumpMinor, "1.1.0"},
		{BumpPatch, "1.1.1"},
		{BumpMajor, "2.0.0"},
	}

	for _, step := range steps {
		record, err := store.VersionBump(ctx, wf, step.bump, "wf-1")
		require.NoError(t, err)
		assert.Equal(t, step.want, record.Version)
		require.Len(t, record.Changelog, 1)
		assert.Contains(t, record.Changelog[0], string(step.bump)+" bump from")
	}

	assert.Equal(t, "2.0.0", store.Latest("wf-1").Version)
	assert.Len(t, store.Versions("wf-1"), len(steps))
}

func TestStore_VersionBump_InvalidType(t *testing.T) {
	store := NewStore()

	_, err := store.VersionBump(context.Background(), sampleWorkflow(), "huge", "wf-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidBumpType))
	assert.Empty(t, store.Versions("wf-1"))
}

func TestStore_Latest_SemverMaxNotStorageOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	wf := sampleWorkflow()

	_, err := store.CreateVersion(ctx, wf, "2.0.0", nil, "wf-1")
	require.NoError(t, err)

	_, err = store.CreateVersion(ctx, wf, "1.5.0", nil, "wf-1")
	require.NoError(t, err)

	latest := store.Latest("wf-1")
	require.NotNil(t, latest)
	assert.Equal(t, "2.0.0", latest.Version)
}

func TestStore_Latest_EqualVersionsLastStoredWins(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	wf := sampleWorkflow()

	first, err := store.CreateVersion(ctx, wf, "1.0.0", []string{"first"}, "wf-1")
	require.NoError(t, err)

	second, err := store.CreateVersion(ctx, wf, "1.0.0", []string{"second"}, "wf-1")
	require.NoError(t, err)

	latest := store.Latest("wf-1")
	require.NotNil(t, latest)
	assert.Equal(t, second.VersionID, latest.VersionID)
	assert.NotEqual(t, first.VersionID, latest.VersionID)
}

func TestStore_Latest_EmptyHistory(t *testing.T) {
	store := NewStore()
	assert.Nil(t, store.Latest("missing"))
}

func TestStore_ConcurrentBumps_NoLostUpdates(t *testing.T) {
	store := NewStore()
	wf := sampleWorkflow()

	const goroutines = 20

	var wg sync.WaitGroup

	errs := make([]error, goroutines)

	for i := range goroutines {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, errs[i] = store.VersionBump(context.Background(), wf, BumpPatch, "wf-1")
		}()
	}

	wg.Wait()

	for i, err := range errs {
		require.NoErrorf(t, err, "goroutine %d", i)
	}

	history := store.Versions("wf-1")
	require.Len(t, history, goroutines)

	// each bump saw the previous one: versions are exactly 0.0.1 .. 0.0.N
	seen := make(map[string]bool, goroutines)
	for _, record := range history {
		seen[record.Version] = true
	}

	for i := 1; i <= goroutines; i++ {
		assert.Truef(t, seen[fmt.Sprintf("0.0.%d", i)], "missing version 0.0.%d", i)
	}

	assert.Equal(t, fmt.Sprintf("0.0.%d", goroutines), store.Latest("wf-1").Version)
}

func TestStore_ConcurrentCreates_AllStored(t *testing.T) {
	store := NewStore()
	wf := sampleWorkflow()

	const goroutines = 25

	var wg sync.WaitGroup

	for i := range goroutines {
		wg.Add(1)

		go func() {
			defer wg.Done()

			version := fmt.Sprintf("1.0.%d", i)
			_, err := store.CreateVersion(context.Background(), wf, version, nil, "wf-1")
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	history := store.Versions("wf-1")
	require.Len(t, history, goroutines)

	seen := make(map[string]bool, goroutines)
	for _, record := range history {
		seen[record.Version] = true
	}

	assert.Len(t, seen, goroutines)
}

func TestStore_ConcurrentDistinctWorkflows(t *testing.T) {
	store := NewStore()
	wf := sampleWorkflow()

	const workflows = 10

	var wg sync.WaitGroup

	for i := range workflows {
		wg.Add(1)

		go func() {
			defer wg.Done()

			id := fmt.Sprintf("wf-%d", i)
			_, err := store.VersionBump(context.Background(), wf, BumpMinor, id)
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	assert.Len(t, store.WorkflowIDs(), workflows)

	for i := range workflows {
		assert.Equal(t, "0.1.0", store.Latest(fmt.Sprintf("wf-%d", i)).Version)
	}
}

func TestStore_Acquire_Timeout(t *testing.T) {
	store := NewStore(WithLockTimeout(50 * time.Millisecond))

	release, err := store.acquire(context.Background(), "wf-1")
	require.NoError(t, err)

	_, err = store.acquire(context.Background(), "wf-1")
	require.Error(t, err)
	assert.True(t, IsLockTimeout(err))

	var timeoutErr *LockTimeoutError

	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, "wf-1", timeoutErr.WorkflowID)
	assert.Equal(t, 50*time.Millisecond, timeoutErr.Timeout)

	// other workflows are unaffected while wf-1 is held
	otherRelease, err := store.acquire(context.Background(), "wf-2")
	require.NoError(t, err)
	otherRelease()

	release()

	release, err = store.acquire(context.Background(), "wf-1")
	require.NoError(t, err)
	release()
}

func TestStore_Acquire_ContextCancellation(t *testing.T) {
	store := NewStore(WithLockTimeout(time.Minute))

	release, err := store.acquire(context.Background(), "wf-1")
	require.NoError(t, err)

	defer release()

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = store.acquire(ctx, "wf-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	fail   bool
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fail {
		return errors.New("broker unavailable")
	}

	p.events = append(p.events, event)

	return nil
}

func TestStore_PublishesLifecycleEvents(t *testing.T) {
	publisher := &capturingPublisher{}
	store := NewStore(WithPublisher(publisher))
	ctx := context.Background()
	wf := sampleWorkflow()

	_, err := store.CreateVersion(ctx, wf, "1.0.0", nil, "wf-1")
	require.NoError(t, err)

	_, err = store.VersionBump(ctx, wf, BumpMinor, "wf-1")
	require.NoError(t, err)

	require.Len(t, publisher.events, 2)

	created, ok := publisher.events[0].(*events.VersionCreated)
	require.True(t, ok)
	assert.Equal(t, "wf-1", created.Key())
	assert.Equal(t, "1.0.0", created.Version)
	assert.Equal(t, events.VersionCreatedEvent, created.GetType())

	bumped, ok := publisher.events[1].(*events.VersionBumped)
	require.True(t, ok)
	assert.Equal(t, "minor", bumped.BumpType)
	assert.Equal(t, "1.0.0", bumped.PreviousVersion)
	assert.Equal(t, "1.1.0", bumped.Version)
}

func TestStore_PublishFailureDoesNotFailMutation(t *testing.T) {
	publisher := &capturingPublisher{fail: true}
	store := NewStore(WithPublisher(publisher))

	record, err := store.CreateVersion(context.Background(), sampleWorkflow(), "1.0.0", nil, "wf-1")
	require.NoError(t, err)
	assert.NotNil(t, record)
	assert.Len(t, store.Versions("wf-1"), 1)
}
