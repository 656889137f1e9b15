package generator_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igara/runner/pkg/eventbus"
	"github.com/igara/runner/pkg/events"
	"github.com/igara/runner/pkg/generator"
	"github.com/igara/runner/pkg/models"
	"github.com/igara/runner/pkg/persistence"
	"github.com/igara/runner/pkg/persistence/file"
	"github.com/igara/runner/pkg/testutil"
)

const skipMessage = "Skipped due to previous node failure"

type stubExecutor struct {
	mu    sync.Mutex
	calls map[string]int
	order []string
	fail  map[string]error
	hooks map[string]func()
}

func newStubExecutor() *stubExecutor {
	return &stubExecutor{
		calls: make(map[string]int),
		fail:  make(map[string]error),
		hooks: make(map[string]func()),
	}
}

func (s *stubExecutor) Execute(_ context.Context, _ string, params models.ActivityParams, _ time.Duration, _ uint) (map[string]any, error) {
	raw, ok := params.(models.RawParams)
	if !ok {
		return nil, errors.New("unexpected params type")
	}

	name, _ := raw["node_name"].(string)

	s.mu.Lock()
	s.calls[name]++
	s.order = append(s.order, name)
	hook := s.hooks[name]
	failErr := s.fail[name]
	s.mu.Unlock()

	if hook != nil {
		hook()
	}

	if failErr != nil {
		return nil, failErr
	}

	return map[string]any{"node": name}, nil
}

func (s *stubExecutor) callCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[name]
}

func (s *stubExecutor) indexOf(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.order {
		if n == name {
			return i
		}
	}

	return -1
}

type collectingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *collectingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *collectingPublisher) count(eventType events.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := 0

	for _, event := range p.events {
		if event.GetType() == eventType {
			total++
		}
	}

	return total
}

type failingRepo struct {
	persistence.ExecutionRepository

	failCreate bool
	failPatch  bool
}

func (r *failingRepo) CreateExecution(ctx context.Context, workflowID, datasetID string, status models.ExecutionStatus, userID string) (string, error) {
	if r.failCreate {
		return "", errors.New("record store unavailable")
	}

	return r.ExecutionRepository.CreateExecution(ctx, workflowID, datasetID, status, userID)
}

func (r *failingRepo) PatchExecution(ctx context.Context, executionID string, ops []persistence.PatchOp, userID string) error {
	if r.failPatch {
		return errors.New("record store unavailable")
	}

	return r.ExecutionRepository.PatchExecution(ctx, executionID, ops, userID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestGenerator(t *testing.T, executor *stubExecutor, publisher eventbus.EventPublisher) (*generator.Generator, persistence.ExecutionRepository) {
	t.Helper()

	repo := file.NewPersistence(t.TempDir()).ExecutionRepository()

	return generator.NewGenerator(executor, repo, publisher, testLogger()), repo
}

func TestRun_LinearChain(t *testing.T) {
	executor := newStubExecutor()
	gen, _ := newTestGenerator(t, executor, nil)

	dag := testutil.CreateTestDAG([]string{"a", "b"}, [][2]string{{"a", "b"}})

	result, err := gen.Run(context.Background(), testutil.CreateTestRunParams(dag))
	require.NoError(t, err)

	assert.Equal(t, models.NodeStatusSuccess, result["a"].Status)
	assert.Equal(t, models.NodeStatusSuccess, result["b"].Status)
	assert.Less(t, executor.indexOf("a"), executor.indexOf("b"))
}

func TestRun_FailureSkipsChildren(t *testing.T) {
	executor := newStubExecutor()
	executor.fail["a"] = errors.New("training diverged")

	gen, _ := newTestGenerator(t, executor, nil)

	dag := testutil.CreateTestDAG([]string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"a", "c"}})

	result, err := gen.Run(context.Background(), testutil.CreateTestRunParams(dag))
	require.NoError(t, err)

	assert.Equal(t, models.NodeStatusFailed, result["a"].Status)
	assert.Equal(t, "training diverged", result["a"].Output["error"])

	for _, key := range []string{"b", "c"} {
		assert.Equal(t, models.NodeStatusSkipped, result[key].Status)
		assert.Equal(t, skipMessage, result[key].Output["error"])
		assert.Equal(t, 0, executor.callCount(key))
	}
}

func TestRun_IndependentRootFailureStillFailsRun(t *testing.T) {
	executor := newStubExecutor()
	yStarted := make(chan struct{})

	executor.hooks["y"] = func() { close(yStarted) }
	executor.hooks["x"] = func() { <-yStarted }
	executor.fail["x"] = errors.New("boom")

	gen, _ := newTestGenerator(t, executor, nil)

	dag := testutil.CreateTestDAG([]string{"x", "y"}, nil)

	result, err := gen.Run(context.Background(), testutil.CreateTestRunParams(dag))
	require.NoError(t, err)

	assert.Equal(t, models.NodeStatusFailed, result["x"].Status)
	assert.Equal(t, models.NodeStatusSuccess, result["y"].Status)
}

func TestRun_SingleNode(t *testing.T) {
	executor := newStubExecutor()
	gen, _ := newTestGenerator(t, executor, nil)

	dag := testutil.CreateTestDAG([]string{"only"}, nil)

	result, err := gen.Run(context.Background(), testutil.CreateTestRunParams(dag))
	require.NoError(t, err)

	require.Len(t, result, 1)
	assert.Equal(t, models.NodeStatusSuccess, result["only"].Status)
	assert.Equal(t, "only", result["only"].Output["node"])
}

func TestRun_NoEdgesEveryNodeIsARoot(t *testing.T) {
	executor := newStubExecutor()
	gen, _ := newTestGenerator(t, executor, nil)

	dag := testutil.CreateTestDAG([]string{"a", "b", "c"}, nil)

	result, err := gen.Run(context.Background(), testutil.CreateTestRunParams(dag))
	require.NoError(t, err)

	require.Len(t, result, 3)

	for _, key := range []string{"a", "b", "c"} {
		assert.Equal(t, models.NodeStatusSuccess, result[key].Status)
		assert.Equal(t, 1, executor.callCount(key))
	}
}

func TestRun_EmptyGraphCompletesImmediately(t *testing.T) {
	executor := newStubExecutor()
	gen, repo := newTestGenerator(t, executor, nil)

	dag := models.DAG{Nodes: map[string]*models.Node{}}
	params := testutil.CreateTestRunParams(dag)

	result, err := gen.Run(context.Background(), params)
	require.NoError(t, err)
	assert.Empty(t, result)

	records := lastRecord(t, repo, params.UserID)
	assert.Equal(t, models.ExecutionStatusCompleted, records.Status)
}

func TestRun_EdgesToUndeclaredNodesAreIgnored(t *testing.T) {
	executor := newStubExecutor()
	gen, repo := newTestGenerator(t, executor, nil)

	dag := testutil.CreateTestDAG([]string{"a", "b"}, [][2]string{{"a", "b"}})
	dag.Edges = append(dag.Edges,
		testutil.CreateTestEdge("a", "ghost"),
		testutil.CreateTestEdge("ghost", "b"),
	)
	params := testutil.CreateTestRunParams(dag)

	result, err := gen.Run(context.Background(), params)
	require.NoError(t, err)

	// Only declared nodes run; the undeclared key never gets dispatched and
	// never blocks its would-be child.
	require.Len(t, result, 2)
	assert.Equal(t, models.NodeStatusSuccess, result["a"].Status)
	assert.Equal(t, models.NodeStatusSuccess, result["b"].Status)
	assert.NotContains(t, result, "ghost")
	assert.Equal(t, 1, executor.callCount("a"))
	assert.Equal(t, 1, executor.callCount("b"))

	record := lastRecord(t, repo, params.UserID)
	assert.Equal(t, models.ExecutionStatusCompleted, record.Status)
	assert.NotContains(t, record.Output, "ghost")
}

func TestRun_DiamondJoinRunsJoinNodeOnce(t *testing.T) {
	executor := newStubExecutor()
	gen, _ := newTestGenerator(t, executor, nil)

	dag := testutil.CreateTestDAG(
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}},
	)

	result, err := gen.Run(context.Background(), testutil.CreateTestRunParams(dag))
	require.NoError(t, err)

	require.Len(t, result, 4)
	assert.Equal(t, 1, executor.callCount("d"))
	assert.Less(t, executor.indexOf("b"), executor.indexOf("d"))
	assert.Less(t, executor.indexOf("c"), executor.indexOf("d"))
}

func TestRun_PersistedRecordMatchesResult(t *testing.T) {
	executor := newStubExecutor()
	gen, repo := newTestGenerator(t, executor, nil)

	dag := testutil.CreateTestDAG([]string{"a", "b"}, [][2]string{{"a", "b"}})
	params := testutil.CreateTestRunParams(dag)

	result, err := gen.Run(context.Background(), params)
	require.NoError(t, err)

	record := lastRecord(t, repo, params.UserID)

	assert.Equal(t, models.ExecutionStatusCompleted, record.Status)

	for key, state := range result {
		assert.Equal(t, state.Status, record.Output[key].Status)
	}
}

func TestRun_FailedRunPersistsFailedStatus(t *testing.T) {
	executor := newStubExecutor()
	executor.fail["a"] = errors.New("boom")

	gen, repo := newTestGenerator(t, executor, nil)

	dag := testutil.CreateTestDAG([]string{"a"}, nil)
	params := testutil.CreateTestRunParams(dag)

	_, err := gen.Run(context.Background(), params)
	require.NoError(t, err)

	record := lastRecord(t, repo, params.UserID)
	assert.Equal(t, models.ExecutionStatusFailed, record.Status)
}

func TestRun_RecordCreationFailureAbortsBeforeDispatch(t *testing.T) {
	executor := newStubExecutor()
	repo := &failingRepo{
		ExecutionRepository: file.NewPersistence(t.TempDir()).ExecutionRepository(),
		failCreate:          true,
	}
	gen := generator.NewGenerator(executor, repo, nil, testLogger())

	dag := testutil.CreateTestDAG([]string{"a"}, nil)

	_, err := gen.Run(context.Background(), testutil.CreateTestRunParams(dag))
	require.Error(t, err)
	assert.ErrorIs(t, err, generator.ErrRecordCreation)
	assert.Equal(t, 0, executor.callCount("a"))
}

func TestRun_PatchFailureSurfacesAsRunError(t *testing.T) {
	executor := newStubExecutor()
	repo := &failingRepo{
		ExecutionRepository: file.NewPersistence(t.TempDir()).ExecutionRepository(),
		failPatch:           true,
	}
	gen := generator.NewGenerator(executor, repo, nil, testLogger())

	dag := testutil.CreateTestDAG([]string{"a"}, nil)

	_, err := gen.Run(context.Background(), testutil.CreateTestRunParams(dag))
	require.Error(t, err)
	assert.NotErrorIs(t, err, generator.ErrRecordCreation)
}

func TestRun_RejectsInvalidParams(t *testing.T) {
	executor := newStubExecutor()
	gen, _ := newTestGenerator(t, executor, nil)

	params := testutil.CreateTestRunParams(testutil.CreateTestDAG([]string{"a"}, nil))
	params.UserID = ""

	_, err := gen.Run(context.Background(), params)
	assert.ErrorIs(t, err, generator.ErrInvalidRunParams)
}

func TestRun_RejectsCyclicGraph(t *testing.T) {
	executor := newStubExecutor()
	gen, _ := newTestGenerator(t, executor, nil)

	dag := testutil.CreateTestDAG([]string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})

	_, err := gen.Run(context.Background(), testutil.CreateTestRunParams(dag))
	require.Error(t, err)
	assert.ErrorIs(t, err, generator.ErrInvalidRunParams)
	assert.ErrorIs(t, err, models.ErrCyclicGraph)
	assert.Equal(t, 0, executor.callCount("a"))
}

func TestRun_PublishesLifecycleEvents(t *testing.T) {
	executor := newStubExecutor()
	publisher := &collectingPublisher{}
	gen, _ := newTestGenerator(t, executor, publisher)

	dag := testutil.CreateTestDAG([]string{"a", "b"}, [][2]string{{"a", "b"}})

	_, err := gen.Run(context.Background(), testutil.CreateTestRunParams(dag))
	require.NoError(t, err)

	assert.Equal(t, 1, publisher.count(events.ExecutionStartedEvent))
	assert.Equal(t, 2, publisher.count(events.NodeExecutionFinishedEvent))
	assert.Equal(t, 1, publisher.count(events.ExecutionCompletedEvent))
}

func TestRun_PublishesFailureEvents(t *testing.T) {
	executor := newStubExecutor()
	executor.fail["a"] = errors.New("boom")

	publisher := &collectingPublisher{}
	gen, _ := newTestGenerator(t, executor, publisher)

	dag := testutil.CreateTestDAG([]string{"a", "b"}, [][2]string{{"a", "b"}})

	_, err := gen.Run(context.Background(), testutil.CreateTestRunParams(dag))
	require.NoError(t, err)

	assert.Equal(t, 1, publisher.count(events.NodeExecutionFailedEvent))
	assert.Equal(t, 1, publisher.count(events.NodeSkippedEvent))
	assert.Equal(t, 1, publisher.count(events.ExecutionFailedEvent))
	assert.Equal(t, 0, publisher.count(events.ExecutionCompletedEvent))
}

// lastRecord fetches the single execution record a test run produced.
func lastRecord(t *testing.T, repo persistence.ExecutionRepository, userID string) *models.ExecutionRecord {
	t.Helper()

	fileRepo, ok := repo.(*file.ExecutionRepository)
	require.True(t, ok)

	ids, err := fileRepo.ExecutionIDs()
	require.NoError(t, err)
	require.Len(t, ids, 1)

	record, err := repo.GetExecution(context.Background(), ids[0], userID)
	require.NoError(t, err)

	return record
}
