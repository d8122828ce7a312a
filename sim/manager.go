// Implements the SimulationManager: partitions the id range across producers,
// runs producers and consumers around one BoundedQueue, shuts the consumers down
// with one stop sentinel each, and restores global order from sequence numbers.

package sim

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/boundedsim/sim/trace"
)

// State is the lifecycle state of a SimulationManager.
type State int

const (
	StateConfigured State = iota
	StatePartitioned
	StateRunning
	StateDraining
	StateAggregated
	StateFailed
)

var stateNames = map[State]string{
	StateConfigured:  "configured",
	StatePartitioned: "partitioned",
	StateRunning:     "running",
	StateDraining:    "draining",
	StateAggregated:  "aggregated",
	StateFailed:      "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Option configures a SimulationManager.
type Option func(*SimulationManager)

// WithObserver registers an observer for instrumentation events. Repeatable.
func WithObserver(o Observer) Option {
	return func(m *SimulationManager) {
		m.observers = append(m.observers, o)
	}
}

// WithLogger sets the logger used for run lifecycle messages.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(m *SimulationManager) {
		m.logger = logger
	}
}

// WithMetrics records events and run durations into m.
func WithMetrics(metrics *Metrics) Option {
	return func(m *SimulationManager) {
		m.metrics = metrics
	}
}

// SimulationManager coordinates one bounded-buffer run at a time. The
// partition plan is computed once; every Run starts from a fresh queue and a
// sequence counter rewound to 0, so a manager can be run repeatedly.
type SimulationManager struct {
	cfg       Config
	plan      PartitionPlan
	sequence  *SequenceAllocator
	logger    logrus.FieldLogger
	metrics   *Metrics
	observers []Observer

	mu     sync.Mutex // guards the fields below
	state  State
	queue  *BoundedQueue
	result []WorkItem
	runID  string
}

// NewSimulationManager validates cfg and computes the partition plan.
// On error no manager is returned and nothing has been started.
func NewSimulationManager(cfg Config, opts ...Option) (*SimulationManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &SimulationManager{
		cfg:      cfg,
		sequence: &SequenceAllocator{},
		logger:   logrus.StandardLogger(),
		state:    StateConfigured,
	}
	for _, opt := range opts {
		opt(m)
	}

	plan, err := NewPartitionPlan(cfg.Items, cfg.Producers)
	if err != nil {
		return nil, err
	}
	m.plan = plan
	if cfg.Producers > cfg.Items {
		m.logger.Debugf("%d producers for %d items; %d producers have no ids and will not start",
			cfg.Producers, cfg.Items, cfg.Producers-cfg.Items)
	}
	m.state = StatePartitioned
	return m, nil
}

// Config returns the construction parameters.
func (m *SimulationManager) Config() Config {
	return m.cfg
}

// Plan returns a copy of the partition plan.
func (m *SimulationManager) Plan() PartitionPlan {
	plan := make(PartitionPlan, len(m.plan))
	for i, ids := range m.plan {
		plan[i] = append([]int(nil), ids...)
	}
	return plan
}

// State returns the current lifecycle state.
func (m *SimulationManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// RunID identifies the most recent run; empty before the first Run.
func (m *SimulationManager) RunID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runID
}

// Result returns a copy of the last aggregated result, or nil if the last run
// did not reach the aggregated state.
func (m *SimulationManager) Result() []WorkItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.result == nil {
		return nil
	}
	return append([]WorkItem(nil), m.result...)
}

// QueueLen reports the length of the current run's queue (0 before any run).
func (m *SimulationManager) QueueLen() int {
	m.mu.Lock()
	q := m.queue
	m.mu.Unlock()
	if q == nil {
		return 0
	}
	return q.Len()
}

// Run executes one full produce/consume cycle and returns every item sorted by
// sequence number. ctx acts as an external watchdog: cancelling it aborts the
// queue, and Run returns once every worker has exited.
//
// The first worker failure is returned after all workers are joined. A result
// that fails the integrity check is returned as an *InvariantViolation.
func (m *SimulationManager) Run(ctx context.Context) ([]WorkItem, error) {
	queue, runID, err := m.reset()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	log := m.logger.WithField("run_id", runID)
	log.Infof("Starting simulation with %d items, capacity %d, %d producers, %d consumers",
		m.cfg.Items, m.cfg.Capacity, m.cfg.Producers, m.cfg.Consumers)

	result, err := m.execute(ctx, queue, runID, log)
	if m.metrics != nil {
		m.metrics.RecordRun(time.Since(start), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = StateFailed
		log.WithError(err).Error("Simulation failed")
		return nil, err
	}
	m.state = StateAggregated
	m.result = result
	log.Infof("Simulation complete: %d items in %v", len(result), time.Since(start))
	return append([]WorkItem(nil), result...), nil
}

// reset performs the Partitioned -> Running transition.
func (m *SimulationManager) reset() (*BoundedQueue, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateRunning || m.state == StateDraining {
		return nil, "", errors.Errorf("run %s already in progress", m.runID)
	}

	queue, err := NewBoundedQueue(m.cfg.Capacity)
	if err != nil {
		return nil, "", err
	}
	m.sequence.Reset()
	m.result = nil
	m.queue = queue
	m.runID = uuid.NewString()
	m.state = StateRunning
	return queue, m.runID, nil
}

func (m *SimulationManager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// observerFor stamps events with the run id before fanning them out.
func (m *SimulationManager) observerFor(runID string) Observer {
	targets := make(fanOut, 0, len(m.observers)+1)
	targets = append(targets, m.observers...)
	if m.metrics != nil {
		targets = append(targets, m.metrics)
	}
	return ObserverFunc(func(e trace.Event) {
		e.RunID = runID
		targets.Observe(e)
	})
}

func (m *SimulationManager) execute(ctx context.Context, queue *BoundedQueue, runID string, log logrus.FieldLogger) ([]WorkItem, error) {
	abort := func() {
		queue.Abort()
		m.sequence.Abort()
	}
	// caller cancellation releases every blocked Put, Get and Claim
	stopAbort := context.AfterFunc(ctx, abort)
	defer stopAbort()

	g, gctx := errgroup.WithContext(ctx)
	failures := &failureLog{}
	spawn := func(name string, body func() error) {
		g.Go(func() error {
			err := runWorker(name, log, body)
			if err != nil {
				failures.add(err)
				abort()
			}
			return err
		})
	}

	observer := m.observerFor(runID)

	var producers sync.WaitGroup
	offset := 0
	for i, ids := range m.plan {
		if len(ids) == 0 {
			continue
		}
		p := &Producer{
			Name:     fmt.Sprintf("Producer-%d", i+1),
			IDs:      ids,
			Offset:   offset,
			Queue:    queue,
			Sequence: m.sequence,
			Observer: observer,
		}
		offset += len(ids)
		producers.Add(1)
		spawn(p.Name, func() error {
			defer producers.Done()
			return p.Run(gctx)
		})
	}

	consumers := make([]*Consumer, m.cfg.Consumers)
	for i := range consumers {
		c := &Consumer{
			Name:     fmt.Sprintf("Consumer-%d", i+1),
			Queue:    queue,
			Observer: observer,
		}
		consumers[i] = c
		spawn(c.Name, func() error { return c.Run(gctx) })
	}

	// Running -> Draining: no real item can be enqueued after this join.
	producers.Wait()
	m.setState(StateDraining)
	for i := 0; i < m.cfg.Consumers; i++ {
		if _, err := queue.Put(Stop()); err != nil {
			// aborted: the failure that caused it is reported below
			break
		}
	}
	log.Debugf("Injected stop sentinels for %d consumers", m.cfg.Consumers)

	if err := g.Wait(); err != nil {
		return nil, failures.runError(ctx, runID, err)
	}

	// Draining -> Aggregated
	var result []WorkItem
	for _, c := range consumers {
		result = append(result, c.Results()...)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SequenceNumber < result[j].SequenceNumber
	})
	if queue.Len() != 0 {
		return nil, errors.WithStack(&InvariantViolation{Detail: fmt.Sprintf("%d entries left in queue after drain", queue.Len())})
	}
	if err := VerifyResult(result, m.cfg.Items); err != nil {
		return nil, err
	}
	return result, nil
}

// failureLog collects every worker error of one run in return order.
type failureLog struct {
	mu   sync.Mutex
	errs []error
}

func (f *failureLog) add(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
}

// rootCauses drops the errors workers return only because the run was
// already being torn down.
func (f *failureLog) rootCauses() []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var causes []error
	for _, err := range f.errs {
		if errors.Is(err, ErrQueueAborted) || errors.Is(err, ErrSequenceAborted) ||
			errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			continue
		}
		causes = append(causes, err)
	}
	return causes
}

// runError picks the error Run reports. Without cancellation it is the first
// root-cause failure. With cancellation it is the wrapped ctx error, combined
// with any root-cause failures so a real fault is never hidden.
func (f *failureLog) runError(ctx context.Context, runID string, first error) error {
	causes := f.rootCauses()
	ctxErr := ctx.Err()
	if ctxErr == nil {
		if len(causes) > 0 {
			return causes[0]
		}
		return first
	}
	cancelled := errors.Wrapf(ctxErr, "run %s cancelled", runID)
	if len(causes) == 0 {
		return cancelled
	}
	return multierror.Append(cancelled, causes...)
}

// runWorker turns a returned error or a panic inside a worker body into a
// *WorkerFailure.
func runWorker(name string, log logrus.FieldLogger, body func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", r)
			}
			err = &WorkerFailure{Worker: name, Err: errors.WithStack(cause)}
		}
		if err != nil {
			log.WithField("worker", name).WithError(err).Debug("Worker exited with error")
		}
	}()
	if err := body(); err != nil {
		return &WorkerFailure{Worker: name, Err: err}
	}
	return nil
}
