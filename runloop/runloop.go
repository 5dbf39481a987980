package runloop

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/hugolhafner/go-consumer/kafka"
	"github.com/hugolhafner/go-consumer/logger"
	"github.com/hugolhafner/go-consumer/otel"
)

// Runloop serializes all access to a non-thread-safe broker client behind a
// request queue. Requests are handled one at a time, in arrival order, on the
// goroutine running Run. State transitions happen only on that goroutine;
// rebalance callbacks fire synchronously inside Poll, so they are serialized
// with everything else.
type Runloop struct {
	guard    *HandleGuard
	requests chan Request
	state    atomic.Pointer[State]
	config   Config
	log      logger.Logger
}

func New(client kafka.Client, opts ...Option) *Runloop {
	config := newConfig(opts...)

	r := &Runloop{
		guard:    NewHandleGuard(client),
		requests: make(chan Request, config.QueueSize),
		config:   config,
		log:      config.Logger.With("component", "runloop"),
	}

	initial := NewState()
	r.state.Store(&initial)

	return r
}

// Enqueue submits a request, blocking until the queue accepts it or ctx ends.
func (r *Runloop) Enqueue(ctx context.Context, req Request) error {
	select {
	case r.requests <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryEnqueue submits a request without blocking. Reports whether the queue
// accepted it.
func (r *Runloop) TryEnqueue(req Request) bool {
	select {
	case r.requests <- req:
		return true
	default:
		return false
	}
}

// State returns the most recently published state snapshot.
func (r *Runloop) State() State {
	return *r.state.Load()
}

// Run dispatches requests until ctx is cancelled, then tears down: every
// waiting fetch completes with TopicPartitionRevoked, parked commits and
// queued requests fail with ErrClosed, and the broker handle is closed.
func (r *Runloop) Run(ctx context.Context) error {
	defer r.teardown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-r.requests:
			if err := r.handle(req); err != nil {
				return err
			}
		}
	}
}

func (r *Runloop) handle(req Request) error {
	switch req := req.(type) {
	case SubscribeTopics:
		r.handleSubscribeTopics(req)
	case SubscribePattern:
		r.handleSubscribePattern(req)
	case Assignment:
		r.handleAssignment(req)
	case Fetch:
		r.handleFetch(req)
	case Commit:
		r.handleCommit(req)
	case Poll:
		return r.handlePoll()
	default:
		panic("runloop: unknown request type")
	}

	return nil
}

func (r *Runloop) updateState(apply func(State) State) State {
	next := apply(*r.state.Load())
	r.state.Store(&next)

	return next
}

func (r *Runloop) handleSubscribeTopics(req SubscribeTopics) {
	err := r.guard.Use(func(client kafka.Client) error {
		return client.Subscribe(req.Topics, r.listener())
	})
	if err == nil {
		r.updateState(State.AsSubscribed)
		r.log.Info("subscribed", "topics", req.Topics)
	}

	req.Done <- err
}

func (r *Runloop) handleSubscribePattern(req SubscribePattern) {
	err := r.guard.Use(func(client kafka.Client) error {
		return client.SubscribePattern(req.Pattern, r.listener())
	})
	if err == nil {
		r.updateState(State.AsSubscribed)
		r.log.Info("subscribed", "pattern", req.Pattern.String())
	}

	req.Done <- err
}

func (r *Runloop) handleAssignment(req Assignment) {
	if !r.State().Subscribed() {
		req.Done <- AssignmentResult{Err: ErrNotSubscribed}
		return
	}

	var partitions []kafka.TopicPartition
	err := r.guard.Use(func(client kafka.Client) error {
		partitions = client.Assignment()
		return nil
	})
	if err != nil {
		req.Done <- AssignmentResult{Err: err}
		return
	}

	r.updateState(func(s State) State {
		if req.OnRebalance != nil {
			s = s.WithOnRebalance(*req.OnRebalance)
		}
		return s.AsStreaming()
	})

	if req.OnRebalance != nil {
		r.log.Debug("stored on rebalance")
	}

	req.Done <- AssignmentResult{Partitions: partitions}
}

func (r *Runloop) handleFetch(req Fetch) {
	var assigned bool
	err := r.guard.Use(func(client kafka.Client) error {
		for _, tp := range client.Assignment() {
			if tp == req.Partition {
				assigned = true
				break
			}
		}
		return nil
	})

	if err != nil || !assigned {
		r.log.Debug("completed fetch for unassigned partition",
			"partition", req.Partition, "stream", int(req.StreamID))
		req.Req.Complete(nil, TopicPartitionRevoked)

		return
	}

	var prior *FetchRequest
	r.updateState(func(s State) State {
		next, previous := s.WithFetch(req.Partition, req.StreamID, req.Req)
		prior = previous

		return next
	})

	r.log.Debug("stored fetch", "partition", req.Partition, "stream", int(req.StreamID))

	if prior != nil {
		r.log.Debug("revoked previous fetch",
			"partition", req.Partition, "stream", int(req.StreamID))
		prior.Complete(nil, TopicPartitionRevoked)
	}
}

func (r *Runloop) handleCommit(req Commit) {
	state := r.State()

	if state.Rebalancing() {
		if len(state.PendingCommits()) >= r.config.MaxPendingCommits {
			req.Done <- ErrTooManyPendingCommits
			return
		}

		r.updateState(func(s State) State {
			return s.WithPendingCommit(req)
		})
		r.log.Debug("stored pending commit", "offsets", len(req.Offsets))

		return
	}

	r.commit(req)
}

func (r *Runloop) commit(req Commit) {
	err := r.guard.Use(func(client kafka.Client) error {
		client.CommitAsync(req.Offsets, func(_ map[kafka.TopicPartition]kafka.Offset, err error) {
			req.Done <- err
		})

		return nil
	})
	if err != nil {
		req.Done <- err
	}
}

// handlePoll drives the broker for one cycle: resume partitions with demand,
// pause the rest, poll, distribute records, and flush commits parked during a
// rebalance that has since settled.
func (r *Runloop) handlePoll() error {
	state := r.State()
	if !state.Subscribed() || !state.Streaming() {
		return nil
	}

	initialRebalancing := state.Rebalancing()

	var batch kafka.Batch
	start := time.Now()
	err := r.guard.Use(func(client kafka.Client) error {
		assigned := client.Assignment()
		requested := r.State().FetchPartitions()

		if len(requested) > 0 {
			resume := intersect(assigned, requested)
			pause := subtract(assigned, resume)

			client.Resume(resume)
			client.Pause(pause)

			var pollErr error
			batch, pollErr = client.Poll(context.Background(), r.config.PollTimeout)

			return pollErr
		}

		client.Pause(assigned)

		var pollErr error
		batch, pollErr = client.Poll(context.Background(), 0)
		if pollErr != nil {
			return pollErr
		}
		if !batch.Empty() {
			return ErrUnexpectedRecords
		}

		return nil
	})

	status := otel.StatusSuccess
	if err != nil {
		status = otel.StatusError
	}
	r.config.Telemetry.PollDuration.Record(context.Background(), time.Since(start).Seconds(),
		metric.WithAttributes(otel.AttrPollStatus.String(status)))

	if err != nil {
		return err
	}

	if err := r.distribute(batch); err != nil {
		return err
	}

	r.flushPendingCommits(initialRebalancing)

	return nil
}

// distribute completes waiting fetches with the polled records. Records for a
// partition nobody asked for break a broker invariant and stop the loop.
func (r *Runloop) distribute(batch kafka.Batch) error {
	if batch.Empty() {
		return nil
	}

	// Rebalance callbacks inside the poll may have removed fetches; read the
	// state published after the poll, not before it.
	state := r.State()

	// Every polled partition must have demand before any fetch completes.
	// A single unexpected partition poisons the whole batch; no completions
	// fire in that case.
	for _, tp := range batch.Partitions() {
		if len(state.Fetches(tp)) == 0 {
			return ErrUnexpectedRecords
		}
	}

	completed := make([]kafka.TopicPartition, 0, len(batch.Partitions()))
	for _, tp := range batch.Partitions() {
		streams := state.Fetches(tp)
		records := batch.Records(tp)
		for _, req := range streams {
			req.Complete(records, FetchedRecords)
		}

		r.config.Telemetry.MessagesConsumed.Add(context.Background(), int64(len(records)),
			metric.WithAttributes(
				otel.AttrTopic.String(tp.Topic),
				otel.AttrPartition.Int(int(tp.Partition)),
			))

		completed = append(completed, tp)
	}

	r.updateState(func(s State) State {
		return s.WithoutFetches(completed)
	})

	r.log.Debug("completed fetches with records",
		"partitions", len(completed), "records", batch.Count())

	return nil
}

// flushPendingCommits issues commits parked during a rebalance once the first
// poll observes the rebalance finished.
func (r *Runloop) flushPendingCommits(initialRebalancing bool) {
	state := r.State()
	if !initialRebalancing || state.Rebalancing() {
		return
	}

	pending := state.PendingCommits()
	if len(pending) == 0 {
		return
	}

	r.updateState(State.WithoutPendingCommits)

	for _, commit := range pending {
		r.commit(commit)
	}

	r.log.Debug("committed pending commits", "count", len(pending))
}

// listener returns the rebalance listener handed to the broker client. The
// client invokes it synchronously inside Poll, on the run loop goroutine.
func (r *Runloop) listener() kafka.RebalanceListener {
	return rebalanceListener{loop: r}
}

type rebalanceListener struct {
	loop *Runloop
}

func (l rebalanceListener) OnPartitionsRevoked(partitions []kafka.TopicPartition) {
	r := l.loop
	r.updateState(func(s State) State {
		return s.WithRebalancing(true)
	})
	r.log.Info("revoked partitions", "count", len(partitions))

	state := r.State()
	revoked := 0
	for _, tp := range partitions {
		for _, req := range state.Fetches(tp) {
			req.Complete(nil, TopicPartitionRevoked)
			revoked++
		}
	}
	if revoked > 0 {
		r.updateState(func(s State) State {
			return s.WithoutFetches(partitions)
		})
		r.log.Debug("revoked fetches without records", "count", revoked)
	}

	for _, hooks := range state.OnRebalances() {
		if hooks.OnRevoked != nil {
			hooks.OnRevoked(partitions)
		}
	}
}

func (l rebalanceListener) OnPartitionsAssigned(partitions []kafka.TopicPartition) {
	r := l.loop
	r.updateState(func(s State) State {
		return s.WithRebalancing(false)
	})
	r.log.Info("assigned partitions", "count", len(partitions))

	for _, hooks := range r.State().OnRebalances() {
		if hooks.OnAssigned != nil {
			hooks.OnAssigned(partitions)
		}
	}
}

func (r *Runloop) teardown() {
	state := r.State()

	for _, tp := range state.FetchPartitions() {
		for _, req := range state.Fetches(tp) {
			req.Complete(nil, TopicPartitionRevoked)
		}
	}

	for _, commit := range state.PendingCommits() {
		commit.Done <- ErrClosed
	}

	cleared := NewState()
	r.state.Store(&cleared)

	for {
		select {
		case req := <-r.requests:
			r.fail(req)
		default:
			if err := r.guard.Close(); err != nil {
				r.log.Warn("closing broker handle", "error", err)
			}

			return
		}
	}
}

func (r *Runloop) fail(req Request) {
	switch req := req.(type) {
	case SubscribeTopics:
		req.Done <- ErrClosed
	case SubscribePattern:
		req.Done <- ErrClosed
	case Assignment:
		req.Done <- AssignmentResult{Err: ErrClosed}
	case Fetch:
		req.Req.Complete(nil, TopicPartitionRevoked)
	case Commit:
		req.Done <- ErrClosed
	case Poll:
	}
}

func intersect(a, b []kafka.TopicPartition) []kafka.TopicPartition {
	set := make(map[kafka.TopicPartition]struct{}, len(b))
	for _, tp := range b {
		set[tp] = struct{}{}
	}

	out := make([]kafka.TopicPartition, 0, len(a))
	for _, tp := range a {
		if _, ok := set[tp]; ok {
			out = append(out, tp)
		}
	}

	return out
}

func subtract(a, b []kafka.TopicPartition) []kafka.TopicPartition {
	set := make(map[kafka.TopicPartition]struct{}, len(b))
	for _, tp := range b {
		set[tp] = struct{}{}
	}

	out := make([]kafka.TopicPartition, 0, len(a))
	for _, tp := range a {
		if _, ok := set[tp]; !ok {
			out = append(out, tp)
		}
	}

	return out
}
