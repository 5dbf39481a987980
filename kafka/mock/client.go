package mockkafka

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"sync"
	"time"

	"github.com/hugolhafner/go-consumer/kafka"
)

var _ kafka.Client = (*Client)(nil)

// PollStep scripts the outcome of a single Poll call. Before, when set, runs
// inside Poll before the result is returned, which is how tests exercise
// rebalance callbacks firing on the polling thread.
type PollStep struct {
	Before  func()
	Records []kafka.ConsumerRecord
	Err     error
}

// CommitCall captures one CommitAsync invocation.
type CommitCall struct {
	Offsets  map[kafka.TopicPartition]kafka.Offset
	Callback kafka.CommitCallback
}

// Client is an in-memory stand-in for the broker handle. Poll outcomes are
// scripted with EnqueuePoll*; rebalances are simulated with TriggerAssign and
// TriggerRevoke (normally from inside a PollStep.Before hook, mirroring the
// real client running listener callbacks within the poll).
//
// The mutex exists so test goroutines can inspect state while the actor runs;
// the Client methods themselves follow the single-caller contract of
// kafka.Client.
type Client struct {
	mu sync.Mutex

	subscriptions []string
	pattern       *regexp.Regexp
	listener      kafka.RebalanceListener
	subscribeErr  error

	assigned map[kafka.TopicPartition]struct{}
	paused   map[kafka.TopicPartition]struct{}

	pollQueue    []PollStep
	pollTimeouts []time.Duration

	commits        []CommitCall
	pendingCommits []CommitCall
	manualCommits  bool
	commitErr      error

	calls  []string
	closed bool
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		assigned: make(map[kafka.TopicPartition]struct{}),
		paused:   make(map[kafka.TopicPartition]struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Subscribe(topics []string, listener kafka.RebalanceListener) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.record("subscribe %v", topics)

	if c.subscribeErr != nil {
		return c.subscribeErr
	}

	c.subscriptions = append(c.subscriptions, topics...)
	c.listener = listener

	return nil
}

func (c *Client) SubscribePattern(pattern *regexp.Regexp, listener kafka.RebalanceListener) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.record("subscribe-pattern %s", pattern)

	if c.subscribeErr != nil {
		return c.subscribeErr
	}

	c.pattern = pattern
	c.listener = listener

	return nil
}

func (c *Client) Assignment() []kafka.TopicPartition {
	c.mu.Lock()
	defer c.mu.Unlock()

	return sortedPartitions(c.assigned)
}

func (c *Client) Pause(partitions []kafka.TopicPartition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.record("pause %v", sorted(partitions))
	for _, tp := range partitions {
		c.paused[tp] = struct{}{}
	}
}

func (c *Client) Resume(partitions []kafka.TopicPartition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.record("resume %v", sorted(partitions))
	for _, tp := range partitions {
		delete(c.paused, tp)
	}
}

func (c *Client) Poll(ctx context.Context, timeout time.Duration) (kafka.Batch, error) {
	c.mu.Lock()
	c.record("poll %s", timeout)
	c.pollTimeouts = append(c.pollTimeouts, timeout)

	var step PollStep
	if len(c.pollQueue) > 0 {
		step = c.pollQueue[0]
		c.pollQueue = c.pollQueue[1:]
	}
	c.mu.Unlock()

	if step.Before != nil {
		step.Before()
	}

	if step.Err != nil {
		return kafka.Batch{}, step.Err
	}

	return kafka.NewBatch(step.Records), nil
}

func (c *Client) CommitAsync(offsets map[kafka.TopicPartition]kafka.Offset, cb kafka.CommitCallback) {
	c.mu.Lock()

	c.record("commit %d", len(offsets))
	call := CommitCall{Offsets: offsets, Callback: cb}
	c.commits = append(c.commits, call)

	if c.manualCommits {
		c.pendingCommits = append(c.pendingCommits, call)
		c.mu.Unlock()
		return
	}

	err := c.commitErr
	c.mu.Unlock()

	cb(offsets, err)
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.record("close")
	c.closed = true

	return nil
}

// TriggerAssign simulates the group coordinator assigning partitions. The
// registered listener runs inline, on the calling goroutine.
func (c *Client) TriggerAssign(partitions ...kafka.TopicPartition) {
	c.mu.Lock()
	for _, tp := range partitions {
		c.assigned[tp] = struct{}{}
	}
	listener := c.listener
	c.mu.Unlock()

	if listener != nil {
		listener.OnPartitionsAssigned(partitions)
	}
}

// TriggerRevoke simulates the group coordinator revoking partitions.
func (c *Client) TriggerRevoke(partitions ...kafka.TopicPartition) {
	c.mu.Lock()
	for _, tp := range partitions {
		delete(c.assigned, tp)
		delete(c.paused, tp)
	}
	listener := c.listener
	c.mu.Unlock()

	if listener != nil {
		listener.OnPartitionsRevoked(partitions)
	}
}

// SetAssigned replaces the assignment without running the listener. Useful to
// seed state before the actor starts polling.
func (c *Client) SetAssigned(partitions ...kafka.TopicPartition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.assigned = make(map[kafka.TopicPartition]struct{}, len(partitions))
	for _, tp := range partitions {
		c.assigned[tp] = struct{}{}
	}
}

// EnqueuePoll scripts the next Poll to return the given records.
func (c *Client) EnqueuePoll(records ...kafka.ConsumerRecord) {
	c.EnqueuePollStep(PollStep{Records: records})
}

// EnqueuePollErr scripts the next Poll to fail.
func (c *Client) EnqueuePollErr(err error) {
	c.EnqueuePollStep(PollStep{Err: err})
}

func (c *Client) EnqueuePollStep(step PollStep) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pollQueue = append(c.pollQueue, step)
}

// CompleteNextCommit fires the callback of the oldest pending commit. Only
// meaningful with WithManualCommits.
func (c *Client) CompleteNextCommit(err error) {
	c.mu.Lock()
	if len(c.pendingCommits) == 0 {
		c.mu.Unlock()
		panic("mockkafka: no pending commit to complete")
	}

	call := c.pendingCommits[0]
	c.pendingCommits = c.pendingCommits[1:]
	c.mu.Unlock()

	call.Callback(call.Offsets, err)
}

func (c *Client) SetSubscribeError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subscribeErr = err
}

func (c *Client) SetCommitError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.commitErr = err
}

func (c *Client) Subscriptions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.subscriptions)
}

func (c *Client) Pattern() *regexp.Regexp {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pattern
}

func (c *Client) PausedPartitions() []kafka.TopicPartition {
	c.mu.Lock()
	defer c.mu.Unlock()

	return sortedPartitions(c.paused)
}

func (c *Client) PollTimeouts() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.pollTimeouts)
}

func (c *Client) Commits() []CommitCall {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.commits)
}

func (c *Client) PendingCommitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pendingCommits)
}

// Calls returns the journal of handle invocations, in order.
func (c *Client) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.calls)
}

func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *Client) record(format string, args ...any) {
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func sorted(partitions []kafka.TopicPartition) []kafka.TopicPartition {
	out := slices.Clone(partitions)
	slices.SortFunc(out, kafka.TopicPartition.Compare)

	return out
}

func sortedPartitions(set map[kafka.TopicPartition]struct{}) []kafka.TopicPartition {
	partitions := make([]kafka.TopicPartition, 0, len(set))
	for tp := range set {
		partitions = append(partitions, tp)
	}

	slices.SortFunc(partitions, kafka.TopicPartition.Compare)

	return partitions
}
