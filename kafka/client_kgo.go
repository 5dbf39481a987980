package kafka

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/hugolhafner/go-consumer/logger"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"
)

var _ Client = (*KgoClient)(nil)

var (
	ErrAlreadySubscribed = errors.New("kafka: already subscribed")
	ErrNotSubscribed     = errors.New("kafka: not subscribed")
)

type KgoClientConfig struct {
	BootstrapServers  []string
	GroupID           string
	SessionTimeout    time.Duration
	HeartbeatInterval time.Duration

	Logger logger.Logger
}

func defaultConfig() KgoClientConfig {
	return KgoClientConfig{
		BootstrapServers:  []string{"localhost:9092"},
		GroupID:           "default-group",
		SessionTimeout:    45 * time.Second,
		HeartbeatInterval: 3 * time.Second,
		Logger:            logger.NewNoopLogger(),
	}
}

type KgoOption func(*KgoClientConfig)

func WithBootstrapServers(servers []string) KgoOption {
	return func(cfg *KgoClientConfig) {
		cfg.BootstrapServers = servers
	}
}

func WithGroupID(id string) KgoOption {
	return func(cfg *KgoClientConfig) {
		cfg.GroupID = id
	}
}

func WithSessionTimeout(d time.Duration) KgoOption {
	return func(cfg *KgoClientConfig) {
		cfg.SessionTimeout = d
	}
}

func WithHeartbeatInterval(d time.Duration) KgoOption {
	return func(cfg *KgoClientConfig) {
		cfg.HeartbeatInterval = d
	}
}

func WithLogger(l logger.Logger) KgoOption {
	return func(cfg *KgoClientConfig) {
		cfg.Logger = l.With("client", "kgo")
	}
}

// KgoClient implements Client over franz-go. The underlying kgo.Client is
// created lazily on first subscribe because regex consumption is a
// construction-time option in kgo.
//
// Rebalances are blocked outside of Poll (kgo.BlockRebalanceOnPoll), so the
// registered RebalanceListener only ever runs on the thread calling Poll.
// KgoClient is not safe for concurrent use; it inherits the Client contract.
type KgoClient struct {
	config KgoClientConfig

	client   *kgo.Client
	listener RebalanceListener
	assigned map[TopicPartition]struct{}

	logger logger.Logger
}

func NewKgoClient(opts ...KgoOption) (*KgoClient, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(cfg.BootstrapServers) == 0 {
		return nil, errors.New("kafka: no bootstrap servers configured")
	}
	if cfg.GroupID == "" {
		return nil, errors.New("kafka: empty group id")
	}

	return &KgoClient{
		config:   cfg,
		assigned: make(map[TopicPartition]struct{}),
		logger:   cfg.Logger,
	}, nil
}

func (k *KgoClient) Subscribe(topics []string, listener RebalanceListener) error {
	return k.subscribe(listener, kgo.ConsumeTopics(topics...))
}

func (k *KgoClient) SubscribePattern(pattern *regexp.Regexp, listener RebalanceListener) error {
	return k.subscribe(listener, kgo.ConsumeTopics(pattern.String()), kgo.ConsumeRegex())
}

func (k *KgoClient) subscribe(listener RebalanceListener, consumeOpts ...kgo.Opt) error {
	if k.client != nil {
		return ErrAlreadySubscribed
	}

	kgoOpts := []kgo.Opt{
		kgo.SeedBrokers(k.config.BootstrapServers...),
		kgo.ConsumerGroup(k.config.GroupID),
		kgo.SessionTimeout(k.config.SessionTimeout),
		kgo.HeartbeatInterval(k.config.HeartbeatInterval),
		kgo.DisableAutoCommit(),
		kgo.BlockRebalanceOnPoll(),
		kgo.OnPartitionsAssigned(k.onAssigned),
		kgo.OnPartitionsRevoked(k.onRevoked),
		kgo.OnPartitionsLost(k.onRevoked),
		kgo.WithLogger(newKgoLogger(k.logger)),
	}
	kgoOpts = append(kgoOpts, consumeOpts...)

	client, err := kgo.NewClient(kgoOpts...)
	if err != nil {
		return fmt.Errorf("create kgo client: %w", err)
	}

	k.client = client
	k.listener = listener

	return nil
}

func (k *KgoClient) onAssigned(_ context.Context, _ *kgo.Client, assigned map[string][]int32) {
	partitions := mapToTopicPartitions(assigned)
	for _, tp := range partitions {
		k.assigned[tp] = struct{}{}
	}

	if k.listener != nil {
		k.listener.OnPartitionsAssigned(partitions)
	}
}

func (k *KgoClient) onRevoked(_ context.Context, _ *kgo.Client, revoked map[string][]int32) {
	partitions := mapToTopicPartitions(revoked)
	for _, tp := range partitions {
		delete(k.assigned, tp)
	}

	if k.listener != nil {
		k.listener.OnPartitionsRevoked(partitions)
	}
}

func (k *KgoClient) Assignment() []TopicPartition {
	partitions := make([]TopicPartition, 0, len(k.assigned))
	for tp := range k.assigned {
		partitions = append(partitions, tp)
	}

	return partitions
}

func (k *KgoClient) Pause(partitions []TopicPartition) {
	if k.client == nil {
		return
	}

	k.client.PauseFetchPartitions(topicPartitionsToMap(partitions))
}

func (k *KgoClient) Resume(partitions []TopicPartition) {
	if k.client == nil {
		return
	}

	k.client.ResumeFetchPartitions(topicPartitionsToMap(partitions))
}

func (k *KgoClient) Poll(ctx context.Context, timeout time.Duration) (Batch, error) {
	if k.client == nil {
		return Batch{}, ErrNotSubscribed
	}

	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		// A pre-cancelled context makes PollFetches return whatever is
		// already buffered without blocking.
		ctx, cancel = context.WithCancel(ctx)
		cancel()
	}
	defer cancel()

	fetches := k.client.PollFetches(ctx)

	// Release the rebalance block so the listener can run before the next
	// poll returns to the caller.
	k.client.AllowRebalance()

	if errs := fetches.Errors(); len(errs) > 0 {
		for _, err := range errs {
			if !errors.Is(err.Err, context.DeadlineExceeded) && !errors.Is(err.Err, context.Canceled) {
				return Batch{}, fmt.Errorf("poll: %w", err.Err)
			}
		}
	}

	return NewBatch(convertRecords(fetches.Records())), nil
}

func (k *KgoClient) CommitAsync(offsets map[TopicPartition]Offset, cb CommitCallback) {
	if k.client == nil {
		cb(offsets, ErrNotSubscribed)
		return
	}

	toCommit := make(map[string]map[int32]kgo.EpochOffset)
	for tp, offset := range offsets {
		if _, ok := toCommit[tp.Topic]; !ok {
			toCommit[tp.Topic] = make(map[int32]kgo.EpochOffset)
		}

		toCommit[tp.Topic][tp.Partition] = kgo.EpochOffset{
			Offset: offset.Offset,
			Epoch:  offset.LeaderEpoch,
		}
	}

	onDone := func(_ *kgo.Client, _ *kmsg.OffsetCommitRequest, resp *kmsg.OffsetCommitResponse, err error) {
		if err == nil {
			err = firstCommitError(resp)
		}

		cb(offsets, err)
	}

	k.client.CommitOffsets(context.Background(), toCommit, onDone)
}

func (k *KgoClient) Close() error {
	if k.client == nil {
		return nil
	}

	k.client.Close()

	return nil
}

func firstCommitError(resp *kmsg.OffsetCommitResponse) error {
	if resp == nil {
		return nil
	}

	for _, topic := range resp.Topics {
		for _, partition := range topic.Partitions {
			if err := kerr.ErrorForCode(partition.ErrorCode); err != nil {
				return fmt.Errorf("commit %s-%d: %w", topic.Topic, partition.Partition, err)
			}
		}
	}

	return nil
}

func convertRecords(records []*kgo.Record) []ConsumerRecord {
	converted := make([]ConsumerRecord, len(records))
	for i, r := range records {
		converted[i] = ConsumerRecord{
			Topic:       r.Topic,
			Partition:   r.Partition,
			Offset:      r.Offset,
			Key:         r.Key,
			Value:       r.Value,
			Headers:     convertFromKgoHeaders(r.Headers),
			Timestamp:   r.Timestamp,
			LeaderEpoch: r.LeaderEpoch,
		}
	}

	return converted
}

func convertFromKgoHeaders(headers []kgo.RecordHeader) []Header {
	converted := make([]Header, len(headers))
	for i, h := range headers {
		converted[i] = Header{Key: h.Key, Value: h.Value}
	}

	return converted
}

func mapToTopicPartitions(m map[string][]int32) []TopicPartition {
	var tps []TopicPartition
	for topic, partitions := range m {
		for _, partition := range partitions {
			tps = append(tps, TopicPartition{
				Topic:     topic,
				Partition: partition,
			})
		}
	}

	return tps
}

func topicPartitionsToMap(tps []TopicPartition) map[string][]int32 {
	m := make(map[string][]int32)
	for _, tp := range tps {
		m[tp.Topic] = append(m[tp.Topic], tp.Partition)
	}

	return m
}
