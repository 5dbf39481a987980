package otel

import (
	"go.opentelemetry.io/otel/attribute"
)

const (
	AttrTopic          = attribute.Key("messaging.destination.name")
	AttrPartition      = attribute.Key("messaging.kafka.partition")
	AttrPollStatus     = attribute.Key("consumer.poll.status")
	AttrCommitStatus   = attribute.Key("consumer.commit.status")
	AttrRecoveryAction = attribute.Key("consumer.commit_recovery.action")
)

// Poll and commit status values
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusTimeout = "timeout"
	StatusError   = "error"
)
