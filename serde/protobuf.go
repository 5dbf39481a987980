package serde

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Protobuf encodes proto.Message values with the binary wire format. T must
// be a pointer message type; deserialisation allocates a fresh message per
// record.
func Protobuf[T proto.Message]() Serde[T] {
	return FromFuncs(
		func(topic string, value T) ([]byte, error) {
			data, err := proto.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("serde: protobuf serialise for %s: %w", topic, err)
			}

			return data, nil
		},
		func(topic string, data []byte) (T, error) {
			var zero T
			msg := zero.ProtoReflect().New().Interface().(T)
			if err := proto.Unmarshal(data, msg); err != nil {
				return zero, fmt.Errorf("serde: protobuf deserialise for %s: %w", topic, err)
			}

			return msg, nil
		},
	)
}
