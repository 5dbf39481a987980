package serde

import (
	"encoding/binary"
	"fmt"
)

// Int64 encodes values as 8 big-endian bytes, matching the layout of numeric
// Kafka record keys.
func Int64() Serde[int64] {
	return FromFuncs(
		func(_ string, value int64) ([]byte, error) {
			return binary.BigEndian.AppendUint64(nil, uint64(value)), nil
		},
		func(topic string, data []byte) (int64, error) {
			if len(data) != 8 {
				return 0, fmt.Errorf("serde: int64 for %s requires 8 bytes, got %d", topic, len(data))
			}

			return int64(binary.BigEndian.Uint64(data)), nil
		},
	)
}
