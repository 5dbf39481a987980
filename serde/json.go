package serde

import (
	"encoding/json"
	"fmt"
)

// JSON encodes values with encoding/json. Errors name the topic so a failure
// in a multi-topic stream is attributable.
func JSON[T any]() Serde[T] {
	return FromFuncs(
		func(topic string, value T) ([]byte, error) {
			data, err := json.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("serde: json serialise for %s: %w", topic, err)
			}

			return data, nil
		},
		func(topic string, data []byte) (T, error) {
			var value T
			if err := json.Unmarshal(data, &value); err != nil {
				return value, fmt.Errorf("serde: json deserialise for %s: %w", topic, err)
			}

			return value, nil
		},
	)
}
