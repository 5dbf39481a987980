package serde

// String treats values as raw UTF-8 bytes.
func String() Serde[string] {
	return FromFuncs(
		func(_ string, value string) ([]byte, error) {
			return []byte(value), nil
		},
		func(_ string, data []byte) (string, error) {
			return string(data), nil
		},
	)
}

// Bytes passes record payloads through untouched.
func Bytes() Serde[[]byte] {
	return FromFuncs(
		func(_ string, value []byte) ([]byte, error) {
			return value, nil
		},
		func(_ string, data []byte) ([]byte, error) {
			return data, nil
		},
	)
}
