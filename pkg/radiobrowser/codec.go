package radiobrowser

import "encoding/json"

// Codec encodes request payloads and decodes response bodies.
// Implementations must be safe for concurrent use once constructed.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec uses encoding/json. Field names come from struct tags, which map
// the API's snake_case keys; time.Time fields accept ISO-8601 strings.
type JSONCodec struct{}

// Marshal encodes v, reporting failures as *EncodeError.
func (JSONCodec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, &EncodeError{Err: err}
	}
	return b, nil
}

// Unmarshal decodes data into v, reporting failures as *DecodeError.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}
