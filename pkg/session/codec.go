package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/aretw0/parley/pkg/domain"
)

// Codec converts between the decoded session map and its carrier representation.
type Codec interface {
	Encode(ctx context.Context, data map[string]string) (string, error)
	Decode(ctx context.Context, encoded string) (map[string]string, error)
}

// JSONCodec encodes sessions as a flat JSON object of string values.
// Keys are written in sorted order, so equal maps always encode identically.
type JSONCodec struct{}

// Encode implements Codec.
func (JSONCodec) Encode(_ context.Context, data map[string]string) (string, error) {
	if data == nil {
		data = map[string]string{}
	}
	for k, v := range data {
		if !utf8.ValidString(k) {
			return "", fmt.Errorf("%w: key %q", domain.ErrInvalidSessionValue, k)
		}
		if !utf8.ValidString(v) {
			return "", fmt.Errorf("%w: value of key %q", domain.ErrInvalidSessionValue, k)
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// Decode implements Codec. Anything but an object of strings is ErrMalformedSession.
func (JSONCodec) Decode(_ context.Context, encoded string) (map[string]string, error) {
	var data map[string]string
	if err := json.Unmarshal([]byte(encoded), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedSession, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: not an object", domain.ErrMalformedSession)
	}
	return data, nil
}
