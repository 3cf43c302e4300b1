package session_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filledExtraction() *session.Carrier {
	return session.NewCarrier(`{ "key": "value" }`)
}

func nestedJSON(t *testing.T) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"array": []any{map[string]any{"nested": "nestedValue"}}})
	require.NoError(t, err)
	return string(raw)
}

func TestStore_NoCarriersSet(t *testing.T) {
	ctx := context.Background()
	handler := &session.Carrier{}
	s := session.NewStore(&session.Carrier{}, handler)

	exists, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	_, ok, err := s.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, handler.IsSet(), "reading must not write the handler carrier")
}

func TestStore_NilExtraction(t *testing.T) {
	s := session.NewStore(nil, &session.Carrier{})
	exists, err := s.Exists(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_ExtractionOnly(t *testing.T) {
	ctx := context.Background()
	extraction := filledExtraction()
	handler := &session.Carrier{}
	s := session.NewStore(extraction, handler)

	v, ok, err := s.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	exists, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.False(t, handler.IsSet(), "reading extraction data must not copy it to the handler")
}

func TestStore_NestedJSONStaysString(t *testing.T) {
	ctx := context.Background()
	nested := nestedJSON(t)
	encoded, err := json.Marshal(map[string]string{"key": nested})
	require.NoError(t, err)

	t.Run("from extraction", func(t *testing.T) {
		s := session.NewStore(session.NewCarrier(string(encoded)), &session.Carrier{})
		v, ok, err := s.Get(ctx, "key")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, nested, v)
	})

	t.Run("from handler", func(t *testing.T) {
		s := session.NewStore(nil, session.NewCarrier(string(encoded)))
		v, _, err := s.Get(ctx, "key")
		require.NoError(t, err)
		assert.Equal(t, nested, v)
	})

	t.Run("after set", func(t *testing.T) {
		s := session.NewStore(nil, &session.Carrier{})
		require.NoError(t, s.Set(ctx, "deep", `{"a":{"b":["c",{"d":"e"}]}}`))
		v, _, err := s.Get(ctx, "deep")
		require.NoError(t, err)
		assert.Equal(t, `{"a":{"b":["c",{"d":"e"}]}}`, v)
	})
}

func TestStore_HandlerWins(t *testing.T) {
	ctx := context.Background()

	t.Run("without extraction", func(t *testing.T) {
		extraction := &session.Carrier{}
		s := session.NewStore(extraction, session.NewCarrier(`{ "handlerKey": "handlerValue" }`))

		v, _, err := s.Get(ctx, "handlerKey")
		require.NoError(t, err)
		assert.Equal(t, "handlerValue", v)
		assert.False(t, extraction.IsSet())
	})

	t.Run("with extraction", func(t *testing.T) {
		extraction := filledExtraction()
		s := session.NewStore(extraction, session.NewCarrier(`{ "handlerKey": "handlerValue" }`))

		v, _, err := s.Get(ctx, "handlerKey")
		require.NoError(t, err)
		assert.Equal(t, "handlerValue", v)

		_, ok, err := s.Get(ctx, "key")
		require.NoError(t, err)
		assert.False(t, ok, "extraction must be ignored once the handler is set")
		assert.Equal(t, `{ "key": "value" }`, extraction.Value())
	})

	t.Run("empty handler still wins", func(t *testing.T) {
		s := session.NewStore(filledExtraction(), session.NewCarrier("{}"))
		exists, err := s.Exists(ctx)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestStore_SharedCarriers(t *testing.T) {
	ctx := context.Background()
	extraction := filledExtraction()
	handler := &session.Carrier{}

	concurrent := session.NewStore(extraction, handler)
	s := session.NewStore(extraction, handler)

	require.NoError(t, s.Set(ctx, "test", "test"))

	fresh := session.NewStore(extraction, handler)
	v, _, err := fresh.Get(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, "test", v)

	v, _, err = concurrent.Get(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, "test", v)

	require.NoError(t, concurrent.Delete(ctx, "test"))
	_, ok, err := s.Get(ctx, "test")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Get(t *testing.T) {
	ctx := context.Background()
	s := session.NewStore(filledExtraction(), &session.Carrier{})

	v, ok, err := s.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	_, ok, err = s.Get(ctx, "key2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Set(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		s := session.NewStore(&session.Carrier{}, &session.Carrier{})
		require.NoError(t, s.Set(ctx, "test", "test"))
		v, _, err := s.Get(ctx, "test")
		require.NoError(t, err)
		assert.Equal(t, "test", v)
	})

	t.Run("filled store", func(t *testing.T) {
		extraction := filledExtraction()
		handler := &session.Carrier{}
		s := session.NewStore(extraction, handler)

		require.NoError(t, s.Set(ctx, "test", "test"))
		all, err := s.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"key": "value", "test": "test"}, all)
	})

	t.Run("overwrite touches handler", func(t *testing.T) {
		extraction := filledExtraction()
		handler := &session.Carrier{}
		s := session.NewStore(extraction, handler)

		require.NoError(t, s.Set(ctx, "key", "v2"))
		v, _, err := s.Get(ctx, "key")
		require.NoError(t, err)
		assert.Equal(t, "v2", v)
		assert.Equal(t, `{"key":"v2"}`, handler.Value())
		assert.Equal(t, `{ "key": "value" }`, extraction.Value())
	})

	t.Run("markup is not escaped", func(t *testing.T) {
		handler := &session.Carrier{}
		s := session.NewStore(nil, handler)
		require.NoError(t, s.Set(ctx, "ssml", "<speak>a & b</speak>"))
		assert.Equal(t, `{"ssml":"<speak>a & b</speak>"}`, handler.Value())
	})
}

func TestStore_SetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	pairs := map[string]string{
		"":             "empty key",
		"unicode":      "olá, 世界",
		"quotes":       `"quoted" \ backslash`,
		"newline":      "a\nb",
		"empty":        "",
		"json-array":   `[1,"2",{"3":null}]`,
		"json-literal": "null",
	}

	for k, v := range pairs {
		s := session.NewStore(nil, &session.Carrier{})
		require.NoError(t, s.Set(ctx, k, v))
		got, ok, err := s.Get(ctx, k)
		require.NoError(t, err)
		assert.True(t, ok, k)
		assert.Equal(t, v, got, k)
	}
}

func TestStore_SetRejectsInvalidUTF8(t *testing.T) {
	ctx := context.Background()

	t.Run("value", func(t *testing.T) {
		handler := &session.Carrier{}
		s := session.NewStore(filledExtraction(), handler)

		err := s.Set(ctx, "k", "a\xffb")
		assert.ErrorIs(t, err, domain.ErrInvalidSessionValue)
		assert.False(t, handler.IsSet())

		v, ok, err := s.Get(ctx, "key")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "value", v)
	})

	t.Run("key", func(t *testing.T) {
		s := session.NewStore(nil, &session.Carrier{})
		err := s.Set(ctx, "\xfe", "v")
		assert.ErrorIs(t, err, domain.ErrInvalidSessionValue)

		exists, err := s.Exists(ctx)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("only element", func(t *testing.T) {
		handler := &session.Carrier{}
		s := session.NewStore(filledExtraction(), handler)

		require.NoError(t, s.Delete(ctx, "key"))
		_, ok, err := s.Get(ctx, "key")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, "{}", handler.Value())
	})

	t.Run("keeps other elements", func(t *testing.T) {
		s := session.NewStore(filledExtraction(), &session.Carrier{})
		require.NoError(t, s.Set(ctx, "key2", "val2"))

		require.NoError(t, s.Delete(ctx, "key"))
		_, ok, err := s.Get(ctx, "key")
		require.NoError(t, err)
		assert.False(t, ok)

		v, _, err := s.Get(ctx, "key2")
		require.NoError(t, err)
		assert.Equal(t, "val2", v)
	})

	t.Run("missing key", func(t *testing.T) {
		handler := &session.Carrier{}
		s := session.NewStore(filledExtraction(), handler)
		require.NoError(t, s.Delete(ctx, "nope"))
		assert.Equal(t, `{"key":"value"}`, handler.Value())
	})
}

func TestStore_DeleteAllFields(t *testing.T) {
	ctx := context.Background()
	handler := session.NewCarrier(`{"a":"b"}`)
	s := session.NewStore(filledExtraction(), handler)

	require.NoError(t, s.DeleteAllFields(ctx))
	assert.Equal(t, "{}", handler.Value())

	exists, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_Malformed(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":       "{oops",
		"array":          `["a"]`,
		"non-string val": `{"a":1}`,
		"null":           "null",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			s := session.NewStore(session.NewCarrier(raw), &session.Carrier{})
			_, _, err := s.Get(ctx, "a")
			assert.ErrorIs(t, err, domain.ErrMalformedSession)

			err = s.Set(ctx, "a", "b")
			assert.ErrorIs(t, err, domain.ErrMalformedSession)
		})
	}
}

func TestContext(t *testing.T) {
	_, ok := session.FromContext(context.Background())
	assert.False(t, ok)

	s := session.NewStore(nil, nil)
	got, ok := session.FromContext(session.NewContext(context.Background(), s))
	assert.True(t, ok)
	assert.Same(t, s, got)
}
