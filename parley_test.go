package parley_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsl"
	"github.com/aretw0/parley/pkg/filter"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireUser(ctx context.Context, state ports.State, stateName, intent string, args ...any) (domain.FilterResult, error) {
	s, ok := session.FromContext(ctx)
	if !ok {
		return domain.Block(), nil
	}
	if _, found, err := s.Get(ctx, "user"); err != nil || found {
		return domain.Continue(), err
	}
	return domain.RedirectTo("LoginState", "loginIntent"), nil
}

func login(ctx context.Context, m ports.Machine, args ...any) error {
	s, _ := session.FromContext(ctx)
	name := "guest"
	if len(args) > 0 {
		name = args[0].(string)
	}
	if err := s.Set(ctx, "user", name); err != nil {
		return err
	}
	domain.ReplyFromContext(ctx).Prompt("Welcome " + name + ".")
	return m.TransitionTo(ctx, "MainState")
}

func newEngine(t *testing.T, opts ...parley.Option) (*parley.Engine, *memory.Store) {
	t.Helper()

	b := dsl.New().Entry("MainState")
	b.State("MainState").
		Reply("helloIntent", "Hello!").
		Go("orderIntent", "OrderState", "requireUser")
	b.State("OrderState").
		Reply("confirmIntent", "<speak>Order confirmed.</speak>").
		End("byeIntent", "Goodbye.")
	b.State("LoginState").
		Intent("loginIntent", login)

	cat, err := b.Build()
	require.NoError(t, err)

	reg := filter.NewRegistry()
	reg.RegisterFunc("requireUser", requireUser)

	store := memory.NewStore()
	eng, err := parley.New(cat, append([]parley.Option{parley.WithRegistry(reg), parley.WithStore(store)}, opts...)...)
	require.NoError(t, err)
	return eng, store
}

func TestEngine_Conversation(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()

	resp, err := eng.Handle(ctx, parley.Request{SessionID: "s1", Intent: "orderIntent", Args: []any{"alice"}})
	require.NoError(t, err)
	assert.Equal(t, "Welcome alice.", resp.Text())
	assert.Equal(t, "MainState", resp.State)

	data, err := eng.Session(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"user": "alice"}, data, "state stayed at entry, so no state key is written")

	resp, err = eng.Handle(ctx, parley.Request{SessionID: "s1", Intent: "orderIntent"})
	require.NoError(t, err)
	assert.Equal(t, "OrderState", resp.State)
	assert.Empty(t, resp.Replies)

	raw, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, `{"__current_state":"OrderState","user":"alice"}`, raw)

	resp, err = eng.Handle(ctx, parley.Request{SessionID: "s1", Intent: "confirmIntent"})
	require.NoError(t, err)
	require.Len(t, resp.Replies, 1)
	assert.True(t, resp.Replies[0].SSML)
	assert.False(t, resp.EndSession)

	resp, err = eng.Handle(ctx, parley.Request{SessionID: "s1", Intent: "byeIntent"})
	require.NoError(t, err)
	assert.True(t, resp.EndSession)
	assert.Equal(t, "Goodbye.", resp.Text())

	ids, err := eng.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids, "ending the conversation clears the session")
}

func TestEngine_ReadOnlyRequestDoesNotPersist(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()

	resp, err := eng.Handle(ctx, parley.Request{SessionID: "s1", Intent: "helloIntent"})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", resp.Text())

	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_NewSession(t *testing.T) {
	eng, _ := newEngine(t)

	resp, err := eng.Handle(context.Background(), parley.Request{Intent: "helloIntent"})
	require.NoError(t, err)
	assert.Len(t, resp.SessionID, 36)
	assert.NotEqual(t, eng.NewSessionID(), eng.NewSessionID())
}

func TestEngine_Errors(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()

	_, err := eng.Handle(ctx, parley.Request{SessionID: "s1"})
	assert.ErrorIs(t, err, parley.ErrNoIntent)

	require.NoError(t, store.Save(ctx, "s2", `{"user":"bob"}`))
	_, err = eng.Handle(ctx, parley.Request{SessionID: "s2", Intent: "danceIntent"})
	assert.ErrorIs(t, err, domain.ErrIntentNotFound)

	raw, err := store.Load(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, `{"user":"bob"}`, raw, "a failed request persists nothing")

	require.NoError(t, store.Save(ctx, "s3", `{"__current_state":"GoneState"}`))
	_, err = eng.Handle(ctx, parley.Request{SessionID: "s3", Intent: "helloIntent"})
	assert.ErrorIs(t, err, domain.ErrStateNotFound)

	require.NoError(t, store.Save(ctx, "s4", `not json`))
	_, err = eng.Handle(ctx, parley.Request{SessionID: "s4", Intent: "helloIntent"})
	assert.ErrorIs(t, err, domain.ErrMalformedSession)

	_, err = parley.New(nil)
	assert.Error(t, err)
}

func TestEngine_HooksAndDefaults(t *testing.T) {
	var filters []string
	var transitions []string
	eng, _ := newEngine(t, parley.WithLifecycleHooks(domain.LifecycleHooks{
		OnFilter: func(ctx context.Context, e *domain.FilterEvent) {
			filters = append(filters, e.Filter+"="+e.Result.String())
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			transitions = append(transitions, e.To)
		},
	}))
	ctx := context.Background()

	_, err := eng.Handle(ctx, parley.Request{SessionID: "s1", Intent: "orderIntent"})
	require.NoError(t, err)

	assert.Equal(t, []string{"requireUser=redirect"}, filters)
	assert.Equal(t, []string{"LoginState", "MainState"}, transitions)
	assert.Equal(t, "MainState", eng.Entry())
	assert.Equal(t, []string{"requireUser"}, eng.Registry().IDs())
	assert.NotNil(t, eng.Provider())
}

func TestEngine_SharedManager(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store)

	b := dsl.New()
	b.State("MainState").Go("nextIntent", "NextState")
	b.State("NextState").Reply("x", "x")
	cat, err := b.Build()
	require.NoError(t, err)

	eng, err := parley.New(cat, parley.WithManager(mgr), parley.WithStore(memory.NewStore()))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = eng.Handle(ctx, parley.Request{SessionID: "s1", Intent: "nextIntent"})
	require.NoError(t, err)

	raw, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, `{"__current_state":"NextState"}`, raw)

	require.NoError(t, eng.EndSession(ctx, "s1"))
	_, err = eng.Session(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRunner(t *testing.T) {
	eng, _ := newEngine(t)
	in := strings.NewReader("helloIntent\n\ndanceIntent\norderIntent bob\norderIntent\nbyeIntent\nhelloIntent\n")
	out := &bytes.Buffer{}

	r := parley.NewRunner(in, out)
	r.Headless = true
	r.SessionID = "cli"
	require.NoError(t, r.Run(context.Background(), eng))

	assert.Equal(t, strings.Join([]string{
		"Hello!",
		`unknown intent "danceIntent"`,
		"Welcome bob.",
		"Goodbye.",
	}, "\n")+"\n", out.String())
}
