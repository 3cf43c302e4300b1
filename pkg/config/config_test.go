package config_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/config"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/filter"
	"github.com/aretw0/parley/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routing = `
entry: MainState
filters:
  - id: requireUser
    type: require_key
    params:
      key: user
      redirect: {state: LoginState, intent: loginIntent}
  - id: audit
    type: log
    params:
      message: audited
      level: info
  - id: closed
    type: deny
    params:
      message: "<speak>We are closed.</speak>"
  - id: toHelp
    type: redirect
    params:
      state: MainState
      intent: helpIntent
      args: []
states:
  MainState:
    filters: [requireUser]
    intents:
      helloIntent:
        filters: [audit]
        reply: "Hello again!"
      orderIntent:
        filters: [closed]
        reply: "Ordering."
      lostIntent:
        filters: [toHelp]
      helpIntent:
        reply: "How can I help?"
      byeIntent:
        reply: "Bye!"
        end: true
        unset: [user]
  LoginState:
    intents:
      loginIntent:
        set: {user: alice}
        reply: "Welcome!"
        transition: MainState
`

type harness struct {
	machine *runtime.Machine
	store   *session.Store
	reply   *domain.Reply
	ctx     context.Context
	logs    *bytes.Buffer
}

func newHarness(t *testing.T, src string) *harness {
	t.Helper()
	f, err := config.Parse([]byte(src), "yaml")
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	cat, reg, err := config.Build(f, config.WithLogger(logger))
	require.NoError(t, err)

	h := &harness{
		store: session.NewStore(nil, nil),
		reply: &domain.Reply{},
		logs:  logs,
	}
	h.ctx = domain.WithReply(session.NewContext(context.Background(), h.store), h.reply)
	h.machine = runtime.NewMachine(cat, runtime.WithPipeline(
		filter.NewPipeline(filter.NewMatcher(cat.Table(), reg, logger)),
	))
	require.NoError(t, h.machine.TransitionTo(h.ctx, cat.Entry()))
	return h
}

func TestBuild_RequireKeyRedirectsToLogin(t *testing.T) {
	h := newHarness(t, routing)

	require.NoError(t, h.machine.HandleIntent(h.ctx, "helloIntent"))
	assert.Equal(t, "Welcome!", h.reply.Text())
	assert.Equal(t, "MainState", h.machine.CurrentState())

	user, ok, err := h.store.Get(h.ctx, "user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice", user)
}

func TestBuild_LoggedInFlow(t *testing.T) {
	h := newHarness(t, routing)
	require.NoError(t, h.store.Set(h.ctx, "user", "bob"))

	require.NoError(t, h.machine.HandleIntent(h.ctx, "helloIntent"))
	assert.Equal(t, "Hello again!", h.reply.Text())
	assert.Contains(t, h.logs.String(), "msg=audited")
	assert.Contains(t, h.logs.String(), "intent=helloIntent")

	require.NoError(t, h.machine.HandleIntent(h.ctx, "byeIntent"))
	assert.True(t, h.reply.EndSession)
	_, ok, err := h.store.Get(h.ctx, "user")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuild_DenyBlocks(t *testing.T) {
	h := newHarness(t, routing)
	require.NoError(t, h.store.Set(h.ctx, "user", "bob"))

	require.NoError(t, h.machine.HandleIntent(h.ctx, "orderIntent"))
	require.Len(t, h.reply.Messages, 1)
	assert.Equal(t, "<speak>We are closed.</speak>", h.reply.Messages[0].Text)
	assert.True(t, h.reply.Messages[0].SSML)
	assert.False(t, h.reply.EndSession)
}

func TestBuild_RedirectFilter(t *testing.T) {
	h := newHarness(t, routing)
	require.NoError(t, h.store.Set(h.ctx, "user", "bob"))

	require.NoError(t, h.machine.HandleIntent(h.ctx, "lostIntent", "ignored"))
	assert.Equal(t, "How can I help?", h.reply.Text())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "missing entry",
			src:  "entry: Nope\nstates:\n  A:\n    intents:\n      x: {reply: hi}\n",
			want: []string{`entry state "Nope" is not declared`},
		},
		{
			name: "default entry missing",
			src:  "states:\n  A: {}\n",
			want: []string{`entry state "MainState" is not declared`},
		},
		{
			name: "no states",
			src:  "entry: A\n",
			want: []string{"no states declared"},
		},
		{
			name: "unknown filter references",
			src: `
states:
  MainState:
    filters: [ghost]
    intents:
      x: {filters: [phantom]}
`,
			want: []string{`state "MainState" references unknown filter "ghost"`, `intent MainState/x references unknown filter "phantom"`},
		},
		{
			name: "bad filters",
			src: `
filters:
  - id: a
    type: teleport
  - id: b
    type: redirect
    params: {state: MainState, intent: nowhere}
  - id: b
    type: deny
  - type: deny
  - id: c
    type: log
    params: {level: loud}
  - id: d
    type: require_key
    params: {redirect: {state: MainState, intent: x}}
  - id: e
    type: deny
    params: {colour: red}
states:
  MainState:
    intents:
      x: {transition: Elsewhere}
`,
			want: []string{
				`unknown type "teleport"`,
				`filter "b" redirects to unknown intent MainState/nowhere`,
				`filter "b" declared twice`,
				`filters[3]: missing id`,
				`invalid level "loud"`,
				`filter "d": missing key`,
				`filter "e": invalid params`,
				`intent MainState/x transitions to unknown state "Elsewhere"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := config.Parse([]byte(tt.src), "yaml")
			require.NoError(t, err)

			err = config.Validate(f)
			require.ErrorIs(t, err, config.ErrInvalid)
			for _, want := range tt.want {
				assert.ErrorContains(t, err, want)
			}

			_, _, err = config.Build(f)
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func TestLoad_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "routes.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"entry":"A","states":{"A":{"intents":{"x":{"reply":"hi"}}}}}`), 0644))
	f, err := config.Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "A", f.EntryState())
	assert.Equal(t, "hi", f.States["A"].Intents["x"].Reply)
	assert.NoError(t, config.Validate(f))

	yamlPath := filepath.Join(dir, "routes.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(routing), 0644))
	f, err = config.Load(yamlPath)
	require.NoError(t, err)
	fc, ok := f.Filter("requireUser")
	require.True(t, ok)
	assert.Equal(t, config.TypeRequireKey, fc.Type)

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = config.Parse([]byte("{"), "json")
	assert.Error(t, err)
	_, err = config.Parse([]byte("a: b"), "toml")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestBuild_SharedRegistry(t *testing.T) {
	reg := filter.NewRegistry()
	f, err := config.Parse([]byte(routing), "yaml")
	require.NoError(t, err)

	_, got, err := config.Build(f, config.WithRegistry(reg))
	require.NoError(t, err)
	assert.Same(t, reg, got)
	assert.Equal(t, []string{"audit", "closed", "requireUser", "toHelp"}, reg.IDs())
	assert.Equal(t, []string{"deny", "log", "redirect", "require_key"}, config.FilterTypes())
}
