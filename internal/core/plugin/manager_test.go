package plugin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sceneforge/sceneforge/internal/core/events/bus"
)

// fakePlugin records lifecycle calls into a shared journal.
type fakePlugin struct {
	id      string
	deps    []string
	initErr error

	journal *[]string
	inits   int
}

func (p *fakePlugin) ID() string             { return p.id }
func (p *fakePlugin) Name() string           { return "fake-" + p.id }
func (p *fakePlugin) Version() string        { return "0.1.0" }
func (p *fakePlugin) Dependencies() []string { return p.deps }

func (p *fakePlugin) Initialize(_ context.Context, _ *Context) error {
	if p.initErr != nil {
		return p.initErr
	}
	p.inits++
	*p.journal = append(*p.journal, "init:"+p.id)
	return nil
}

func (p *fakePlugin) Dispose(_ context.Context) error {
	*p.journal = append(*p.journal, "dispose:"+p.id)
	return nil
}

func newManager() (*Manager, *[]string) {
	journal := &[]string{}
	m := NewManager(&Context{Bus: bus.New()})
	return m, journal
}

func fake(journal *[]string, id string, deps ...string) *fakePlugin {
	return &fakePlugin{id: id, deps: deps, journal: journal}
}

func TestRegisterDuplicate(t *testing.T) {
	m, j := newManager()
	require.NoError(t, m.Register(fake(j, "a")))

	err := m.Register(fake(j, "a"))
	var dup DuplicateRegistrationError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.ID)
	assert.Equal(t, 1, m.Count())
}

func TestInitializeAllChainOrder(t *testing.T) {
	m, j := newManager()
	// registered dependents-first on purpose
	require.NoError(t, m.Register(fake(j, "a", "b")))
	require.NoError(t, m.Register(fake(j, "b", "c")))
	require.NoError(t, m.Register(fake(j, "c")))

	require.NoError(t, m.InitializeAll(context.Background()))
	assert.Equal(t, []string{"init:c", "init:b", "init:a"}, *j)
	assert.Equal(t, []string{"c", "b", "a"}, m.InitOrder())
	assert.Equal(t, 3, m.InitializedCount())

	*j = (*j)[:0]
	require.NoError(t, m.DisposeAll(context.Background()))
	assert.Equal(t, []string{"dispose:a", "dispose:b", "dispose:c"}, *j)
	assert.Equal(t, 0, m.InitializedCount())
}

func TestInitializeAllStableAmongReady(t *testing.T) {
	m, j := newManager()
	require.NoError(t, m.Register(fake(j, "x")))
	require.NoError(t, m.Register(fake(j, "y")))
	require.NoError(t, m.Register(fake(j, "z", "x")))

	require.NoError(t, m.InitializeAll(context.Background()))
	assert.Equal(t, []string{"x", "y", "z"}, m.InitOrder())
}

func TestInitializeIsIdempotent(t *testing.T) {
	m, j := newManager()
	p := fake(j, "a")
	require.NoError(t, m.Register(p))

	require.NoError(t, m.Initialize(context.Background(), "a"))
	require.NoError(t, m.Initialize(context.Background(), "a"))
	assert.Equal(t, 1, p.inits)
}

func TestCircularDependency(t *testing.T) {
	m, j := newManager()
	require.NoError(t, m.Register(fake(j, "a", "b")))
	require.NoError(t, m.Register(fake(j, "b", "a")))

	err := m.InitializeAll(context.Background())
	var cyc CircularDependencyError
	require.ErrorAs(t, err, &cyc)
	assert.Equal(t, []string{"a", "b", "a"}, cyc.Path)
	assert.Equal(t, 0, m.InitializedCount())
}

func TestSelfDependency(t *testing.T) {
	m, j := newManager()
	require.NoError(t, m.Register(fake(j, "a", "a")))

	err := m.Initialize(context.Background(), "a")
	var cyc CircularDependencyError
	require.ErrorAs(t, err, &cyc)
	assert.Equal(t, []string{"a", "a"}, cyc.Path)
}

func TestMissingDependency(t *testing.T) {
	m, j := newManager()
	require.NoError(t, m.Register(fake(j, "a", "ghost")))

	err := m.Initialize(context.Background(), "a")
	var dep PluginDependencyError
	require.ErrorAs(t, err, &dep)
	assert.Equal(t, "a", dep.PluginID)
	assert.Equal(t, "ghost", dep.Missing)
}

func TestInitializeAllAbortsWithoutRollback(t *testing.T) {
	m, j := newManager()
	boom := errors.New("boom")
	require.NoError(t, m.Register(fake(j, "ok")))
	bad := fake(j, "bad", "ok")
	bad.initErr = boom
	require.NoError(t, m.Register(bad))
	require.NoError(t, m.Register(fake(j, "never", "bad")))

	err := m.InitializeAll(context.Background())
	require.ErrorIs(t, err, boom)

	// no rollback: the dependency stays initialized, the rest never started
	assert.True(t, m.IsInitialized("ok"))
	assert.False(t, m.IsInitialized("bad"))
	assert.False(t, m.IsInitialized("never"))
}

func TestDisposeUninitializedIsNoOp(t *testing.T) {
	m, j := newManager()
	require.NoError(t, m.Register(fake(j, "a")))
	require.NoError(t, m.Dispose(context.Background(), "a"))
	assert.Empty(t, *j)
}

func TestDisposedDescriptorIsNeverReused(t *testing.T) {
	m, j := newManager()
	require.NoError(t, m.Register(fake(j, "a")))
	require.NoError(t, m.Initialize(context.Background(), "a"))
	require.NoError(t, m.Dispose(context.Background(), "a"))

	assert.ErrorIs(t, m.Initialize(context.Background(), "a"), ErrDescriptorDisposed)

	// unregister frees the id for a fresh instance
	ok, err := m.Unregister(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, m.Register(fake(j, "a")))
	require.NoError(t, m.Initialize(context.Background(), "a"))
}

func TestUnregisterDisposesInitialized(t *testing.T) {
	m, j := newManager()
	require.NoError(t, m.Register(fake(j, "a")))
	require.NoError(t, m.Initialize(context.Background(), "a"))

	ok, err := m.Unregister(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, *j, "dispose:a")
	assert.False(t, m.Has("a"))

	ok, err = m.Unregister(context.Background(), "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQuerySurface(t *testing.T) {
	m, j := newManager()
	require.NoError(t, m.Register(fake(j, "a")))
	require.NoError(t, m.Register(fake(j, "b", "a")))

	assert.Equal(t, []string{"a", "b"}, m.PluginIDs())
	assert.True(t, m.Has("a"))
	assert.False(t, m.Has("c"))

	p, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, "b", p.ID())

	withDeps := m.PluginsWhere(func(p Plugin) bool { return len(p.Dependencies()) > 0 })
	require.Len(t, withDeps, 1)
	assert.Equal(t, "b", withDeps[0].ID())
}

func TestLifecycleEventsEmitted(t *testing.T) {
	b := bus.New()
	var events []string
	for _, et := range []string{EventPluginRegistered, EventPluginInitialized, EventPluginDisposed} {
		et := et
		_, err := b.Subscribe(et, func(bus.Event) error {
			events = append(events, et)
			return nil
		})
		require.NoError(t, err)
	}

	journal := &[]string{}
	m := NewManager(&Context{Bus: b})
	require.NoError(t, m.Register(fake(journal, "a")))
	require.NoError(t, m.Initialize(context.Background(), "a"))
	require.NoError(t, m.Dispose(context.Background(), "a"))

	assert.Equal(t, []string{EventPluginRegistered, EventPluginInitialized, EventPluginDisposed}, events)
}
