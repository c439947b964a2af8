package nasc

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test types for scoping and cleanup
type disposableService struct {
	disposed bool
}

func (d *disposableService) Dispose() error {
	if d.disposed {
		return errors.New("already disposed")
	}
	d.disposed = true
	return nil
}

type initializableService struct {
	initialized bool
}

func (i *initializableService) Initialize() error {
	i.initialized = true
	return nil
}

type failingInitializable struct{}

func (f *failingInitializable) Initialize() error {
	return errors.New("not ready")
}

type failingDisposable struct{}

func (f *failingDisposable) Dispose() error {
	return errors.New("disposal failed")
}

// orderedDisposable records its name on disposal.
type orderedDisposable struct {
	name string
	log  *[]string
	mu   *sync.Mutex
}

func (o *orderedDisposable) Dispose() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	*o.log = append(*o.log, o.name)
	return nil
}

type firstDep struct{ *orderedDisposable }
type secondDep struct{ *orderedDisposable }

func TestScoped_SameInstanceWithinScope(t *testing.T) {
	container := New()
	require.NoError(t, container.Scoped((*disposableService)(nil), &disposableService{}))

	scope := container.CreateScope()
	defer scope.Close()

	a := scope.Make((*disposableService)(nil))
	b := scope.Make((*disposableService)(nil))
	assert.Same(t, a, b)
}

func TestScoped_DifferentAcrossSiblings(t *testing.T) {
	container := New()
	require.NoError(t, container.Scoped((*disposableService)(nil), &disposableService{}))

	s1 := container.CreateScope()
	s2 := container.CreateScope()
	defer s1.Close()
	defer s2.Close()

	assert.NotSame(t, s1.Make((*disposableService)(nil)), s2.Make((*disposableService)(nil)))
	assert.NotEqual(t, s1.ID(), s2.ID())
}

func TestScoped_FreshAtRoot(t *testing.T) {
	container := New()
	require.NoError(t, container.Scoped((*disposableService)(nil), &disposableService{}))

	assert.NotSame(t, container.Make((*disposableService)(nil)), container.Make((*disposableService)(nil)))
}

func TestScoped_ChildScopeHasItsOwnInstances(t *testing.T) {
	container := New()
	require.NoError(t, container.Scoped((*disposableService)(nil), &disposableService{}))

	parent := container.CreateScope()
	defer parent.Close()
	child, err := parent.CreateScope()
	require.NoError(t, err)

	assert.NotSame(t, parent.Make((*disposableService)(nil)), child.Make((*disposableService)(nil)))
}

func TestScoped_ConcurrentResolveConstructsOnce(t *testing.T) {
	container := New()
	require.NoError(t, container.Scoped((*disposableService)(nil), &disposableService{}))

	scope := container.CreateScope()
	defer scope.Close()

	const goroutines = 200
	results := make([]interface{}, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = scope.Make((*disposableService)(nil))
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestSingleton_IsSharedAcrossScopes(t *testing.T) {
	container := New()
	require.NoError(t, container.Singleton((*disposableService)(nil), &disposableService{}))

	s1 := container.CreateScope()
	s2 := container.CreateScope()
	defer s1.Close()
	defer s2.Close()

	assert.Same(t, s1.Make((*disposableService)(nil)), s2.Make((*disposableService)(nil)))
	assert.Same(t, container.Make((*disposableService)(nil)), s1.Make((*disposableService)(nil)))
}

func TestSingleton_DoesNotCaptureScopedDependency(t *testing.T) {
	container := New()
	require.NoError(t, container.Scoped((*disposableService)(nil), &disposableService{}))

	type holder struct{ dep *disposableService }
	require.NoError(t, container.SingletonConstructor((*holder)(nil), func(d *disposableService) *holder {
		return &holder{dep: d}
	}))

	scope := container.CreateScope()
	h := scope.Make((*holder)(nil)).(*holder)
	scoped := scope.Make((*disposableService)(nil)).(*disposableService)
	require.NoError(t, scope.Close())

	assert.NotSame(t, scoped, h.dep)
	assert.True(t, scoped.disposed)
	assert.False(t, h.dep.disposed)
}

func TestScope_CloseDisposesInReverseCreationOrder(t *testing.T) {
	container := New()

	var (
		log []string
		mu  sync.Mutex
	)
	require.NoError(t, container.RegisterFactory((*firstDep)(nil), "", LifetimeScoped, func(Resolver) (interface{}, error) {
		return &firstDep{&orderedDisposable{name: "first", log: &log, mu: &mu}}, nil
	}))
	require.NoError(t, container.RegisterFactory((*secondDep)(nil), "", LifetimeScoped, func(r Resolver) (interface{}, error) {
		if _, err := r.Resolve((*firstDep)(nil)); err != nil {
			return nil, err
		}
		return &secondDep{&orderedDisposable{name: "second", log: &log, mu: &mu}}, nil
	}))

	scope := container.CreateScope()
	scope.Make((*secondDep)(nil))
	require.NoError(t, scope.Close())

	assert.Equal(t, []string{"second", "first"}, log)
}

func TestScope_CloseJoinsDisposalErrors(t *testing.T) {
	container := New()
	require.NoError(t, container.Scoped((*failingDisposable)(nil), &failingDisposable{}))
	require.NoError(t, container.Scoped((*disposableService)(nil), &disposableService{}))

	scope := container.CreateScope()
	scope.Make((*failingDisposable)(nil))
	svc := scope.Make((*disposableService)(nil)).(*disposableService)

	err := scope.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disposal failed")
	assert.True(t, svc.disposed)
}

func TestScope_CloseTwiceIsNoop(t *testing.T) {
	container := New()
	require.NoError(t, container.Scoped((*disposableService)(nil), &disposableService{}))

	scope := container.CreateScope()
	scope.Make((*disposableService)(nil))
	require.NoError(t, scope.Close())
	assert.NoError(t, scope.Close())
}

func TestScope_ResolveAfterClose(t *testing.T) {
	container := New()
	require.NoError(t, container.Scoped((*disposableService)(nil), &disposableService{}))

	scope := container.CreateScope()
	require.NoError(t, scope.Close())

	_, err := scope.Resolve((*disposableService)(nil))
	var closed *ScopeClosedError
	require.ErrorAs(t, err, &closed)
	assert.Equal(t, scope.ID(), closed.ScopeID)

	_, err = scope.CreateScope()
	assert.ErrorAs(t, err, &closed)
}

func TestScoped_ReRegistrationReplacesInstanceInLiveScope(t *testing.T) {
	container := New()
	first := &disposableService{}
	require.NoError(t, container.RegisterFactory((*disposableService)(nil), "", LifetimeScoped,
		FactoryOf(func() (interface{}, error) { return first, nil })))

	scope := container.CreateScope()
	assert.Same(t, first, scope.Make((*disposableService)(nil)))

	second := &disposableService{}
	require.NoError(t, container.RegisterFactory((*disposableService)(nil), "", LifetimeScoped,
		FactoryOf(func() (interface{}, error) { return second, nil })))

	assert.Same(t, second, scope.Make((*disposableService)(nil)))
	assert.Same(t, second, scope.Make((*disposableService)(nil)))

	require.NoError(t, scope.Close())
	assert.True(t, first.disposed)
	assert.True(t, second.disposed)
}

func TestScoped_InstanceFinishedAfterCloseIsDisposed(t *testing.T) {
	container := New()
	scope := container.CreateScope()
	built := &disposableService{}
	require.NoError(t, container.RegisterFactory((*disposableService)(nil), "", LifetimeScoped,
		func(Resolver) (interface{}, error) {
			require.NoError(t, scope.Close())
			return built, nil
		}))

	_, err := scope.Resolve((*disposableService)(nil))
	var closed *ScopeClosedError
	require.ErrorAs(t, err, &closed)
	assert.True(t, built.disposed)
}

func TestScope_ClosingParentClosesChildren(t *testing.T) {
	container := New()
	require.NoError(t, container.Scoped((*disposableService)(nil), &disposableService{}))

	parent := container.CreateScope()
	child, err := parent.CreateScope()
	require.NoError(t, err)
	svc := child.Make((*disposableService)(nil)).(*disposableService)

	require.NoError(t, parent.Close())
	assert.True(t, svc.disposed)

	_, err = child.Resolve((*disposableService)(nil))
	var closed *ScopeClosedError
	assert.ErrorAs(t, err, &closed)
}

func TestScope_RootCannotBeClosed(t *testing.T) {
	container := New()
	var invalid *InvalidBindingError
	assert.ErrorAs(t, container.Root().Close(), &invalid)
}

func TestScope_RootCreateScopeIsIndependent(t *testing.T) {
	container := New()
	scope, err := container.Root().CreateScope()
	require.NoError(t, err)
	assert.False(t, scope.IsRoot())
	assert.NoError(t, scope.Close())
}

func TestInitializable_CalledAfterConstruction(t *testing.T) {
	container := New()
	require.NoError(t, container.Bind((*initializableService)(nil), &initializableService{}))

	svc := container.Make((*initializableService)(nil)).(*initializableService)
	assert.True(t, svc.initialized)
}

func TestInitializable_FailureFailsResolution(t *testing.T) {
	container := New()
	require.NoError(t, container.Bind((*failingInitializable)(nil), &failingInitializable{}))

	_, err := container.Resolve((*failingInitializable)(nil))
	var failed *TargetConstructionFailedError
	require.ErrorAs(t, err, &failed)
	assert.Contains(t, err.Error(), "not ready")
}
