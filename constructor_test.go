package nasc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test types for constructor injection
type UserRepository interface {
	FindUser(id int) string
}

type SimpleUserRepository struct {
	logger Logger
}

func NewSimpleUserRepository(logger Logger) *SimpleUserRepository {
	return &SimpleUserRepository{logger: logger}
}

func (r *SimpleUserRepository) FindUser(id int) string {
	r.logger.Log("finding user")
	return "user"
}

type UserService struct {
	repo   UserRepository
	logger Logger
	via    string
}

func NewUserService(repo UserRepository, logger Logger) *UserService {
	return &UserService{repo: repo, logger: logger, via: "full"}
}

func NewUserServiceWithRepo(repo UserRepository) *UserService {
	return &UserService{repo: repo, via: "repo"}
}

func NewUserServiceWithLogger(logger Logger) *UserService {
	return &UserService{logger: logger, via: "logger"}
}

func NewEmptyUserService() *UserService {
	return &UserService{via: "empty"}
}

func NewUserServiceWithLimit(repo UserRepository, logger Logger, limit int) *UserService {
	return &UserService{repo: repo, logger: logger, via: "limit"}
}

func NewFailingUserService() (*UserService, error) {
	return nil, errors.New("connection refused")
}

func registerServiceDeps(t *testing.T, container *Nasc) {
	t.Helper()
	require.NoError(t, container.Singleton((*Logger)(nil), &ConsoleLogger{}))
	require.NoError(t, container.BindConstructor((*UserRepository)(nil), NewSimpleUserRepository))
}

func TestBindConstructor_WithDependencies(t *testing.T) {
	container := New()
	registerServiceDeps(t, container)
	require.NoError(t, container.BindConstructor((*UserService)(nil), NewUserService))

	svc := container.Make((*UserService)(nil)).(*UserService)
	assert.NotNil(t, svc.repo)
	assert.Same(t, container.Make((*Logger)(nil)), svc.logger)
}

func TestBindConstructor_NotAFunction(t *testing.T) {
	container := New()
	err := container.BindConstructor((*UserService)(nil), "NewUserService")
	var invalid *InvalidBindingError
	assert.ErrorAs(t, err, &invalid)
}

func TestBindConstructor_ReturnTypeMustSatisfyIdentity(t *testing.T) {
	container := New()
	err := container.BindConstructor((*Database)(nil), NewEmptyUserService)
	var invalid *InvalidBindingError
	assert.ErrorAs(t, err, &invalid)
}

func TestConstructorSelection_DesignatedWinsOverEarlierNoArg(t *testing.T) {
	container := New()
	registerServiceDeps(t, container)
	require.NoError(t, container.Register((*UserService)(nil), "",
		Construct(&UserService{}).
			Constructor(NewEmptyUserService).
			Constructor(NewUserService).
			Inject(NewUserServiceWithRepo),
		LifetimeTransient,
	))

	svc := container.Make((*UserService)(nil)).(*UserService)
	assert.Equal(t, "repo", svc.via)
}

func TestConstructorSelection_MostParametersWins(t *testing.T) {
	container := New()
	registerServiceDeps(t, container)
	require.NoError(t, container.Register((*UserService)(nil), "",
		Construct(&UserService{}).
			Constructor(NewEmptyUserService).
			Constructor(NewUserServiceWithRepo).
			Constructor(NewUserService),
		LifetimeTransient,
	))

	svc := container.Make((*UserService)(nil)).(*UserService)
	assert.Equal(t, "full", svc.via)
}

func TestConstructorSelection_TieGoesToFirstDeclared(t *testing.T) {
	container := New()
	registerServiceDeps(t, container)
	require.NoError(t, container.Register((*UserService)(nil), "",
		Construct(&UserService{}).
			Constructor(NewUserServiceWithLogger).
			Constructor(NewUserServiceWithRepo),
		LifetimeTransient,
	))

	svc := container.Make((*UserService)(nil)).(*UserService)
	assert.Equal(t, "logger", svc.via)
}

func TestConstructorSelection_ScalarParametersAreIneligible(t *testing.T) {
	container := New()
	registerServiceDeps(t, container)
	require.NoError(t, container.Register((*UserService)(nil), "",
		Construct(&UserService{}).
			Constructor(NewUserServiceWithLimit).
			Constructor(NewUserServiceWithRepo),
		LifetimeTransient,
	))

	svc := container.Make((*UserService)(nil)).(*UserService)
	assert.Equal(t, "repo", svc.via)
}

func TestConstructorSelection_DesignatedScalarGetsZeroValue(t *testing.T) {
	container := New()
	registerServiceDeps(t, container)
	require.NoError(t, container.Register((*UserService)(nil), "",
		Construct(&UserService{}).Inject(NewUserServiceWithLimit),
		LifetimeTransient,
	))

	svc := container.Make((*UserService)(nil)).(*UserService)
	assert.Equal(t, "limit", svc.via)
	assert.NotNil(t, svc.repo)
}

func TestConstructorSelection_MultipleDesignatedFallsBackToMostParameters(t *testing.T) {
	container := New()
	registerServiceDeps(t, container)
	require.NoError(t, container.Register((*UserService)(nil), "",
		Construct(&UserService{}).
			Inject(NewUserServiceWithRepo).
			Inject(NewUserService),
		LifetimeTransient,
	))

	svc := container.Make((*UserService)(nil)).(*UserService)
	assert.Equal(t, "full", svc.via)
}

func TestConstructorSelection_NoEligibleFailsAtResolve(t *testing.T) {
	container := New()
	registerServiceDeps(t, container)
	require.NoError(t, container.Register((*UserService)(nil), "",
		Construct(&UserService{}).Constructor(NewUserServiceWithLimit),
		LifetimeTransient,
	))

	_, err := container.Resolve((*UserService)(nil))
	var noCtor *NoEligibleConstructorError
	require.ErrorAs(t, err, &noCtor)
	assert.Equal(t, 1, noCtor.Candidates)
}

func TestConstructor_ImplicitZeroValue(t *testing.T) {
	container := New()
	require.NoError(t, container.Bind((*UserService)(nil), &UserService{via: "prototype"}))

	svc := container.Make((*UserService)(nil)).(*UserService)
	assert.Empty(t, svc.via)
}

func TestConstructor_Error(t *testing.T) {
	container := New()
	require.NoError(t, container.BindConstructor((*UserService)(nil), NewFailingUserService))

	_, err := container.Resolve((*UserService)(nil))
	var failed *TargetConstructionFailedError
	require.ErrorAs(t, err, &failed)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestConstructor_MissingDependency(t *testing.T) {
	container := New()
	require.NoError(t, container.BindConstructor((*UserService)(nil), NewUserService))

	_, err := container.Resolve((*UserService)(nil))
	var resolution *ResolutionError
	require.ErrorAs(t, err, &resolution)
	assert.Contains(t, resolution.Context, "parameter 0")

	var missing *UnregisteredIdentityError
	assert.ErrorAs(t, err, &missing)
}

func TestConstructor_SingletonErrorIsRetried(t *testing.T) {
	container := New()
	require.NoError(t, container.SingletonConstructor((*UserService)(nil), NewUserService))

	_, err := container.Resolve((*UserService)(nil))
	require.Error(t, err)

	registerServiceDeps(t, container)
	svc, err := container.Resolve((*UserService)(nil))
	require.NoError(t, err)
	assert.Same(t, svc, container.Make((*UserService)(nil)))
}

func TestParseConstructor(t *testing.T) {
	valid := []struct {
		name         string
		fn           interface{}
		params       int
		returnsError bool
	}{
		{name: "no_params", fn: NewEmptyUserService},
		{name: "with_params", fn: NewUserService, params: 2},
		{name: "with_error", fn: NewFailingUserService, returnsError: true},
	}
	for _, tt := range valid {
		t.Run(tt.name, func(t *testing.T) {
			info, err := parseConstructor(tt.fn)
			require.NoError(t, err)
			assert.Len(t, info.paramTypes, tt.params)
			assert.Equal(t, tt.returnsError, info.returnsError)
			assert.Contains(t, info.name, "UserService")
		})
	}

	invalid := []struct {
		name string
		fn   interface{}
	}{
		{name: "nil", fn: nil},
		{name: "not_a_function", fn: 42},
		{name: "nil_function", fn: (func() *UserService)(nil)},
		{name: "no_return", fn: func() {}},
		{name: "three_returns", fn: func() (*UserService, error, error) { return nil, nil, nil }},
		{name: "second_not_error", fn: func() (*UserService, string) { return nil, "" }},
		{name: "variadic", fn: func(loggers ...Logger) *UserService { return nil }},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseConstructor(tt.fn)
			assert.Error(t, err)
		})
	}
}

func TestProducer_RequiresPrototypeOrConstructor(t *testing.T) {
	container := New()
	err := container.Register((*UserService)(nil), "", Construct(nil), LifetimeTransient)
	var invalid *InvalidBindingError
	assert.ErrorAs(t, err, &invalid)
}
