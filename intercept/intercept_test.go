package intercept

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type greeter struct{}

func (greeter) Greet(name string) string { return "hello " + name }

func recording(label string, log *[]string) Interceptor {
	return Func(func(m Method, args []interface{}, next Next) ([]interface{}, error) {
		*log = append(*log, label+" before")
		results, err := next()
		*log = append(*log, label+" after")
		return results, err
	})
}

func greetCall(target *greeter, log *[]string) func([]interface{}) ([]interface{}, error) {
	return func(args []interface{}) ([]interface{}, error) {
		*log = append(*log, "real")
		return []interface{}{target.Greet(Arg[string](args, 0))}, nil
	}
}

func TestPipeline_HooksRunInRegistrationOrder(t *testing.T) {
	t.Parallel()

	var log []string
	target := &greeter{}
	chain := NewChain(recording("h1", &log), recording("h2", &log))
	p := NewPipeline("app.Greeter", target, chain)

	results, err := p.Invoke("Greet", []interface{}{"bob"}, greetCall(target, &log))

	require.NoError(t, err)
	assert.Equal(t, "hello bob", Result[string](results, 0))
	assert.Equal(t, []string{"h1 before", "h2 before", "real", "h2 after", "h1 after"}, log)
}

func TestPipeline_NoHooksCallsTarget(t *testing.T) {
	t.Parallel()

	var log []string
	target := &greeter{}
	p := NewPipeline("app.Greeter", target, nil)

	results, err := p.Invoke("Greet", []interface{}{"ann"}, greetCall(target, &log))

	require.NoError(t, err)
	assert.Equal(t, "hello ann", Result[string](results, 0))
	assert.Equal(t, []string{"real"}, log)
}

func TestPipeline_ShortCircuit(t *testing.T) {
	t.Parallel()

	var log []string
	target := &greeter{}
	cached := Func(func(m Method, args []interface{}, next Next) ([]interface{}, error) {
		return []interface{}{"cached"}, nil
	})
	p := NewPipeline("app.Greeter", target, NewChain(cached, recording("h2", &log)))

	results, err := p.Invoke("Greet", []interface{}{"bob"}, greetCall(target, &log))

	require.NoError(t, err)
	assert.Equal(t, "cached", Result[string](results, 0))
	assert.Empty(t, log)
}

func TestPipeline_ErrorTranslation(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	translated := errors.New("translated")
	target := &greeter{}
	translate := Func(func(m Method, args []interface{}, next Next) ([]interface{}, error) {
		results, err := next()
		if errors.Is(err, boom) {
			return results, translated
		}
		return results, err
	})
	p := NewPipeline("app.Greeter", target, NewChain(translate))

	_, err := p.Invoke("Greet", nil, func([]interface{}) ([]interface{}, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, translated)
}

func TestPipeline_NullTarget(t *testing.T) {
	t.Parallel()

	var log []string
	var target *greeter
	p := NewPipeline("app.Greeter", target, NewChain(recording("h1", &log)))

	_, err := p.Invoke("Greet", []interface{}{"bob"}, func([]interface{}) ([]interface{}, error) {
		t.Fatal("real call must not run without a target")
		return nil, nil
	})

	var nullErr *NullTargetError
	require.ErrorAs(t, err, &nullErr)
	assert.Equal(t, Method{Service: "app.Greeter", Name: "Greet"}, nullErr.Method)
	assert.Contains(t, err.Error(), "app.Greeter.Greet")
	assert.Equal(t, []string{"h1 before", "h1 after"}, log)
}

func TestPipeline_HooksSeeMethod(t *testing.T) {
	t.Parallel()

	var seen Method
	target := &greeter{}
	spy := Func(func(m Method, args []interface{}, next Next) ([]interface{}, error) {
		seen = m
		return next()
	})
	p := NewPipeline("app.Greeter", target, NewChain(spy))

	_, err := p.Invoke("Greet", []interface{}{"x"}, func([]interface{}) ([]interface{}, error) { return nil, nil })

	require.NoError(t, err)
	assert.Equal(t, "app.Greeter.Greet", seen.String())
	assert.Equal(t, "app.Greeter", p.Service())
	assert.Same(t, target, p.Target())
}

func TestChain_AppendIgnoresNil(t *testing.T) {
	t.Parallel()

	c := NewChain(nil)
	c.Append(nil)
	assert.Equal(t, 0, c.Len())

	c.Append(Func(func(m Method, args []interface{}, next Next) ([]interface{}, error) { return next() }))
	assert.Equal(t, 1, c.Len())
}

func TestChain_HooksIsSnapshot(t *testing.T) {
	t.Parallel()

	noop := Func(func(m Method, args []interface{}, next Next) ([]interface{}, error) { return next() })
	c := NewChain(noop)
	hooks := c.Hooks()
	c.Append(noop)

	assert.Len(t, hooks, 1)
	assert.Equal(t, 2, c.Len())
}

func TestArg_MissingOrMistyped(t *testing.T) {
	t.Parallel()

	args := []interface{}{"a", nil, 3}
	assert.Equal(t, "a", Arg[string](args, 0))
	assert.Equal(t, "", Arg[string](args, 1))
	assert.Equal(t, 3, Arg[int](args, 2))
	assert.Equal(t, "", Arg[string](args, 2))
	assert.Equal(t, 0, Arg[int](args, 7))
	assert.Nil(t, Arg[error](args, 1))
}

func TestCheck_Panics(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { Check(nil) })
	assert.Panics(t, func() { Check(errors.New("boom")) })
}

func TestLogging_RecordsCalls(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	target := &greeter{}
	p := NewPipeline("app.Greeter", target, NewChain(Logging(zap.New(core))))

	_, err := p.Invoke("Greet", []interface{}{"bob"}, func([]interface{}) ([]interface{}, error) {
		return nil, errors.New("boom")
	})

	require.Error(t, err)
	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "calling", entries[0].Message)
	assert.Equal(t, "call failed", entries[1].Message)
	assert.Equal(t, "Greet", entries[1].ContextMap()["method"])
}

func TestTiming_ReportsDuration(t *testing.T) {
	t.Parallel()

	var observed time.Duration
	var method Method
	target := &greeter{}
	p := NewPipeline("app.Greeter", target, NewChain(Timing(func(m Method, d time.Duration) {
		method = m
		observed = d
	})))

	_, err := p.Invoke("Greet", nil, func([]interface{}) ([]interface{}, error) {
		time.Sleep(2 * time.Millisecond)
		return nil, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Greet", method.Name)
	assert.GreaterOrEqual(t, observed, 2*time.Millisecond)
}

func TestTiming_NilObserverIsRejected(t *testing.T) {
	t.Parallel()

	hook := Timing(nil)
	assert.Nil(t, hook)
	assert.Equal(t, 0, NewChain(hook).Len())
}
