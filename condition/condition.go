// Package condition evaluates boolean expressions that decide conditional
// registrations. Three engines are available: expr-lang/expr, CEL and
// JavaScript (goja).
//
//	ev := condition.NewExprEvaluator()
//	container.RegisterConditional((*Cache)(nil), "", nasc.LifetimeSingleton,
//	    condition.When(ev, `env == "production" && vars.CACHE == "redis"`, cfg.Values()),
//	    NewRedisCache)
package condition

import (
	"errors"
	"fmt"
)

// Evaluator evaluates an expression against env and reports its boolean
// result. Non-boolean results are errors.
type Evaluator interface {
	Evaluate(expression string, env map[string]interface{}) (bool, error)
}

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Err    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("condition: %s evaluator expr=%q: %v", e.Engine, e.Expr, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

var errEmptyExpression = errors.New("expression must not be empty")

func wrapEvaluationError(engine, expr string, err error) error {
	if err == nil {
		return nil
	}
	return &EvaluationError{Engine: engine, Expr: expr, Err: err}
}

func asBool(engine, expr string, value interface{}) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, wrapEvaluationError(engine, expr, fmt.Errorf("result %v (%T) is not a bool", value, value))
	}
	return b, nil
}

// When returns a predicate that evaluates expression against env. Its
// signature matches nasc.Predicate.
func When(ev Evaluator, expression string, env map[string]interface{}) func() (bool, error) {
	return func() (bool, error) {
		return ev.Evaluate(expression, env)
	}
}
