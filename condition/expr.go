package condition

import (
	exprlang "github.com/expr-lang/expr"
)

// exprEvaluator evaluates expressions with github.com/expr-lang/expr.
type exprEvaluator struct{}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
func NewExprEvaluator() Evaluator {
	return exprEvaluator{}
}

func (exprEvaluator) Evaluate(expression string, env map[string]interface{}) (bool, error) {
	if expression == "" {
		return false, wrapEvaluationError("expr", expression, errEmptyExpression)
	}
	if env == nil {
		env = map[string]interface{}{}
	}

	program, err := exprlang.Compile(expression, exprlang.Env(env), exprlang.AsBool())
	if err != nil {
		return false, wrapEvaluationError("expr", expression, err)
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return false, wrapEvaluationError("expr", expression, err)
	}
	return asBool("expr", expression, result)
}
