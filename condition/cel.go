package condition

import (
	celgo "github.com/google/cel-go/cel"
)

// celEvaluator evaluates expressions with cel-go. Every env entry is
// declared as a dynamically typed variable.
type celEvaluator struct{}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator() Evaluator {
	return celEvaluator{}
}

func (celEvaluator) Evaluate(expression string, env map[string]interface{}) (bool, error) {
	if expression == "" {
		return false, wrapEvaluationError("cel", expression, errEmptyExpression)
	}

	opts := make([]celgo.EnvOption, 0, len(env))
	for key := range env {
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	celEnv, err := celgo.NewEnv(opts...)
	if err != nil {
		return false, wrapEvaluationError("cel", expression, err)
	}

	ast, issues := celEnv.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return false, wrapEvaluationError("cel", expression, issues.Err())
	}
	prg, err := celEnv.Program(ast)
	if err != nil {
		return false, wrapEvaluationError("cel", expression, err)
	}

	activation := env
	if activation == nil {
		activation = map[string]interface{}{}
	}
	out, _, err := prg.Eval(activation)
	if err != nil {
		return false, wrapEvaluationError("cel", expression, err)
	}
	return asBool("cel", expression, out.Value())
}
