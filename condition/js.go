package condition

import (
	"fmt"

	"github.com/dop251/goja"
)

// jsEvaluator evaluates JavaScript expressions with goja. Each evaluation
// runs in a fresh runtime.
type jsEvaluator struct{}

// NewJSEvaluator constructs an Evaluator backed by goja.
func NewJSEvaluator() Evaluator {
	return jsEvaluator{}
}

func (jsEvaluator) Evaluate(expression string, env map[string]interface{}) (bool, error) {
	if expression == "" {
		return false, wrapEvaluationError("js", expression, errEmptyExpression)
	}

	vm := goja.New()
	for key, value := range env {
		if err := vm.Set(key, value); err != nil {
			return false, wrapEvaluationError("js", expression, err)
		}
	}

	value, err := vm.RunString(fmt.Sprintf("(function(){ return (%s); })()", expression))
	if err != nil {
		return false, wrapEvaluationError("js", expression, err)
	}
	return asBool("js", expression, value.Export())
}
