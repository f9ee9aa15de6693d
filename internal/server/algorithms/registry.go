// Package algorithms is the fixed table of computations a model can name.
// A model's algorithm field is only ever used as a key into this table.
package algorithms

import (
	"fmt"
	"math"
	"sort"

	"github.com/dmitrijs2005/modelkeeper/internal/common"
)

// Algorithm is a named computation over an input and a weight vector.
type Algorithm struct {
	name    string
	check   func(inputs, weights []float64) error
	compute func(inputs, weights []float64) float64
}

func (a Algorithm) Name() string {
	return a.name
}

var registry = map[string]Algorithm{
	"linear_regression": {
		name:    "linear_regression",
		check:   sameLength,
		compute: dot,
	},
	"logistic_regression": {
		name:  "logistic_regression",
		check: withOptionalBias,
		compute: func(inputs, weights []float64) float64 {
			return 1 / (1 + math.Exp(-affine(inputs, weights)))
		},
	},
	"perceptron": {
		name:  "perceptron",
		check: withOptionalBias,
		compute: func(inputs, weights []float64) float64 {
			if affine(inputs, weights) > 0 {
				return 1
			}
			return 0
		},
	},
	"weighted_mean": {
		name: "weighted_mean",
		check: func(inputs, weights []float64) error {
			if err := sameLength(inputs, weights); err != nil {
				return err
			}
			var sum float64
			for _, w := range weights {
				sum += w
			}
			if sum == 0 {
				return fmt.Errorf("%w: weights sum to zero", common.ErrorInvalidModelParameters)
			}
			return nil
		},
		compute: func(inputs, weights []float64) float64 {
			var num, den float64
			for i := range inputs {
				num += inputs[i] * weights[i]
				den += weights[i]
			}
			return num / den
		},
	},
}

// Resolve looks name up in the table. Names outside it are never interpreted.
func Resolve(name string) (Algorithm, bool) {
	a, ok := registry[name]
	return a, ok
}

// Names lists every registered algorithm, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Invoke validates inputs and weights for alg and runs it.
//
// Any failure, including a panic inside the computation or a non-finite
// result, is reported as common.ErrorInvalidModelParameters.
func Invoke(alg Algorithm, inputs, weights []float64) (out float64, err error) {
	if alg.compute == nil {
		return 0, common.ErrorAlgorithmNotFound
	}
	if err := finite("inputs", inputs); err != nil {
		return 0, err
	}
	if err := finite("weights", weights); err != nil {
		return 0, err
	}
	if err := alg.check(inputs, weights); err != nil {
		return 0, err
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = 0, fmt.Errorf("%w: %s failed: %v", common.ErrorInvalidModelParameters, alg.name, r)
		}
	}()

	out = alg.compute(inputs, weights)
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("%w: %s produced a non-finite result", common.ErrorInvalidModelParameters, alg.name)
	}
	return out, nil
}

func finite(what string, v []float64) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %s[%d] is not finite", common.ErrorInvalidModelParameters, what, i)
		}
	}
	return nil
}

func sameLength(inputs, weights []float64) error {
	if len(inputs) == 0 {
		return fmt.Errorf("%w: no inputs", common.ErrorInvalidModelParameters)
	}
	if len(inputs) != len(weights) {
		return fmt.Errorf("%w: %d inputs, %d weights", common.ErrorInvalidModelParameters, len(inputs), len(weights))
	}
	return nil
}

// withOptionalBias accepts one weight per input, or one extra trailing bias.
func withOptionalBias(inputs, weights []float64) error {
	if len(inputs) == 0 {
		return fmt.Errorf("%w: no inputs", common.ErrorInvalidModelParameters)
	}
	if len(weights) != len(inputs) && len(weights) != len(inputs)+1 {
		return fmt.Errorf("%w: %d inputs, %d weights", common.ErrorInvalidModelParameters, len(inputs), len(weights))
	}
	return nil
}

func dot(inputs, weights []float64) float64 {
	var sum float64
	for i := range inputs {
		sum += inputs[i] * weights[i]
	}
	return sum
}

func affine(inputs, weights []float64) float64 {
	sum := dot(inputs, weights[:len(inputs)])
	if len(weights) > len(inputs) {
		sum += weights[len(inputs)]
	}
	return sum
}
