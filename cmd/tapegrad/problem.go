// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/gomlx/tapead/pkg/core/reverse"
	"github.com/gomlx/tapead/pkg/core/tape"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Problem describes a tape to record, the point where to evaluate it and the weighting of its outputs.
type Problem struct {
	// Independents names the independent variables, in order.
	Independents []string `yaml:"independents"`

	// Point holds the values of the independent variables.
	Point []float64 `yaml:"point"`

	// Directions holds, for each Taylor order above 0, the coefficients of the independent variables.
	// The number of orders swept is 1+len(Directions).
	Directions [][]float64 `yaml:"directions"`

	// Ops are recorded in order. Arguments refer to independents or to previous ops by name.
	Ops []OpSpec `yaml:"ops"`

	// Dependents names the output variables, in order. The same name can be repeated.
	Dependents []string `yaml:"dependents"`

	// Weights of the outputs, of length m or m*p. If empty, every output is weighted with 1.
	Weights []float64 `yaml:"weights"`
}

// OpSpec describes one recorded operation.
type OpSpec struct {
	Name  string   `yaml:"name"`
	Op    string   `yaml:"op"`
	Args  []string `yaml:"args"`
	Value float64  `yaml:"value"`
}

// LoadProblem reads a Problem from a YAML file.
func LoadProblem(filePath string) (*Problem, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read problem file %q", filePath)
	}
	pb, err := ParseProblem(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "problem file %q", filePath)
	}
	return pb, nil
}

// ParseProblem parses a Problem from its YAML description.
func ParseProblem(data []byte) (*Problem, error) {
	pb := &Problem{}
	if err := yaml.Unmarshal(data, pb); err != nil {
		return nil, errors.Wrap(err, "failed to parse problem")
	}
	if len(pb.Independents) == 0 {
		return nil, errors.New("problem has no independents")
	}
	if len(pb.Dependents) == 0 {
		return nil, errors.New("problem has no dependents")
	}
	return pb, nil
}

// Orders returns the number of Taylor coefficient orders described: 1 plus the number of directions.
func (pb *Problem) Orders() int {
	return 1 + len(pb.Directions)
}

// Build records the tape of the problem.
func (pb *Problem) Build() (*tape.Tape, error) {
	b := tape.NewBuilder()
	vars := make(map[string]tape.Var, len(pb.Independents)+len(pb.Ops))
	define := func(name string, v tape.Var) error {
		if name == "" {
			return errors.New("variables must be named")
		}
		if _, found := vars[name]; found {
			return errors.Errorf("variable %q defined more than once", name)
		}
		vars[name] = v
		return nil
	}

	for _, name := range pb.Independents {
		if err := define(name, b.Independent()); err != nil {
			return nil, err
		}
	}
	for ii, op := range pb.Ops {
		kind, err := tape.OpKindString(op.Op)
		if err != nil || kind == tape.OpInvalid || kind == tape.OpIndependent {
			return nil, errors.Errorf("op #%d (%q): unknown operation %q, valid operations are %v",
				ii, op.Name, op.Op, tape.OpKindStrings()[2:])
		}
		if len(op.Args) != kind.NumArgs() {
			return nil, errors.Errorf("op #%d (%q): %s takes %d arguments, %d given",
				ii, op.Name, kind, kind.NumArgs(), len(op.Args))
		}
		args := make([]tape.Var, len(op.Args))
		for argIdx, argName := range op.Args {
			v, found := vars[argName]
			if !found {
				return nil, errors.Errorf("op #%d (%q): argument %q is not defined", ii, op.Name, argName)
			}
			args[argIdx] = v
		}
		if err := define(op.Name, b.Record(kind, op.Value, args...)); err != nil {
			return nil, errors.WithMessagef(err, "op #%d", ii)
		}
	}
	for _, name := range pb.Dependents {
		v, found := vars[name]
		if !found {
			return nil, errors.Errorf("dependent %q is not defined", name)
		}
		b.Dependent(v)
	}
	return b.Build(), nil
}

// Coefficients returns the Taylor coefficients of the independent variables, indexed [j*p + k].
func (pb *Problem) Coefficients() ([]float64, error) {
	n, p := len(pb.Independents), pb.Orders()
	if len(pb.Point) != n {
		return nil, errors.Errorf("point has %d values, but there are %d independents", len(pb.Point), n)
	}
	x := make([]float64, n*p)
	for j, value := range pb.Point {
		x[j*p] = value
	}
	for k, direction := range pb.Directions {
		if len(direction) != n {
			return nil, errors.Errorf("direction #%d has %d values, but there are %d independents",
				k, len(direction), n)
		}
		for j, value := range direction {
			x[j*p+k+1] = value
		}
	}
	return x, nil
}

// Weighting returns the weighting of the outputs.
func (pb *Problem) Weighting() (reverse.Weighting, error) {
	m := len(pb.Dependents)
	if len(pb.Weights) == 0 {
		w := make(reverse.PerOutput, m)
		for i := range w {
			w[i] = 1
		}
		return w, nil
	}
	return reverse.WeightsFromSlice(m, pb.Orders(), pb.Weights)
}
