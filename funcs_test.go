package formulas_test

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/zephyrtronium/formulas"
)

// plainOps hides the ExactMath methods of float64 operations so that the
// default functions compute through float64 conversions.
type plainOps struct {
	formulas.NumericalOperations[float64]
}

func TestDefaultFunctionNames(t *testing.T) {
	funcs := formulas.NewFunctionRegistry[float64](false)
	if err := formulas.RegisterDefaultFunctions(funcs, formulas.Float64Ops{}); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"abs", "acos", "acot", "asin", "atan", "avg", "ceiling", "cos", "cot",
		"csc", "floor", "if", "ifequal", "ifless", "ifmore", "log10", "loge",
		"logn", "max", "median", "min", "random", "round", "sec", "sin", "sqrt",
		"sum", "tan", "truncate",
	}
	if got := funcs.Names(); !slices.Equal(got, want) {
		t.Errorf("wrong functions:\nwant %q\ngot  %q", want, got)
	}
	for _, name := range want {
		f, ok := funcs.Lookup(name)
		if !ok {
			t.Errorf("couldn't look up %s", name)
			continue
		}
		if f.Idempotent != (name != "random") {
			t.Errorf("%s has wrong idempotence %t", name, f.Idempotent)
		}
	}
}

func TestDefaultFunctionsFallback(t *testing.T) {
	// Without exact math, results go through float64 and must agree.
	exact := formulas.NewFunctionRegistry[float64](false)
	plain := formulas.NewFunctionRegistry[float64](false)
	if err := formulas.RegisterDefaultFunctions(exact, formulas.Float64Ops{}); err != nil {
		t.Fatal(err)
	}
	if err := formulas.RegisterDefaultFunctions(plain, plainOps{formulas.Float64Ops{}}); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name string
		args []float64
	}{
		{"sqrt", []float64{2}},
		{"loge", []float64{10}},
		{"log10", []float64{1e5}},
		{"logn", []float64{81, 3}},
		{"truncate", []float64{-7.5}},
		{"floor", []float64{-7.5}},
		{"ceiling", []float64{-7.5}},
		{"round", []float64{-7.5}},
		{"round", []float64{6.5}},
		{"round", []float64{6.51}},
		{"abs", []float64{-1}},
	}
	for _, c := range cases {
		f, _ := exact.Lookup(c.name)
		g, _ := plain.Lookup(c.name)
		x, err := f.Call(c.args)
		if err != nil {
			t.Errorf("exact %s%v: %v", c.name, c.args, err)
			continue
		}
		y, err := g.Call(c.args)
		if err != nil {
			t.Errorf("plain %s%v: %v", c.name, c.args, err)
			continue
		}
		if !near(x, y) {
			t.Errorf("%s%v: exact %g, plain %g", c.name, c.args, x, y)
		}
	}
}

func TestDefaultConstants(t *testing.T) {
	for _, ops := range []formulas.NumericalOperations[float64]{formulas.Float64Ops{}, plainOps{formulas.Float64Ops{}}} {
		consts := formulas.NewConstantRegistry[float64](false)
		if err := formulas.RegisterDefaultConstants(consts, ops); err != nil {
			t.Fatal(err)
		}
		if c, ok := consts.Lookup("E"); !ok || !near(c.Value, math.E) || c.Overwritable {
			t.Errorf("wrong e: %+v", c)
		}
		if c, ok := consts.Lookup("pi"); !ok || !near(c.Value, math.Pi) || c.Overwritable {
			t.Errorf("wrong pi: %+v", c)
		}
		if err := formulas.RegisterDefaultConstants(consts, ops); !errors.Is(err, formulas.ErrConstantOverwrite) {
			t.Errorf("registering defaults twice: want ErrConstantOverwrite, got %v", err)
		}
	}
}

func BenchmarkDefaultFunctions(b *testing.B) {
	e := formulas.NewFloat64Engine()
	f, err := e.Compile("sqrt(x) + max(x, y, 3) * round(y) - logn(x, 2)")
	if err != nil {
		b.Fatal(err)
	}
	vars := map[string]float64{"x": 5, "y": 2.5}
	for b.Loop() {
		f.Eval(vars)
	}
}
