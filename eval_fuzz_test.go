package formulas_test

import (
	"math/big"
	"testing"

	"github.com/zephyrtronium/formulas"
)

func FuzzEval(f *testing.F) {
	f.Add("x")
	f.Add("y")
	f.Add("max(x, -y) ^ 2 <= 1 || x / 0")
	f.Add("if(x, random(), 2 * 3)")
	bigs := formulas.NewBigFloatEngine(0, formulas.WithCacheSize(16))
	plain := formulas.NewBigFloatEngine(0, formulas.WithoutOptimizer(), formulas.WithCacheSize(-1))
	vars := map[string]*big.Float{"x": big.NewFloat(2), "y": big.NewFloat(-0.5)}
	f.Fuzz(func(t *testing.T, s string) {
		// Optimization may remove failing subtrees, but otherwise it must not
		// change the result of formulas which don't call random functions.
		a, err := bigs.Compile(s)
		if err != nil || !a.Tree().IsIdempotent() {
			return
		}
		x, errA := a.Eval(vars)
		y, errB := plain.Calculate(s, vars)
		switch {
		case errA != nil && errB == nil:
			t.Errorf("%q: optimized error %v, unoptimized result %g", s, errA, y)
		case errA == nil && errB == nil && x.Cmp(y) != 0:
			t.Errorf("%q: optimized %g, unoptimized %g", s, x, y)
		}
	})
}
