package formulas

import (
	"math/big"
)

// Engine reads, builds, optimizes, and evaluates formulas with one set of
// functions and constants. Compiled formulas are cached by their text.
//
// An Engine is safe for concurrent use. Adding functions or constants clears
// the cache, but formulas compiled before the change keep the trees they were
// built with.
type Engine[T any] struct {
	ops    NumericalOperations[T]
	reader *Reader[T]
	funcs  *FunctionRegistry[T]
	consts *ConstantRegistry[T]
	exec   Executor[T]
	// opt is nil when optimization is disabled.
	opt *Optimizer[T]
	// cache is nil when caching is disabled.
	cache *lru[*Formula[T]]
}

// NewEngine creates an engine which computes with ops.
func NewEngine[T any](ops NumericalOperations[T], opts ...EngineOption) *Engine[T] {
	cfg := defaultcfg()
	for _, o := range opts {
		cfg = o.engineOption(cfg)
	}
	e := &Engine[T]{
		ops:    ops,
		reader: NewReader(ops, cfg.loc),
		funcs:  NewFunctionRegistry[T](cfg.cs),
		consts: NewConstantRegistry[T](cfg.cs),
		exec:   NewInterpreter(ops),
	}
	if !cfg.noopt {
		e.opt = NewOptimizer(e.exec, ops)
	}
	if cfg.cache > 0 {
		e.cache = newLRU[*Formula[T]](cfg.cache)
	}
	if !cfg.nofuncs {
		if err := RegisterDefaultFunctions(e.funcs, ops); err != nil {
			panic("formulas: registering default functions: " + err.Error())
		}
	}
	if !cfg.noconsts {
		if err := RegisterDefaultConstants(e.consts, ops); err != nil {
			panic("formulas: registering default constants: " + err.Error())
		}
	}
	return e
}

// NewFloat64Engine creates an engine computing with float64.
func NewFloat64Engine(opts ...EngineOption) *Engine[float64] {
	return NewEngine[float64](Float64Ops{}, opts...)
}

// NewBigFloatEngine creates an engine computing with *big.Float at the given
// precision in bits. Zero selects DefaultPrec.
func NewBigFloatEngine(prec uint, opts ...EngineOption) *Engine[*big.Float] {
	return NewEngine[*big.Float](BigFloatOps{Prec: prec}, opts...)
}

// Calculate compiles formula, or gets it from the cache, and evaluates it
// with the given variables.
func (e *Engine[T]) Calculate(formula string, vars map[string]T) (T, error) {
	f, err := e.Compile(formula)
	if err != nil {
		var zero T
		return zero, err
	}
	return f.Eval(vars)
}

// Compile reads and builds formula and folds its constant subtrees. The
// result can be evaluated any number of times, concurrently.
func (e *Engine[T]) Compile(formula string) (*Formula[T], error) {
	if e.cache == nil {
		return e.compile(formula)
	}
	return e.cache.getOrCompile(formula, func() (*Formula[T], error) {
		return e.compile(formula)
	})
}

func (e *Engine[T]) compile(formula string) (*Formula[T], error) {
	toks, err := e.reader.Read(formula)
	if err != nil {
		return nil, err
	}
	tree, err := Build(toks, e.funcs)
	if err != nil {
		return nil, err
	}
	if e.opt != nil {
		tree = e.opt.Optimize(tree, e.funcs, e.consts)
	}
	return &Formula[T]{e: e, src: formula, tree: tree}, nil
}

// AddFunction registers a function, replacing any function of the same name.
func (e *Engine[T]) AddFunction(name string, arity Arity, idempotent bool, fn Func[T]) error {
	if err := e.funcs.Register(name, arity, idempotent, fn); err != nil {
		return err
	}
	e.invalidate()
	return nil
}

// AddConstant registers a constant. If overwritable is false, variable
// bindings of the same name are errors and the constant cannot be registered
// again. It is an error to replace a constant which is not overwritable,
// including e and pi.
func (e *Engine[T]) AddConstant(name string, value T, overwritable bool) error {
	if err := e.consts.Register(name, value, overwritable); err != nil {
		return err
	}
	e.invalidate()
	return nil
}

func (e *Engine[T]) invalidate() {
	if e.cache != nil {
		e.cache.clear()
	}
}

// Functions returns the sorted names of the registered functions.
func (e *Engine[T]) Functions() []string {
	return e.funcs.Names()
}

// Constants returns the registered constants keyed by name.
func (e *Engine[T]) Constants() map[string]ConstantInfo[T] {
	return e.consts.All()
}

// Formula is a compiled formula.
type Formula[T any] struct {
	e    *Engine[T]
	src  string
	tree *Node[T]
}

// Eval evaluates the formula. vars may be nil if the formula uses no
// variables. When T is a pointer type, the result may be shared with the
// formula and must not be modified in place.
func (f *Formula[T]) Eval(vars map[string]T) (T, error) {
	return f.e.exec.Execute(f.tree, f.e.funcs, f.e.consts, vars)
}

// Vars returns the sorted names of the variables the formula uses which are
// not registered constants. Variables removed by optimization are not
// included.
func (f *Formula[T]) Vars() []string {
	all := f.tree.Vars()
	vars := all[:0]
	for _, v := range all {
		if _, ok := f.e.consts.Lookup(v); !ok {
			vars = append(vars, v)
		}
	}
	return vars
}

// Source returns the text the formula was compiled from.
func (f *Formula[T]) Source() string {
	return f.src
}

// Tree returns the root of the formula's operation tree. The tree must not be
// modified.
func (f *Formula[T]) Tree() *Node[T] {
	return f.tree
}

// String formats the operation tree of the formula.
func (f *Formula[T]) String() string {
	return f.tree.String()
}
