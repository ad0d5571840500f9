package formulas

import (
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Func is the implementation of a registered function. args has a length
// accepted by the function's arity. Func must not modify args.
type Func[T any] func(args []T) (T, error)

// Arity is the number of arguments a function accepts.
type Arity int

// Variadic is the Arity of functions which accept one or more arguments.
const Variadic Arity = -1

// Accepts reports whether a function of arity a can be called with n
// arguments.
func (a Arity) Accepts(n int) bool {
	if a == Variadic {
		return n >= 1
	}
	return int(a) == n
}

func (a Arity) String() string {
	if a == Variadic {
		return "variadic"
	}
	return strconv.Itoa(int(a))
}

// FunctionInfo describes a registered function.
type FunctionInfo[T any] struct {
	// Name is the name as registered.
	Name string
	// Arity is the number of arguments the function accepts.
	Arity Arity
	// Idempotent is whether the function always returns the same result for
	// the same arguments. Only calls of idempotent functions are folded into
	// constants by the optimizer.
	Idempotent bool
	// Call implements the function.
	Call Func[T]
}

// FunctionRegistry maps names to functions. Unless it is case sensitive,
// names which differ only by case refer to the same function.
//
// Registries are safe for concurrent use, but registering a function while a
// formula using the registry is being built or evaluated gives unspecified
// results for that formula.
type FunctionRegistry[T any] struct {
	mu    sync.RWMutex
	keys  keyer
	funcs map[string]FunctionInfo[T]
}

// NewFunctionRegistry creates an empty function registry.
func NewFunctionRegistry[T any](caseSensitive bool) *FunctionRegistry[T] {
	return &FunctionRegistry[T]{keys: keyer{cs: caseSensitive}, funcs: make(map[string]FunctionInfo[T])}
}

// Register adds a function to the registry, replacing any function with the
// same name.
func (r *FunctionRegistry[T]) Register(name string, arity Arity, idempotent bool, fn Func[T]) error {
	if !validName(name) {
		return fmt.Errorf("invalid function name %q", name)
	}
	if arity < Variadic {
		return fmt.Errorf("invalid arity %d for function %q", arity, name)
	}
	if fn == nil {
		return fmt.Errorf("nil implementation for function %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[r.keys.key(name)] = FunctionInfo[T]{Name: name, Arity: arity, Idempotent: idempotent, Call: fn}
	return nil
}

// Lookup finds a function by name. A nil registry has no functions.
func (r *FunctionRegistry[T]) Lookup(name string) (FunctionInfo[T], bool) {
	if r == nil {
		return FunctionInfo[T]{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs[r.keys.key(name)]
	return f, ok
}

// CaseSensitive reports whether names differing by case are distinct.
func (r *FunctionRegistry[T]) CaseSensitive() bool {
	return r != nil && r.keys.cs
}

// Names returns the registered names in sorted order. A nil registry has no
// names.
func (r *FunctionRegistry[T]) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for _, f := range r.funcs {
		names = append(names, f.Name)
	}
	slices.Sort(names)
	return names
}

// ConstantInfo describes a registered constant.
type ConstantInfo[T any] struct {
	Name  string
	Value T
	// Overwritable is whether variable bindings and later registrations may
	// replace the constant.
	Overwritable bool
}

// ConstantRegistry maps names to constant values. Case sensitivity follows
// the same rules as FunctionRegistry.
type ConstantRegistry[T any] struct {
	mu     sync.RWMutex
	keys   keyer
	consts map[string]ConstantInfo[T]
}

// NewConstantRegistry creates an empty constant registry.
func NewConstantRegistry[T any](caseSensitive bool) *ConstantRegistry[T] {
	return &ConstantRegistry[T]{keys: keyer{cs: caseSensitive}, consts: make(map[string]ConstantInfo[T])}
}

// Register adds a constant. It is an error to replace a constant which is not
// overwritable.
func (r *ConstantRegistry[T]) Register(name string, value T, overwritable bool) error {
	if !validName(name) {
		return fmt.Errorf("invalid constant name %q", name)
	}
	k := r.keys.key(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.consts[k]; ok && !c.Overwritable {
		return fmt.Errorf("%w %q", ErrConstantOverwrite, c.Name)
	}
	r.consts[k] = ConstantInfo[T]{Name: name, Value: value, Overwritable: overwritable}
	return nil
}

// Lookup finds a constant by name. A nil registry has no constants.
func (r *ConstantRegistry[T]) Lookup(name string) (ConstantInfo[T], bool) {
	if r == nil {
		return ConstantInfo[T]{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.consts[r.keys.key(name)]
	return c, ok
}

// CaseSensitive reports whether names differing by case are distinct.
func (r *ConstantRegistry[T]) CaseSensitive() bool {
	return r != nil && r.keys.cs
}

// All returns a copy of every registered constant keyed by registered name.
// A nil registry has no constants.
func (r *ConstantRegistry[T]) All() map[string]ConstantInfo[T] {
	if r == nil {
		return map[string]ConstantInfo[T]{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := make(map[string]ConstantInfo[T], len(r.consts))
	for _, c := range r.consts {
		m[c.Name] = c
	}
	return m
}

// maxFolded bounds the number of folded names a keyer remembers.
const maxFolded = 4096

// keyer maps names to registry keys. Folding is remembered so that lookups
// during evaluation don't fold the same name repeatedly.
type keyer struct {
	cs     bool
	folded sync.Map // string -> string
	n      atomic.Int64
}

// key gets the map key for a name.
func (k *keyer) key(name string) string {
	if k.cs || lowerASCII(name) {
		return name
	}
	if f, ok := k.folded.Load(name); ok {
		return f.(string)
	}
	// Casers are stateful, so each call gets its own.
	f := cases.Fold().String(name)
	if k.n.Load() < maxFolded {
		if _, loaded := k.folded.LoadOrStore(name, f); !loaded {
			k.n.Add(1)
		}
	}
	return f
}

// lowerASCII reports whether name has only ASCII characters and no capital
// letters, so that it is its own case folding.
func lowerASCII(name string) bool {
	for i := 0; i < len(name); i++ {
		if c := name[i]; c >= utf8.RuneSelf || 'A' <= c && c <= 'Z' {
			return false
		}
	}
	return true
}

// validName reports whether name would be read as a single Text token.
func validName(name string) bool {
	for i, r := range name {
		if i == 0 && !isIdentStart(r) || !isIdent(r) {
			return false
		}
	}
	return name != ""
}
