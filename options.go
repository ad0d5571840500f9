package formulas

// EngineOption is an option for NewEngine.
type EngineOption interface {
	engineOption(enginecfg) enginecfg
}

type (
	localeopt Locale
	caseopt   bool
	cacheopt  int
	flagopt   func(*enginecfg)
)

// enginecfg holds the settings for creating an engine.
type enginecfg struct {
	loc Locale
	// cs is whether function and constant names are case sensitive.
	cs bool
	// noopt disables the optimizer.
	noopt bool
	// cache is the formula cache capacity. Negative disables the cache.
	cache int
	// nofuncs and noconsts disable registering the defaults.
	nofuncs, noconsts bool
}

func defaultcfg() enginecfg {
	return enginecfg{loc: InvariantLocale, cache: defaultCacheSize}
}

// WithLocale sets the decimal and argument separator characters for reading
// formulas. The default is InvariantLocale.
func WithLocale(loc Locale) EngineOption {
	return localeopt(loc)
}

func (o localeopt) engineOption(c enginecfg) enginecfg {
	c.loc = Locale(o)
	return c
}

// WithCaseSensitive sets whether function and constant names which differ
// only by case are distinct. By default they are not. Variable names are
// always case sensitive.
func WithCaseSensitive(cs bool) EngineOption {
	return caseopt(cs)
}

func (o caseopt) engineOption(c enginecfg) enginecfg {
	c.cs = bool(o)
	return c
}

// WithCacheSize sets the number of compiled formulas the engine keeps.
// Zero selects the default size, and a negative size disables caching.
func WithCacheSize(n int) EngineOption {
	return cacheopt(n)
}

func (o cacheopt) engineOption(c enginecfg) enginecfg {
	c.cache = int(o)
	if c.cache == 0 {
		c.cache = defaultCacheSize
	}
	return c
}

// WithoutOptimizer disables constant folding of compiled formulas.
func WithoutOptimizer() EngineOption {
	return flagopt(func(c *enginecfg) { c.noopt = true })
}

// WithoutDefaultFunctions creates the engine with no functions registered.
// Functions can be added afterward with Engine.AddFunction.
func WithoutDefaultFunctions() EngineOption {
	return flagopt(func(c *enginecfg) { c.nofuncs = true })
}

// WithoutDefaultConstants creates the engine without e and pi.
func WithoutDefaultConstants() EngineOption {
	return flagopt(func(c *enginecfg) { c.noconsts = true })
}

func (o flagopt) engineOption(c enginecfg) enginecfg {
	o(&c)
	return c
}
