package nyx

import "fmt"

// Config is a path-keyed bag of typed settings shared by the heap,
// collector and VM. Paths are dotted strings like "gc.threshold".
type Config map[string]*cfgVal

// NewConfig creates a configuration primed with the engine's default
// settings for the GC, heap and VM.
func NewConfig() *Config {
	m := make(Config)
	m.SetFloat("gc.threshold", 0.8)
	m.SetInt("gc.young_promote_after", 2)
	m.SetBool("gc.incremental", false)
	m.SetInt("gc.incremental_step_items", 100)
	m.SetInt("heap.initial_bytes", 1<<20)
	m.SetInt("heap.max_bytes", 0) // 0 == unbounded
	m.SetInt("vm.operand_stack_capacity", 1024)
	m.SetInt("vm.call_stack_capacity", 256)
	return &m
}

type cfgValType int

const (
	cfgValTypeUndefined cfgValType = iota
	cfgValTypeBool
	cfgValTypeInt
	cfgValTypeFloat
	cfgValTypeString
)

func (vt cfgValType) String() string {
	return map[cfgValType]string{
		cfgValTypeUndefined: "undefined",
		cfgValTypeBool:      "bool",
		cfgValTypeInt:       "int",
		cfgValTypeFloat:     "float",
		cfgValTypeString:    "string",
	}[vt]
}

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asFloat  float64
	asString string
}

// assignType sets the value's type, panicking if it already holds a
// different one. The Set* methods always store a fresh cfgVal before
// calling it, so setting a path again with another type replaces the
// old entry rather than panicking.
func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValTypeUndefined {
		panic(fmt.Sprintf("can't assign `%s` to type `%s`", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("can't retrieve `%s` from `%s` setting", vt, v.typ))
	}
}

func (c *Config) SetBool(path string, v bool) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValTypeBool)
	(*c)[path].asBool = v
}

func (c *Config) SetInt(path string, v int) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValTypeInt)
	(*c)[path].asInt = v
}

func (c *Config) SetFloat(path string, v float64) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValTypeFloat)
	(*c)[path].asFloat = v
}

func (c *Config) SetString(path string, v string) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValTypeString)
	(*c)[path].asString = v
}

func (c *Config) GetBool(path string) bool {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValTypeBool)
		return val.asBool
	}
	panic(fmt.Sprintf("bool setting `%s` does not exist", path))
}

func (c *Config) GetInt(path string) int {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValTypeInt)
		return val.asInt
	}
	panic(fmt.Sprintf("int setting `%s` does not exist", path))
}

func (c *Config) GetFloat(path string) float64 {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValTypeFloat)
		return val.asFloat
	}
	panic(fmt.Sprintf("float setting `%s` does not exist", path))
}

func (c *Config) GetString(path string) string {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValTypeString)
		return val.asString
	}
	panic(fmt.Sprintf("string setting `%s` does not exist", path))
}
