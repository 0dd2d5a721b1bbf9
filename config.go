package pvm

import "fmt"

// Config is a small typed settings map for the compiler and VM. Typed
// accessors panic on a missing key or a type mismatch rather than
// returning a zero value silently.
type Config map[string]any

// NewConfig returns a configuration primed with the defaults the
// compiler and VM expect.
func NewConfig() *Config {
	m := make(Config)
	m.SetInt("compiler.optimize", 1)
	m.SetInt("vm.max-steps", 0) // 0 disables the instruction budget
	m.SetInt("vm.initial-stack-capacity", 64)
	return &m
}

func (c *Config) SetBool(path string, v bool)     { (*c)[path] = v }
func (c *Config) SetInt(path string, v int)       { (*c)[path] = v }
func (c *Config) SetString(path string, v string) { (*c)[path] = v }

func (c *Config) GetBool(path string) bool     { return configGet[bool](*c, path) }
func (c *Config) GetInt(path string) int       { return configGet[int](*c, path) }
func (c *Config) GetString(path string) string { return configGet[string](*c, path) }

func configGet[T any](c Config, path string) T {
	raw, ok := c[path]
	if !ok {
		panic(fmt.Sprintf("setting `%s` does not exist", path))
	}
	v, ok := raw.(T)
	if !ok {
		panic(fmt.Sprintf("setting `%s` is `%T`, not `%T`", path, raw, v))
	}
	return v
}
