package pvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 0, cfg.GetInt("vm.max-steps"))
	assert.Equal(t, 1, cfg.GetInt("compiler.optimize"))
	assert.Equal(t, 64, cfg.GetInt("vm.initial-stack-capacity"))
}

func TestConfigSetOverridesDefault(t *testing.T) {
	cfg := NewConfig()
	cfg.SetInt("vm.max-steps", 1000)
	assert.Equal(t, 1000, cfg.GetInt("vm.max-steps"))
}

func TestConfigTypeMismatchPanics(t *testing.T) {
	cfg := NewConfig()
	assert.Panics(t, func() { cfg.GetString("vm.max-steps") })
}

func TestConfigMissingKeyPanics(t *testing.T) {
	cfg := NewConfig()
	assert.Panics(t, func() { cfg.GetBool("does.not.exist") })
}
