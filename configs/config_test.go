package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedGetters(t *testing.T) {
	t.Setenv("MENTORA_TEST_INT", "42")
	t.Setenv("MENTORA_TEST_BAD_INT", "forty")
	t.Setenv("MENTORA_TEST_FLOAT", "12.5")
	t.Setenv("MENTORA_TEST_BOOL", "true")
	t.Setenv("MENTORA_TEST_BLANK", "  ")

	assert.Equal(t, 42, Int("MENTORA_TEST_INT", 1))
	assert.Equal(t, 7, Int("MENTORA_TEST_BAD_INT", 7))
	assert.Equal(t, 12.5, Float("MENTORA_TEST_FLOAT", 0))
	assert.True(t, Bool("MENTORA_TEST_BOOL", false))
	assert.Equal(t, "fallback", Default("MENTORA_TEST_BLANK", "fallback"))
	assert.Equal(t, 3, Int("MENTORA_TEST_UNSET", 3))
}
