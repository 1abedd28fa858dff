package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptProfileEmpty(t *testing.T) {
	top, mixed := ScriptProfile("")
	assert.Nil(t, top)
	assert.False(t, mixed)

	top, mixed = ScriptProfile("   \n\t")
	assert.Nil(t, top)
	assert.False(t, mixed)
}

func TestScriptProfileSingleScript(t *testing.T) {
	top, mixed := ScriptProfile("Hello world entirely in latin letters")
	require.NotEmpty(t, top)
	assert.Equal(t, "latin", top[0].Script)
	assert.False(t, mixed)
}

func TestScriptProfileMixedScripts(t *testing.T) {
	// Half latin, half cyrillic: both above their thresholds.
	latin := strings.Repeat("a", 50)
	cyrillic := strings.Repeat("д", 50)

	top, mixed := ScriptProfile(latin + cyrillic)
	require.Len(t, top, 2)
	assert.True(t, mixed)
}

func TestScriptProfileDigitsDoNotTriggerMixed(t *testing.T) {
	// Digits are counted but never treated as a competing script.
	_, mixed := ScriptProfile("abcdefgh 12345678")
	assert.False(t, mixed)
}

func TestScriptProfileMinorSecondScriptNotMixed(t *testing.T) {
	latin := strings.Repeat("a", 95)
	cyrillic := strings.Repeat("д", 5)

	_, mixed := ScriptProfile(latin + cyrillic)
	assert.False(t, mixed)
}

func TestScriptProfileTopCapped(t *testing.T) {
	text := strings.Repeat("a", 30) + strings.Repeat("д", 25) +
		strings.Repeat("字", 25) + strings.Repeat("م", 20)
	top, _ := ScriptProfile(text)
	assert.LessOrEqual(t, len(top), 3)
}
