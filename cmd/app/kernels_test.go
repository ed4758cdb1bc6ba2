package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListKernels(t *testing.T) {
	var out strings.Builder
	require.NoError(t, listKernels(&out))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "Colour:\n"), "groups are sorted")
	assert.Contains(t, text, "Threshold:\n")
	assert.Contains(t, text, "hue_min=126 [0..255]")
	assert.Contains(t, text, "otsu")
	assert.Less(t, strings.Index(text, "Filters:"), strings.Index(text, "Morphology:"))
}
