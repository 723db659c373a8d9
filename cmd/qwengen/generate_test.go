package main

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beauNate/qwen-image-generator/workflows"
)

func TestBuildRequestAppliesPresetThenFlags(t *testing.T) {
	flags := generateFlags{
		modality: "image",
		preset:   "portrait",
		size:     1024, // explicit flag wins over the preset
	}
	req := buildRequest(flags, "a lighthouse keeper")
	assert.Equal(t, 1024, req.Resolution)
	assert.Equal(t, workflows.Portrait, req.Aspect)
	require.NoError(t, req.Validate())
}

func TestBuildRequestFixedSeed(t *testing.T) {
	req := buildRequest(generateFlags{modality: "image", seed: 99}, "x")
	require.NotNil(t, req.Seed)
	assert.Equal(t, int64(99), *req.Seed)

	req = buildRequest(generateFlags{modality: "image"}, "x")
	assert.Nil(t, req.Seed)
}

func TestAPIClientBaseAddress(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:8080", newAPIClient(":8080").base)
	assert.Equal(t, "http://10.0.0.2:9000", newAPIClient("10.0.0.2:9000").base)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestTruncateMultibyte(t *testing.T) {
	got := truncate("ümlaut héavy prömpt", 6)
	assert.Equal(t, "ümlau…", got)
	assert.True(t, utf8.ValidString(got))
}
