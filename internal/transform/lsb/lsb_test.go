package lsb

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEmbedExtractRoundTrip(t *testing.T) {
	src := testPNG(t, 64, 64)

	result, err := Embed(src, "hello taskmesh")
	require.NoError(t, err)

	got, err := Extract(result)
	require.NoError(t, err)
	assert.Equal(t, "hello taskmesh", got)
}

func TestEmbedEmptyParameter(t *testing.T) {
	src := testPNG(t, 16, 16)

	result, err := Embed(src, "")
	require.NoError(t, err)

	got, err := Extract(result)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestEmbedTooSmallImageFails(t *testing.T) {
	src := testPNG(t, 2, 2) // 16 pixel-bytes of capacity, can't even fit the 32-bit length prefix

	_, err := Embed(src, "x")
	assert.ErrorIs(t, err, ErrPayloadTooSmall)
}

func TestResultIsValidPNG(t *testing.T) {
	src := testPNG(t, 32, 32)

	result, err := Embed(src, "round trip")
	require.NoError(t, err)

	_, err = png.Decode(bytes.NewReader(result))
	assert.NoError(t, err)
}
