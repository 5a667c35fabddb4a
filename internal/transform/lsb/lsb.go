package lsb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
)

// lengthPrefixBits is how many leading bits carry the embedded string's
// byte length, as a big-endian uint32.
const lengthPrefixBits = 32

// ErrPayloadTooSmall is returned by Embed when the image has too few
// channel bits to carry the length prefix plus the parameter string.
var ErrPayloadTooSmall = errors.New("lsb: image too small to carry parameter string")

// Embed decodes payload as a PNG, writes parameter length-prefixed into
// the least-significant bit of each pixel's R, G, B, A channels in
// row-major order, and re-encodes as PNG.
func Embed(payload []byte, parameter string) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("lsb: decode source image: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}

	bits := bitsToEmbed(parameter)
	capacity := len(rgba.Pix)
	if len(bits) > capacity {
		return nil, ErrPayloadTooSmall
	}

	for i, bit := range bits {
		rgba.Pix[i] = (rgba.Pix[i] &^ 1) | bit
	}

	var out bytes.Buffer
	if err := png.Encode(&out, rgba); err != nil {
		return nil, fmt.Errorf("lsb: encode result image: %w", err)
	}
	return out.Bytes(), nil
}

// Extract decodes result as a PNG and recovers the parameter string Embed
// wrote into it.
func Extract(result []byte) (string, error) {
	img, err := png.Decode(bytes.NewReader(result))
	if err != nil {
		return "", fmt.Errorf("lsb: decode result image: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}

	if len(rgba.Pix) < lengthPrefixBits {
		return "", fmt.Errorf("lsb: image too small to carry a length prefix")
	}

	lengthBits := make([]byte, lengthPrefixBits)
	for i := 0; i < lengthPrefixBits; i++ {
		lengthBits[i] = rgba.Pix[i] & 1
	}
	length := bitsToUint32(lengthBits)

	needed := lengthPrefixBits + int(length)*8
	if needed > len(rgba.Pix) {
		return "", fmt.Errorf("lsb: embedded length %d exceeds image capacity", length)
	}

	data := make([]byte, length)
	for i := 0; i < int(length); i++ {
		var b byte
		for bitIdx := 0; bitIdx < 8; bitIdx++ {
			pixIdx := lengthPrefixBits + i*8 + bitIdx
			b = (b << 1) | (rgba.Pix[pixIdx] & 1)
		}
		data[i] = b
	}

	return string(data), nil
}

// bitsToEmbed returns the length-prefixed bit sequence for parameter, one
// byte per bit (0 or 1), ready to OR into an image's pixel bytes.
func bitsToEmbed(parameter string) []byte {
	data := []byte(parameter)

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))

	bits := make([]byte, 0, lengthPrefixBits+len(data)*8)
	for _, b := range lenBuf {
		bits = appendBitsMSBFirst(bits, b)
	}
	for _, b := range data {
		bits = appendBitsMSBFirst(bits, b)
	}
	return bits
}

func appendBitsMSBFirst(bits []byte, b byte) []byte {
	for i := 7; i >= 0; i-- {
		bits = append(bits, (b>>uint(i))&1)
	}
	return bits
}

func bitsToUint32(bits []byte) uint32 {
	var v uint32
	for _, bit := range bits {
		v = (v << 1) | uint32(bit)
	}
	return v
}

