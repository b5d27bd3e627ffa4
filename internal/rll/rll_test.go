package rll

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeTableIsInjective(t *testing.T) {
	seen := make(map[uint16]int)
	for b, word := range encodeTable {
		if prev, ok := seen[word]; ok {
			t.Fatalf("codeword 0x%03x used by both byte %d and %d", word, prev, b)
		}
		seen[word] = b
	}
}

func TestModulateDemodulateRoundTrip(t *testing.T) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	mod := Modulate(data)
	got, err := Demodulate(mod, len(data))
	require.Nil(t, err)
	require.Equal(t, data, got)
}

func TestModulateDemodulateRepeatedByte(t *testing.T) {
	data := make([]byte, 64)
	for i := range data {
		data[i] = 0xaa
	}
	mod := Modulate(data)
	got, err := Demodulate(mod, len(data))
	require.Nil(t, err)
	require.Equal(t, data, got)
}

func TestModulatedLengthIsNineEighthsInput(t *testing.T) {
	data := make([]byte, 16)
	mod := Modulate(data)
	require.Equal(t, (16*9+7)/8, len(mod))
}

func TestDemodulateRejectsInvalidCodeword(t *testing.T) {
	bad := []byte{0x00, 0x00}
	_, err := Demodulate(bad, 1)
	require.NotNil(t, err)
}
