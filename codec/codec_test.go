package codec

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func roundtrip(t *testing.T, c Codec, payload string) {
	t.Helper()

	var encoded bytes.Buffer
	compressor := c.NewCompressor()
	compressor.Reset(&encoded)
	_, err := compressor.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, compressor.Close())

	decompressor := c.NewDecompressor()
	require.NoError(t, decompressor.Reset(&encoded))
	decoded, err := io.ReadAll(decompressor)
	require.NoError(t, err)
	require.Equal(t, payload, string(decoded))
}

func TestRoundtrip(t *testing.T) {
	payload := strings.Repeat("Hello, world! ", 500)

	for _, c := range []Codec{NewGZIP(), NewDeflate(), NewZSTD(), NewBrotli()} {
		t.Run(c.Token(), func(t *testing.T) {
			roundtrip(t, c, payload)
		})
	}
}

func TestInstancesAreReusable(t *testing.T) {
	for _, c := range []Codec{NewGZIP(), NewDeflate(), NewZSTD(), NewBrotli()} {
		t.Run(c.Token(), func(t *testing.T) {
			var first, second bytes.Buffer
			compressor := c.NewCompressor()

			compressor.Reset(&first)
			_, err := compressor.Write([]byte("first payload"))
			require.NoError(t, err)
			require.NoError(t, compressor.Close())

			compressor.Reset(&second)
			_, err = compressor.Write([]byte("second payload"))
			require.NoError(t, err)
			require.NoError(t, compressor.Close())

			decompressor := c.NewDecompressor()
			require.NoError(t, decompressor.Reset(&first))
			decoded, err := io.ReadAll(decompressor)
			require.NoError(t, err)
			require.Equal(t, "first payload", string(decoded))

			require.NoError(t, decompressor.Reset(&second))
			decoded, err = io.ReadAll(decompressor)
			require.NoError(t, err)
			require.Equal(t, "second payload", string(decoded))
		})
	}
}
