package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {
	t.Run("segments are isolated", func(t *testing.T) {
		b := New(0, 64)
		require.True(t, b.Append([]byte("hello")))
		first := b.Finish()
		require.True(t, b.Append([]byte("world")))
		second := b.Finish()
		require.Equal(t, "hello", string(first))
		require.Equal(t, "world", string(second))
	})

	t.Run("overflow is reported", func(t *testing.T) {
		b := New(0, 4)
		require.True(t, b.Append([]byte("1234")))
		require.False(t, b.Append([]byte("5")))
		require.False(t, b.AppendByte('5'))
		require.Equal(t, "1234", string(b.Preview()))
	})

	t.Run("trunc stays within segment", func(t *testing.T) {
		b := New(0, 64)
		b.Append([]byte("abc"))
		b.Finish()
		b.Append([]byte("defg"))
		b.Trunc(100)
		require.Equal(t, 0, b.SegmentLength())
		require.Equal(t, []byte("abc"), b.memory)
	})

	t.Run("discard drops pending segment", func(t *testing.T) {
		b := New(0, 64)
		b.Append([]byte("keep"))
		b.Finish()
		b.Append([]byte("drop"))
		b.Discard()
		require.Equal(t, 0, b.SegmentLength())
	})

	t.Run("clear frees the space up", func(t *testing.T) {
		b := New(0, 8)
		b.Append([]byte("12345678"))
		b.Finish()
		b.Clear()
		require.True(t, b.Append([]byte("abcd")))
		require.Equal(t, "abcd", string(b.Finish()))
	})
}
