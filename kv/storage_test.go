package kv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	t.Run("case-insensitive lookup", func(t *testing.T) {
		s := New().Add("Content-Type", "text/html")
		require.Equal(t, "text/html", s.Value("content-type"))
		require.Equal(t, "text/html", s.Value("CONTENT-TYPE"))
		require.True(t, s.Has("cOnTeNt-TyPe"))
		require.False(t, s.Has("content-length"))
	})

	t.Run("multiple values preserve order", func(t *testing.T) {
		s := New().
			Add("Accept", "text/html").
			Add("accept", "application/json").
			Add("ACCEPT", "*/*")
		require.Equal(t, []string{"text/html", "application/json", "*/*"}, s.Values("Accept"))
		require.Equal(t, "text/html", s.Value("accept"))
	})

	t.Run("value or fallback", func(t *testing.T) {
		s := New()
		require.Equal(t, "fallback", s.ValueOr("nonexistent", "fallback"))
	})

	t.Run("unique keys", func(t *testing.T) {
		s := New().
			Add("Hello", "world").
			Add("hello", "again").
			Add("Foo", "bar")
		require.Equal(t, []string{"Hello", "Foo"}, s.Keys())
	})

	t.Run("iter yields insertion order", func(t *testing.T) {
		s := New().Add("a", "1").Add("b", "2").Add("a", "3")
		var pairs []Pair
		for k, v := range s.Iter() {
			pairs = append(pairs, Pair{k, v})
		}
		require.Equal(t, []Pair{{"a", "1"}, {"b", "2"}, {"a", "3"}}, pairs)
	})

	t.Run("clear keeps nothing", func(t *testing.T) {
		s := New().Add("a", "1")
		require.Equal(t, 1, s.Len())
		s.Clear()
		require.True(t, s.Empty())
		require.Nil(t, s.Values("a"))
	})

	t.Run("clone is independent", func(t *testing.T) {
		s := New().Add("a", "1")
		c := s.Clone()
		s.Add("b", "2")
		require.Equal(t, 1, c.Len())
		require.Equal(t, "1", c.Value("a"))
	})

	t.Run("from map", func(t *testing.T) {
		s := NewFromMap(map[string][]string{"Key": {"v1", "v2"}})
		require.Equal(t, []string{"v1", "v2"}, s.Values("key"))
	})
}
