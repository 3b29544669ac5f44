package cacheutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDurableReplay(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	path := filepath.Join(t.TempDir(), "trips.cache")

	cache := NewDurable(path, func(ctx context.Context, key string) (string, error) {
		return "value-" + key, nil
	})

	keys := []string{"2023-01-01", "2023-01-02", "2023-01-03"}
	for _, k := range keys {
		v, err := cache.Get(ctx, k)
		require.NoError(t, err)
		require.Equal(t, "value-"+k, v)
	}

	// a fresh instance over the same file must serve every key without
	// touching the producer
	reloaded := NewDurable(path, func(ctx context.Context, key string) (string, error) {
		return "", fmt.Errorf("unexpected fetch for %q", key)
	})
	for _, k := range keys {
		v, err := reloaded.Get(ctx, k)
		require.NoError(t, err)
		require.Equal(t, "value-"+k, v)
	}

	known, err := reloaded.Keys()
	require.NoError(t, err)
	require.ElementsMatch(t, keys, known)
}

func TestDurableLastWriteWins(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	path := filepath.Join(t.TempDir(), "trips.cache")

	next := "a"
	cache := NewDurable(path, func(ctx context.Context, key string) (string, error) {
		return next, nil
	})

	v, err := cache.GetFresh(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "a", v)

	next = "b"
	v, err = cache.GetFresh(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "b", v)

	v, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "b", v)

	// the file retains history, replay must still yield the latest value
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(contents), "\n"), "\n")
	require.Equal(t, []string{"#v1", "k=a", "k=b"}, lines)

	reloaded := NewDurable(path, nil)
	v, err = reloaded.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "b", v)
}

func TestDurableKeyNormalization(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	path := filepath.Join(t.TempDir(), "trips.cache")

	var sawKey string
	cache := NewDurable(path, func(ctx context.Context, key string) (string, error) {
		sawKey = key
		return "x=y\nz", nil
	})

	v, err := cache.Get(ctx, "a=b\nc")
	require.NoError(t, err)
	require.Equal(t, "abc", sawKey)
	// '=' is legal inside values, newlines are stripped
	require.Equal(t, "x=yz", v)

	reloaded := NewDurable(path, nil)
	v, err = reloaded.Get(ctx, "abc")
	require.NoError(t, err)
	require.Equal(t, "x=yz", v)
}

func TestDurableProducerErrorNotCached(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	path := filepath.Join(t.TempDir(), "trips.cache")

	fail := true
	cache := NewDurable(path, func(ctx context.Context, key string) (string, error) {
		if fail {
			return "", fmt.Errorf("upstream down")
		}
		return "ok", nil
	})

	_, err := cache.Get(ctx, "k")
	require.ErrorContains(t, err, "upstream down")

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "#v1\n", string(contents))

	fail = false
	v, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "ok", v)
}

func TestDurableMalformedLine(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	path := filepath.Join(t.TempDir(), "trips.cache")
	err := os.WriteFile(path, []byte("#v1\na=1\n\ngarbage-without-separator\n"), 0644)
	require.NoError(t, err)

	cache := NewDurable(path, nil)
	_, err = cache.Get(ctx, "a")
	require.ErrorContains(t, err, "malformed cache line")
}

func TestDurableDestroy(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	path := filepath.Join(t.TempDir(), "trips.cache")
	cache := NewDurable(path, func(ctx context.Context, key string) (string, error) {
		return "v", nil
	})

	_, err := cache.Get(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, cache.Destroy())
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))

	// usable again after destruction, starting from an empty file
	v, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", v)
}
