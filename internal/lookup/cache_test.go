package lookup

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/herdimport/internal/core"
)

func staticLoader(entries ...core.CodeEntry) Loader {
	return LoaderFunc(func(context.Context) ([]core.CodeEntry, error) {
		return entries, nil
	})
}

func TestCache_Init(t *testing.T) {
	c := New()
	err := c.Init(context.Background(), staticLoader(
		core.CodeEntry{Kind: core.CodeBreed, Code: "AL", Name: "阿爾拜因"},
		core.CodeEntry{Kind: core.CodeSex, Code: "2", Name: "母"},
		core.CodeEntry{Kind: core.CodeSex, Code: "", Name: "ignored"},
	))
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())

	name, ok := c.Lookup(core.CodeBreed, "AL")
	assert.True(t, ok)
	assert.Equal(t, "阿爾拜因", name)

	_, ok = c.Lookup(core.CodeBreed, "2")
	assert.False(t, ok, "codes are separated by kind")
}

func TestCache_InitErrorKeepsContents(t *testing.T) {
	c := New()
	require.NoError(t, c.Init(context.Background(), staticLoader(
		core.CodeEntry{Kind: core.CodeBreed, Code: "SA", Name: "撒能"},
	)))

	boom := errors.New("connection refused")
	err := c.Init(context.Background(), LoaderFunc(func(context.Context) ([]core.CodeEntry, error) {
		return nil, boom
	}))
	require.ErrorIs(t, err, boom)

	_, ok := c.Lookup(core.CodeBreed, "SA")
	assert.True(t, ok)
}

func TestCache_RefreshAfterFailedInit(t *testing.T) {
	c := New()
	down := true
	loader := LoaderFunc(func(context.Context) ([]core.CodeEntry, error) {
		if down {
			return nil, errors.New("connection refused")
		}
		return []core.CodeEntry{{Kind: core.CodeBreed, Code: "AL", Name: "阿爾拜因"}}, nil
	})

	require.Error(t, c.Init(context.Background(), loader))
	assert.Equal(t, 0, c.Len())

	down = false
	require.NoError(t, c.Refresh(context.Background()))
	name, ok := c.Lookup(core.CodeBreed, "AL")
	assert.True(t, ok)
	assert.Equal(t, "阿爾拜因", name)
}

func TestCache_ClearAndRefresh(t *testing.T) {
	c := New()
	require.ErrorIs(t, c.Refresh(context.Background()), ErrNotInitialized)

	calls := 0
	loader := LoaderFunc(func(context.Context) ([]core.CodeEntry, error) {
		calls++
		return []core.CodeEntry{{Kind: core.CodeSex, Code: "1", Name: "公"}}, nil
	})
	require.NoError(t, c.Init(context.Background(), loader))

	c.Clear()
	assert.Equal(t, 0, c.Len())

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 2, calls)
}

func TestCache_Entries(t *testing.T) {
	c := New()
	require.NoError(t, c.Init(context.Background(), staticLoader(
		core.CodeEntry{Kind: core.CodeBreed, Code: "AL", Name: "阿爾拜因"},
	)))

	got := c.Entries(core.CodeBreed)
	got["XX"] = "mutated"

	_, ok := c.Lookup(core.CodeBreed, "XX")
	assert.False(t, ok, "Entries must return a copy")
}

func TestCache_ConcurrentReads(t *testing.T) {
	c := New()
	require.NoError(t, c.Init(context.Background(), staticLoader(
		core.CodeEntry{Kind: core.CodeBreed, Code: "AL", Name: "阿爾拜因"},
	)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Lookup(core.CodeBreed, "AL")
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Refresh(context.Background())
	}()
	wg.Wait()

	assert.Equal(t, 1, c.Len())
}
