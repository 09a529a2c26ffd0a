package redis

import (
	"context"
	"path"
	"sort"
	"testing"
	"time"

	"github.com/angelmondragon/aether-storefront/pkg/kv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	_, err := client.Get(ctx, "profile/a/user_cart_list")
	require.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, client.Set(ctx, "profile/a/user_cart_list", []byte(`[{"id":"p1"}]`)))
	assert.Contains(t, mock.data, "aether:kv:profile/a/user_cart_list")

	got, err := client.Get(ctx, "profile/a/user_cart_list")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p1"}]`, string(got))

	ok, err := client.Has(ctx, "profile/a/user_cart_list")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, client.Remove(ctx, "profile/a/user_cart_list"))
	ok, err = client.Has(ctx, "profile/a/user_cart_list")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListKeysByPrefixFollowsCursor(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	mock.pageSize = 1
	client := &Client{store: mock}

	for _, key := range []string{"profile/a/x", "profile/a/y", "profile/b/x"} {
		require.NoError(t, client.Set(ctx, key, []byte("1")))
	}

	keys, err := client.ListKeysByPrefix(ctx, "profile/a/")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"profile/a/x", "profile/a/y"}, keys)
	assert.Greater(t, mock.scanCalls, 1)
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "aether:kv:profile/a/k", client.KVKey("profile/a/k"))
	assert.Equal(t, "aether", client.buildKey())
	assert.Equal(t, `a\*b\?`, escapeGlob("a*b?"))
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	_, err := client.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

type mockCmdable struct {
	data      map[string]string
	pageSize  int
	scanCalls int
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) Scan(_ context.Context, cursor uint64, match string, _ int64) *redis.ScanCmd {
	m.scanCalls++
	all := make([]string, 0, len(m.data))
	for key := range m.data {
		if ok, _ := path.Match(match, key); ok {
			all = append(all, key)
		}
	}
	sort.Strings(all)
	size := m.pageSize
	if size <= 0 {
		size = len(all)
	}
	start := int(cursor)
	if start >= len(all) {
		return redis.NewScanCmdResult(nil, 0, nil)
	}
	end := start + size
	var next uint64
	if end < len(all) {
		next = uint64(end)
	} else {
		end = len(all)
	}
	return redis.NewScanCmdResult(all[start:end], next, nil)
}
