package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient spins up an in-process Redis and connects a Client to it.
func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.URL = "redis://" + mr.Addr()

	client, err := NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestNewClient_ConnectsAndPings(t *testing.T) {
	client, _ := newTestClient(t)

	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewClient_UnreachableServer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1 // nothing listens here

	_, err := NewClient(cfg)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestConfig_Addr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "cache.internal"
	cfg.Port = 6380

	assert.Equal(t, "cache.internal:6380", cfg.Addr())
}

func TestKeyBuilders(t *testing.T) {
	assert.Equal(t, "vc:clip-1", VoteCountKey("clip-1"))
	assert.Equal(t, "ws:clip-1", WeightedScoreKey("clip-1"))
	assert.Equal(t, "seen:user-9:slot:3", SeenSetKey("user-9", 3))
}
