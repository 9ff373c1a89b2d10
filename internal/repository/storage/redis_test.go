package storage

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-p2p/testing/suite"
)

func TestNewRedis(t *testing.T) {
	t.Run("Connects", func(t *testing.T) {
		ctx, st := suite.New(t)

		client, err := NewRedis(ctx, st.Addr, time.Second)

		require.NoError(t, err)
		assert.NoError(t, client.Close())
	})

	t.Run("Nobody answers", func(t *testing.T) {
		// Given: a port that was just released
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := ln.Addr().String()
		require.NoError(t, ln.Close())

		// When: connecting to it
		_, err = NewRedis(context.Background(), addr, 500*time.Millisecond)

		// Then: the failure names the address
		require.Error(t, err)
		assert.Contains(t, err.Error(), addr)
	})
}
