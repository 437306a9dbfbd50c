package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"red-or-black-bot/internal/config"
)

func TestPoolConfig(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:           "db",
		Port:           5433,
		User:           "redblack",
		Password:       "secret",
		Name:           "journal",
		PoolSize:       8,
		ConnectTimeout: 3 * time.Second,
	}

	pc, err := PoolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
	assert.Equal(t, "journal", pc.ConnConfig.Database)
	assert.Equal(t, int32(8), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, 3*time.Second, pc.ConnConfig.ConnectTimeout)
	assert.Equal(t, time.Hour, pc.MaxConnLifetime)
	assert.Equal(t, 30*time.Minute, pc.MaxConnIdleTime)
}

func TestPoolConfig_SmallPoolKeepsOneConn(t *testing.T) {
	pc, err := PoolConfig(&config.DatabaseConfig{Host: "localhost", Port: 5432, User: "u", Name: "d", PoolSize: 2})
	require.NoError(t, err)

	assert.Equal(t, int32(2), pc.MaxConns)
	assert.Equal(t, int32(1), pc.MinConns)
}
