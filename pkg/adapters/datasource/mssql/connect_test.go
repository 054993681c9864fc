package mssql

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backcountry-access/beacon-tracker/pkg/logging"
)

func TestNewAdapter_UnreachableServerRedactsPassword(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adapter, err := NewAdapter(ctx, &Config{
		Host:              "127.0.0.1",
		Port:              1,
		Database:          "t3production",
		AuthMethod:        AuthSQL,
		Username:          "beacon",
		Password:          "p@ss",
		ConnectionTimeout: 2,
		AppName:           DefaultAppName,
	})
	require.Error(t, err)
	assert.Nil(t, adapter)

	assert.Contains(t, err.Error(), "connection test failed")
	assert.Contains(t, err.Error(), logging.RedactedText)
	assert.NotContains(t, err.Error(), "p@ss")
	assert.NotContains(t, err.Error(), "p%40ss")
}
