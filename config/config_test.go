package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ReadConfig(t *testing.T) {
	file := "../testdata/test_readConfig.yaml"
	c, err := ReadConfig(file)
	require.NoError(t, err)
	assert.Len(t, c.Nodes, 2)
	n1 := c.Nodes[0]
	assert.Equal(t, n1.Id, 1)
	assert.Equal(t, n1.Address, "123")
	assert.Equal(t, n1.Port, "14")
	n2 := c.Nodes[1]
	assert.Equal(t, n2.Id, 2)
	assert.Equal(t, n2.Address, "123")
	assert.Equal(t, n2.Port, "15")

	assert.Equal(t, 250*time.Millisecond, c.RequestTimeout)
	assert.Equal(t, DefaultElectionTimeout, c.ElectionTimeout)
	assert.Equal(t, DefaultStateMachineBytes, c.StateMachineBytes)
	assert.Equal(t, slog.LevelDebug, c.Level())
}

func Test_GetNode(t *testing.T) {
	c, err := ReadConfig("../testdata/test_readConfig.yaml")
	require.NoError(t, err)

	n, err := c.GetNode(2)
	require.NoError(t, err)
	assert.Equal(t, "123:15", n.GetAddress())
	port, err := n.GetPort()
	require.NoError(t, err)
	assert.Equal(t, uint16(15), port)

	_, err = c.GetNode(3)
	assert.Error(t, err)

	_, err = (&Node{Id: 9, Port: "http"}).GetPort()
	assert.Error(t, err)
}

func Test_ReadConfig_Missing(t *testing.T) {
	_, err := ReadConfig("../testdata/missing.yaml")
	assert.Error(t, err)
}

func Test_Level_Default(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, (&Config{}).Level())
	assert.Equal(t, slog.LevelWarn, (&Config{LogLevel: "warn"}).Level())
}
