package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelRecordsCarryChannelName(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewChanneledLogger(&LoggerConfig{
		OutputToConsole: true,
		Console:         &buf,
		JSONFormat:      true,
		DefaultLevel:    slog.LevelInfo,
	})
	require.NoError(t, err)

	logger.Persistence().Info("Save completed", "pageId", "p1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "persistence", record["channel"])
	assert.Equal(t, "Save completed", record["msg"])
	assert.Equal(t, "p1", record["pageId"])
}

func TestSetChannelLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewChanneledLogger(&LoggerConfig{OutputToConsole: true, Console: &buf, JSONFormat: true})
	require.NoError(t, err)

	logger.Layers().Debug("hidden")
	assert.Empty(t, buf.String())

	require.NoError(t, logger.SetChannelLevel(ChannelLayers, slog.LevelDebug))
	buf.Reset()
	logger.Layers().Debug("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Equal(t, "DEBUG", logger.GetChannelLevels()["layers"])

	assert.Error(t, logger.SetChannelLevel("nope", slog.LevelDebug))
}

func TestStreamDeliversFilteredEntries(t *testing.T) {
	stream := NewLogBroadcaster()
	logger, err := NewChanneledLogger(&LoggerConfig{Stream: stream, DefaultLevel: slog.LevelDebug})
	require.NoError(t, err)

	client := stream.Subscribe(ChannelAI, slog.LevelWarn)
	defer stream.Unsubscribe(client)

	logger.AI().Info("ignored by level")
	logger.Editor().Error("ignored by channel")
	logger.LogError(ChannelAI, "generate", errors.New("upstream down"), nil)

	require.Len(t, client.Entries, 1)
	entry := <-client.Entries
	assert.Equal(t, "ai", entry.Channel)
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "Operation failed", entry.Message)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
