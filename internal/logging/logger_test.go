package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-tracker/internal/config"
	"todo-tracker/internal/logging"
)

func TestNew_ProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(config.EnvProd, "", &buf)
	require.NoError(t, err)

	logger.Info().Int("todo_id", 7).Msg("created todo")
	logger.Debug().Msg("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "created todo", entry["message"])
	assert.EqualValues(t, 7, entry["todo_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_LevelOverride(t *testing.T) {
	logger, err := logging.New(config.EnvProd, "warn", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestNew_Errors(t *testing.T) {
	_, err := logging.New("staging", "", nil)
	assert.EqualError(t, err, "unknown env: staging")

	_, err = logging.New(config.EnvDev, "loud", nil)
	assert.Error(t, err)
}
