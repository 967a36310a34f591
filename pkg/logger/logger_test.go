package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-api/pkg/logger"
)

func TestComponent_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "WARN", Output: &buf})

	c := l.Component("pac")
	c.Info().Msg("descartado por nivel")
	c.Warn().Str("uuid", "U-1").Msg("timbrado sin éxito")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), buf.String())
	assert.Equal(t, "pac", entry["component"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "U-1", entry["uuid"])
}
