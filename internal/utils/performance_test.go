package utils

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestOperationTimer(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	stop := OperationTimer("price_history", log)
	stop()

	out := buf.String()
	assert.Contains(t, out, `"operation":"price_history"`)
	assert.Contains(t, out, "Operation completed")
	assert.NotContains(t, out, "Slow operation detected")
}
