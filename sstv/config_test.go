package sstv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Config_defaultIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func Test_Config_rejectsTooLowSampleRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 4000 // below 2*MAX_FREQ (4600)
	assert.Error(t, cfg.Validate())
}

func Test_Config_rejectsNonPositiveSinkCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SinkCapacity = 0
	assert.Error(t, cfg.Validate())
}

func Test_Config_saveAndLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.SampleRate = 48000

	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
