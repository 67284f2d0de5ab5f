package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 8*physic.KiloHertz, c.Codec.Rate())
	assert.Equal(t, physic.MegaHertz, c.Channel.Speed())
	assert.Equal(t, 20*time.Millisecond, c.Buttons.PollInterval())
	assert.Equal(t, zerolog.InfoLevel, c.Level())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "echobox.yaml")
	yml := `
buffer_length: 16000
log_level: debug
led:
  clock_pin: GPIO17
codec:
  sample_rate: 48000
  input: mic
channel:
  driver: sim
echo:
  saturate: true
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16000, c.BufferLength)
	assert.Equal(t, zerolog.DebugLevel, c.Level())
	assert.Equal(t, "GPIO17", c.LED.ClockPin)
	assert.Equal(t, "GPIO25", c.LED.DataPin, "unset fields keep defaults")
	assert.Equal(t, 48*physic.KiloHertz, c.Codec.Rate())
	assert.Equal(t, "mic", c.Codec.Input)
	assert.Equal(t, uint16(0x1a), c.Codec.Address)
	assert.Equal(t, "sim", c.Channel.Driver)
	assert.True(t, c.Echo.Saturate)
}

func TestSaveLoadKeepsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "echobox.yaml")
	c := Default()
	c.Metrics.Addr = ":9100"
	c.LED.Mirror.Enabled = true
	require.NoError(t, Save(path, c))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

var TestInvalidYAMLIsRejected = []struct {
	Name  string
	YAML  string
	Field string
}{
	{"short buffer", "buffer_length: 4", "buffer_length"},
	{"odd buffer", "buffer_length: 25001", "buffer_length"},
	{"level", "log_level: loud", "log_level"},
	{"shared pin", "led: {clock_pin: GPIO4, data_pin: GPIO4}", "led"},
	{"address", "codec: {address: 0x80}", "codec.address"},
	{"volume", "codec: {input_volume: 0x20}", "codec.input_volume"},
	{"input", "codec: {input: phono}", "codec.input"},
	{"driver", "channel: {driver: usb}", "channel.driver"},
	{"speed", "channel: {speed_hz: 0}", "channel.speed_hz"},
	{"poll", "buttons: {poll_ms: 0}", "buttons.poll_ms"},
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	for _, v := range TestInvalidYAMLIsRejected {
		t.Run(v.Name, func(t *testing.T) {
			path := filepath.Join(dir, v.Name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(v.YAML), 0644))
			_, err := Load(path)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), v.Field)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
