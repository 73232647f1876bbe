package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	require.NotNil(t, cfg.CSV)
	assert.Equal(t, "DAX Futures", cfg.CSV.Name)
	assert.Len(t, cfg.Fetched, 5)

	spec := cfg.Fetched[0].Spec(cfg.Fetched[0].Name, cfg.Fetched[0].Code)
	assert.Equal(t, "DOW", spec.Name)
	assert.Equal(t, "usa30idxusd", spec.Code)
	assert.Equal(t, "America/New_York", spec.Timezone)
	assert.Equal(t, "09:30-16:00", spec.TradingHours())

	_, err := spec.Location()
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("unknown timezone rejected", func(t *testing.T) {
		cfg := Default()
		cfg.Fetched[0].Timezone = "Mars/Olympus_Mons"
		assert.Error(t, cfg.Validate())
	})

	t.Run("inverted session rejected", func(t *testing.T) {
		cfg := Default()
		cfg.Fetched[1].StartHour = 16
		cfg.Fetched[1].EndHour = 9
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "session end must be after start")
	})

	t.Run("empty session rejected", func(t *testing.T) {
		cfg := Default()
		cfg.CSV.StartHour = 8
		cfg.CSV.StartMinute = 0
		cfg.CSV.EndHour = 8
		cfg.CSV.EndMinute = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("inverted date range rejected", func(t *testing.T) {
		cfg := Default()
		cfg.StartDate = "2024-01-01"
		cfg.EndDate = "2023-01-01"
		assert.Error(t, cfg.Validate())
	})

	t.Run("malformed date rejected", func(t *testing.T) {
		cfg := Default()
		cfg.StartDate = "01/01/2024"
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
output_file: out/data.json
start_date: "2022-01-01"
end_date: "2022-12-31"
csv_source:
  name: DAX Futures
  dir: ./data
  pattern: "DAX FUTURES*.csv"
  timezone: Europe/London
  start_hour: 8
  end_hour: 17
fetched_sources:
  - name: DAX
    code: deuidxeur
    timezone: Europe/London
    start_hour: 8
    end_hour: 16
    end_minute: 30
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "out/data.json", cfg.OutputFile)
		require.Len(t, cfg.Fetched, 1)
		assert.Equal(t, "deuidxeur", cfg.Fetched[0].Code)
		assert.Equal(t, "08:00-16:30", cfg.Fetched[0].Spec("DAX", "deuidxeur").TradingHours())
	})

	t.Run("invalid file rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("output_file: x\n"), 0o644))
		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile("/nonexistent/config.yaml")
		assert.Error(t, err)
	})
}
