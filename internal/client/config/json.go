package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/ragchat/internal/flagx"
	"github.com/dmitrijs2005/ragchat/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies
// on timex.Duration so JSON can specify intervals either as strings like
// "30s" or as integer nanoseconds. After parsing, values are copied into
// the runtime Config.
type JsonConfig struct {
	ServerBaseURL   string         `json:"server_base_url"`
	DatabaseDSN     string         `json:"database_dsn"`
	RequestTimeout  timex.Duration `json:"request_timeout"`
	RefreshMargin   timex.Duration `json:"refresh_margin"`
	RescheduleFloor timex.Duration `json:"reschedule_floor"`
	WatchInterval   timex.Duration `json:"watch_interval"`
}

// parseJson overlays Config with values loaded from a JSON file resolved
// via the -c/-config flags. Missing file path means no JSON is loaded.
// Fields absent from the file keep their current values. Panics on read
// or unmarshal errors.
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later
// stages override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RefreshMargin.Duration > 0 {
		cfg.RefreshMargin = jc.RefreshMargin.Duration
	}
	if jc.RescheduleFloor.Duration > 0 {
		cfg.RescheduleFloor = jc.RescheduleFloor.Duration
	}
	if jc.WatchInterval.Duration > 0 {
		cfg.WatchInterval = jc.WatchInterval.Duration
	}
}
