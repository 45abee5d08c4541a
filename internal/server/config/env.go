package config

import (
	"reflect"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrijs2005/fintrack/internal/timex"
)

// parseEnv overlays values present in the environment. Durations accept the
// lifetime format ("15m", "30d") as well as Go durations.
func parseEnv(config *Config) {
	err := env.ParseWithOptions(config, env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(time.Duration(0)): func(v string) (any, error) {
				return timex.ParseLifetime(v)
			},
		},
	})
	if err != nil {
		panic(err)
	}
}
