package config

import (
	"reflect"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrijs2005/fintrack/internal/timex"
)

func parseEnv(cfg *Config) {
	err := env.ParseWithOptions(cfg, env.Options{
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
