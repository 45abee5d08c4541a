package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	base := Config{ServerEndpointAddr: "127.0.0.1:4002", DBPath: "keep.db", RequestTimeout: 15 * time.Second}

	tests := []struct {
		name      string
		args      []string
		want      Config
		wantPanic bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "auth.internal:9090", "-db", "x.db", "-t", "10s"},
			want: Config{ServerEndpointAddr: "auth.internal:9090", DBPath: "x.db", RequestTimeout: 10 * time.Second},
		},
		{
			name: "config flag and test flags are skipped",
			args: []string{"-c", "cfg.json", "-test.v", "-t", "1m"},
			want: Config{ServerEndpointAddr: "127.0.0.1:4002", DBPath: "keep.db", RequestTimeout: time.Minute},
		},
		{
			name: "nothing set keeps current values",
			args: nil,
			want: base,
		},
		{
			name:      "bad timeout",
			args:      []string{"-t", "abc"},
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = append([]string{"cli"}, tt.args...)
			cfg := base

			if tt.wantPanic {
				assert.Panics(t, func() { parseFlags(&cfg) })
				return
			}
			parseFlags(&cfg)
			assert.Empty(t, cmp.Diff(tt.want, cfg))
		})
	}
}
