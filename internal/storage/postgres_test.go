package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"campaign-console/internal/config"
)

func TestNotifyChannel(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		want       string
	}{
		{"default", "", DefaultChannel},
		{"configured", "campaigns_eu", "campaigns_eu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg config.Config
			cfg.Listener.Channel = tt.configured
			st := &Store{channel: notifyChannel(cfg)}
			assert.Equal(t, tt.want, st.ListenChannel())
		})
	}
}
