package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"slide_to_glory/internal/game"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok", Config{server: "http://localhost:8080", username: "ana"}, false},
		{"no username", Config{server: "http://localhost:8080"}, true},
		{"bad scheme", Config{server: "localhost:8080", username: "ana"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewCmd_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("GLORY_SERVER", "https://glory.example")
	t.Setenv("GLORY_USERNAME", "ana")
	t.Setenv("GLORY_JOIN", "tok")

	cfg := &Config{}
	newCmd(cfg)

	require.Equal(t, "https://glory.example", cfg.server)
	require.Equal(t, "ana", cfg.username)
	require.False(t, cfg.hosting())
	require.Equal(t, "ana", cfg.displayName())
}

func TestIdentityCommand(t *testing.T) {
	cur := game.Identity{DisplayName: "ana", DisplayAvatar: "🐍"}

	tests := []struct {
		line    string
		want    game.Identity
		wantErr bool
	}{
		{"name Alice Smith", game.Identity{DisplayName: "Alice Smith", DisplayAvatar: "🐍"}, false},
		{"name Bo", game.Identity{DisplayName: "Bo", DisplayAvatar: "🐍"}, false},
		{"avatar 😎", game.Identity{DisplayName: "ana", DisplayAvatar: "😎"}, false},
		{"name", cur, true},
		{"avatar", cur, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := identityCommand(strings.Fields(tt.line), cur)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.want, got)
		})
	}
}
