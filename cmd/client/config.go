package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	server   string
	username string
	password string
	name     string
	avatar   string
	join     string
	logLevel string
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.username) == "" {
		return errors.New("--username is required")
	}
	if !strings.HasPrefix(c.server, "http://") && !strings.HasPrefix(c.server, "https://") {
		return fmt.Errorf("invalid server URL (must start with http:// or https://): %s", c.server)
	}
	return nil
}

// hosting is true unless an invite was given.
func (c *Config) hosting() bool {
	return c.join == ""
}

func (c *Config) displayName() string {
	if c.name != "" {
		return c.name
	}
	return c.username
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("GLORY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "glory",
		Short:         "Play Slide To Glory against a friend from the terminal.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return Play(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.server, "server", "s", "http://localhost:8080", "server base URL (env: GLORY_SERVER)")
	fs.StringVarP(&cfg.username, "username", "u", "", "connection username (env: GLORY_USERNAME)")
	fs.StringVar(&cfg.password, "password", "", "log in to show stats after a game (env: GLORY_PASSWORD)")
	fs.StringVarP(&cfg.name, "name", "n", "", "display name, defaults to username (env: GLORY_NAME)")
	fs.StringVarP(&cfg.avatar, "avatar", "a", "🙂", "display avatar (env: GLORY_AVATAR)")
	fs.StringVarP(&cfg.join, "join", "j", "", "invite link or session token to join; hosts a new session when empty (env: GLORY_JOIN)")
	fs.StringVar(&cfg.logLevel, "log-level", "warn", "debug, info, warn or error (env: GLORY_LOG_LEVEL)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("glory v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
