package main

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	app "github.com/rocketscienceinc/tictactoe-p2p/internal"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/config"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/entity"
)

const releaseVersion = "0.1.0"

// flags override what config.yml and the environment say, but only when given.
type flags struct {
	host        string
	port        string
	username    string
	transport   string
	dialTimeout time.Duration
	logLevel    string
	logFile     string
	statusPort  string
	redisAddr   string
}

func newCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "tictactoe",
		Short:         "Two-player tic-tac-toe over the network.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to the config file")

	cmd.AddCommand(
		newRoleCmd(entity.RoleInitiator, &configPath),
		newRoleCmd(entity.RoleAcceptor, &configPath),
	)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("tictactoe v{{.Version}}\n")

	return cmd
}

func newRoleCmd(role entity.Role, configPath *string) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Wait for a player to connect and answer their moves.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			conf.Role = role.String()
			f.apply(cmd.Flags(), conf)

			if err = conf.Validate(); err != nil {
				return err
			}

			logger, closeLog, err := initLogger(conf)
			if err != nil {
				return err
			}
			defer closeLog()

			if err = app.RunApp(logger, conf); err != nil {
				return fmt.Errorf("app run failed: %w", err)
			}

			return nil
		},
	}

	if role == entity.RoleInitiator {
		cmd.Use = "connect"
		cmd.Short = "Connect to a listening player and move first."
	}

	f.register(cmd.Flags())

	return cmd
}

func (that *flags) register(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&that.host, "host", "H", "", "host to connect to, or address to bind (env: TICTACTOE_HOST)")
	fs.StringVarP(&that.port, "port", "p", "", "port to connect to or listen on (env: TICTACTOE_PORT)")
	fs.StringVarP(&that.username, "username", "u", "", "your name (env: TICTACTOE_USERNAME)")
	fs.StringVarP(&that.transport, "transport", "t", "", "tcp or websocket (env: TICTACTOE_TRANSPORT)")
	fs.DurationVar(&that.dialTimeout, "dial-timeout", 0, "how long to wait for the peer to answer (env: TICTACTOE_DIAL_TIMEOUT)")
	fs.StringVar(&that.logLevel, "log-level", "", "debug, info, warn or error (env: TICTACTOE_LOG_LEVEL)")
	fs.StringVar(&that.logFile, "log-file", "", "log file, - for stderr (env: TICTACTOE_LOG_FILE)")
	fs.StringVar(&that.statusPort, "status-port", "", "serve /ping and /match on this port (env: TICTACTOE_STATUS_PORT)")
	fs.StringVar(&that.redisAddr, "redis", "", "publish the live match to redis at host:port (env: TICTACTOE_REDIS_HOST)")
}

// apply - copies the flags the user actually set onto conf.
func (that *flags) apply(fs *pflag.FlagSet, conf *config.Config) {
	fs.Visit(func(flag *pflag.Flag) {
		switch flag.Name {
		case "host":
			conf.Host = that.host
		case "port":
			conf.Port = that.port
		case "username":
			conf.Username = that.username
		case "transport":
			conf.Transport = that.transport
		case "dial-timeout":
			conf.DialTimeout = that.dialTimeout
		case "log-level":
			conf.LogLevel = that.logLevel
		case "log-file":
			conf.LogFile = that.logFile
		case "status-port":
			conf.Status.Enabled = true
			conf.Status.Port = that.statusPort
		case "redis":
			conf.Redis.Enabled = true
			if host, port, err := net.SplitHostPort(that.redisAddr); err == nil {
				conf.Redis.Host, conf.Redis.Port = host, port
			} else {
				conf.Redis.Host = that.redisAddr
			}
		}
	})
}
