package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rocketscienceinc/tictactoe-p2p/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/entity"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/protocol"
)

const (
	TransportTCP       = "tcp"
	TransportWebsocket = "websocket"

	defaultInitiatorName = "player1"
	defaultAcceptorName  = "player2"
)

type Config struct {
	LogLevel    string        `yaml:"log-level" env:"TICTACTOE_LOG_LEVEL" env-default:"info"`
	LogFile     string        `yaml:"log-file" env:"TICTACTOE_LOG_FILE" env-default:"tictactoe.log"`
	Role        string        `yaml:"role" env:"TICTACTOE_ROLE" env-default:"acceptor"`
	Transport   string        `yaml:"transport" env:"TICTACTOE_TRANSPORT" env-default:"tcp"`
	Host        string        `yaml:"host" env:"TICTACTOE_HOST"`
	Port        string        `yaml:"port" env:"TICTACTOE_PORT" env-default:"8000"`
	Username    string        `yaml:"username" env:"TICTACTOE_USERNAME"`
	DialTimeout time.Duration `yaml:"dial-timeout" env:"TICTACTOE_DIAL_TIMEOUT" env-default:"10s"`
	Status      Status        `yaml:"status" env-prefix:"TICTACTOE_STATUS_"`
	Redis       Redis         `yaml:"redis" env-prefix:"TICTACTOE_REDIS_"`
}

// Status - the read-only HTTP view of the match.
type Status struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED" env-default:"false"`
	Port    string `yaml:"port" env:"PORT" env-default:"9090"`
}

// Redis - the live match feed.
type Redis struct {
	Enabled bool          `yaml:"enabled" env:"ENABLED" env-default:"false"`
	Host    string        `yaml:"host" env:"HOST" env-default:"localhost"`
	Port    string        `yaml:"port" env:"PORT" env-default:"6379"`
	TTL     time.Duration `yaml:"ttl" env:"TTL" env-default:"1h"`
}

// Load - reads path if it exists, then the environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		err = cleanenv.ReadConfig(path, config)
	case errors.Is(err, fs.ErrNotExist):
		err = cleanenv.ReadEnv(config)
	}

	if err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Validate - checks what the user typed before any socket is opened.
func (that *Config) Validate() error {
	role, err := that.PlayerRole()
	if err != nil {
		return fmt.Errorf("invalid role: %w", err)
	}

	if _, err = that.SlogLevel(); err != nil {
		return err
	}

	if that.Transport != TransportTCP && that.Transport != TransportWebsocket {
		return fmt.Errorf("unknown transport %q", that.Transport)
	}

	if role == entity.RoleInitiator && that.Host == "" {
		return fmt.Errorf("%w: host is required to connect", apperror.ErrInvalidAddress)
	}

	if err = protocol.ValidatePort(that.Port); err != nil {
		return err
	}

	if that.Status.Enabled {
		if err = protocol.ValidatePort(that.Status.Port); err != nil {
			return fmt.Errorf("status server: %w", err)
		}
	}

	return protocol.ValidateName(that.PlayerName())
}

// SlogLevel - the configured log level. Empty means info.
func (that *Config) SlogLevel() (slog.Level, error) {
	switch that.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", that.LogLevel)
	}
}

func (that *Config) PlayerRole() (entity.Role, error) {
	return entity.ParseRole(that.Role)
}

// PlayerName - the configured username, or the role's default.
func (that *Config) PlayerName() string {
	if that.Username != "" {
		return that.Username
	}

	if role, _ := that.PlayerRole(); role == entity.RoleInitiator {
		return defaultInitiatorName
	}

	return defaultAcceptorName
}

func (that *Redis) GetRedisAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}
