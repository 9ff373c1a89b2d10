package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tictactoe-p2p/internal/config"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/entity"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/repository"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/transport"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/transport/tcp"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/transport/websocket"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/ui"
	"github.com/rocketscienceinc/tictactoe-p2p/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-p2p/transport/rest"
)

const redisTimeout = 2 * time.Second

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	store := rest.NewMatchStore()
	displays := usecase.MultiDisplay{store}

	if conf.Status.Enabled {
		go func() {
			log.Info("Starting status server", "port", conf.Status.Port)
			if err := rest.Start(ctx, logger, conf.Status.Port, store); err != nil {
				log.Error("status server error", "error", err)
			}
		}()
	}

	if conf.Redis.Enabled {
		redisStorage, err := storage.NewRedis(ctx, conf.Redis.GetRedisAddr(), redisTimeout)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		matchRepo := repository.NewMatchRepository(redisStorage, conf.Redis.TTL)
		displays = append(displays, usecase.NewMatchFeed(logger, matchRepo, redisTimeout))
	}

	for {
		terminal := ui.NewDisplay()
		all := append(usecase.MultiDisplay{terminal}, displays...)

		session, setupErr := newSession(logger, conf, all)
		if setupErr != nil {
			log.Error("failed to set up session", "error", setupErr)
		}

		retry, err := ui.Run(ctx, session, terminal, setupErr)
		if err != nil {
			return err
		}

		if !retry || ctx.Err() != nil {
			log.Info("Application finished")
			return nil
		}

		log.Info("Retrying session setup")
	}
}

// newSession - builds the role's session. The acceptor binds here, so a busy port
// is reported before the terminal starts playing.
func newSession(logger *slog.Logger, conf *config.Config, display usecase.Display) (ui.Session, error) {
	role, err := conf.PlayerRole()
	if err != nil {
		return nil, fmt.Errorf("invalid role: %w", err)
	}

	name := conf.PlayerName()

	if role == entity.RoleInitiator {
		return usecase.NewInitiator(logger, newDialer(conf), conf.Host, conf.Port, name, display), nil
	}

	listener, err := listen(logger, conf)
	if err != nil {
		return nil, err
	}

	return usecase.NewAcceptor(logger, listener, name, display), nil
}

func newDialer(conf *config.Config) transport.Dialer {
	if conf.Transport == config.TransportWebsocket {
		return websocket.NewDialer(conf.DialTimeout)
	}

	return tcp.NewDialer(conf.DialTimeout)
}

func listen(logger *slog.Logger, conf *config.Config) (transport.Listener, error) {
	if conf.Transport == config.TransportWebsocket {
		return websocket.Listen(logger, conf.Host, conf.Port)
	}

	return tcp.Listen(conf.Host, conf.Port)
}
