package main

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pump_relay/internal/config"
	"pump_relay/internal/handlers"
	"pump_relay/internal/logger"
	"pump_relay/internal/mqttbridge"
	"pump_relay/internal/relay"
	"pump_relay/internal/repository"
	"pump_relay/internal/repository/db"
	"pump_relay/internal/server"
	"pump_relay/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// load configs/config.yml, .env and PUMP_* overrides
	cfg, err := config.Load(os.Getenv("PUMP_CONFIG"))
	if err != nil {
		logger.Get(logger.InfoLevel, logger.ConsoleFormat).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.Log.Level, cfg.Log.Format)

	// open DB (optional event log)
	sqlDB, err := openDB(cfg.DB, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if sqlDB == nil {
			return
		}
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	rl := relay.New(log.Named("relay"), relay.Options{SendTimeout: cfg.Relay.SendTimeout})
	repos := repository.NewRepository(sqlDB)
	services, pump := service.NewService(rl, repos, log.Named("pump"))

	var closers []io.Closer
	if cfg.MQTT.Enabled() {
		bridge, err := mqttbridge.Connect(mqttbridge.Options{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		}, pump, log.Named("mqtt"))
		if err != nil {
			log.Errorw("mqtt bridge disabled", "err", err)
		} else {
			pump.SetPublisher(bridge)
			closers = append(closers, bridge)
		}
	}

	apiHandler := handlers.NewHandler(services, rl, log.Named("http"), handlers.Options{
		MaxBodyBytes:       cfg.HTTP.MaxBodyBytes,
		GzipMinSize:        cfg.HTTP.GzipMinSize,
		AllowedOrigins:     cfg.CORS.AllowedOrigins,
		DeviceStatusOverWS: cfg.Relay.DeviceStatusOverWS,
		WS: relay.WSOptions{
			PingPeriod: cfg.Relay.PingPeriod,
			PongWait:   cfg.Relay.PongWait,
		},
	})
	httpHandler, err := apiHandler.HTTPHandler()
	if err != nil {
		log.Fatalw("failed to build http handler", "err", err)
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, httpHandler, log)

	// graceful shutdown
	waitForShutdown(srv, rl, closers, log)
}

// openDB initializes the SQLite event log. An empty path runs without one.
func openDB(cfg config.DBConfig, log *logger.Logger) (*sql.DB, error) {
	if cfg.Path == "" {
		log.Infow("db.path not set; event log disabled")
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return db.InitDB(ctx, cfg.Path, cfg.BusyTimeout)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler http.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, rl *relay.Relay, closers []io.Closer, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	// websocket connections are hijacked, so Shutdown does not close them
	if err := rl.Close(); err != nil {
		log.Warnw("closing channels", "err", err)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Warnw("closing dependency", "err", err)
		}
	}
	_ = log.Sync()
}
