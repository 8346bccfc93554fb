package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"palengke-backend/handlers"
	"palengke-backend/internal/auth"
	"palengke-backend/internal/cart"
	"palengke-backend/internal/checkout"
	"palengke-backend/internal/consul"
	"palengke-backend/internal/orders"
	"palengke-backend/internal/products"
	"palengke-backend/internal/stalls"
	"palengke-backend/internal/stores/kafka"
	"palengke-backend/internal/stores/postgres"
	"palengke-backend/internal/users"
	"palengke-backend/middleware"
	"palengke-backend/pkg/logkey"

	"github.com/joho/godotenv"
)

const serviceName = "palengke-backend"

func main() {
	setupSlog()

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}

	if err := startApp(); err != nil {
		slog.Error("failed to start service", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func startApp() error {

	slog.Info("migrating database")
	db, err := postgres.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, "migrations"); err != nil {
		return err
	}

	slog.Info("loading jwt keys")
	privatePath := os.Getenv("JWT_PRIVATE_KEY_FILE")
	if privatePath == "" {
		privatePath = "private.pem"
	}
	publicPath := os.Getenv("JWT_PUBLIC_KEY_FILE")
	if publicPath == "" {
		publicPath = "pubkey.pem"
	}
	keys, err := auth.LoadKeysFromFiles(privatePath, publicPath)
	if err != nil {
		return err
	}

	// kafka is optional; without brokers the service runs but emits no events
	var k *kafka.Conf
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		slog.Info("connecting to kafka", slog.String("brokers", brokers))
		k, err = kafka.NewConf(strings.Split(brokers, ","))
		if err != nil {
			return err
		}
		defer k.Close()
	} else {
		slog.Warn("KAFKA_BROKERS not set, events disabled")
	}

	u, err := users.NewConf(db)
	if err != nil {
		return err
	}
	st, err := stalls.NewConf(db)
	if err != nil {
		return err
	}
	p, err := products.NewConf(db)
	if err != nil {
		return err
	}
	cConf, err := cart.NewConf(db)
	if err != nil {
		return err
	}
	o, err := orders.NewConf(db)
	if err != nil {
		return err
	}

	store, err := checkout.NewPostgresStore(db)
	if err != nil {
		return err
	}
	engine, err := checkout.NewEngine(store)
	if err != nil {
		return err
	}

	h := handlers.NewHandler(u, st, p, cConf, o, engine, k, keys)
	m, err := middleware.NewMid(keys)
	if err != nil {
		return err
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return err
	}

	api := http.Server{
		Addr:         ":" + port,
		Handler:      handlers.API(h, m),
		ReadTimeout:  8 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// consul registration is optional as well
	if consulAddr := os.Getenv("CONSUL_ADDRESS"); consulAddr != "" {
		client, err := consul.NewClient(consulAddr)
		if err != nil {
			return err
		}
		host := os.Getenv("SERVICE_HOST")
		if host == "" {
			host = "localhost"
		}
		if err := consul.RegisterService(client, serviceName, host, portNum); err != nil {
			return err
		}
		defer func() {
			if err := consul.DeregisterService(client, serviceName, host, portNum); err != nil {
				slog.Error("failed to deregister service", slog.String(logkey.ERROR, err.Error()))
			}
		}()
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("service started", slog.String("port", port))
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err
	case sig := <-shutdown:
		slog.Info("shutdown initiated", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			if err := api.Close(); err != nil {
				return err
			}
		}
	}

	return nil
}

func setupSlog() {
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)
}
