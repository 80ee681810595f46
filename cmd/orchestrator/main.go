package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/6amape9I/parallel--funetun/orchestrator"
	"github.com/6amape9I/parallel--funetun/orchestrator/api"
	"github.com/6amape9I/parallel--funetun/orchestrator/middleware"
	"github.com/6amape9I/parallel--funetun/pkg/chain"
	"github.com/6amape9I/parallel--funetun/pkg/jaeger"
	"github.com/6amape9I/parallel--funetun/pkg/mqtt"
	"github.com/6amape9I/parallel--funetun/pkg/prometheus"
	"github.com/6amape9I/parallel--funetun/pkg/roster"
	"github.com/6amape9I/parallel--funetun/pkg/server"
	httpserver "github.com/6amape9I/parallel--funetun/pkg/server/http"
	"github.com/6amape9I/parallel--funetun/pkg/storage"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName       = "orchestrator"
	defHTTPPort   = "8000"
	envPrefixHTTP = "ORCHESTRATOR_HTTP_"
	pathEnv       = ".env"
	shutdownWait  = 10 * time.Second
)

type envConfig struct {
	LogLevel     string        `env:"ORCHESTRATOR_LOG_LEVEL"     envDefault:"info"`
	InstanceID   string        `env:"ORCHESTRATOR_INSTANCE_ID"`
	ProviderURL  string        `env:"WEB3_PROVIDER_URL"          envDefault:"http://127.0.0.1:8545"`
	ContractAddr string        `env:"JOB_MANAGER_ADDRESS"        envDefault:"0x5fbdb2315678afecb367f032d93f642f64180aa3"`
	ABIPaths     []string      `env:"ORCHESTRATOR_ABI_PATHS"     envSeparator:","`
	ChainTimeout time.Duration `env:"ORCHESTRATOR_CHAIN_TIMEOUT" envDefault:"3s"`
	SimEnabled   bool          `env:"SIMULATION_ENABLED"         envDefault:"true"`
	SimInterval  interval      `env:"SIMULATION_INTERVAL"        envDefault:"3"`
	SimSeed      uint64        `env:"SIMULATION_SEED"            envDefault:"0"`
	TotalEpochs  uint64        `env:"ORCHESTRATOR_TOTAL_EPOCHS"  envDefault:"100"`
	RosterFile   string        `env:"ORCHESTRATOR_ROSTER_FILE"`
	MQTTAddress  string        `env:"ORCHESTRATOR_MQTT_ADDRESS"`
	MQTTQoS      uint8         `env:"ORCHESTRATOR_MQTT_QOS"      envDefault:"1"`
	MQTTTimeout  time.Duration `env:"ORCHESTRATOR_MQTT_TIMEOUT"  envDefault:"30s"`
	MQTTUsername string        `env:"ORCHESTRATOR_MQTT_USERNAME"`
	MQTTPassword string        `env:"ORCHESTRATOR_MQTT_PASSWORD"`
	DomainID     string        `env:"ORCHESTRATOR_DOMAIN_ID"     envDefault:"funetun"`
	ChannelID    string        `env:"ORCHESTRATOR_CHANNEL_ID"    envDefault:"training"`
	OTELURL      url.URL       `env:"ORCHESTRATOR_OTEL_URL"`
	TraceRatio   float64       `env:"ORCHESTRATOR_TRACE_RATIO"   envDefault:"0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, cfg.InstanceID, cfg.TraceRatio)
		if err != nil {
			logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := sdktp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	participants := roster.Default()
	if cfg.RosterFile != "" {
		r, err := roster.Load(cfg.RosterFile)
		if err != nil {
			logger.Error("failed to load roster", slog.String("path", cfg.RosterFile), slog.String("error", err.Error()))

			return
		}
		participants = r
	}

	chainClient := chain.NewUnavailable()
	if cfg.ProviderURL != "" {
		abiPaths := cfg.ABIPaths
		if len(abiPaths) == 0 {
			abiPaths = chain.DefaultABIPaths
		}
		chainClient = chain.NewClient(chain.Config{
			ProviderURL:     cfg.ProviderURL,
			ContractAddress: cfg.ContractAddr,
			ABIPaths:        abiPaths,
			Timeout:         cfg.ChainTimeout,
		}, logger)
	}

	var pubsub mqtt.PubSub
	if cfg.MQTTAddress != "" {
		ps, err := mqtt.NewPubSub(mqtt.Config{
			Address:   cfg.MQTTAddress,
			QoS:       cfg.MQTTQoS,
			ClientID:  svcName + "-" + cfg.InstanceID,
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
			DomainID:  cfg.DomainID,
			ChannelID: cfg.ChannelID,
			Timeout:   cfg.MQTTTimeout,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize mqtt pubsub", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := ps.Disconnect(context.Background()); err != nil {
				logger.Error("failed to disconnect mqtt pubsub", slog.Any("error", err))
			}
		}()
		pubsub = ps
	}

	timing := orchestrator.DefaultTiming()
	timing.Interval = time.Duration(cfg.SimInterval)

	svc := orchestrator.NewService(orchestrator.Config{
		ProviderURL:       cfg.ProviderURL,
		ContractAddress:   cfg.ContractAddr,
		TotalEpochs:       cfg.TotalEpochs,
		SimulationEnabled: cfg.SimEnabled,
		Roster:            participants,
		Timing:            timing,
		Seed:              cfg.SimSeed,
		DomainID:          cfg.DomainID,
		ChannelID:         cfg.ChannelID,
	}, chainClient, storage.NewInMemoryStorage(), pubsub, logger)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	if err := svc.Subscribe(ctx); err != nil {
		logger.Error("failed to subscribe to reports channel", slog.String("error", err.Error()))

		return
	}

	if cfg.SimEnabled {
		if _, err := svc.StartSimulation(ctx); err != nil {
			logger.Error("failed to start simulation", slog.String("error", err.Error()))

			return
		}
	}

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}

	sctx, scancel := context.WithTimeout(context.Background(), shutdownWait)
	defer scancel()
	if err := svc.Shutdown(sctx); err != nil {
		logger.Error("failed to shut down orchestrator", slog.String("error", err.Error()))
	}
}
