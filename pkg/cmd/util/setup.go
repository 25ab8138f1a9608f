// Package util holds the wiring shared by the commands.
package util

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/pgx-contrib/pgxtrace"
	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/kumpetisi/pushbike-service-manager-go/log"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/config"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/db/postgres"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/api"
	bobRepos "github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/bob"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/natskv"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/service"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/utils"
)

// AddLogFlags registers the logging and telemetry flags on cmd.
func AddLogFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	cmd.Flags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"info",
		"controls the log level for sql methods")
	cmd.Flags().StringVar(&config.LogFormat,
		"log-format",
		"text",
		"controls the log output format (json, text)")
	cmd.Flags().StringVar(&config.LogFilter,
		"log-filter",
		"",
		"zapfilter rules, e.g. '*:info service.*:debug'")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data ('stdout' prints them)")
}

// AddStoreFlags registers the flags selecting where race results are kept.
func AddStoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&config.ResultStore,
		"result-store",
		config.ResultStoreDB,
		"where race results are kept (db, nats)")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		nats.DefaultURL,
		"NATS server used with --result-store nats")
	cmd.Flags().StringVar(&config.NatsBucket,
		"nats-bucket",
		natskv.DefaultBucket,
		"key value bucket for race results")
	cmd.Flags().IntVar(&config.MaxDBConns,
		"max-db-conns",
		0,
		"max connections of the database pool (0 uses the pgx default)")
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger installs the default logger and returns the logger for sql
// statements.
func SetupLogger() (sqlLogger *log.Logger, err error) {
	opts := []log.Option{log.WithCaller(true), log.AddCallerSkip(1)}
	if config.LogFilter != "" {
		filter, err := log.WithFilter(config.LogFilter)
		if err != nil {
			return nil, fmt.Errorf("log filter: %w", err)
		}
		opts = append(opts, filter)
	}
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(os.Stderr, parseLogLevel(config.LogLevel, log.InfoLevel), opts...)
		sqlLogger = log.New(os.Stderr, parseLogLevel(config.SQLLogLevel, log.InfoLevel), opts...)
	default:
		logger = log.DevLogger(os.Stderr, parseLogLevel(config.LogLevel, log.DebugLevel), opts...)
		sqlLogger = log.DevLogger(os.Stderr,
			parseLogLevel(config.SQLLogLevel, log.InfoLevel), opts...)
	}
	log.ResetDefault(logger)
	return sqlLogger.Named("sql"), nil
}

// Env holds the service and everything that must be released afterwards.
type Env struct {
	Service *service.Service
	Pool    *pgxpool.Pool
	closers []func()
}

func (e *Env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// NewEnv connects to the database (and NATS if configured) and creates the
// service on top of it.
//
//nolint:funlen // wiring
func NewEnv(ctx context.Context) (*Env, error) {
	sqlLogger, err := SetupLogger()
	if err != nil {
		return nil, err
	}
	log.Debug("Config:",
		log.String("db", config.DB),
		log.String("resultStore", config.ResultStore),
		log.String("nats", config.NatsURL))
	WaitForRequiredServices(ctx)

	env := &Env{}
	pgTracer := pgxtrace.CompositeQueryTracer{
		postgres.NewMyTracer(sqlLogger, log.DebugLevel),
	}
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		if telemetry, err := config.SetupTelemetry(ctx); err == nil {
			pgTracer = append(pgTracer, postgres.NewOtlpTracer())
			env.closers = append(env.closers, telemetry.Shutdown)
		} else {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	pool, err := postgres.InitWithURL(config.DB,
		postgres.WithTracer(pgTracer),
		postgres.WithMaxConns(int32(config.MaxDBConns)))
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Pool = pool
	env.closers = append(env.closers, pool.Close)

	db := bobRepos.NewDB(pool)
	var repos api.Repositories = bobRepos.NewRepositories(db)
	if config.ResultStore == config.ResultStoreNats {
		nc, err := nats.Connect(config.NatsURL, nats.Name("psm"))
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		env.closers = append(env.closers, nc.Close)
		results, err := natskv.NewResultRepository(ctx, nc,
			natskv.WithBucket(config.NatsBucket))
		if err != nil {
			env.Close()
			return nil, err
		}
		repos = repository.WithResultRepository(repos, results)
	}
	env.Service = service.New(
		service.WithRepositories(repos),
		service.WithTransactionManager(bobRepos.NewTransactionManager(db)),
		service.WithLogger(log.Default().Named("service")))
	return env, nil
}

// WaitForRequiredServices blocks until the database (and NATS if used) accept
// connections. The process exits if they are not ready in time.
func WaitForRequiredServices(ctx context.Context) {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}

	wg := sync.WaitGroup{}
	checkTCP := func(addr string) {
		defer wg.Done()
		if err := utils.WaitForTCP(ctx, addr, timeout); err != nil {
			log.Fatal("required services not ready", log.ErrorField(err))
		}
	}
	if postgresAddr := utils.ExtractFromDBURL(config.DB); postgresAddr != "" {
		wg.Add(1)
		go checkTCP(postgresAddr)
	}
	if config.ResultStore == config.ResultStoreNats {
		if natsAddr := utils.ExtractFromNatsURL(config.NatsURL); natsAddr != "" {
			wg.Add(1)
			go checkTCP(natsAddr)
		}
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
}
