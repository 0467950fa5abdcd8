package initializer

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lumapay/ratefeed/internal/config"
	"github.com/lumapay/ratefeed/internal/connector"
	"github.com/lumapay/ratefeed/internal/metrics"
	"github.com/lumapay/ratefeed/internal/rates"
	"github.com/lumapay/ratefeed/internal/scheduler"
	"github.com/lumapay/ratefeed/internal/storage"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// Engine is the wired rate aggregation engine: the running ingestion side
// plus the read service handed to the platform's HTTP layer.
type Engine struct {
	sched *scheduler.Scheduler
	svc   *rates.Service
}

// Rates returns the read service: live rates, history, conversion, fees.
func (e *Engine) Rates() *rates.Service {
	return e.svc
}

// Run starts the ingestion scheduler and blocks until the context is
// canceled.
func (e *Engine) Run(ctx context.Context) error {
	return e.sched.Run(ctx)
}

// Init will initialize various required systems and wire the engine.
func Init(cfg *config.Config) (*Engine, error) {

	// Setting up logger.
	// If the path given in the config for logging ends with .log then create a log file with the same name and
	// write log messages to it. Otherwise, create a new log file with a timestamp attached to it's name in the given path.
	var (
		logFile *os.File
		err     error
	)
	if strings.HasSuffix(cfg.Log.FilePath, ".log") {
		logFile, err = os.OpenFile(cfg.Log.FilePath, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0666)
		if err != nil {
			return nil, fmt.Errorf("not able to open or create log file: %v", cfg.Log.FilePath)
		}
	} else {
		logFile, err = os.Create(cfg.Log.FilePath + "_" + strconv.Itoa(int(time.Now().Unix())) + ".log")
		if err != nil {
			return nil, fmt.Errorf("not able to create log file: %v", cfg.Log.FilePath+"_"+strconv.Itoa(int(time.Now().Unix()))+".log")
		}
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	switch cfg.Log.Level {
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	fileLogger := zerolog.New(logFile).With().Timestamp().Logger()
	log.Logger = fileLogger
	log.Info().Msg("logger setup is done")

	// Establish connections to the configured storage systems and the shared
	// REST connector. The in-memory store is always on: it backs the query
	// facade and keeps the current rate view queryable even when every
	// durable storage and provider is down.
	mem := storage.InitMemory(&cfg.Connection.Memory)
	_ = connector.InitREST(&cfg.Connection.REST)

	var (
		mysqlStr  bool
		esStr     bool
		mysqlConn *storage.MySQL
		esConn    *storage.ElasticSearch
	)
	for _, p := range cfg.Providers {
		for _, str := range p.Storages {
			switch str {
			case "mysql":
				if !mysqlStr {
					mysqlConn, err = storage.InitMySQL(&cfg.Connection.MySQL)
					if err != nil {
						err = errors.Wrap(err, "mysql connection")
						log.Error().Stack().Err(errors.WithStack(err)).Msg("")
						return nil, err
					}
					mysqlStr = true
					log.Info().Msg("mysql connected")
				}
			case "elastic_search":
				if !esStr {
					esConn, err = storage.InitElasticSearch(&cfg.Connection.ES)
					if err != nil {
						err = errors.Wrap(err, "elastic search connection")
						log.Error().Stack().Err(errors.WithStack(err)).Msg("")
						return nil, err
					}
					esStr = true
					log.Info().Msg("elastic search connected")
				}
			}
		}
	}

	ingestion := metrics.NewIngestion(prometheus.DefaultRegisterer)
	sched := scheduler.New(cfg, mem, mysqlConn, esConn, ingestion)
	svc := rates.NewService(mem, &cfg.Fee)

	return &Engine{sched: sched, svc: svc}, nil
}
