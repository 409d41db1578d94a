package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/opst/jobtracker/cmd/jobctl/config/profiles"
	"github.com/opst/jobtracker/cmd/jobctl/rest"
	"github.com/opst/jobtracker/cmd/jobtrackd/handlers"
	"github.com/opst/jobtracker/pkg/configs/daemon"
	"github.com/opst/jobtracker/pkg/echoutil"
	"github.com/opst/jobtracker/pkg/metrics"
	"github.com/opst/jobtracker/pkg/tracker"
	"github.com/opst/jobtracker/pkg/tracker/snapshot"
	"github.com/opst/jobtracker/pkg/utils/filewatch"
)

const autosaveInterval = 5 * time.Second

func main() {
	configPath := flag.String("config-path", "", "jobtrackd config path")
	loglevel := flag.String("loglevel", "", "log level. debug|info|warn|error|off. Default is the one in config, or info.")
	flag.Parse()

	logger := logrus.StandardLogger()

	conf, err := daemon.Load(*configPath)
	if err != nil {
		logger.Fatalf("can not read configuration: %s", err)
	}

	level := *loglevel
	if level == "" {
		level = conf.LogLevel
	}
	if level == "" {
		level = "info"
	}
	if level == "off" {
		logger.SetLevel(logrus.PanicLevel)
	} else if l, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(l)
	} else {
		logger.Warnf("unknown log level %q. use info", level)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	prof, err := profileOf(conf)
	if err != nil {
		logger.Fatalf("can not read CA certificate: %s", err)
	}
	client, err := rest.NewClient(prof)
	if err != nil {
		logger.Fatalf("can not connect to job API: %s", err)
	}
	httpClient, err := rest.HTTPClient(prof)
	if err != nil {
		logger.Fatalf("can not connect to job API: %s", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tr := tracker.New(
		client,
		tracker.WithLogger(logger),
		tracker.WithInterval(conf.PollInterval),
		tracker.WithFollowRunning(conf.FollowRunning),
		tracker.WithObserver(metrics.NewCollector(reg)),
		tracker.WithContext(ctx),
	)
	defer tr.Cleanup()

	store, closeStore, err := openStore(ctx, conf.Snapshot)
	if err != nil {
		logger.Fatalf("can not open snapshot store: %s", err)
	}
	defer closeStore()
	if store != nil {
		restore(ctx, logger, tr, store)
		go func() {
			if err := snapshot.AutoSave(ctx, tr, store, autosaveInterval, logger); err != nil {
				logger.WithError(err).Error("autosave is stopped")
			}
		}()
		defer func() {
			shutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := store.Save(shutdown, tr.Persist()); err != nil {
				logger.WithError(err).Error("failed to save snapshot on shutdown")
			}
		}()
	}

	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())

	echoutil.SetLevel(e, level)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	{
		api := "/api/tracker"
		e.GET(api+"/", handlers.GetStateHandler(tr))
		e.POST(api+"/jobs/", handlers.FetchJobsHandler(tr))
		e.GET(
			api+"/jobs/:jobId/logfile/",
			handlers.ProxyLogFileHandler(httpClient, prof.ApiRoot, prof.Token, "jobId"),
		)

		e.PUT(api+"/selected/:jobId/", handlers.SelectJobHandler(tr, "jobId"))
		e.DELETE(api+"/selected/", handlers.DeselectJobHandler(tr))

		e.PUT(api+"/polling/", handlers.PollingHandler(tr, true))
		e.DELETE(api+"/polling/", handlers.PollingHandler(tr, false))

		e.GET(api+"/logs/", handlers.GetLogsHandler(tr))
		e.PUT(api+"/logs/:jobId/", handlers.ConnectToLogsHandler(tr, "jobId"))
		e.DELETE(api+"/logs/", handlers.DisconnectFromLogsHandler(tr))
		e.POST(api+"/logs/:jobId/file/", handlers.LoadLogFileHandler(tr, "jobId"))

		e.GET(api+"/events/", handlers.EventsHandler(tr))
	}
	e.GET("/metrics/", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	for _, r := range e.Routes() {
		logger.WithField("method", r.Method).WithField("path", r.Path).Debug("route")
	}

	stopping := func(reason string) {
		logger.Info(reason)
		graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := e.Shutdown(graceful); err != nil {
			logger.WithError(err).Error("error on shutdown")
		}
	}

	if *configPath != "" {
		watch, cancelWatch, err := filewatch.UntilModifyContext(ctx, *configPath)
		if err != nil {
			logger.Fatalf("can not watch configuration: %s", err)
		}
		defer cancelWatch()
		context.AfterFunc(watch, func() {
			if ctx.Err() != nil {
				return
			}
			stopping("config file is updated. quit to restart server: " + context.Cause(watch).Error())
		})
	}
	context.AfterFunc(ctx, func() { stopping("signal received. shutting down") })

	if err := e.Start(":" + conf.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("server stopped")
	}
	cancel()
}

// profileOf makes a job profile to reach the job API in conf.
func profileOf(conf daemon.Config) (*profiles.JobProfile, error) {
	prof := &profiles.JobProfile{
		ApiRoot: conf.ApiRoot.String(),
		Token:   conf.Token,
	}
	if conf.CAFile != "" {
		pem, err := os.ReadFile(conf.CAFile)
		if err != nil {
			return nil, err
		}
		prof.Cert.CA = base64.StdEncoding.EncodeToString(pem)
	}
	return prof, nil
}

// openStore opens the snapshot store in conf. When no stores are configured, it returns nil store.
func openStore(ctx context.Context, conf daemon.Snapshot) (snapshot.Store, func(), error) {
	switch {
	case conf.File != "":
		return snapshot.NewFileStore(conf.File), func() {}, nil
	case conf.DBURI != "":
		pool, err := pgxpool.Connect(ctx, conf.DBURI)
		if err != nil {
			return nil, nil, err
		}
		store := snapshot.NewPostgresStore(pool, conf.Name)
		if err := store.Init(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	default:
		return nil, func() {}, nil
	}
}

func restore(ctx context.Context, logger logrus.FieldLogger, tr *tracker.Tracker, store snapshot.Store) {
	p, err := store.Load(ctx)
	if errors.Is(err, snapshot.ErrNotFound) {
		logger.Info("no snapshot. start from scratch")
		return
	} else if err != nil {
		logger.WithError(err).Warn("can not load snapshot. start from scratch")
		return
	}

	if err := tr.Restore(p); err != nil {
		if errors.Is(err, tracker.ErrUnsupportedSnapshot) {
			logger.WithError(err).Warn("snapshot is ignored")
		} else {
			logger.WithError(err).Error("can not restore snapshot")
		}
		return
	}
	logger.WithField("savedAt", p.SavedAt).WithField("jobs", len(p.Jobs)).Info("snapshot restored")
}
