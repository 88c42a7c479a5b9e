package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/estoque-app/estoque/internal/config"
	"github.com/estoque-app/estoque/internal/cookiefile"
	"github.com/estoque-app/estoque/internal/logger"
	"github.com/estoque-app/estoque/internal/metrics"
	"github.com/estoque-app/estoque/pkg/authevents"
	"github.com/estoque-app/estoque/pkg/client"
	"github.com/estoque-app/estoque/pkg/session"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "erro: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		apiURL string
		start  string
	)

	root := &cobra.Command{
		Use:   "estoque",
		Short: "Terminal do sistema de estoque e vendas",
		Long: `estoque abre o terminal de recebimento, venda, ajustes e consulta
de estoque. A sessão é a mesma do navegador: um cookie do servidor,
guardado em ~/.estoque/cookies.json entre execuções.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openEnv(cmd.Context(), apiURL)
			if err != nil {
				return err
			}
			defer env.Close() //nolint:errcheck
			return runTUI(cmd.Context(), env, start)
		},
	}

	root.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (default $ESTOQUE_API_URL)")
	root.Flags().StringVar(&start, "route", "/", "screen to open first, e.g. /estoque")

	root.AddCommand(
		loginCmd(&apiURL),
		logoutCmd(&apiURL),
		whoamiCmd(&apiURL),
		versionCmd(),
	)
	return root
}

// env is everything a command needs to talk to the API.
type env struct {
	cfg     *config.Config
	log     zerolog.Logger
	logFile io.Closer
	bus     *authevents.Bus
	client  *client.Client
	store   *session.Store

	stopMetrics context.CancelFunc
	metricsDone chan error
}

// openEnv loads config, opens the log file, restores cookies and builds the
// client and session store. Close saves cookies back.
func openEnv(ctx context.Context, apiURL string) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}

	log, logFile, err := logger.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(reg)

	bus := authevents.New()
	c, err := client.New(cfg.APIURL,
		client.WithBus(bus),
		client.WithLogger(log),
		client.WithMetrics(collector),
		client.WithTimeout(cfg.Timeout),
		client.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
	)
	if err != nil {
		logFile.Close() //nolint:errcheck
		return nil, err
	}

	cookies, err := cookiefile.Load(cfg.CookieFile)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring unreadable cookie file")
	}
	c.SetCookies(cookies)

	e := &env{
		cfg:     cfg,
		log:     log,
		logFile: logFile,
		bus:     bus,
		client:  c,
		store:   session.New(c, bus, session.WithLogger(log), session.WithMetrics(collector)),
	}

	if cfg.MetricsAddr != "" {
		mctx, cancel := context.WithCancel(ctx)
		e.stopMetrics = cancel
		e.metricsDone = make(chan error, 1)
		go func() {
			e.metricsDone <- metrics.Serve(mctx, cfg.MetricsAddr, reg)
		}()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics endpoint enabled")
	}

	log.Info().Str("api", cfg.APIURL).Str("version", version).Msg("starting")
	return e, nil
}

// Close persists the cookie jar and releases everything openEnv opened.
func (e *env) Close() error {
	e.store.Close()

	var errs []error
	if err := cookiefile.Save(e.cfg.CookieFile, e.client.Cookies()); err != nil {
		errs = append(errs, err)
	}
	if e.stopMetrics != nil {
		e.stopMetrics()
		if err := <-e.metricsDone; err != nil {
			e.log.Warn().Err(err).Msg("metrics endpoint")
		}
	}
	e.log.Info().Msg("exiting")
	if err := e.logFile.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
