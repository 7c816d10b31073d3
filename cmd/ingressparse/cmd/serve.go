package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/logtools/ingressparse/pkg/api"
	"github.com/logtools/ingressparse/pkg/metrics"
	"github.com/logtools/ingressparse/pkg/ratelimit"
	"github.com/logtools/ingressparse/pkg/shutdown"
	"github.com/logtools/ingressparse/pkg/store"
	"github.com/logtools/ingressparse/pkg/tracing"
)

var (
	serveAddr      string
	serveDBType    string
	serveDSN       string
	serveRateLimit float64
	serveRateBurst int
	serveTrace     bool
	serveTraceOTLP string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored runs over a read-only HTTP API",
	Long: `Start an HTTP server exposing stored import runs: run listings, paged
entry queries, aggregated stats, Prometheus metrics on /metrics, and a
health endpoint. The API never mutates the database.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&serveDBType, "db", "", "database type: sqlite, postgres, or memory (default from config)")
	serveCmd.Flags().StringVar(&serveDSN, "dsn", "", "database path (sqlite) or connection string (postgres)")
	serveCmd.Flags().Float64Var(&serveRateLimit, "rate-limit", 0, "per-client requests per second (default from config)")
	serveCmd.Flags().IntVar(&serveRateBurst, "rate-burst", 0, "per-client burst size (default from config)")
	serveCmd.Flags().BoolVar(&serveTrace, "trace", false, "enable OpenTelemetry tracing")
	serveCmd.Flags().StringVar(&serveTraceOTLP, "trace-endpoint", "localhost:4318", "OTLP HTTP endpoint for traces")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()

	addr := serveAddr
	if addr == "" {
		addr = viper.GetString("serve.addr")
	}
	rps := serveRateLimit
	if rps <= 0 {
		rps = viper.GetFloat64("serve.rate_limit")
	}
	burst := serveRateBurst
	if burst <= 0 {
		burst = viper.GetInt("serve.rate_burst")
	}

	db, err := store.New(storeConfig(serveDBType, serveDSN))
	if err != nil {
		return err
	}

	provider, err := tracing.Init(tracing.Config{
		ServiceName:    "ingressparse",
		ServiceVersion: Version(),
		OTLPEndpoint:   serveTraceOTLP,
		Enabled:        serveTrace,
	})
	if err != nil {
		db.Close()
		return err
	}

	m := metrics.New()
	handler := api.NewHandler(db, log, m)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	router.Use(m.Middleware)
	router.Use(tracing.HTTPMiddleware(provider))
	limiter := ratelimit.NewLimiter(rps, burst)
	router.Use(limiter.Middleware)

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	mgr := shutdown.New(20*time.Second, log)
	mgr.Register(shutdown.CloseResource(db))
	mgr.Register(func(ctx context.Context) error { return provider.Shutdown(ctx) })
	mgr.Register(shutdown.StopHTTPServer(srv))

	errCh := make(chan error, 1)
	go func() {
		log.Info("API server listening", map[string]interface{}{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	done := make(chan struct{})
	go func() {
		mgr.Wait()
		close(done)
	}()

	select {
	case err := <-errCh:
		db.Close()
		return err
	case <-done:
		return nil
	}
}
