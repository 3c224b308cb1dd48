// Command server runs the Master Client Index HTTP service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brighthive/master-client-index/internal/individual/matching"
	"github.com/brighthive/master-client-index/internal/individual/normalize"
	"github.com/brighthive/master-client-index/internal/individual/service"
	individualstore "github.com/brighthive/master-client-index/internal/individual/store"
	"github.com/brighthive/master-client-index/internal/platform/config"
	"github.com/brighthive/master-client-index/internal/platform/httpserver"
	"github.com/brighthive/master-client-index/internal/platform/logger"
	"github.com/brighthive/master-client-index/internal/platform/metrics"
	"github.com/brighthive/master-client-index/internal/platform/postgres"
	platformredis "github.com/brighthive/master-client-index/internal/platform/redis"
	"github.com/brighthive/master-client-index/internal/reference"
	httptransport "github.com/brighthive/master-client-index/internal/transport/http"
	"github.com/brighthive/master-client-index/pkg/platform/audit"
	auditstore "github.com/brighthive/master-client-index/pkg/platform/audit/store/postgres"
	auditworker "github.com/brighthive/master-client-index/pkg/platform/audit/worker"
)

const auditBuffer = 256

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.ApplySchema(ctx, db); err != nil {
		log.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	// Reference lookups hit stable vocabularies; Redis fronts them when
	// configured and the resolver falls through to PostgreSQL otherwise.
	var refStore reference.Store = reference.NewPostgres(db)
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, reference cache disabled", "error", err)
	} else if redisClient != nil {
		defer redisClient.Close()
		refStore = reference.NewCachedStore(refStore, redisClient, config.ReferenceCacheTTL, log)
	}
	resolver := reference.NewResolver(refStore)

	publisher := audit.NewChannelPublisher(auditBuffer, log)
	worker := auditworker.New(auditstore.New(db), publisher.Inbox(), log)

	svc := service.New(
		individualstore.NewPostgres(db),
		normalize.New(resolver),
		matching.New(cfg.Matching.URI, cfg.Matching.Threshold, cfg.Matching.Timeout, matching.WithMetrics(m)),
		resolver,
		cfg.MaxPageSize,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(publisher),
	)

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(svc, log, m))

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return worker.Run(groupCtx)
	})
	group.Go(func() error {
		log.Info("starting master client index", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
