// Command bookfolio runs the catalog HTTP service.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	// SQL drivers selected at runtime through config.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/bookfolio/bookfolio/internal/catalog"
	"github.com/bookfolio/bookfolio/internal/httpapi"
	"github.com/bookfolio/bookfolio/pkg/config"
	"github.com/bookfolio/bookfolio/pkg/health"
	"github.com/bookfolio/bookfolio/pkg/observability/logger"
	"github.com/bookfolio/bookfolio/pkg/observability/metrics"
	"github.com/bookfolio/bookfolio/pkg/repository"
	"github.com/bookfolio/bookfolio/pkg/version"
)

const envPrefix = "BOOKFOLIO"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "bookfolio",
		Short:         "Book catalog service with constrained list queries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file")

	root.AddCommand(newServeCommand(&configFile))
	root.AddCommand(newVersionCommand())

	return root
}

func newServeCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewLoader(*configFile, envPrefix).Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Current("bookfolio").String())
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	log, err := logger.NewZapLogger(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting",
		"service", cfg.Service.Name,
		"environment", cfg.Service.Environment,
		"version", version.Current(cfg.Service.Name).Version,
	)

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	var cache *redis.Client
	if cfg.Cache.Enabled {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		defer cache.Close()
	}

	checks := health.NewRegistry()
	checks.Register(health.NewDatabaseChecker(db, 0))
	if cache != nil {
		checks.Register(health.NewRedisChecker(cache, 0))
	}

	engine := httpapi.NewRouter(httpapi.RouterOptions{
		Log:       log,
		Metrics:   metrics.NewRegistry(),
		Health:    checks,
		RateLimit: cfg.RateLimit,
	})
	mountResources(engine, db, cache, cfg, log)

	server := httpapi.NewServer(cfg.HTTP, engine, log)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Start(ctx)
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// mountResources wires the four catalog resources. When the cache is
// enabled, list queries go through the cache-aside decorator and every
// write bumps that entity's cache generation.
func mountResources(engine *gin.Engine, db *sql.DB, cache *redis.Client, cfg *config.Config, log logger.Logger) {
	dialect := repository.DialectForDriver(cfg.Database.Driver)
	ttl := cfg.Cache.TTL

	mountResource(engine, "books", catalog.NewBookRepository(db, dialect, log), cache, ttl, log,
		func(b *catalog.Book, id int64) { b.ID = id })
	mountResource(engine, "authors", catalog.NewAuthorRepository(db, dialect, log), cache, ttl, log,
		func(a *catalog.Author, id int64) { a.ID = id })
	mountResource(engine, "genres", catalog.NewGenreRepository(db, dialect, log), cache, ttl, log,
		func(g *catalog.Genre, id int64) { g.ID = id })
	mountResource(engine, "reviews", catalog.NewReviewRepository(db, dialect, log), cache, ttl, log,
		func(r *catalog.Review, id int64) { r.ID = id })
}

func mountResource[T any](
	engine *gin.Engine,
	name string,
	repo *repository.SQLRepository[T, int64],
	cache *redis.Client,
	ttl time.Duration,
	log logger.Logger,
	setID func(*T, int64),
) {
	res := &httpapi.Resource[T]{
		Name:   name,
		Lister: repo,
		Repo:   repo,
		SetID:  setID,
		Log:    log.With("resource", name),
	}
	if cache != nil {
		cached := catalog.NewCachedLister[T](repo, cache, name, ttl, log)
		res.Lister = cached
		res.OnWrite = cached.Invalidate
	}
	httpapi.Mount(httpapi.APIGroup(engine, name), res)
}
