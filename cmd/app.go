package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/genlearn/internal/auth"
	"github.com/abhisek/genlearn/internal/cache"
	"github.com/abhisek/genlearn/internal/catalog"
	"github.com/abhisek/genlearn/internal/labs"
	"github.com/abhisek/genlearn/internal/llm"
	"github.com/abhisek/genlearn/internal/postgres"
	"github.com/abhisek/genlearn/internal/progress"
	"github.com/abhisek/genlearn/internal/store"
)

// application holds the services shared by the CLI and the API server.
type application struct {
	store    *store.Store
	catalog  *catalog.Catalog
	tracker  *progress.Tracker
	client   *llm.Client
	labs     *labs.Service
	verifier *auth.Verifier
	closers  []func()
}

// openApp opens the stores and builds every service from the loaded config.
func openApp(ctx context.Context, cmd *cobra.Command) (*application, error) {
	a := &application{catalog: catalog.Default()}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = st
	a.closers = append(a.closers, func() { st.Close() })

	var durable progress.DurableStore = progress.NewMemoryStore()
	if cfg.DB.URL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DB.URL, postgres.PoolConfig{
			MaxConns:        int32(cfg.DB.MaxConnections),
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		repo := postgres.NewProgressRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
		durable = repo
	} else {
		appLog.Debug("no database url; authenticated progress is kept in memory")
	}

	var sessionCache cache.Cache = cache.NewMemory(cfg.Cache.TTL)
	if cfg.Cache.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL, appLog)
		if err != nil {
			appLog.Warn("redis unavailable, using in-process cache", "error", err)
		} else {
			a.closers = append(a.closers, func() { rc.Close() })
			sessionCache = rc
		}
	}

	a.tracker = progress.NewTracker(progress.Options{
		Local:      st.ProgressRepo(),
		Durable:    durable,
		Cache:      sessionCache,
		Catalog:    a.catalog,
		Logger:     appLog,
		StorageKey: cfg.Storage.Key,
	})
	a.client = llm.NewClientFromConfig(ctx, cfg.LLM, st.EventRepo(), appLog)
	a.labs = labs.NewService(a.catalog, a.client, a.tracker, appLog)
	a.verifier = auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// identity resolves the CLI caller from --token, then --device, then
// storage.device_id.
func (a *application) identity(cmd *cobra.Command) (auth.Identity, error) {
	if token, _ := cmd.Flags().GetString("token"); token != "" {
		if !a.verifier.Enabled() {
			return auth.Identity{}, fmt.Errorf("--token needs auth.jwt_secret to be configured")
		}
		return a.verifier.Verify(token)
	}
	device, _ := cmd.Flags().GetString("device")
	if device == "" {
		device = cfg.Storage.DeviceID
	}
	return auth.Anonymous(device), nil
}

// withApp runs fn with an opened application and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *application) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
