// Package daemon composes the application with fx.
package daemon

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"smsguard/internal/address"
	"smsguard/internal/block"
	"smsguard/internal/bus"
	"smsguard/internal/classify"
	"smsguard/internal/config"
	"smsguard/internal/contacts"
	"smsguard/internal/feed"
	"smsguard/internal/identity"
	"smsguard/internal/ingest"
	"smsguard/internal/legacy"
	"smsguard/internal/lock"
	"smsguard/internal/logging"
	"smsguard/internal/notify"
	"smsguard/internal/paths"
	"smsguard/internal/risk"
	"smsguard/internal/store"
	"smsguard/internal/transport"
)

// Params holds command-line overrides passed to the fx module.
type Params struct {
	DataDir string // empty = default under the home dir
}

// Module returns the fx module for the daemon, composing all providers
// and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideNormalizer,
			provideRegion,
			provideResolver,
			provideContactSource,
			provideDirectory,
			provideClassifier,
			provideAnalyzer,
			provideRegistry,
			provideSink,
			provideSender,
			provideReconciler,
			providePipeline,
			provideEngine,
			provideLegacyEngine,
			provideFeed,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	dataDir := p.DataDir
	if dataDir == "" {
		dataDir = paths.Base()
	}
	if err := paths.EnsureDirs(dataDir); err != nil {
		return nil, err
	}
	cfg, err := config.Load(paths.ConfigPath(dataDir))
	if err != nil {
		return nil, err
	}
	cfg.DataDir = dataDir
	if cfg.ContactsPath == "" {
		cfg.ContactsPath = paths.ContactsPath(dataDir)
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(paths.LogPath(cfg.DataDir))
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(cfg *config.Config, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring data dir lock", zap.String("dir", cfg.DataDir))
	l, err := lock.Acquire(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	logger.Info("data dir lock acquired")
	return l, nil
}

func provideStore(cfg *config.Config, logger *zap.Logger) (*store.DB, error) {
	dbPath := paths.DBPath(cfg.DataDir)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}

	// First boot seeds the persisted notification toggle from config;
	// after that the stored value is the truth.
	if current, err := db.GetSetting(store.SettingQuarantineNotifications, ""); err != nil {
		_ = db.Close()
		return nil, err
	} else if current == "" {
		if err := db.SetBoolSetting(store.SettingQuarantineNotifications, cfg.QuarantineNotifications); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideNormalizer(cfg *config.Config) *address.Normalizer {
	return address.NewNormalizer(cfg.ShortCodeMaxDigits)
}

func provideRegion(cfg *config.Config) address.RegionProvider {
	return address.StaticRegion(cfg.Region)
}

func provideResolver(db *store.DB, norm *address.Normalizer, regions address.RegionProvider) identity.Resolver {
	return identity.NewStoreResolver(db, norm, regions)
}

func provideContactSource(cfg *config.Config) contacts.FileSource {
	return contacts.FileSource{Path: cfg.ContactsPath}
}

func provideDirectory(db *store.DB, norm *address.Normalizer, regions address.RegionProvider, logger *zap.Logger) *contacts.Directory {
	return contacts.NewDirectory(db, norm, regions, logger)
}

func provideClassifier(dir *contacts.Directory, norm *address.Normalizer, regions address.RegionProvider) *classify.Classifier {
	return classify.New(dir, norm, regions)
}

func provideAnalyzer(cfg *config.Config, dir *contacts.Directory) *risk.Analyzer {
	return risk.NewAnalyzer(dir, cfg.ShortCodeMaxDigits)
}

func provideRegistry(db *store.DB, b *bus.Bus, logger *zap.Logger) *block.Registry {
	return block.NewRegistry(db, b, logger)
}

func provideSink(b *bus.Bus) notify.Sink {
	return notify.NewBusSink(b)
}

func provideSender(logger *zap.Logger) transport.Sender {
	return transport.NewLogSender(logger)
}

func provideReconciler(db *store.DB, dir *contacts.Directory) *ingest.Reconciler {
	return ingest.NewReconciler(db, dir)
}

func providePipeline(db *store.DB, resolver identity.Resolver, classifier *classify.Classifier, analyzer *risk.Analyzer, reconciler *ingest.Reconciler, registry *block.Registry, sink notify.Sink, sender transport.Sender, b *bus.Bus, logger *zap.Logger) *ingest.Pipeline {
	return ingest.NewPipeline(db, resolver, classifier, analyzer, reconciler, registry, sink, sender, b, logger)
}

func provideEngine(p *ingest.Pipeline, b *bus.Bus, logger *zap.Logger) *ingest.Engine {
	return ingest.NewEngine(p, b, logger)
}

func provideLegacyEngine(db *store.DB, resolver identity.Resolver, dir *contacts.Directory, logger *zap.Logger) *legacy.Engine {
	return legacy.NewEngine(db, resolver, dir, logger)
}

func provideFeed(db *store.DB, b *bus.Bus, logger *zap.Logger) *feed.Feed {
	return feed.New(db, b, logger)
}

func registerLifecycle(lc fx.Lifecycle, db *store.DB, lk *lock.Lock, src contacts.FileSource, dir *contacts.Directory, importer *legacy.Engine, engine *ingest.Engine, b *bus.Bus, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Legacy import runs before ingestion so imported threads
			// are in place when the first live message lands.
			if _, err := importer.Run(); err != nil {
				return err
			}

			if n, err := dir.Sync(src); err != nil {
				logger.Warn("contact sync failed", zap.Error(err))
			} else {
				logger.Info("contacts synced", zap.Int("count", n))
				b.Emit(bus.KindContactsSynced, n)
			}

			engine.Start()
			logger.Info("daemon started")
			return nil
		},
		OnStop: func(_ context.Context) error {
			engine.Stop()
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			_ = db.Close()
			logger.Info("daemon stopped")
			return nil
		},
	})
}
