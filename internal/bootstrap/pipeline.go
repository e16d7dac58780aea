package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Liad-hossain/test-voice-export/config"
	"github.com/Liad-hossain/test-voice-export/internal/adapters/archive"
	"github.com/Liad-hossain/test-voice-export/internal/adapters/drive"
	"github.com/Liad-hossain/test-voice-export/internal/adapters/gcs"
	"github.com/Liad-hossain/test-voice-export/internal/adapters/googleauth"
	redisadapter "github.com/Liad-hossain/test-voice-export/internal/adapters/redis"
	"github.com/Liad-hossain/test-voice-export/internal/adapters/vault"
	"github.com/Liad-hossain/test-voice-export/internal/domain/naming"
	"github.com/Liad-hossain/test-voice-export/internal/service/pipeline"
	"golang.org/x/oauth2"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	vaultapi "google.golang.org/api/vault/v1"
)

// Runtime is a fully wired pipeline plus the parameters of the configured run.
type Runtime struct {
	Orchestrator *pipeline.Orchestrator
	Params       pipeline.Params

	closers []func() error
}

// Close releases every connection opened while building the runtime.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RuntimeDeps groups the inputs for BuildRuntime.
type RuntimeDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger
	// HTTPClient, when set, carries API and token traffic. Tests point it at fakes.
	HTTPClient *http.Client
}

// BuildRuntime wires the Google clients, adapters and observability into an Orchestrator.
func BuildRuntime(ctx context.Context, deps RuntimeDeps) (*Runtime, error) {
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rt := &Runtime{
		Params: pipeline.Params{
			MatterID:    cfg.Vault.MatterID,
			FolderID:    cfg.Drive.FolderID,
			StagingDir:  cfg.Pipeline.TempDir,
			ExtractDir:  cfg.Pipeline.ExtractDir,
			ArchiveName: cfg.Pipeline.ArchiveName,
		},
	}

	tokens, err := newTokenProvider(ctx, cfg, deps.HTTPClient)
	if err != nil {
		return nil, err
	}
	apiClient := tokens.HTTPClient(withHTTPClient(ctx, deps.HTTPClient))

	finder, err := buildFinder(ctx, cfg, apiClient, logger)
	if err != nil {
		return nil, err
	}
	publisher, err := buildPublisher(ctx, cfg, apiClient, logger)
	if err != nil {
		return nil, err
	}

	fetchClient := deps.HTTPClient
	if fetchClient == nil {
		fetchClient = &http.Client{}
	}
	fetcher, err := gcs.NewFetcher(gcs.Config{
		Endpoint: cfg.Google.StorageEndpoint,
		Tokens:   tokens,
		Client:   fetchClient,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("storage fetcher: %w", err)
	}

	extractor := archive.NewExtractor(archive.Options{
		ExpandNested:      cfg.Pipeline.ExpandNestedArchives,
		MailboxRecordings: cfg.Pipeline.MboxRecordings,
		Logger:            logger,
	})

	obs := buildObservability(logger, cfg.Observability)
	rt.closers = append(rt.closers, obs.Close)

	settings := pipeline.Settings{
		MediaExtensions:  cfg.Pipeline.MediaExtensions,
		CleanupOnSuccess: cfg.Pipeline.CleanupOnSuccess,
	}
	if cfg.RunLock.IsEnabled() {
		client, err := ConnectRedis(ctx, cfg.RunLock, logger)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		rt.closers = append(rt.closers, client.Close)
		settings.Lock = redisadapter.NewRunLockWithPrefix(client, cfg.RunLock.Prefix)
		settings.LockTTL = cfg.RunLock.TTL
	}

	rt.Orchestrator = pipeline.NewOrchestrator(pipeline.Options{
		Ports: pipeline.Ports{
			Jobs:      finder,
			Fetcher:   fetcher,
			Extractor: extractor,
			Publisher: publisher,
			Names:     naming.NewDeriver(naming.RealClock{}),
		},
		Observability: pipeline.Observability{
			Logger:   logger,
			Metrics:  obs.MetricsSink,
			Notifier: obs.FailureNotifier,
		},
		Settings: settings,
	})

	logger.InfoContext(ctx, "pipeline runtime ready",
		"service_account", tokens.Email(),
		"impersonating", cfg.Google.AdminEmail,
		"metrics", cfg.Observability.Metrics.IsEnabled(),
		"notifications", obs.FailureNotifier.Enabled(),
		"run_lock", cfg.RunLock.IsEnabled(),
	)
	return rt, nil
}

// NewJobFinder builds only the export lookup, for tooling that inspects a matter without running.
func NewJobFinder(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*vault.Finder, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	tokens, err := newTokenProvider(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}
	return buildFinder(ctx, cfg, tokens.HTTPClient(ctx), logger)
}

func newTokenProvider(ctx context.Context, cfg *config.AppConfig, hc *http.Client) (*googleauth.Provider, error) {
	tokens, err := googleauth.NewProvider(withHTTPClient(ctx, hc), googleauth.Config{
		CredentialsJSON: cfg.Google.CredentialsJSON(),
		Subject:         cfg.Google.AdminEmail,
		Scopes:          cfg.Google.Scopes,
	})
	if err != nil {
		return nil, fmt.Errorf("google credentials: %w", err)
	}
	return tokens, nil
}

// withHTTPClient makes oauth2 use hc for token exchanges and as the API transport.
func withHTTPClient(ctx context.Context, hc *http.Client) context.Context {
	if hc == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, hc)
}

func buildFinder(ctx context.Context, cfg *config.AppConfig, hc *http.Client, logger *slog.Logger) (*vault.Finder, error) {
	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if cfg.Google.VaultEndpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Google.VaultEndpoint))
	}
	svc, err := vaultapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vault client: %w", err)
	}
	finder, err := vault.NewFinder(vault.FinderOptions{
		Service: svc,
		Filter:  cfg.Vault.ExportFilter,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("vault finder: %w", err)
	}
	return finder, nil
}

func buildPublisher(ctx context.Context, cfg *config.AppConfig, hc *http.Client, logger *slog.Logger) (*drive.Publisher, error) {
	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if cfg.Google.DriveEndpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Google.DriveEndpoint))
	}
	svc, err := driveapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive client: %w", err)
	}
	publisher, err := drive.NewPublisher(drive.PublisherOptions{Service: svc, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("drive publisher: %w", err)
	}
	return publisher, nil
}
