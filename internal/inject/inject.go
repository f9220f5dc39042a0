// Package inject wires the process from configuration.
package inject

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/mhpenta/stylegen"
	"github.com/mhpenta/stylegen/internal/config"
	"github.com/mhpenta/stylegen/internal/logging"
	"github.com/mhpenta/stylegen/internal/metrics"
	"github.com/mhpenta/stylegen/internal/param"
	"github.com/mhpenta/stylegen/internal/server"
	"github.com/mhpenta/stylegen/internal/store"
	"github.com/mhpenta/stylegen/provider/gemini"
	"github.com/mhpenta/stylegen/provider/openai"
	"github.com/mhpenta/stylegen/ratelimiter"
	"github.com/samber/do"
)

const apiKeyName = "api_key"

// Setup registers every service lazily; nothing touches the network until
// a service is invoked.
func Setup(ctx context.Context, cfg *config.Config) *do.Injector {
	log := logging.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		},
	})

	do.ProvideValue[*config.Config](injector, cfg)
	do.ProvideValue[*slog.Logger](injector, log)

	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})

	do.Provide[param.Fetcher](injector, func(i *do.Injector) (param.Fetcher, error) {
		if cfg.APIKeyParam == "" {
			return param.StaticFetcher{Value: cfg.APIKey}, nil
		}
		return param.NewParameterStoreFetcher(do.MustInvoke[*ssm.Client](i)), nil
	})
	do.ProvideNamed[string](injector, apiKeyName, func(i *do.Injector) (string, error) {
		return do.MustInvoke[param.Fetcher](i).Fetch(ctx, cfg.APIKeyParam)
	})

	do.Provide[stylegen.Storage](injector, newStorage(ctx, cfg))
	do.Provide[*metrics.Metrics](injector, func(i *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(), nil
	})
	do.Provide[*stylegen.ModeRegistry](injector, func(i *do.Injector) (*stylegen.ModeRegistry, error) {
		modes := stylegen.DefaultModeRegistry()
		if cfg.ModesFile != "" {
			if err := modes.LoadModesFile(cfg.ModesFile); err != nil {
				return nil, err
			}
		}
		return modes, nil
	})
	do.Provide[stylegen.ImageGenerator](injector, newGenerator(cfg))
	do.Provide[*ratelimiter.Registry](injector, newLimiters(cfg))
	do.Provide[*stylegen.Orchestrator](injector, newOrchestrator(cfg))

	do.Provide[*server.Server](injector, func(i *do.Injector) (*server.Server, error) {
		apiKey, err := do.InvokeNamed[string](i, apiKeyName)
		if err != nil {
			return nil, err
		}
		return server.New(do.MustInvoke[*stylegen.Orchestrator](i),
			server.WithLogger(do.MustInvoke[*slog.Logger](i)),
			server.WithMetrics(do.MustInvoke[*metrics.Metrics](i)),
			server.WithDefaultAPIKey(apiKey),
		), nil
	})
	do.Provide[*http.Server](injector, func(i *do.Injector) (*http.Server, error) {
		srv, err := do.Invoke[*server.Server](i)
		if err != nil {
			return nil, err
		}
		return &http.Server{
			Addr:              cfg.ServerAddress,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}, nil
	})

	return injector
}

func newStorage(ctx context.Context, cfg *config.Config) do.Provider[stylegen.Storage] {
	return func(i *do.Injector) (stylegen.Storage, error) {
		switch {
		case cfg.S3Bucket != "":
			client, err := store.NewS3Client(ctx, store.S3Config{
				Region:    cfg.S3Region,
				Endpoint:  cfg.S3Endpoint,
				AccessKey: cfg.S3AccessKey,
				SecretKey: cfg.S3SecretKey,
			})
			if err != nil {
				return nil, err
			}
			return &store.S3Storage{Client: client, Bucket: cfg.S3Bucket, PublicURL: cfg.S3PublicURL}, nil
		case cfg.StoreDir != "":
			return &store.FileStorage{Dir: cfg.StoreDir}, nil
		default:
			return nil, nil
		}
	}
}

func newGenerator(cfg *config.Config) do.Provider[stylegen.ImageGenerator] {
	return func(i *do.Injector) (stylegen.ImageGenerator, error) {
		limits := stylegen.RateLimits{RequestsPerMinute: cfg.RequestsPerMinute, Burst: cfg.Burst}

		switch cfg.Provider {
		case "gemini":
			return gemini.New(gemini.Config{
				Model:                   cfg.GeminiModel,
				BaseURL:                 cfg.GeminiBaseURL,
				APIVersion:              cfg.GeminiAPIVersion,
				Timeout:                 cfg.Timeout,
				DisableFacePreservation: !cfg.FacePreservation,
				RateLimits:              limits,
			}), nil
		case "openai":
			return openai.New(openai.Config{
				BaseURL: cfg.OpenAIBaseURL,
				Model:   cfg.OpenAIModel,
				Timeout: cfg.Timeout,
			}), nil
		default:
			return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
		}
	}
}

// newLimiters builds one budget per provider. Configured limits win over the
// provider's published defaults.
func newLimiters(cfg *config.Config) do.Provider[*ratelimiter.Registry] {
	return func(i *do.Injector) (*ratelimiter.Registry, error) {
		gen, err := do.Invoke[stylegen.ImageGenerator](i)
		if err != nil {
			return nil, err
		}
		defaults := gen.Info().RateLimits
		return ratelimiter.NewRegistry(func(string) ratelimiter.Limiter {
			limits := defaults
			if cfg.RequestsPerMinute > 0 {
				limits = stylegen.RateLimits{RequestsPerMinute: cfg.RequestsPerMinute, Burst: cfg.Burst}
			}
			if limits.RequestsPerMinute <= 0 {
				return nil
			}
			return ratelimiter.New(limits.RequestsPerMinute, limits.Burst)
		}), nil
	}
}

func newOrchestrator(cfg *config.Config) do.Provider[*stylegen.Orchestrator] {
	return func(i *do.Injector) (*stylegen.Orchestrator, error) {
		gen, err := do.Invoke[stylegen.ImageGenerator](i)
		if err != nil {
			return nil, err
		}
		modes, err := do.Invoke[*stylegen.ModeRegistry](i)
		if err != nil {
			return nil, err
		}
		storage, err := do.Invoke[stylegen.Storage](i)
		if err != nil {
			return nil, err
		}

		opts := []stylegen.OrchestratorOption{
			stylegen.WithLogger(do.MustInvoke[*slog.Logger](i)),
			stylegen.WithRecorder(do.MustInvoke[*metrics.Metrics](i)),
			stylegen.WithStorage(storage, cfg.StorePrefix),
		}
		limiters, err := do.Invoke[*ratelimiter.Registry](i)
		if err != nil {
			return nil, err
		}
		opts = append(opts, stylegen.WithRateLimiter(limiters.Get(string(gen.Info().Provider))))
		return stylegen.NewOrchestrator(gen, modes, opts...), nil
	}
}
