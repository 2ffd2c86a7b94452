package router

import (
	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/dedup"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/notifier"
	"app/internal/provider"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/service"
	"app/internal/task"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initialized")

	// 1. Open DB connection (connection pooling)
	dsn := cfg.DatabaseURL
	// In a development environment, we want to ensure that SSL is disabled for
	// local testing. In production, the connection string should be provided
	// with the correct SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		dsn += separator + "sslmode=disable"
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB connection")
		return nil, nil, err
	}
	if err := pool.Ping(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	// 2. Initialize S3 client for media rehosting
	s3Config, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load S3 config")
		return nil, nil, err
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})

	// 3. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 4. Resolve provider keys and set up the task event publisher. Both need
	// a GCP project; without one, keys must come from the environment and
	// events are not published.
	var publisher pubsub.Publisher
	if cfg.GCPProjectID != "" {
		pubSubPublisher, err := pubsub.NewPublisher(context.Background(), cfg)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create Pub/Sub publisher")
			return nil, nil, err
		}
		publisher = pubSubPublisher

		if err := resolveProviderKeys(context.Background(), cfg, logger); err != nil {
			return nil, nil, err
		}
	}

	// 5. Initialize repositories & services & handlers
	userRepo := repository.NewUserRepo(pool)
	usageRepo := repository.NewUsageRepo(pool)

	limits := model.PlanLimits{
		Free:    model.ResourceLimits{Text: cfg.FreeTextLimit, Image: cfg.FreeImageLimit, Video: cfg.FreeVideoLimit},
		Premium: model.ResourceLimits{Text: cfg.PremiumTextLimit, Image: cfg.PremiumImageLimit, Video: cfg.PremiumVideoLimit},
	}

	chatNotifier := notifier.NewChatNotifier(cfg.ChatAPIBaseURL, cfg.ChatAPIToken, logger)
	userSvc := service.NewUserService(userRepo)
	quotaSvc := service.NewQuotaService(userRepo, usageRepo, limits, logger)
	chatSvc := service.NewChatService(cfg.OpenAIAPIKey, quotaSvc, chatNotifier, logger)
	mediaStore := service.NewMediaStore(s3Client, cfg.S3Bucket, logger)

	providers := map[task.Category]provider.GenerationAPI{
		task.CategoryImage: provider.NewImageClient(cfg.ImageAPIBaseURL, cfg.ImageAPIKey, logger),
		task.CategoryVideo: provider.NewVideoClient(cfg.VideoAPIBaseURL, cfg.VideoAPIKey, logger),
	}
	settings := map[task.Category]service.PollSettings{
		task.CategoryImage: {
			Interval:    time.Duration(cfg.ImagePollIntervalSec) * time.Second,
			MaxAttempts: cfg.ImageMaxAttempts,
		},
		task.CategoryVideo: {
			Interval:    time.Duration(cfg.VideoPollIntervalSec) * time.Second,
			MaxAttempts: cfg.VideoMaxAttempts,
		},
	}

	generationSvc := service.NewGenerationService(
		task.NewGate(),
		quotaSvc,
		task.NewPoller(logger),
		chatNotifier,
		mediaStore,
		publisher,
		cfg.TaskEventsTopic,
		providers,
		settings,
		logger,
	)

	updateHandler := handler.NewUpdateHandler(
		dedup.New(cfg.DedupCapacity),
		userSvc,
		chatSvc,
		generationSvc,
		quotaSvc,
		validate,
		logger,
	)
	adminHandler := handler.NewAdminHandler(quotaSvc, logger)

	// 6. Initialize middleware
	webhookMiddleware := middleware.WebhookAuthMiddleware(cfg.WebhookSecret, logger)
	adminMiddleware := middleware.AdminAuthMiddleware(cfg.AdminJWTSecret, logger)

	// 7. Create ServeMux router
	mux := http.NewServeMux()

	apiV1Mux := http.NewServeMux()
	updateHandler.RegisterRoutes(apiV1Mux, webhookMiddleware)
	adminHandler.RegisterRoutes(apiV1Mux, adminMiddleware)

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// Add Swagger documentation
	mux.HandleFunc("/swagger/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger/swagger.json")
	})
	mux.Handle("/swagger/", http.StripPrefix("/swagger/", http.FileServer(http.Dir("./docs/swagger/swagger-ui"))))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// 8. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		Debug:            false,
	})

	return middleware.LoggerMiddleware(logger, c.Handler(mux)), pool, nil
}

// resolveProviderKeys fills provider API keys left out of the environment
// from Secret Manager.
func resolveProviderKeys(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	missing := map[string]*string{}
	if cfg.OpenAIAPIKey == "" {
		missing["openai"] = &cfg.OpenAIAPIKey
	}
	if cfg.ImageAPIKey == "" {
		missing["image"] = &cfg.ImageAPIKey
	}
	if cfg.VideoAPIKey == "" {
		missing["video"] = &cfg.VideoAPIKey
	}
	if len(missing) == 0 {
		return nil
	}

	secrets, err := service.NewSecretManagerService(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create Secret Manager client")
		return err
	}
	defer secrets.Close()

	for name, target := range missing {
		key, err := secrets.GetProviderKey(ctx, name)
		if err != nil {
			logger.Error().Err(err).Str("provider", name).Msg("Failed to fetch provider API key")
			return err
		}
		*target = key
	}
	return nil
}

// removeDisableGzip is a workaround for S3 signature errors with some S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		// Only remove the middleware if it exists.
		// This makes the client more robust, especially for operations like presigned URLs
		// that might inspect the middleware stack.
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
