package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ThePeeKayy/resumate-orbital/internal/ai"
	"github.com/ThePeeKayy/resumate-orbital/internal/ai/gemini"
	"github.com/ThePeeKayy/resumate-orbital/internal/logger"
	"github.com/ThePeeKayy/resumate-orbital/internal/practice"
	"github.com/ThePeeKayy/resumate-orbital/internal/secrets"
	"github.com/ThePeeKayy/resumate-orbital/internal/server"
	"github.com/ThePeeKayy/resumate-orbital/internal/store"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultAddress = ":8080"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the resumate HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address, overrides server.address from the config")

	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
}

// serve wires the store, the AI assistant and the practice workflow
// into the HTTP server and runs it until interrupted.
func serve() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the resumate api", zap.String("version", resolveVersion()))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	st, err := newStore(ctx, config, logger)
	if err != nil {
		logger.Fatal("connecting to the document store", zap.Error(err))
	}
	defer st.Close(context.Background())

	if err := st.EnsureIndexes(ctx); err != nil {
		logger.Fatal("ensuring indexes", zap.Error(err))
	}

	assistant, err := newAssistant(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building the ai assistant", zap.Error(err))
	}

	workflow := practice.NewWorkflow(practiceConfig(config), &practice.Deps{
		Store:     st,
		Assistant: assistant,
		Logger:    logger,
	})

	address := defaultAddress
	if config.Server != nil && config.Server.Address != "" {
		address = config.Server.Address
	}

	srv := server.New(&server.Config{Address: address}, &server.Deps{
		Store:     st,
		Assistant: assistant,
		Workflow:  workflow,
		Logger:    logger,
	})

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@hourly", func() {
		pruned, err := st.PruneExpiredTokens(context.Background())
		if err != nil {
			logger.Error("pruning expired tokens", zap.Error(err))
			return
		}
		if pruned > 0 {
			logger.Info("pruned expired tokens", zap.Int64("count", pruned))
		}
	}); err != nil {
		logger.Fatal("scheduling token pruning", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal("http server failed", zap.Error(err))
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		if err := srv.Shutdown(); err != nil {
			logger.Error("shutting down the http server", zap.Error(err))
		}
	}
}

func newStore(ctx context.Context, config *Config, logger *zap.Logger) (*store.Store, error) {
	if config.Mongo == nil {
		return nil, errors.New("mongo configuration is required")
	}

	uri, err := secrets.Load(secrets.Source{
		Name:  "mongo connection uri",
		Value: config.Mongo.URI,
		File:  config.Mongo.URIFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set mongo.uri, mongo.uri-file or MONGO_URI_FILE)", err)
	}

	database := config.Mongo.Database
	if database == "" {
		database = app
	}

	return store.Connect(ctx, uri, database, logger)
}

func newAssistant(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Assistant, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("ai.gemini configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Gemini.Model),
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewAssistant(generator, cfg.Gemini.MaxLogLength, logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", generator.Model()),
	)), nil
}

func practiceConfig(config *Config) *practice.Config {
	cfg := &practice.Config{}
	if config.Practice != nil {
		cfg.QuestionCount = config.Practice.QuestionCount
		cfg.CallTimeout = config.Practice.CallTimeout
	}

	return cfg
}
