// Command riskd serves loan default risk predictions over HTTP. On
// startup it loads the model artifact from disk; when none exists yet it
// trains the enhanced model on synthetic data and saves the artifact
// before serving.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/p2plend/riskengine/classifier"
	"github.com/p2plend/riskengine/internal/cfg"
	"github.com/p2plend/riskengine/internal/metrics"
	"github.com/p2plend/riskengine/internal/server"
	"github.com/p2plend/riskengine/internal/storage"
	"github.com/p2plend/riskengine/pipeline"
	"github.com/p2plend/riskengine/pkg/log"
)

func main() {
	settings, err := cfg.Load()
	if err != nil {
		log.GetLogger().Error("config load failed", "error", err)
		os.Exit(1)
	}

	logger := log.NewLogger(settings.LogLevel)
	log.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(settings.DataPath)
	if err != nil {
		logger.Error("opening loan store failed", "error", err, "data.path", settings.DataPath)
		os.Exit(1)
	}
	defer store.Close()

	model, report, err := bootstrapModel(settings, logger)
	if err != nil {
		logger.Error("model bootstrap failed", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	srv := server.New(settings, store, m, logger, model, report)
	srv.SwapModel(model)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// bootstrapModel loads the artifact from disk, falling back to a fresh
// synthetic training run when the file is missing.
func bootstrapModel(settings cfg.Settings, logger log.Logger) (*classifier.TrainedModel, *pipeline.TrainingReport, error) {
	if _, err := os.Stat(settings.ModelPath); err == nil {
		model, err := classifier.Load(settings.ModelPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("model loaded from disk",
			log.VariantKey, model.Variant,
			"model.path", settings.ModelPath,
			"model.trained_at", model.TrainedAt,
		)
		return model, nil, nil
	}

	logger.Info("no model artifact found, training from synthetic data",
		"model.path", settings.ModelPath,
		log.SamplesKey, settings.TrainSamples,
		log.SeedKey, settings.Seed,
	)
	result, err := pipeline.Run(pipeline.Config{
		Samples:      settings.TrainSamples,
		Seed:         settings.Seed,
		TestFraction: settings.TestFraction,
		CVFolds:      settings.CVFolds,
		Grid:         classifier.DefaultGridSearch(),
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := result.Enhanced.Save(settings.ModelPath); err != nil {
		return nil, nil, err
	}
	return result.Enhanced, &result.Report, nil
}
