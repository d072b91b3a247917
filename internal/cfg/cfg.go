// Package cfg loads service configuration from a YAML file with
// environment variable overrides. A .env file next to the binary is
// honored for local development.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings is the resolved runtime configuration of the risk service.
type Settings struct {
	ListenAddr      string
	ShutdownTimeout time.Duration

	ModelPath string
	DataPath  string
	ReportDir string

	TrainSamples int
	Seed         uint64
	TestFraction float64
	CVFolds      int

	// RetrainMinOutcomes is the number of recorded loan outcomes required
	// before a retrain blends collected data into the fit.
	RetrainMinOutcomes int

	LogLevel string
}

// ConfigFile is the YAML layout.
type ConfigFile struct {
	Server struct {
		ListenAddr      string `yaml:"listenAddr"`
		ShutdownTimeout string `yaml:"shutdownTimeout"`
	} `yaml:"server"`

	ML struct {
		ModelPath          string  `yaml:"modelPath"`
		TrainSamples       int     `yaml:"trainSamples"`
		Seed               uint64  `yaml:"seed"`
		TestFraction       float64 `yaml:"testFraction"`
		CVFolds            int     `yaml:"cvFolds"`
		RetrainMinOutcomes int     `yaml:"retrainMinOutcomes"`
	} `yaml:"ml"`

	System struct {
		DataPath  string `yaml:"dataPath"`
		ReportDir string `yaml:"reportDir"`
		LogLevel  string `yaml:"logLevel"`
	} `yaml:"system"`
}

// Load resolves settings from CONFIG_FILE when set, otherwise from
// environment variables alone. Environment variables always win over the
// file.
func Load() (Settings, error) {
	_ = godotenv.Load()

	settings := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyYAML(path, &settings); err != nil {
			return Settings{}, err
		}
	}
	applyEnv(&settings)

	if err := validate(&settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func defaults() Settings {
	return Settings{
		ListenAddr:         ":8090",
		ShutdownTimeout:    10 * time.Second,
		ModelPath:          "risk_model.gob",
		DataPath:           "risk_data.db",
		ReportDir:          "reports",
		TrainSamples:       2000,
		Seed:               42,
		TestFraction:       0.2,
		CVFolds:            5,
		RetrainMinOutcomes: 50,
		LogLevel:           "info",
	}
}

func applyYAML(path string, s *Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var file ConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if file.Server.ListenAddr != "" {
		s.ListenAddr = file.Server.ListenAddr
	}
	if file.Server.ShutdownTimeout != "" {
		if d, err := time.ParseDuration(file.Server.ShutdownTimeout); err == nil {
			s.ShutdownTimeout = d
		}
	}
	if file.ML.ModelPath != "" {
		s.ModelPath = file.ML.ModelPath
	}
	if file.ML.TrainSamples > 0 {
		s.TrainSamples = file.ML.TrainSamples
	}
	if file.ML.Seed > 0 {
		s.Seed = file.ML.Seed
	}
	if file.ML.TestFraction > 0 {
		s.TestFraction = file.ML.TestFraction
	}
	if file.ML.CVFolds > 0 {
		s.CVFolds = file.ML.CVFolds
	}
	if file.ML.RetrainMinOutcomes > 0 {
		s.RetrainMinOutcomes = file.ML.RetrainMinOutcomes
	}
	if file.System.DataPath != "" {
		s.DataPath = file.System.DataPath
	}
	if file.System.ReportDir != "" {
		s.ReportDir = file.System.ReportDir
	}
	if file.System.LogLevel != "" {
		s.LogLevel = file.System.LogLevel
	}
	return nil
}

func applyEnv(s *Settings) {
	s.ListenAddr = getEnvOrDefault("LISTEN_ADDR", s.ListenAddr)
	s.ShutdownTimeout = getDurationOrDefault("SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.ModelPath = getEnvOrDefault("MODEL_PATH", s.ModelPath)
	s.DataPath = getEnvOrDefault("DATA_PATH", s.DataPath)
	s.ReportDir = getEnvOrDefault("REPORT_DIR", s.ReportDir)
	s.TrainSamples = getIntOrDefault("TRAIN_SAMPLES", s.TrainSamples)
	s.Seed = getUintOrDefault("TRAIN_SEED", s.Seed)
	s.TestFraction = getFloatOrDefault("TEST_FRACTION", s.TestFraction)
	s.CVFolds = getIntOrDefault("CV_FOLDS", s.CVFolds)
	s.RetrainMinOutcomes = getIntOrDefault("RETRAIN_MIN_OUTCOMES", s.RetrainMinOutcomes)
	s.LogLevel = getEnvOrDefault("LOG_LEVEL", s.LogLevel)
}

func validate(s *Settings) error {
	if s.TestFraction <= 0 || s.TestFraction >= 1 {
		return fmt.Errorf("testFraction must be in (0, 1), got %v", s.TestFraction)
	}
	if s.CVFolds < 2 {
		return fmt.Errorf("cvFolds must be at least 2, got %d", s.CVFolds)
	}
	if s.TrainSamples < s.CVFolds {
		return fmt.Errorf("trainSamples %d is smaller than cvFolds %d", s.TrainSamples, s.CVFolds)
	}
	if s.ModelPath == "" || s.DataPath == "" {
		return fmt.Errorf("modelPath and dataPath are required")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getUintOrDefault(key string, defaultValue uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			return u
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
