package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/analyzers"
	"github.com/formsentry/spam-detector/internal/config"
	"github.com/formsentry/spam-detector/internal/core"
	"github.com/formsentry/spam-detector/internal/factory"
	"github.com/formsentry/spam-detector/internal/logging"
)

var (
	// Detection flags
	spamThreshold = flag.Float64("threshold", 0.5, "Threshold for the spam decision")
	formType      = flag.String("form-type", "", "Form type of the submission")
	identifier    = flag.String("identifier", "", "Submitter identifier (IP, email, account ID)")
	userAgent     = flag.String("user-agent", "", "User agent of the submitter")
	authenticated = flag.Bool("authenticated", false, "Whether the submitter is authenticated")
	frequency     = flag.Int("frequency", 0, "Submissions seen from this identifier in the last hour")
	trusted       = flag.String("trusted", "", "Comma-separated list of trusted identifiers")

	// Input flags
	inputFile  = flag.String("file", "", "Input JSON form data file (use stdin if not specified)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	jsonOut    = flag.Bool("json", false, "Print the result as JSON")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	var cfg *config.Config
	var err error

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration from file if specified
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = createConfigFromFlags()
	}

	// Read form data from file or stdin
	var reader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		reader = file
		logger.Info("Reading form data from file", zap.String("file", *inputFile))
	} else {
		reader = os.Stdin
		logger.Info("Reading form data from stdin")
	}

	raw, err := io.ReadAll(reader)
	if err != nil {
		logger.Fatal("Failed to read form data", zap.Error(err))
	}

	var formData map[string]any
	if err := json.Unmarshal(raw, &formData); err != nil {
		logger.Fatal("Failed to parse form data as JSON object", zap.Error(err))
	}

	service, err := buildService(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build detection service", zap.Error(err))
	}

	sc := &core.SubmissionContext{
		Identifier:          *identifier,
		FormType:            *formType,
		UserAgent:           *userAgent,
		Authenticated:       *authenticated,
		SubmissionFrequency: *frequency,
	}

	result := service.AnalyzeSubmission(context.Background(), formData, sc)

	if *jsonOut {
		printJSON(result)
		return
	}
	printResult(result)
}

// buildService assembles a detection service from the configuration using
// the same factories as the daemon, minus the external transports.
func buildService(cfg *config.Config, logger *zap.Logger) (*core.DetectionService, error) {
	sinkFactory := factory.NewSinkFactory(cfg, logger)
	sink, err := sinkFactory.CreateEventSink()
	if err != nil {
		return nil, err
	}

	patternFactory := factory.NewPatternFactory(cfg, logger)
	store, err := patternFactory.CreatePatternStore()
	if err != nil {
		return nil, err
	}

	limiterFactory := factory.NewLimiterFactory(cfg, logger)
	limiter, err := limiterFactory.CreateRateLimiter()
	if err != nil {
		return nil, err
	}

	kvFactory := factory.NewKVFactory(cfg, logger)
	cache, err := kvFactory.CreateKeyValueStore()
	if err != nil {
		return nil, err
	}

	textProcessor := factory.NewTextProcessorFactory(logger).CreateTextProcessor()

	detectorFactory := factory.NewDetectorFactory(cfg, logger)
	analyzerSet, err := detectorFactory.CreateAnalyzers(store, analyzers.NewCorpus(), sink)
	if err != nil {
		return nil, err
	}

	return detectorFactory.CreateDetectionService(analyzerSet, limiter, cache, sink, textProcessor)
}

// printResult prints a human-readable result summary
func printResult(result *core.DetectionResult) {
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Processing ID: %s\n", result.ProcessingID)
	fmt.Printf("Is spam: %t\n", result.IsSpam)
	fmt.Printf("Overall score: %.4f\n", result.OverallScore)
	fmt.Printf("Confidence: %.4f\n", result.Confidence)
	fmt.Printf("Risk level: %s\n", result.RiskLevel)
	fmt.Printf("Recommendation: %s\n", result.Recommendation)
	if len(result.ThreatTags) > 0 {
		fmt.Printf("Threat tags: %s\n", strings.Join(result.ThreatTags, ", "))
	}
	if len(result.MethodScores) > 0 {
		fmt.Printf("Method scores:\n")
		for method, score := range result.MethodScores {
			fmt.Printf("  %s: %.4f\n", method, score)
		}
	}
	if result.Degraded {
		fmt.Printf("Degraded: true\n")
	}
	if result.FailureReason != "" {
		fmt.Printf("Failure reason: %s\n", result.FailureReason)
	}
	fmt.Printf("Processing time: %v\n", result.ProcessingTime)
}

// printJSON prints the full result as indented JSON
func printJSON(result *core.DetectionResult) {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Printf("Failed to encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("spam.threshold", *spamThreshold)

	if *trusted != "" {
		identifiers := strings.Split(*trusted, ",")
		for i, id := range identifiers {
			identifiers[i] = strings.TrimSpace(id)
		}
		v.Set("spam.trusted_identifiers", identifiers)
	}

	// The CLI analyzes a single submission, so external sinks stay off.
	v.Set("sink.nats.enabled", false)
	v.Set("metrics.enabled", false)

	return config.NewFromViper(v)
}
