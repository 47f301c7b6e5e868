package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"chat-agent/handler"
	"chat-agent/internal/integrations/gemini"
	"chat-agent/internal/integrations/paramstore"
	"chat-agent/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	paramPrefix := mustEnv("PARAM_PREFIX")
	geminiBaseURL := os.Getenv("GEMINI_BASE_URL") // optional override

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}

	var geminiOpts []gemini.Option
	if geminiBaseURL != "" {
		geminiOpts = append(geminiOpts, gemini.WithBaseURL(geminiBaseURL))
	}
	geminiClient, err := gemini.NewClient(ssmClient, paramPrefix, geminiOpts...)
	if err != nil {
		slog.Error("failed to create Gemini client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	generateService, err := usecase.NewGenerateService(ssmClient, geminiClient, paramPrefix)
	if err != nil {
		slog.Error("failed to create generate service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(generateService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}
