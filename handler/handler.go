// Package handler adapts API Gateway events to the generation use case and
// enforces the proxy wire contract: POST /api/generate with {"prompt"},
// answered with {"response"} on success and {"error"} on failure.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"chat-agent/internal/usecase"
)

const (
	msgPromptRequired   = "Prompt is required"
	msgTooManyRequests  = "Too many requests"
	msgGenerationFailed = "Failed to generate response"
)

type UseCase interface {
	Generate(ctx context.Context, in usecase.GenerateInput) (usecase.GenerateOutput, error)
}

type Handler struct {
	uc UseCase
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHandler(uc UseCase) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	return &Handler{uc: uc}, nil
}

func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(event.Headers)

	var req generateRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		slog.Warn("rejecting malformed request body", "correlation_id", corrID, "err", err)
		return respond(http.StatusBadRequest, errorResponse{Error: msgPromptRequired}, corrID), nil
	}

	out, err := h.uc.Generate(ctx, usecase.GenerateInput{Prompt: req.Prompt})
	if err != nil {
		status, msg := mapError(err)
		slog.Error("generation request failed", "correlation_id", corrID, "status", status, "err", err)
		return respond(status, errorResponse{Error: msg}, corrID), nil
	}

	return respond(http.StatusOK, generateResponse{Response: out.Reply}, corrID), nil
}

func mapError(err error) (int, string) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, msgGenerationFailed
	}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, msgPromptRequired
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests, msgTooManyRequests
	case usecase.ErrorUpstream:
		return http.StatusBadGateway, msgGenerationFailed
	default:
		return http.StatusInternalServerError, msgGenerationFailed
	}
}

func respond(status int, body any, corrID string) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		// Marshalling the fixed response shapes cannot realistically fail;
		// keep the wire contract anyway.
		status = http.StatusInternalServerError
		raw = []byte(`{"error":"` + msgGenerationFailed + `"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":     "application/json",
			"X-Correlation-Id": corrID,
		},
		Body: string(raw),
	}
}

// correlationID returns the caller-provided X-Correlation-Id header
// (case-insensitive) or mints a fresh one.
func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if http.CanonicalHeaderKey(k) == "X-Correlation-Id" && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
