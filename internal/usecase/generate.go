package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

const defaultModel = "gemini-2.0-flash"

type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

type LLMClient interface {
	GenerateContent(ctx context.Context, model, prompt string) (string, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// GenerateService turns one prompt into one reply. It is stateless across
// requests apart from the model name cached from SSM on first use.
type GenerateService struct {
	params      ParamGetter
	llm         LLMClient
	paramPrefix string

	cacheMu     sync.RWMutex
	cacheLoaded bool
	model       string
}

type GenerateInput struct {
	Prompt string
}

type GenerateOutput struct {
	Reply string
}

func NewGenerateService(p ParamGetter, llm LLMClient, paramPrefix string) (*GenerateService, error) {
	if p == nil {
		return nil, errors.New("usecase: param getter must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("usecase: parameter prefix must not be empty")
	}
	return &GenerateService{
		params:      p,
		llm:         llm,
		paramPrefix: paramPrefix,
	}, nil
}

// Generate validates the prompt, resolves the configured model, and performs
// the single upstream round trip. The prompt is otherwise opaque: no length
// limit and no history; the service relays exactly one turn.
func (s *GenerateService) Generate(ctx context.Context, in GenerateInput) (GenerateOutput, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return GenerateOutput{}, newError(ErrorInvalidInput, "empty_prompt", nil)
	}
	if err := s.ensureConfig(ctx); err != nil {
		return GenerateOutput{}, newError(ErrorInternal, "ssm_load_error", err)
	}

	reply, err := s.llm.GenerateContent(ctx, s.model, prompt)
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == 429 {
			return GenerateOutput{}, newError(ErrorRateLimited, "gemini_rate_limited", err)
		}
		return GenerateOutput{}, newError(ErrorUpstream, "gemini_error", err)
	}
	if strings.TrimSpace(reply) == "" {
		return GenerateOutput{}, newError(ErrorUpstream, "gemini_empty_reply", nil)
	}

	return GenerateOutput{Reply: reply}, nil
}

// ensureConfig loads the model name from SSM once. A failed load is retried
// on the next request rather than poisoning the process.
func (s *GenerateService) ensureConfig(ctx context.Context) error {
	s.cacheMu.RLock()
	if s.cacheLoaded {
		s.cacheMu.RUnlock()
		return nil
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheLoaded {
		return nil
	}

	model, err := s.params.GetParameter(ctx, s.paramPrefix+"/config/model")
	if err != nil {
		return fmt.Errorf("usecase: load model: %w", err)
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultModel
	}

	s.model = model
	s.cacheLoaded = true
	return nil
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
