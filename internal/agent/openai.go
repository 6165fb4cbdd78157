package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/sakif/compliance-chat/internal/apperror"
)

// OpenAIAgent talks to the OpenAI chat completions API.
//
// The persona (Config.Instructions) rides along as the system message of
// every request, so the hosted model answers in character without this
// process holding any conversation state.
//
// ERROR SEMANTICS:
// Anything that stops us from getting a final text answer — transport
// errors, API errors, a timed-out context, an empty completion — comes back
// as apperror.ErrUpstream. The orchestrator relies on that to skip
// persistence.
type OpenAIAgent struct {
	client openai.Client
	cfg    Config
	logger *slog.Logger
}

// compile-time check that *OpenAIAgent implements Agent
var _ Agent = (*OpenAIAgent)(nil)

// NewOpenAIAgent creates an agent gateway from the given config.
//
// Retries are explicitly disabled: the send pipeline promises a single
// upstream attempt per user message, and the client's default retry policy
// would silently break that.
func NewOpenAIAgent(cfg Config, logger *slog.Logger) (*OpenAIAgent, error) {
	if cfg.APIKey == "" {
		return nil, apperror.Upstream("AI agent API key is not configured", nil)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIAgent{
		client: openai.NewClient(opts...),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Ask sends one user message to the model and returns its final text output.
func (a *OpenAIAgent) Ask(ctx context.Context, message string) (*Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	completion, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(a.cfg.Instructions),
			openai.UserMessage(message),
		},
		Model: openai.ChatModel(a.cfg.Model),
	})
	if err != nil {
		a.logger.Error("agent call failed",
			slog.String("model", a.cfg.Model),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream("failed to get response from AI agent", err)
	}

	text := ""
	if len(completion.Choices) > 0 {
		text = strings.TrimSpace(completion.Choices[0].Message.Content)
	}
	if text == "" {
		// The API answered but produced nothing usable. Treat it the same
		// as an unreachable service — the caller must not persist a turn
		// with an empty response.
		a.logger.Error("agent returned empty output", slog.String("model", a.cfg.Model))
		return nil, apperror.Upstream("AI agent returned no output", nil)
	}

	return &Reply{
		Text:   text,
		Model:  a.cfg.Model,
		Tokens: completion.Usage.TotalTokens,
	}, nil
}
