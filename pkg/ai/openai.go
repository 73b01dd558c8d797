package ai

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"go.uber.org/zap"

	"github.com/telaila/companion/internal/domain/entities"
	"github.com/telaila/companion/pkg/config"
)

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = stdErrors.New("openai client not configured")

var analysisSchema = GenerateSchema[AnalysisOutput]()

// OpenAIClient analyzes finished conversations and compresses knowledge bases
type OpenAIClient struct {
	client          *openai.Client
	model           string
	maxOutputTokens int64
	timeout         time.Duration
	agentName       string
	logger          *zap.Logger
}

// NewOpenAIClient creates a client from config. Extra request options are
// appended after the API key, e.g. option.WithBaseURL in tests.
func NewOpenAIClient(cfg *config.OpenAIConfig, agentName string, logger *zap.Logger, opts ...option.RequestOption) *OpenAIClient {
	c := &OpenAIClient{
		model:           cfg.Model,
		maxOutputTokens: cfg.MaxOutputTokens,
		timeout:         cfg.Timeout,
		agentName:       agentName,
		logger:          logger,
	}
	if cfg.APIKey != "" {
		client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}, opts...)...)
		c.client = &client
	}
	return c
}

// Analyze extracts health, biography and family signals from a transcript
func (c *OpenAIClient) Analyze(ctx context.Context, transcript, elderName, knowledgeBase string) (entities.Analysis, error) {
	if c.client == nil {
		return entities.Analysis{}, ErrNotConfigured
	}

	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(c.maxOutputTokens),
		Instructions:    openai.String(analysisInstructions(c.agentName, elderName)),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(analysisInput(transcript, knowledgeBase), responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "ConversationAnalysis",
					Schema:      analysisSchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Structured analysis of one companion call"),
					Type:        "json_schema",
				},
			},
		},
	}

	resp, err := c.callWithRetry(ctx, params)
	if err != nil {
		return entities.Analysis{}, fmt.Errorf("failed to analyze conversation: %w", err)
	}

	var analysis entities.Analysis
	if err := decodeModelJSON(resp.OutputText(), &analysis); err != nil {
		return entities.Analysis{}, fmt.Errorf("failed to decode analysis: %w", err)
	}
	return analysis, nil
}

// Compress shrinks a knowledge base, keeping the newest sessions verbatim
func (c *OpenAIClient) Compress(ctx context.Context, knowledgeBase, elderName string, keepSessions int) (string, error) {
	if c.client == nil {
		return "", ErrNotConfigured
	}

	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(c.maxOutputTokens * 3),
		Instructions:    openai.String(compressionInstructions(elderName, keepSessions)),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(knowledgeBase, responses.EasyInputMessageRoleUser),
			},
		},
	}

	resp, err := c.callWithRetry(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to compress knowledge base: %w", err)
	}
	out := strings.TrimSpace(stripCodeFence(resp.OutputText()))
	if out == "" {
		return "", fmt.Errorf("failed to compress knowledge base: empty output")
	}
	return out + "\n", nil
}

func (c *OpenAIClient) callWithRetry(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 2 * time.Minute

	var resp *responses.Response
	attempt := 0
	operation := func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		r, err := c.client.Responses.New(callCtx, params)
		if err != nil {
			if !isRetryable(ctx, err) {
				return backoff.Permanent(err)
			}
			if c.logger != nil {
				c.logger.Warn("⚠️ OpenAI call failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
			}
			return err
		}
		resp = r
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}

func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *openai.Error
	if stdErrors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	// transport errors and per-call timeouts
	return true
}

// decodeModelJSON accepts bare JSON, fenced JSON or JSON embedded in prose
func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(stripCodeFence(outputText))
	if s == "" {
		return io.ErrUnexpectedEOF
	}
	if json.Valid([]byte(s)) {
		return json.Unmarshal([]byte(s), v)
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end <= start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}
	sub := s[start : end+1]
	if !json.Valid([]byte(sub)) {
		return fmt.Errorf("invalid JSON in model output (len=%d)", len(sub))
	}
	return json.Unmarshal([]byte(sub), v)
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}
