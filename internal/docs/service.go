// Package docs generates Markdown documentation for source files using
// the OpenAI chat-completions API.
//
// The flow per file: decode the base64 payload, pick a language-specific
// system prompt from the file extension, send one chat-completion
// request, then normalize the response into the seven-section template
// (see format.go). Files in a batch are independent — one failure never
// aborts the rest.
package docs

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sakif/doc-generator/internal/apperror"
	"github.com/sakif/doc-generator/internal/config"
)

// MaxBatchSize caps how many files one request may carry. Each file is
// its own completion call, so the cap bounds cost and latency per
// request.
const MaxBatchSize = 5

// completer is the slice of the OpenAI client this service uses.
// Declared here (accept interfaces) so tests can substitute a stub
// without network access.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Service generates documentation from base64-encoded source files.
type Service struct {
	client completer
	cfg    config.OpenAIConfig
	logger *slog.Logger
}

// NewService builds a Service backed by the real OpenAI client.
func NewService(cfg config.OpenAIConfig, logger *slog.Logger) *Service {
	return &Service{
		client: openai.NewClient(cfg.APIKey),
		cfg:    cfg,
		logger: logger,
	}
}

// Configured reports whether an API key is present. The health endpoint
// uses this — no live call is made, a missing key is the only state we
// can detect without spending tokens.
func (s *Service) Configured() bool {
	return s.cfg.APIKey != ""
}

// Result is the successful outcome for one file.
type Result struct {
	File          string `json:"file"`
	ModelUsed     string `json:"model_used"`
	Documentation string `json:"documentation"`
	Status        string `json:"status"`
}

// FileInput is one entry of a generation batch.
type FileInput struct {
	FileName string
	Base64   string
}

// BatchEntry is the per-file outcome of a batch: exactly one of Result
// or Error is set.
type BatchEntry struct {
	File   string  `json:"file"`
	Status string  `json:"status"` // "success" or "error"
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Generate produces documentation for a single base64-encoded file.
func (s *Service) Generate(ctx context.Context, fileName, base64Content string) (*Result, error) {
	if !s.Configured() {
		return nil, apperror.New(apperror.CodeRequestError, "OpenAI API key not configured")
	}

	raw, err := base64.StdEncoding.DecodeString(base64Content)
	if err != nil {
		return nil, apperror.ValidationFailed(map[string][]string{
			"base64": {"Content is not valid base64"},
		})
	}
	if !utf8.Valid(raw) {
		return nil, apperror.ValidationFailed(map[string][]string{
			"base64": {"Decoded content is not valid UTF-8 text"},
		})
	}
	code := string(raw)

	ext := fileExtension(fileName)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	s.logger.Info("generating documentation",
		slog.String("file", fileName),
		slog.String("model", s.cfg.Model),
	)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(ext)},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(code, fileName, ext)},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperror.Wrap(apperror.CodeRequestTimeout,
				"Request timeout while contacting OpenAI API", err)
		}
		return nil, apperror.Wrap(apperror.CodeRequestError,
			fmt.Sprintf("Failed to generate documentation for %s", fileName), err)
	}
	if len(resp.Choices) == 0 {
		return nil, apperror.New(apperror.CodeRequestError,
			"OpenAI returned an empty completion")
	}

	content, missing := normalize(resp.Choices[0].Message.Content, fileName)
	if len(missing) > 0 {
		s.logger.Warn("generated documentation is missing sections",
			slog.String("file", fileName),
			slog.Any("sections", missing),
		)
	}

	return &Result{
		File:          fileName,
		ModelUsed:     s.cfg.Model,
		Documentation: content,
		Status:        "success",
	}, nil
}

// GenerateBatch processes up to MaxBatchSize files sequentially, each
// independently: a failure becomes that file's error entry and the rest
// of the batch still runs.
func (s *Service) GenerateBatch(ctx context.Context, files []FileInput) ([]BatchEntry, error) {
	if len(files) == 0 {
		return nil, apperror.ValidationFailed(map[string][]string{
			"files": {"At least one file is required"},
		})
	}
	if len(files) > MaxBatchSize {
		return nil, apperror.ValidationFailed(map[string][]string{
			"files": {fmt.Sprintf("At most %d files per request", MaxBatchSize)},
		})
	}

	entries := make([]BatchEntry, 0, len(files))
	for _, f := range files {
		result, err := s.Generate(ctx, f.FileName, f.Base64)
		if err != nil {
			s.logger.Error("documentation generation failed",
				slog.String("file", f.FileName),
				slog.String("error", err.Error()),
			)
			entries = append(entries, BatchEntry{
				File:   f.FileName,
				Status: "error",
				Error:  errorMessage(err),
			})
			continue
		}
		entries = append(entries, BatchEntry{
			File:   f.FileName,
			Status: "success",
			Result: result,
		})
	}

	return entries, nil
}

// errorMessage extracts the user-facing message from a classified error,
// falling back to a generic one so raw API errors never leak to clients.
func errorMessage(err error) string {
	if appErr, ok := apperror.From(err); ok {
		return appErr.Message
	}
	return "Failed to generate documentation"
}
