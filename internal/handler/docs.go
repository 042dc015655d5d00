package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/doc-generator/internal/apperror"
	"github.com/sakif/doc-generator/internal/config"
	"github.com/sakif/doc-generator/internal/docs"
)

// DocsHandler serves documentation generation and the OpenAI health
// probe.
type DocsHandler struct {
	docs   *docs.Service
	cfg    config.OpenAIConfig
	logger *slog.Logger
}

// NewDocsHandler creates a DocsHandler.
func NewDocsHandler(service *docs.Service, cfg config.OpenAIConfig, logger *slog.Logger) *DocsHandler {
	return &DocsHandler{docs: service, cfg: cfg, logger: logger}
}

// generateRequest is the documentation-generation payload. The batch
// shape is primary; the flat single-file shape is still accepted for
// older clients.
type generateRequest struct {
	Files []generateFile `json:"files"`

	// legacy single-file shape
	FileName string `json:"file_name"`
	Base64   string `json:"base64"`
}

type generateFile struct {
	FileName string `json:"file_name"`
	Base64   string `json:"base64"`
}

// HandleGenerate generates documentation for up to five files.
//
// HTTP: POST /api/openai/generate-documentation
// BODY: {"files": [{"file_name": "...", "base64": "..."}]}
//
// Files are processed independently — the response carries a per-file
// success or error entry and one bad file never sinks the batch.
func (h *DocsHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var payload generateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		Failure(w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}

	files := payload.Files
	if len(files) == 0 && payload.FileName != "" {
		files = []generateFile{{FileName: payload.FileName, Base64: payload.Base64}}
	}

	if verrs := validateFiles(files); verrs != nil {
		WriteError(w, h.logger, apperror.ValidationFailed(verrs))
		return
	}

	inputs := make([]docs.FileInput, len(files))
	for i, f := range files {
		inputs[i] = docs.FileInput{FileName: f.FileName, Base64: f.Base64}
	}

	entries, err := h.docs.GenerateBatch(r.Context(), inputs)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	Success(w, http.StatusOK, "Documentation generated", map[string]any{
		"results": entries,
	})
}

// validateFiles checks the batch shape by hand — the schema validator
// covers flat fields, not arrays of objects. Errors are keyed per entry
// ("files[1].file_name") so the client can point at the exact file.
func validateFiles(files []generateFile) map[string][]string {
	errs := map[string][]string{}

	if len(files) == 0 {
		errs["files"] = append(errs["files"], "At least one file is required")
	}
	if len(files) > docs.MaxBatchSize {
		errs["files"] = append(errs["files"],
			fmt.Sprintf("At most %d files per request", docs.MaxBatchSize))
	}

	for i, f := range files {
		if f.FileName == "" {
			key := fmt.Sprintf("files[%d].file_name", i)
			errs[key] = append(errs[key], "This field is required")
		}
		if f.Base64 == "" {
			key := fmt.Sprintf("files[%d].base64", i)
			errs[key] = append(errs[key], "This field is required")
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// HandleHealth reports whether the OpenAI backend is usable.
//
// HTTP: GET /api/openai/health
//
// Only configuration is checked — no live call is made, so this probe
// is free and safe to poll.
func (h *DocsHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.docs.Configured() {
		Failure(w, http.StatusServiceUnavailable, "OpenAI API key not configured", nil)
		return
	}

	Success(w, http.StatusOK, "OpenAI service is healthy", map[string]any{
		"openai_configured": true,
		"default_model":     h.cfg.Model,
		"max_tokens":        h.cfg.MaxTokens,
		"temperature":       h.cfg.Temperature,
	})
}
