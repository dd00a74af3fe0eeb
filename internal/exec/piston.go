// Package exec talks to the remote code-execution service. The service
// is a stateless collaborator: every request is fire-and-forget, and any
// failure surfaces as a textual error for the requesting client without
// touching room state.
package exec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidRequest marks requests rejected before dispatch
	ErrInvalidRequest = errors.New("invalid execution request")
	// ErrUnavailable marks transport or service-side failures
	ErrUnavailable = errors.New("execution service unavailable")
)

// Versions pins the runtime version used when the request leaves it
// blank, mirroring the editor's language picker.
var Versions = map[string]string{
	"javascript": "18.15.0",
	"typescript": "5.0.3",
	"python":     "3.10.0",
	"java":       "15.0.2",
	"csharp":     "6.12.0",
	"php":        "8.2.3",
	"go":         "1.16.2",
}

var validate = validator.New()

// Request is one code execution submission.
type Request struct {
	Language string `json:"language" validate:"required,oneof=javascript typescript python java csharp php go"`
	Version  string `json:"version"`
	Code     string `json:"code" validate:"required"`
}

// Result is a completed run.
type Result struct {
	Output   string `json:"output"`
	ExitCode int    `json:"exitCode"`
}

// Client calls a Piston-compatible execution API.
type Client struct {
	base string
	hc   *http.Client
	log  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		base: baseURL,
		hc:   &http.Client{Timeout: timeout},
		log:  log,
	}
}

type pistonRequest struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Files    []pistonFile `json:"files"`
}

type pistonFile struct {
	Content string `json:"content"`
}

type pistonResponse struct {
	Run struct {
		Output string `json:"output"`
		Code   int    `json:"code"`
	} `json:"run"`
	Message string `json:"message"`
}

// Run validates the request and submits it. The service's exit code is
// not an error here; only validation, transport and non-2xx responses are.
func (c *Client) Run(ctx context.Context, req Request) (Result, error) {
	if err := validate.Struct(req); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	version := req.Version
	if version == "" {
		version = Versions[req.Language]
	}

	body, _ := json.Marshal(pistonRequest{
		Language: req.Language,
		Version:  version,
		Files:    []pistonFile{{Content: req.Code}},
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/execute", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		c.log.Warn("exec.request", "language", req.Language, "err", err)
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Warn("exec.status", "language", req.Language, "status", resp.StatusCode)
		return Result{}, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, msg)
	}

	var pr pistonResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return Result{}, fmt.Errorf("%w: bad response: %v", ErrUnavailable, err)
	}

	return Result{Output: pr.Run.Output, ExitCode: pr.Run.Code}, nil
}
