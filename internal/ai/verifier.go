// Package ai calls the external document-verification service. The result
// is advisory only: a verification badge surfaced to reviewers, never a
// gate on human approval. Failures and timeouts degrade to "advisory data
// unavailable" and must never block or fail a document upload.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Result is the opaque verification outcome. Score is 0-100.
type Result struct {
	Verified bool `json:"verified"`
	Score    int  `json:"score"`
}

// Verifier produces an advisory verification result for an uploaded file.
type Verifier interface {
	Verify(ctx context.Context, documentName, fileRef string) (Result, error)
}

// HTTPVerifier calls a verification endpoint over HTTP with a bounded
// timeout.
type HTTPVerifier struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

// NewHTTPVerifier creates a verifier against the given endpoint.
func NewHTTPVerifier(url string, timeout time.Duration) *HTTPVerifier {
	return &HTTPVerifier{
		url:     url,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

type verifyRequest struct {
	DocumentName string `json:"document_name"`
	FileRef      string `json:"file_ref"`
}

// Verify posts the document reference to the verification service and
// decodes the advisory result.
func (v *HTTPVerifier) Verify(ctx context.Context, documentName, fileRef string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	body, err := json.Marshal(verifyRequest{DocumentName: documentName, FileRef: fileRef})
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("verify call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("verify call returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("failed to decode verify response: %w", err)
	}
	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 100 {
		result.Score = 100
	}
	return result, nil
}

// Disabled is a Verifier for deployments without a verification service.
// Every call reports advisory data unavailable.
type Disabled struct{}

// Verify always returns an error so uploads record no advisory data.
func (Disabled) Verify(ctx context.Context, documentName, fileRef string) (Result, error) {
	return Result{}, fmt.Errorf("document verification is not configured")
}
