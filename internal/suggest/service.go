// Package suggest obtains AI-generated framework mapping suggestions for an
// imported catalog. The reasoning service itself is an external
// collaborator; this package owns the request discipline around it:
// single-flight, cancellation, timeout, and phased progress.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tbialecki/catmap/pkg/models"
)

// Service is the mapping suggestion collaborator contract.
type Service interface {
	SuggestMappings(ctx context.Context, catalogID, frameworkCode string) ([]models.MappingSuggestion, error)
}

// HTTPService calls the reasoning service over HTTP.
type HTTPService struct {
	BaseURL string
	Client  *http.Client
}

type suggestRequest struct {
	CatalogID     string `json:"catalogId"`
	FrameworkCode string `json:"frameworkCode"`
}

type suggestResponse struct {
	Suggestions []models.MappingSuggestion `json:"suggestions"`
}

func (s *HTTPService) SuggestMappings(ctx context.Context, catalogID, frameworkCode string) ([]models.MappingSuggestion, error) {
	body, err := json.Marshal(suggestRequest{CatalogID: catalogID, FrameworkCode: frameworkCode})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/suggest-mappings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		// Unwrap so context cancellation and deadline are classifiable.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("suggestion service returned %d: %s", resp.StatusCode, msg)
	}

	var out suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode suggestion response: %w", err)
	}
	return out.Suggestions, nil
}
