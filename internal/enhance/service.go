// Package enhance enriches confirmed metrics with suggested operational
// metadata (priority, owner, data source, frequency). It shares the
// suggestion client's asynchronous shape: single-flight, cancellation,
// timeout, simulated phased progress; requests are keyed on the confirmed
// mapping set rather than raw catalog items.
package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tbialecki/catmap/pkg/models"
)

// Service is the enhancement collaborator contract.
type Service interface {
	SuggestEnhancements(ctx context.Context, catalogID string) ([]models.MetricEnhancement, error)
}

// HTTPService calls the enhancement service over HTTP.
type HTTPService struct {
	BaseURL string
	Client  *http.Client
}

type enhanceRequest struct {
	CatalogID string `json:"catalogId"`
}

type enhanceResponse struct {
	Enhancements []models.MetricEnhancement `json:"enhancements"`
}

func (s *HTTPService) SuggestEnhancements(ctx context.Context, catalogID string) ([]models.MetricEnhancement, error) {
	body, err := json.Marshal(enhanceRequest{CatalogID: catalogID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/suggest-enhancements", bytes.NewReader(body))
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
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("enhancement service returned %d: %s", resp.StatusCode, msg)
	}

	var out enhanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode enhancement response: %w", err)
	}
	return out.Enhancements, nil
}
