package client

import (
	"context"
	"net/http"

	"github.com/Conceptual-Machines/lens-atelier-api/internal/models"
)

// GenerateMagicWords validates req locally and requests a lens set
func (c *Client) GenerateMagicWords(ctx context.Context, req models.MagicWordRequest) (*models.MagicWordResponse, error) {
	validated, err := models.ValidateMagicWordRequest(req)
	if err != nil {
		return nil, validationError(err)
	}

	var resp models.MagicWordResponse
	if err := c.Send(ctx, http.MethodPost, "/api/magic-words", validated, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateTensionSeeds validates req locally and requests tension seeds.
// Blank axes are removed before sending.
func (c *Client) GenerateTensionSeeds(ctx context.Context, req models.TensionSeedRequest) (*models.TensionSeedResponse, error) {
	validated, err := models.ValidateTensionSeedRequest(req)
	if err != nil {
		return nil, validationError(err)
	}

	var resp models.TensionSeedResponse
	if err := c.Send(ctx, http.MethodPost, "/api/tension-seeds", validated, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Limits(ctx context.Context) (*models.Limits, error) {
	var limits models.Limits
	if err := c.Send(ctx, http.MethodGet, "/api/limits", nil, &limits); err != nil {
		return nil, err
	}
	return &limits, nil
}

func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var health models.HealthResponse
	if err := c.Send(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}
