package kitchen

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"apotekpos/backend/internal/domain"
)

// Client creates preparation tickets in the kitchen module. Delivery is
// fire-and-forget relative to the checkout response: failures are logged by
// the caller, never surfaced to the customer.
type Client interface {
	CreateTicket(ctx context.Context, ticket domain.KitchenTicket) error
}

type NoopClient struct{}

func (NoopClient) CreateTicket(_ context.Context, _ domain.KitchenTicket) error {
	return nil
}

type HTTPClient struct {
	client *resty.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(300 * time.Millisecond)

	return &HTTPClient{client: client}
}

func (c *HTTPClient) CreateTicket(ctx context.Context, ticket domain.KitchenTicket) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(ticket).
		Post("/api/v1/tickets")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("kitchen ticket rejected: %s", resp.Status())
	}
	return nil
}
