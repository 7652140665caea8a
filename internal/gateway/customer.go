package gateway

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/orlandoKuanDev/ms-transaction-bank/internal/models"
)

// CustomerGateway talks to the customer service.
type CustomerGateway struct {
	c *client
}

func NewCustomerGateway(baseURL string, timeout time.Duration, logger *zap.Logger) *CustomerGateway {
	return &CustomerGateway{c: newClient("customer-service", baseURL, timeout, logger)}
}

func (g *CustomerGateway) FindByIdentityNumber(ctx context.Context, identityNumber string) (*models.Customer, error) {
	var customer models.Customer
	path := "/identity/" + url.PathEscape(identityNumber)
	if err := g.c.doJSON(ctx, "GET", path, nil, &customer, "customer", identityNumber); err != nil {
		return nil, err
	}
	return &customer, nil
}
