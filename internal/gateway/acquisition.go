package gateway

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/orlandoKuanDev/ms-transaction-bank/internal/models"
)

// AcquisitionGateway talks to the acquisition service. Acquisitions are
// keyed by account number here; historical card/IBAN keyed routes are
// not used.
type AcquisitionGateway struct {
	c *client
}

func NewAcquisitionGateway(baseURL string, timeout time.Duration, logger *zap.Logger) *AcquisitionGateway {
	return &AcquisitionGateway{c: newClient("acquisition-service", baseURL, timeout, logger)}
}

func (g *AcquisitionGateway) FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Acquisition, error) {
	var acq models.Acquisition
	path := "/acc/" + url.PathEscape(accountNumber)
	if err := g.c.doJSON(ctx, "GET", path, nil, &acq, "acquisition", accountNumber); err != nil {
		return nil, err
	}
	return &acq, nil
}

func (g *AcquisitionGateway) Update(ctx context.Context, acq *models.Acquisition) (*models.Acquisition, error) {
	g.c.logger.Info("updating acquisition",
		zap.String("accountNumber", acq.AccountNumber),
		zap.Int("movements", acq.Product.Rules.MaximumLimitMonthlyMovementsQuantity),
	)
	var updated models.Acquisition
	path := "/update/" + url.PathEscape(acq.AccountNumber)
	if err := g.c.doJSON(ctx, "PUT", path, acq, &updated, "acquisition", acq.AccountNumber); err != nil {
		return nil, err
	}
	return &updated, nil
}
