package gateway

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/orlandoKuanDev/ms-transaction-bank/internal/models"
)

// BillGateway talks to the bill service. FindByAccountNumber and
// FindByIban are idempotent lookups; Update writes the bill back
// wholesale.
type BillGateway struct {
	c *client
}

func NewBillGateway(baseURL string, timeout time.Duration, logger *zap.Logger) *BillGateway {
	return &BillGateway{c: newClient("bill-service", baseURL, timeout, logger)}
}

func (g *BillGateway) FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Bill, error) {
	var bill models.Bill
	path := "/acc/" + url.PathEscape(accountNumber)
	if err := g.c.doJSON(ctx, "GET", path, nil, &bill, "bill", accountNumber); err != nil {
		return nil, err
	}
	return &bill, nil
}

func (g *BillGateway) FindByIban(ctx context.Context, iban string) (*models.Bill, error) {
	var bill models.Bill
	path := "/acquisition/" + url.PathEscape(iban)
	if err := g.c.doJSON(ctx, "GET", path, nil, &bill, "bill", iban); err != nil {
		return nil, err
	}
	return &bill, nil
}

func (g *BillGateway) Update(ctx context.Context, bill *models.Bill) (*models.Bill, error) {
	g.c.logger.Info("updating bill",
		zap.String("accountNumber", bill.AccountNumber),
		zap.Float64("balance", bill.Balance),
	)
	var updated models.Bill
	if err := g.c.doJSON(ctx, "POST", "/update", bill, &updated, "bill", bill.AccountNumber); err != nil {
		return nil, err
	}
	return &updated, nil
}
