package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orlandoKuanDev/ms-transaction-bank/internal/apperr"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/models"
)

func TestBillGatewayFindByAccountNumber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/acc/12345678", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(models.Bill{AccountNumber: "12345678", Balance: 250.75})
	}))
	defer server.Close()

	g := NewBillGateway(server.URL, time.Second, zap.NewNop())
	bill, err := g.FindByAccountNumber(context.Background(), "12345678")
	require.NoError(t, err)
	assert.Equal(t, "12345678", bill.AccountNumber)
	assert.Equal(t, 250.75, bill.Balance)
}

func TestBillGatewayMapsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	g := NewBillGateway(server.URL, time.Second, zap.NewNop())
	_, err := g.FindByAccountNumber(context.Background(), "missing")
	assert.True(t, apperr.IsNotFound(err))
}

func TestBillGatewayMapsUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("maintenance window"))
	}))
	defer server.Close()

	g := NewBillGateway(server.URL, time.Second, zap.NewNop())
	_, err := g.Update(context.Background(), &models.Bill{AccountNumber: "12345678"})

	var remote *apperr.RemoteFailureError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusServiceUnavailable, remote.Status)
	assert.Equal(t, "maintenance window", remote.Body)
}

func TestBillGatewayMapsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // closed on purpose

	g := NewBillGateway(server.URL, time.Second, zap.NewNop())
	_, err := g.FindByAccountNumber(context.Background(), "12345678")

	var remote *apperr.RemoteFailureError
	require.ErrorAs(t, err, &remote)
	assert.Zero(t, remote.Status)
}

func TestAcquisitionGatewayUpdateSendsBody(t *testing.T) {
	var received models.Acquisition
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/update/12345678", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(received)
	}))
	defer server.Close()

	g := NewAcquisitionGateway(server.URL, time.Second, zap.NewNop())
	acq := &models.Acquisition{
		AccountNumber: "12345678",
		Product: models.Product{
			ProductName: "savings",
			Rules:       models.Rules{MaximumLimitMonthlyMovementsQuantity: 6},
		},
	}
	updated, err := g.Update(context.Background(), acq)
	require.NoError(t, err)
	assert.Equal(t, 6, received.Product.Rules.MaximumLimitMonthlyMovementsQuantity)
	assert.Equal(t, "savings", updated.Product.ProductName)
}

func TestCustomerGatewayFindByIdentityNumber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/identity/ID-9", r.URL.Path)
		json.NewEncoder(w).Encode(models.Customer{CustomerIdentityNumber: "ID-9"})
	}))
	defer server.Close()

	g := NewCustomerGateway(server.URL, time.Second, zap.NewNop())
	customer, err := g.FindByIdentityNumber(context.Background(), "ID-9")
	require.NoError(t, err)
	assert.Equal(t, "ID-9", customer.CustomerIdentityNumber)
}

func TestGatewayHonoursTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	g := NewBillGateway(server.URL, 20*time.Millisecond, zap.NewNop())
	_, err := g.FindByAccountNumber(context.Background(), "12345678")

	var remote *apperr.RemoteFailureError
	require.ErrorAs(t, err, &remote)
}
