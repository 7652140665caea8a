package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orlandoKuanDev/ms-transaction-bank/internal/apperr"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/models"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/saga"
)

// ---- mock implementations ----

type mockCreator struct {
	createFn func(saga.CreateRequest) (*models.Transaction, error)
}

func (m *mockCreator) Create(_ context.Context, req saga.CreateRequest) (*models.Transaction, error) {
	if m.createFn != nil {
		return m.createFn(req)
	}
	return nil, fmt.Errorf("not configured")
}

type mockReader struct {
	getFn       func(id string) (*models.Transaction, error)
	findAllFn   func() ([]models.Transaction, error)
	findByAccFn func(accountNumber string) ([]models.Transaction, error)
	evicted     []string
}

func (m *mockReader) GetByID(_ context.Context, id string) (*models.Transaction, error) {
	if m.getFn != nil {
		return m.getFn(id)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockReader) FindAll(_ context.Context) ([]models.Transaction, error) {
	if m.findAllFn != nil {
		return m.findAllFn()
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockReader) FindByBillAccountNumber(_ context.Context, accountNumber string) ([]models.Transaction, error) {
	if m.findByAccFn != nil {
		return m.findByAccFn(accountNumber)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockReader) EvictTransaction(_ context.Context, id string) {
	m.evicted = append(m.evicted, id)
}

type mockWriter struct {
	updateFn func(t *models.Transaction) error
	deleteFn func(id string) error
}

func (m *mockWriter) Update(_ context.Context, t *models.Transaction) error {
	if m.updateFn != nil {
		return m.updateFn(t)
	}
	return fmt.Errorf("not configured")
}

func (m *mockWriter) Delete(_ context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(id)
	}
	return fmt.Errorf("not configured")
}

type mockEngine struct {
	rangeFn     func(start time.Time, days int) ([]models.Transaction, error)
	byProductFn func(start time.Time, days int, productName string) ([]models.Transaction, error)
	latestFn    func(dayStart time.Time) (*models.Transaction, error)
	averageFn   func(year, month int, accountNumber string) (*models.AverageReport, error)
}

func (m *mockEngine) Range(_ context.Context, start time.Time, days int) ([]models.Transaction, error) {
	return m.rangeFn(start, days)
}

func (m *mockEngine) RangeByProduct(_ context.Context, start time.Time, days int, productName string) ([]models.Transaction, error) {
	return m.byProductFn(start, days, productName)
}

func (m *mockEngine) Latest(_ context.Context, dayStart time.Time) (*models.Transaction, error) {
	return m.latestFn(dayStart)
}

func (m *mockEngine) MonthlyAverage(_ context.Context, year, month int, accountNumber string) (*models.AverageReport, error) {
	return m.averageFn(year, month, accountNumber)
}

type mockBills struct {
	findAccFn  func(accountNumber string) (*models.Bill, error)
	findIbanFn func(iban string) (*models.Bill, error)
}

func (m *mockBills) FindByAccountNumber(_ context.Context, accountNumber string) (*models.Bill, error) {
	return m.findAccFn(accountNumber)
}

func (m *mockBills) FindByIban(_ context.Context, iban string) (*models.Bill, error) {
	return m.findIbanFn(iban)
}

type mockAcquisitions struct {
	findFn   func(accountNumber string) (*models.Acquisition, error)
	updateFn func(acq *models.Acquisition) (*models.Acquisition, error)
}

func (m *mockAcquisitions) FindByAccountNumber(_ context.Context, accountNumber string) (*models.Acquisition, error) {
	return m.findFn(accountNumber)
}

func (m *mockAcquisitions) Update(_ context.Context, acq *models.Acquisition) (*models.Acquisition, error) {
	return m.updateFn(acq)
}

type mockCustomers struct {
	findFn func(identityNumber string) (*models.Customer, error)
}

func (m *mockCustomers) FindByIdentityNumber(_ context.Context, identityNumber string) (*models.Customer, error) {
	return m.findFn(identityNumber)
}

// ---- helpers ----

type deps struct {
	creator      *mockCreator
	reader       *mockReader
	writer       *mockWriter
	engine       *mockEngine
	bills        *mockBills
	acquisitions *mockAcquisitions
	customers    *mockCustomers
}

func newTestRouter(d deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewTransactionHandler(
		d.creator, d.reader, d.writer, d.engine,
		d.bills, d.acquisitions, d.customers,
		Options{Location: time.UTC, AverageYear: 2021},
	)
	h.Register(r)
	return r
}

func doRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func assertErrorBody(t *testing.T, w *httptest.ResponseRecorder, wantStatus int) {
	t.Helper()
	var body struct {
		Error     string    `json:"error"`
		Timestamp time.Time `json:"timestamp"`
		Status    int       `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not valid JSON: %v", err)
	}
	if body.Error == "" {
		t.Error("error body must carry a message")
	}
	if body.Timestamp.IsZero() {
		t.Error("error body must carry a timestamp")
	}
	if body.Status != wantStatus {
		t.Errorf("error body status = %d, want %d", body.Status, wantStatus)
	}
}

// ---- test data ----

var testTransaction = &models.Transaction{
	ID:                "tan-001",
	TransactionType:   "deposit",
	TransactionAmount: 50,
	Description:       "salary",
	TransactionDate:   time.Date(2021, 8, 12, 10, 0, 0, 0, time.UTC),
	Bill:              models.Bill{AccountNumber: "12345678", Balance: 1000},
}

func createBody() map[string]interface{} {
	return map[string]interface{}{
		"transactionType":   "deposit",
		"transactionAmount": 50.0,
		"description":       "salary",
		"bill":              map[string]interface{}{"accountNumber": "12345678"},
	}
}

// ---- tests ----

func TestCreateTransaction(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		createFn       func(saga.CreateRequest) (*models.Transaction, error)
		expectedStatus int
		wantLocation   string
	}{
		{
			name:           "success",
			body:           createBody(),
			createFn:       func(req saga.CreateRequest) (*models.Transaction, error) { return testTransaction, nil },
			expectedStatus: http.StatusCreated,
			wantLocation:   "/api/transaction/tan-001",
		},
		{
			name: "validation failure",
			body: createBody(),
			createFn: func(req saga.CreateRequest) (*models.Transaction, error) {
				return nil, apperr.NewValidation("TransactionType", "this field is required")
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "acquisition not found",
			body: createBody(),
			createFn: func(req saga.CreateRequest) (*models.Transaction, error) {
				return nil, apperr.NewNotFound("acquisition", "12345678")
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "account busy",
			body: createBody(),
			createFn: func(req saga.CreateRequest) (*models.Transaction, error) {
				return nil, apperr.ErrAccountBusy
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "remote failure",
			body: createBody(),
			createFn: func(req saga.CreateRequest) (*models.Transaction, error) {
				return nil, &apperr.RemoteFailureError{Service: "bill-service", Status: 500, Body: "boom"}
			},
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "malformed body",
			body:           "not-json",
			createFn:       nil,
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(deps{creator: &mockCreator{createFn: tt.createFn}})

			w := doRequest(router, http.MethodPost, "/transaction/create", tt.body)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}
			if tt.wantLocation != "" && w.Header().Get("Location") != tt.wantLocation {
				t.Errorf("Location = %q, want %q", w.Header().Get("Location"), tt.wantLocation)
			}
		})
	}
}

func TestGetTransaction(t *testing.T) {
	reader := &mockReader{
		getFn: func(id string) (*models.Transaction, error) {
			if id == "tan-001" {
				return testTransaction, nil
			}
			return nil, apperr.NewNotFound("transaction", id)
		},
	}
	router := newTestRouter(deps{reader: reader})

	w := doRequest(router, http.MethodGet, "/transaction/tan-001", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got models.Transaction
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if got.ID != "tan-001" {
		t.Errorf("id = %q, want tan-001", got.ID)
	}

	w = doRequest(router, http.MethodGet, "/transaction/tan-missing", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	assertErrorBody(t, w, http.StatusNotFound)

	w = doRequest(router, http.MethodGet, "/transaction/bogus-id", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed id: status = %d, want 400", w.Code)
	}
}

func TestListTransactions(t *testing.T) {
	router := newTestRouter(deps{reader: &mockReader{
		findAllFn: func() ([]models.Transaction, error) { return nil, nil },
	}})

	w := doRequest(router, http.MethodGet, "/transaction", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("empty list must serialize as [], got %s", body)
	}
}

func TestUpdateTransaction(t *testing.T) {
	var updated *models.Transaction
	writer := &mockWriter{updateFn: func(tr *models.Transaction) error {
		updated = tr
		return nil
	}}
	reader := &mockReader{}
	router := newTestRouter(deps{writer: writer, reader: reader})

	w := doRequest(router, http.MethodPut, "/transaction/tan-009", map[string]interface{}{
		"transactionType":   "withdrawal",
		"transactionAmount": 10.0,
		"description":       "atm",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if updated == nil || updated.ID != "tan-009" {
		t.Fatalf("path id must override body id, got %+v", updated)
	}
	if len(reader.evicted) != 1 || reader.evicted[0] != "tan-009" {
		t.Errorf("stale view must be evicted, got %v", reader.evicted)
	}
}

func TestDeleteTransaction(t *testing.T) {
	reader := &mockReader{}
	router := newTestRouter(deps{
		reader: reader,
		writer: &mockWriter{deleteFn: func(id string) error {
			if id == "tan-001" {
				return nil
			}
			return apperr.NewNotFound("transaction", id)
		}},
	})

	w := doRequest(router, http.MethodDelete, "/transaction/tan-001", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if len(reader.evicted) != 1 {
		t.Errorf("stale view must be evicted")
	}

	w = doRequest(router, http.MethodDelete, "/transaction/tan-missing", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	assertErrorBody(t, w, http.StatusNotFound)
}

func TestFindAllByAccountNumberResolvesBillFirst(t *testing.T) {
	readerCalled := false
	router := newTestRouter(deps{
		bills: &mockBills{findAccFn: func(accountNumber string) (*models.Bill, error) {
			return nil, apperr.NewNotFound("bill", accountNumber)
		}},
		reader: &mockReader{findByAccFn: func(accountNumber string) ([]models.Transaction, error) {
			readerCalled = true
			return nil, nil
		}},
	})

	w := doRequest(router, http.MethodGet, "/transaction/bill/00000000", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if readerCalled {
		t.Error("store must not be queried when the bill does not exist")
	}
}

func TestFindTop(t *testing.T) {
	router := newTestRouter(deps{engine: &mockEngine{
		latestFn: func(dayStart time.Time) (*models.Transaction, error) {
			if dayStart.Equal(time.Date(2021, 8, 12, 0, 0, 0, 0, time.UTC)) {
				return testTransaction, nil
			}
			return nil, apperr.NewNotFound("transaction", dayStart.Format("2006-01-02"))
		},
	}})

	w := doRequest(router, http.MethodGet, "/transaction/top/date/2021-08-12", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/transaction/top/date/2021-01-01", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/transaction/top/date/not-a-date", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestMonthlyAverage(t *testing.T) {
	var gotYear, gotMonth int
	router := newTestRouter(deps{engine: &mockEngine{
		averageFn: func(year, month int, accountNumber string) (*models.AverageReport, error) {
			gotYear, gotMonth = year, month
			return &models.AverageReport{Balances: []float64{100, 1500, 200}, Average: 600}, nil
		},
	}})

	w := doRequest(router, http.MethodGet, "/transaction/average/month/2/acc/12345678", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotYear != 2021 || gotMonth != 2 {
		t.Errorf("engine called with %d-%d, want 2021-2", gotYear, gotMonth)
	}
	var report models.AverageReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if report.Average != 600 {
		t.Errorf("average = %v, want 600", report.Average)
	}

	w = doRequest(router, http.MethodGet, "/transaction/average/month/13/acc/12345678", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestFindBetweenDates(t *testing.T) {
	router := newTestRouter(deps{engine: &mockEngine{
		rangeFn: func(start time.Time, days int) ([]models.Transaction, error) {
			if days == 5 {
				return []models.Transaction{*testTransaction}, nil
			}
			return nil, nil
		},
	}})

	w := doRequest(router, http.MethodGet, "/transaction/between/date/5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/transaction/between/date/0", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("empty range: status = %d, want 404", w.Code)
	}
}

func TestFindByProductInRange(t *testing.T) {
	router := newTestRouter(deps{engine: &mockEngine{
		byProductFn: func(start time.Time, days int, productName string) ([]models.Transaction, error) {
			if productName == "savings" {
				return []models.Transaction{*testTransaction}, nil
			}
			return nil, nil
		},
	}})

	w := doRequest(router, http.MethodGet, "/transaction/period/7/dateInit/2021-08-01/product/savings", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/transaction/period/7/dateInit/2021-08-01/product/unknown", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/transaction/period/x/dateInit/2021-08-01/product/savings", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGatewayPassThroughRoutes(t *testing.T) {
	router := newTestRouter(deps{
		bills: &mockBills{
			findAccFn: func(accountNumber string) (*models.Bill, error) {
				return &models.Bill{AccountNumber: accountNumber, Balance: 10}, nil
			},
			findIbanFn: func(iban string) (*models.Bill, error) {
				return &models.Bill{AccountNumber: "12345678", Balance: 10}, nil
			},
		},
		acquisitions: &mockAcquisitions{
			findFn: func(accountNumber string) (*models.Acquisition, error) {
				return &models.Acquisition{AccountNumber: accountNumber}, nil
			},
			updateFn: func(acq *models.Acquisition) (*models.Acquisition, error) {
				return acq, nil
			},
		},
		customers: &mockCustomers{
			findFn: func(identityNumber string) (*models.Customer, error) {
				return &models.Customer{CustomerIdentityNumber: identityNumber}, nil
			},
		},
	})

	for _, url := range []string{
		"/transaction/acc/12345678",
		"/transaction/bill/acquisition/ES9121000418450200051332",
		"/transaction/acquisition/12345678",
		"/transaction/customer/identity/ID-9",
	} {
		if w := doRequest(router, http.MethodGet, url, nil); w.Code != http.StatusOK {
			t.Errorf("GET %s: status = %d, want 200", url, w.Code)
		}
	}

	w := doRequest(router, http.MethodPost, "/transaction/acquisition/update", map[string]interface{}{
		"accountNumber": "12345678",
	})
	if w.Code != http.StatusOK {
		t.Errorf("acquisition update: status = %d, want 200", w.Code)
	}
}
