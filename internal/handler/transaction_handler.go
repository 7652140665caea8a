// Package handler exposes the HTTP surface over gin.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orlandoKuanDev/ms-transaction-bank/internal/models"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/saga"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/utils"
)

// TransactionCreator runs the creation saga.
type TransactionCreator interface {
	Create(ctx context.Context, req saga.CreateRequest) (*models.Transaction, error)
}

// TransactionReader defines the read-side store operations used here.
type TransactionReader interface {
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	FindAll(ctx context.Context) ([]models.Transaction, error)
	FindByBillAccountNumber(ctx context.Context, accountNumber string) ([]models.Transaction, error)
	EvictTransaction(ctx context.Context, id string)
}

// TransactionWriter defines the write-side store operations used here.
type TransactionWriter interface {
	Update(ctx context.Context, transaction *models.Transaction) error
	Delete(ctx context.Context, id string) error
}

// QueryEngine is the windowed query layer.
type QueryEngine interface {
	Range(ctx context.Context, start time.Time, days int) ([]models.Transaction, error)
	RangeByProduct(ctx context.Context, start time.Time, days int, productName string) ([]models.Transaction, error)
	Latest(ctx context.Context, dayStart time.Time) (*models.Transaction, error)
	MonthlyAverage(ctx context.Context, year, month int, accountNumber string) (*models.AverageReport, error)
}

// BillFinder is the bill gateway slice used for pass-through lookups.
type BillFinder interface {
	FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Bill, error)
	FindByIban(ctx context.Context, iban string) (*models.Bill, error)
}

// AcquisitionClient is the acquisition gateway slice used for
// pass-through lookups and updates.
type AcquisitionClient interface {
	FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Acquisition, error)
	Update(ctx context.Context, acq *models.Acquisition) (*models.Acquisition, error)
}

// CustomerFinder is the customer gateway slice.
type CustomerFinder interface {
	FindByIdentityNumber(ctx context.Context, identityNumber string) (*models.Customer, error)
}

// Options carries the query-surface tunables.
type Options struct {
	// Location parses path dates and resolves "current year".
	Location *time.Location
	// AverageYear pins the year of the monthly average query; 0 means
	// the current year in Location.
	AverageYear int
	// RangeAnchor is the fixed start of the /transaction/between/date
	// range filter.
	RangeAnchor time.Time
}

type TransactionHandler struct {
	creator      TransactionCreator
	reader       TransactionReader
	writer       TransactionWriter
	engine       QueryEngine
	bills        BillFinder
	acquisitions AcquisitionClient
	customers    CustomerFinder
	opts         Options
}

func NewTransactionHandler(
	creator TransactionCreator,
	reader TransactionReader,
	writer TransactionWriter,
	engine QueryEngine,
	bills BillFinder,
	acquisitions AcquisitionClient,
	customers CustomerFinder,
	opts Options,
) *TransactionHandler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.RangeAnchor.IsZero() {
		opts.RangeAnchor = time.Date(2021, 8, 12, 0, 0, 0, 0, opts.Location)
	}
	return &TransactionHandler{
		creator:      creator,
		reader:       reader,
		writer:       writer,
		engine:       engine,
		bills:        bills,
		acquisitions: acquisitions,
		customers:    customers,
		opts:         opts,
	}
}

// Register mounts every route under /transaction.
func (h *TransactionHandler) Register(r gin.IRouter) {
	tr := r.Group("/transaction")
	{
		tr.GET("", h.FindAll)
		tr.GET("/:id", h.FindByID)
		tr.GET("/acc/:accountNumber", h.FindBillByAccountNumber)
		tr.GET("/bill/:accountNumber", h.FindAllByAccountNumber)
		tr.GET("/bill/acquisition/:iban", h.FindBillByIban)
		tr.GET("/acquisition/:accountNumber", h.FindAcquisitionByAccountNumber)
		tr.GET("/customer/identity/:identityNumber", h.FindCustomerByIdentity)
		tr.GET("/period/:period/dateInit/:dateInit/product/:productName", h.FindByProductInRange)
		tr.GET("/between/date/:periodDay", h.FindBetweenDates)
		tr.GET("/top/date/:dateTop", h.FindTop)
		tr.GET("/average/month/:month/acc/:accountNumber", h.MonthlyAverage)
		tr.POST("/acquisition/update", h.UpdateAcquisition)
		tr.POST("/create", h.Create)
		tr.PUT("/:id", h.Update)
		tr.DELETE("/:id", h.Delete)
	}
}

// Create runs the transaction-creation saga.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req saga.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	transaction, err := h.creator.Create(c.Request.Context(), req)
	if err != nil {
		respondMapped(c, err)
		return
	}

	c.Header("Location", "/api/transaction/"+transaction.ID)
	c.JSON(http.StatusCreated, transaction)
}

func (h *TransactionHandler) FindAll(c *gin.Context) {
	transactions, err := h.reader.FindAll(c.Request.Context())
	if err != nil {
		respondMapped(c, err)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	c.JSON(http.StatusOK, transactions)
}

func (h *TransactionHandler) FindByID(c *gin.Context) {
	id := c.Param("id")
	if !utils.ValidateTransactionID(id) {
		respondError(c, http.StatusBadRequest, "invalid transaction id: "+id)
		return
	}
	transaction, err := h.reader.GetByID(c.Request.Context(), id)
	if err != nil {
		respondMapped(c, err)
		return
	}
	c.JSON(http.StatusOK, transaction)
}

// Update replaces the whole record under the path id.
func (h *TransactionHandler) Update(c *gin.Context) {
	var transaction models.Transaction
	if err := c.ShouldBindJSON(&transaction); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	transaction.ID = c.Param("id")
	if !utils.ValidateTransactionID(transaction.ID) {
		respondError(c, http.StatusBadRequest, "invalid transaction id: "+transaction.ID)
		return
	}

	if err := h.writer.Update(c.Request.Context(), &transaction); err != nil {
		respondMapped(c, err)
		return
	}
	h.reader.EvictTransaction(c.Request.Context(), transaction.ID)

	c.Header("Location", "/api/transaction/"+transaction.ID)
	c.JSON(http.StatusCreated, transaction)
}

func (h *TransactionHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !utils.ValidateTransactionID(id) {
		respondError(c, http.StatusBadRequest, "invalid transaction id: "+id)
		return
	}
	if err := h.writer.Delete(c.Request.Context(), id); err != nil {
		respondMapped(c, err)
		return
	}
	h.reader.EvictTransaction(c.Request.Context(), id)
	c.Status(http.StatusNoContent)
}

// FindBillByAccountNumber is a pass-through lookup against the bill service.
func (h *TransactionHandler) FindBillByAccountNumber(c *gin.Context) {
	bill, err := h.bills.FindByAccountNumber(c.Request.Context(), c.Param("accountNumber"))
	if err != nil {
		respondMapped(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

// FindBillByIban is a pass-through lookup against the bill service.
func (h *TransactionHandler) FindBillByIban(c *gin.Context) {
	bill, err := h.bills.FindByIban(c.Request.Context(), c.Param("iban"))
	if err != nil {
		respondMapped(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

// FindAllByAccountNumber resolves the bill remotely first, then lists
// the stored transactions recorded against it.
func (h *TransactionHandler) FindAllByAccountNumber(c *gin.Context) {
	ctx := c.Request.Context()
	bill, err := h.bills.FindByAccountNumber(ctx, c.Param("accountNumber"))
	if err != nil {
		respondMapped(c, err)
		return
	}

	transactions, err := h.reader.FindByBillAccountNumber(ctx, bill.AccountNumber)
	if err != nil {
		respondMapped(c, err)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	c.JSON(http.StatusOK, transactions)
}

func (h *TransactionHandler) FindAcquisitionByAccountNumber(c *gin.Context) {
	acq, err := h.acquisitions.FindByAccountNumber(c.Request.Context(), c.Param("accountNumber"))
	if err != nil {
		respondMapped(c, err)
		return
	}
	c.JSON(http.StatusOK, acq)
}

// UpdateAcquisition is a pass-through update against the acquisition service.
func (h *TransactionHandler) UpdateAcquisition(c *gin.Context) {
	var acq models.Acquisition
	if err := c.ShouldBindJSON(&acq); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	updated, err := h.acquisitions.Update(c.Request.Context(), &acq)
	if err != nil {
		respondMapped(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *TransactionHandler) FindCustomerByIdentity(c *gin.Context) {
	customer, err := h.customers.FindByIdentityNumber(c.Request.Context(), c.Param("identityNumber"))
	if err != nil {
		respondMapped(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// FindByProductInRange returns the transactions of one product inside
// [dateInit, dateInit+period days).
func (h *TransactionHandler) FindByProductInRange(c *gin.Context) {
	period, err := strconv.Atoi(c.Param("period"))
	if err != nil || period < 0 {
		respondError(c, http.StatusBadRequest, "period must be a non-negative day count")
		return
	}
	start, err := time.ParseInLocation("2006-01-02", c.Param("dateInit"), h.opts.Location)
	if err != nil {
		respondError(c, http.StatusBadRequest, "dateInit must be formatted YYYY-MM-DD")
		return
	}

	transactions, err := h.engine.RangeByProduct(c.Request.Context(), start, period, c.Param("productName"))
	if err != nil {
		respondMapped(c, err)
		return
	}
	if len(transactions) == 0 {
		respondError(c, http.StatusNotFound, "no transactions in range for product "+c.Param("productName"))
		return
	}
	c.JSON(http.StatusOK, transactions)
}

// FindBetweenDates is the fixed-anchor range filter.
func (h *TransactionHandler) FindBetweenDates(c *gin.Context) {
	period, err := strconv.Atoi(c.Param("periodDay"))
	if err != nil || period < 0 {
		respondError(c, http.StatusBadRequest, "periodDay must be a non-negative day count")
		return
	}

	transactions, err := h.engine.Range(c.Request.Context(), h.opts.RangeAnchor, period)
	if err != nil {
		respondMapped(c, err)
		return
	}
	if len(transactions) == 0 {
		respondError(c, http.StatusNotFound, "no transactions in range")
		return
	}
	c.JSON(http.StatusOK, transactions)
}

// FindTop returns the latest transaction inside the day window starting
// at dateTop.
func (h *TransactionHandler) FindTop(c *gin.Context) {
	dayStart, err := time.ParseInLocation("2006-01-02", c.Param("dateTop"), h.opts.Location)
	if err != nil {
		respondError(c, http.StatusBadRequest, "dateTop must be formatted YYYY-MM-DD")
		return
	}

	transaction, err := h.engine.Latest(c.Request.Context(), dayStart)
	if err != nil {
		respondMapped(c, err)
		return
	}
	c.JSON(http.StatusOK, transaction)
}

// MonthlyAverage returns the per-day balance series and its mean for an
// account over one month.
func (h *TransactionHandler) MonthlyAverage(c *gin.Context) {
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		respondError(c, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	year := h.opts.AverageYear
	if year == 0 {
		year = time.Now().In(h.opts.Location).Year()
	}

	report, err := h.engine.MonthlyAverage(c.Request.Context(), year, month, c.Param("accountNumber"))
	if err != nil {
		respondMapped(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
