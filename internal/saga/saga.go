// Package saga runs the transaction-creation workflow: resolve the
// acquisition, apply the commission policy, write the acquisition and
// bill back through their gateways, then persist the transaction. The
// remote mutations are independently failable and there is no
// compensation; every abort after the acquisition update is recorded in
// the intent log as a consistency gap for the reconciliation sweep.
package saga

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/orlandoKuanDev/ms-transaction-bank/internal/apperr"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/events"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/models"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/policy"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/utils"
)

// Saga step names recorded in the intent log.
const (
	StepResolveAcquisition = "resolve_acquisition"
	StepUpdateAcquisition  = "update_acquisition"
	StepUpdateBill         = "update_bill"
	StepPersistTransaction = "persist_transaction"
)

// AcquisitionGateway is the slice of the acquisition service the saga needs.
type AcquisitionGateway interface {
	FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Acquisition, error)
	Update(ctx context.Context, acq *models.Acquisition) (*models.Acquisition, error)
}

// BillGateway is the slice of the bill service the saga needs.
type BillGateway interface {
	FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Bill, error)
	Update(ctx context.Context, bill *models.Bill) (*models.Bill, error)
}

// Store persists the finalized transaction.
type Store interface {
	Create(ctx context.Context, transaction *models.Transaction) error
}

// IntentLog records what the saga attempted and where it stopped.
type IntentLog interface {
	Begin(ctx context.Context, accountNumber string) (string, error)
	Step(ctx context.Context, id, step string) error
	Complete(ctx context.Context, id, transactionID string) error
	Abort(ctx context.Context, id, step, reason string, gap bool) error
}

// Locker serializes sagas per account.
type Locker interface {
	Acquire(ctx context.Context, accountNumber string) (func(), error)
}

// ViewCacher warms the read model after a successful create.
type ViewCacher interface {
	CacheTransaction(ctx context.Context, t *models.Transaction)
}

// EventPublisher emits domain events. Publish failures never fail the saga.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// CreateRequest is the inbound creation payload.
type CreateRequest struct {
	TransactionType   string      `json:"transactionType" validate:"required"`
	TransactionAmount float64     `json:"transactionAmount" validate:"required"`
	Description       string      `json:"description" validate:"required"`
	Bill              RequestBill `json:"bill" validate:"required"`
}

// RequestBill carries the account reference of the creation payload.
type RequestBill struct {
	AccountNumber string `json:"accountNumber" validate:"required"`
}

// Orchestrator composes the gateways, the policy and the store into the
// end-to-end create-transaction workflow.
type Orchestrator struct {
	acquisitions AcquisitionGateway
	bills        BillGateway
	store        Store
	intents      IntentLog
	locker       Locker
	cache        ViewCacher
	publisher    EventPublisher
	policy       *policy.Policy
	validate     *validator.Validate
	logger       *zap.Logger
}

func NewOrchestrator(
	acquisitions AcquisitionGateway,
	bills BillGateway,
	store Store,
	intents IntentLog,
	locker Locker,
	cache ViewCacher,
	publisher EventPublisher,
	commissionPolicy *policy.Policy,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		acquisitions: acquisitions,
		bills:        bills,
		store:        store,
		intents:      intents,
		locker:       locker,
		cache:        cache,
		publisher:    publisher,
		policy:       commissionPolicy,
		validate:     validator.New(),
		logger:       logger.Named("saga"),
	}
}

// Create runs the saga. Terminal states are the returned transaction or
// an error; there is no partial terminal state. Remote mutations that
// committed before an abort stay committed.
func (o *Orchestrator) Create(ctx context.Context, req CreateRequest) (*models.Transaction, error) {
	if err := o.validate.Struct(req); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return nil, apperr.NewValidation(errs[0].Field(), "this field is "+errs[0].Tag())
		}
		return nil, apperr.NewValidation("", err.Error())
	}
	accountNumber := req.Bill.AccountNumber

	release, err := o.locker.Acquire(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	defer release()

	intentID, err := o.intents.Begin(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	o.intents.Step(ctx, intentID, StepResolveAcquisition)
	acquisition, err := o.acquisitions.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, o.abort(ctx, intentID, StepResolveAcquisition, err, false)
	}

	outcome := o.policy.Apply(acquisition.Product.Rules, req.TransactionAmount)

	updatedAcq := *acquisition
	updatedAcq.Product.Rules.MaximumLimitMonthlyMovementsQuantity = outcome.NewMovements
	updatedAcq.AccountNumber = accountNumber

	o.intents.Step(ctx, intentID, StepUpdateAcquisition)
	persistedAcq, err := o.acquisitions.Update(ctx, &updatedAcq)
	if err != nil {
		return nil, o.abort(ctx, intentID, StepUpdateAcquisition, err, false)
	}

	// From here on every failure leaves the acquisition counter already
	// incremented remotely.
	o.intents.Step(ctx, intentID, StepUpdateBill)
	bill, err := o.bills.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, o.abort(ctx, intentID, StepUpdateBill, err, true)
	}
	bill.Balance = policy.ApplyDelta(bill.Balance, outcome.BalanceDelta)
	bill.Acquisition = persistedAcq
	updatedBill, err := o.bills.Update(ctx, bill)
	if err != nil {
		return nil, o.abort(ctx, intentID, StepUpdateBill, err, true)
	}

	transaction := &models.Transaction{
		ID:                utils.GenerateID("tan"),
		TransactionType:   req.TransactionType,
		TransactionAmount: req.TransactionAmount,
		Description:       req.Description,
		Commission:        outcome.Commission,
		TransactionDate:   time.Now().UTC(),
		Bill:              *updatedBill,
	}

	o.intents.Step(ctx, intentID, StepPersistTransaction)
	if err := o.store.Create(ctx, transaction); err != nil {
		return nil, o.abort(ctx, intentID, StepPersistTransaction, err, true)
	}

	if err := o.intents.Complete(ctx, intentID, transaction.ID); err != nil {
		o.logger.Warn("failed to complete saga intent", zap.String("intent", intentID), zap.Error(err))
	}
	o.cache.CacheTransaction(ctx, transaction)
	if err := o.publisher.Publish(ctx, events.TransactionEventsStream, events.TransactionCreated, events.TransactionCreatedEvent{
		TransactionID: transaction.ID,
		AccountNumber: accountNumber,
		Amount:        transaction.TransactionAmount,
		Commission:    transaction.Commission,
		Type:          transaction.TransactionType,
	}); err != nil {
		o.logger.Warn("failed to publish transaction.created", zap.Error(err))
	}

	return transaction, nil
}

// abort records the terminal state and hands the step failure back
// unchanged. Gap aborts additionally surface in the intent log for the
// reconciliation sweep; the caller still sees only the step error.
func (o *Orchestrator) abort(ctx context.Context, intentID, step string, cause error, gap bool) error {
	if gap {
		o.logger.Error("saga aborted after remote state was mutated",
			zap.String("intent", intentID),
			zap.String("step", step),
			zap.Error(cause),
		)
	}
	if err := o.intents.Abort(ctx, intentID, step, cause.Error(), gap); err != nil {
		o.logger.Warn("failed to record saga abort", zap.String("intent", intentID), zap.Error(err))
	}
	return cause
}
