// Package models holds the wire/domain types shared across the service.
// JSON field names follow the upstream bill/acquisition/customer service
// contracts.
package models

import "time"

// Rules is the product rule set that drives the commission policy.
// MaximumLimitMonthlyMovementsQuantity is the monthly movement counter,
// incremented once per successful transaction.
type Rules struct {
	CustomerType                         string `json:"customerType,omitempty"`
	CommissionMaintenance                bool   `json:"commissionMaintenance"`
	MaximumLimitMonthlyMovements         bool   `json:"maximumLimitMonthlyMovements"`
	MaximumLimitMonthlyMovementsQuantity int    `json:"maximumLimitMonthlyMovementsQuantity"`
}

// Product binds a product name/type to its rule set.
type Product struct {
	ProductName string `json:"productName"`
	ProductType string `json:"productType,omitempty"`
	Rules       Rules  `json:"rules"`
}

// Customer carries only the identity key in this service.
type Customer struct {
	CustomerIdentityNumber string `json:"customerIdentityNumber"`
}

// Acquisition binds an account to a product and its customers. The
// account number is the canonical key; card number and IBAN are carried
// for upstream compatibility only.
type Acquisition struct {
	Product                  Product    `json:"product"`
	CustomerHolder           []Customer `json:"customerHolder,omitempty"`
	CustomerAuthorizedSigner []Customer `json:"customerAuthorizedSigner,omitempty"`
	AccountNumber            string     `json:"accountNumber"`
	CardNumber               string     `json:"cardNumber,omitempty"`
	Iban                     string     `json:"iban,omitempty"`
}

// Bill is the account balance record owned by the bill service. The
// saga holds a transient copy and writes it back wholesale.
type Bill struct {
	AccountNumber string       `json:"accountNumber"`
	Balance       float64      `json:"balance"`
	Acquisition   *Acquisition `json:"acquisition,omitempty"`
}

// Transaction is the persisted record. The embedded Bill is a snapshot
// taken at transaction time; the timestamp is assigned server-side.
type Transaction struct {
	ID                string    `json:"id"`
	TransactionType   string    `json:"transactionType"`
	TransactionAmount float64   `json:"transactionAmount"`
	Description       string    `json:"description"`
	Commission        float64   `json:"commission"`
	TransactionDate   time.Time `json:"transactionDate"`
	Bill              Bill      `json:"bill"`
}

// ProductName walks the embedded Bill/Acquisition/Product chain.
// Returns "" when the chain is incomplete.
func (t *Transaction) ProductName() string {
	if t.Bill.Acquisition == nil {
		return ""
	}
	return t.Bill.Acquisition.Product.ProductName
}

// AverageReport is the per-day balance series for a month plus its
// arithmetic mean. Built fresh per query, never persisted.
type AverageReport struct {
	Balances             []float64 `json:"balances"`
	Average              float64   `json:"average"`
	ProductName          string    `json:"productName,omitempty"`
	CustomerIdentityType string    `json:"customerIdentityType,omitempty"`
}

// Balance is a single-value projection.
type Balance struct {
	Balance float64 `json:"balance"`
}
