// Package query implements the analytical read layer: time-window
// range filters, latest-in-window selection and the sequential per-day
// average-balance series. It only ever reads from the transaction store.
package query

import (
	"context"
	"sync"
	"time"

	"github.com/orlandoKuanDev/ms-transaction-bank/internal/apperr"
	"github.com/orlandoKuanDev/ms-transaction-bank/internal/models"
)

// Store is the read contract the engine consumes. Results come back in
// storage order, not sorted by timestamp.
type Store interface {
	FindByDateBetween(ctx context.Context, from, to time.Time) ([]models.Transaction, error)
	FindByProductName(ctx context.Context, productName string) ([]models.Transaction, error)
}

// Options tunes the engine.
type Options struct {
	// DayWindow is the width of the same-day sub-window used by Latest
	// and MonthlyAverage.
	DayWindow time.Duration
	// ZeroBalanceDefault replaces a day's balance when it reads as
	// exactly zero.
	ZeroBalanceDefault float64
	// Location resolves month and day boundaries.
	Location *time.Location
	// MaxConcurrentDays bounds the per-day fan-out of MonthlyAverage.
	MaxConcurrentDays int
}

// Engine evaluates windowed queries over the store.
type Engine struct {
	store Store
	opts  Options
}

func NewEngine(store Store, opts Options) *Engine {
	if opts.DayWindow <= 0 {
		opts.DayWindow = 20 * time.Hour
	}
	if opts.ZeroBalanceDefault == 0 {
		opts.ZeroBalanceDefault = 1500
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxConcurrentDays <= 0 {
		opts.MaxConcurrentDays = 8
	}
	return &Engine{store: store, opts: opts}
}

// Range returns every transaction with timestamp in
// [start, start+days), in storage order.
func (e *Engine) Range(ctx context.Context, start time.Time, days int) ([]models.Transaction, error) {
	return e.store.FindByDateBetween(ctx, start, start.AddDate(0, 0, days))
}

// RangeByProduct narrows Range to transactions whose embedded
// acquisition carries the given product.
func (e *Engine) RangeByProduct(ctx context.Context, start time.Time, days int, productName string) ([]models.Transaction, error) {
	window, err := e.Range(ctx, start, days)
	if err != nil {
		return nil, err
	}
	matched := make([]models.Transaction, 0, len(window))
	for _, t := range window {
		if t.ProductName() == productName {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

// Latest returns the last transaction, by storage order, inside the
// day sub-window starting at dayStart. An empty window is a not-found,
// not an error.
func (e *Engine) Latest(ctx context.Context, dayStart time.Time) (*models.Transaction, error) {
	window, err := e.store.FindByDateBetween(ctx, dayStart, dayStart.Add(e.opts.DayWindow))
	if err != nil {
		return nil, err
	}
	if len(window) == 0 {
		return nil, apperr.NewNotFound("transaction", dayStart.Format("2006-01-02"))
	}
	last := window[len(window)-1]
	return &last, nil
}

// MonthlyAverage walks every calendar day of the month, takes the last
// matching transaction's bill balance per day (zero balances substitute
// the configured default), and averages the collected series. The
// per-day fetches run concurrently but the series keeps day order:
// day 1 first, the month's last day last, and the average is computed
// only after every day has resolved.
func (e *Engine) MonthlyAverage(ctx context.Context, year, month int, accountNumber string) (*models.AverageReport, error) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, e.opts.Location)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	type dayResult struct {
		balance float64
		found   bool
		err     error
	}
	results := make([]dayResult, daysInMonth)

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.opts.MaxConcurrentDays)
	for day := 0; day < daysInMonth; day++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			dayStart := first.AddDate(0, 0, day)
			window, err := e.store.FindByDateBetween(ctx, dayStart, dayStart.Add(e.opts.DayWindow))
			if err != nil {
				results[day] = dayResult{err: err}
				return
			}
			for i := len(window) - 1; i >= 0; i-- {
				if window[i].Bill.AccountNumber == accountNumber {
					balance := window[i].Bill.Balance
					if balance == 0 {
						balance = e.opts.ZeroBalanceDefault
					}
					results[day] = dayResult{balance: balance, found: true}
					return
				}
			}
		}(day)
	}
	wg.Wait()

	report := &models.AverageReport{Balances: make([]float64, 0, daysInMonth)}
	var sum float64
	for _, res := range results {
		if res.err != nil {
			return nil, res.err
		}
		if res.found {
			report.Balances = append(report.Balances, res.balance)
			sum += res.balance
		}
	}
	if n := len(report.Balances); n > 0 {
		report.Average = sum / float64(n)
	}
	return report, nil
}
