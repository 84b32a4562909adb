package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"lodgepos/backoffice/internal/domain"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrUnderflow  = errors.New("underflow")
)

// CloseShiftParams carries everything the store needs to finalize a shift
// inside one serialized boundary. Totals are summed from the shift's
// entries at that moment and frozen into the closed row.
type CloseShiftParams struct {
	ShiftID       int64
	ClosedBy      string
	EndCashActual decimal.Decimal
	Notes         string
}

type Repository interface {
	GetOpenShift(ctx context.Context) (*domain.Shift, error)
	GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error)
	ListShifts(ctx context.Context, limit int) ([]domain.Shift, error)
	OpenShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error)
	CloseShift(ctx context.Context, params CloseShiftParams) (*domain.Shift, error)
	AddShiftEntry(ctx context.Context, entry domain.ShiftEntry) (*domain.ShiftEntry, error)
	ListShiftEntries(ctx context.Context, shiftID int64) ([]domain.ShiftEntry, error)

	ListStockItems(ctx context.Context) ([]domain.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (*domain.MenuItem, error)
	CreateStockAdjustment(ctx context.Context, adjustment domain.StockAdjustment) (*domain.StockAdjustment, error)
	ListStockAdjustments(ctx context.Context) ([]domain.StockAdjustmentSummary, error)
	GetStockAdjustment(ctx context.Context, id int64) (*domain.StockAdjustment, error)

	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id int64) (string, error)
	ListSuppliers(ctx context.Context, includeInactive bool) ([]domain.Supplier, error)
	AddSupplierPurchase(ctx context.Context, purchase domain.SupplierPurchase) (*domain.SupplierPurchase, error)
	ListSupplierPurchases(ctx context.Context, supplierID int64) ([]domain.SupplierPurchase, error)
	AddSupplierPayment(ctx context.Context, payment domain.SupplierPayment) (*domain.SupplierPayment, error)
	ListSupplierPayments(ctx context.Context, supplierID int64) ([]domain.SupplierPayment, error)
	GetSupplierBalance(ctx context.Context, supplierID int64) (*domain.SupplierBalanceSummary, error)
	ListSupplierBalances(ctx context.Context, includeInactive bool) ([]domain.SupplierBalanceSummary, error)

	GetDaySummary(ctx context.Context, date string) (*domain.DaySummary, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
}
