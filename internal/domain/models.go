package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Shift struct {
	ID              int64            `json:"id"`
	Status          string           `json:"status"`
	OpenedBy        string           `json:"opened_by"`
	ClosedBy        string           `json:"closed_by,omitempty"`
	StartCash       decimal.Decimal  `json:"start_cash"`
	TotalSales      decimal.Decimal  `json:"total_sales"`
	TotalExpenses   decimal.Decimal  `json:"total_expenses"`
	EndCashExpected *decimal.Decimal `json:"end_cash_expected,omitempty"`
	EndCashActual   *decimal.Decimal `json:"end_cash_actual,omitempty"`
	Difference      *decimal.Decimal `json:"difference,omitempty"`
	Outcome         string           `json:"outcome,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	OpenedAt        time.Time        `json:"opened_at"`
	ClosedAt        *time.Time       `json:"closed_at,omitempty"`
}

type ShiftEntry struct {
	ID        int64           `json:"id"`
	ShiftID   int64           `json:"shift_id"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type ShiftOpenRequest struct {
	StartCash decimal.Decimal `json:"start_cash"`
}

type ShiftCloseRequest struct {
	EndCashActual decimal.Decimal `json:"end_cash_actual"`
	Notes         string          `json:"notes"`
}

type ShiftEntryRequest struct {
	Kind   string          `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

type ShiftResponse struct {
	Shift Shift `json:"shift"`
}

type CurrentShiftResponse struct {
	Open  bool   `json:"open"`
	Shift *Shift `json:"shift,omitempty"`
}

type ShiftListResponse struct {
	Shifts []Shift `json:"shifts"`
}

type ShiftEntryResponse struct {
	Entry ShiftEntry `json:"entry"`
}

type ShiftEntryListResponse struct {
	ShiftID int64        `json:"shift_id"`
	Entries []ShiftEntry `json:"entries"`
}

type MenuItem struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	TrackStock   bool            `json:"track_stock"`
	CurrentStock int             `json:"current_stock"`
	Active       bool            `json:"active"`
}

type StockItemListResponse struct {
	Items []MenuItem `json:"items"`
}

type StockAdjustment struct {
	ID             int64                 `json:"id"`
	AdjustmentDate string                `json:"adjustment_date"`
	Reason         string                `json:"reason"`
	Notes          string                `json:"notes,omitempty"`
	CreatedBy      string                `json:"created_by"`
	CreatedAt      time.Time             `json:"created_at"`
	Items          []StockAdjustmentItem `json:"items,omitempty"`
}

type StockAdjustmentItem struct {
	ID             int64  `json:"id"`
	AdjustmentID   int64  `json:"adjustment_id"`
	MenuItemID     int64  `json:"menu_item_id"`
	MenuItemName   string `json:"menu_item_name"`
	Mode           string `json:"mode"`
	Quantity       int    `json:"quantity"`
	Note           string `json:"note,omitempty"`
	PreviousStock  int    `json:"previous_stock"`
	QuantityChange int    `json:"quantity_change"`
	NewStock       int    `json:"new_stock"`
}

type StockAdjustmentSummary struct {
	ID             int64     `json:"id"`
	AdjustmentDate string    `json:"adjustment_date"`
	Reason         string    `json:"reason"`
	Notes          string    `json:"notes,omitempty"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	ItemCount      int       `json:"item_count"`
}

type StockAdjustmentLineRequest struct {
	MenuItemID int64  `json:"menu_item_id"`
	Mode       string `json:"mode"`
	Quantity   int    `json:"quantity"`
	Note       string `json:"note"`
}

type StockAdjustmentCreateRequest struct {
	AdjustmentDate string                       `json:"adjustment_date"`
	Reason         string                       `json:"reason"`
	Notes          string                       `json:"notes"`
	Items          []StockAdjustmentLineRequest `json:"items"`
}

type StockAdjustmentResponse struct {
	Adjustment StockAdjustment `json:"adjustment"`
}

type StockAdjustmentListResponse struct {
	Adjustments []StockAdjustmentSummary `json:"adjustments"`
}

type StockAdjustmentDetailResponse struct {
	Adjustment StockAdjustment       `json:"adjustment"`
	Items      []StockAdjustmentItem `json:"items"`
}

type Supplier struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type SupplierCreateRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

type SupplierUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
	Notes   *string `json:"notes,omitempty"`
	Active  *bool   `json:"active,omitempty"`
}

type SupplierResponse struct {
	Supplier Supplier `json:"supplier"`
}

type SupplierListResponse struct {
	Suppliers []Supplier `json:"suppliers"`
}

type SupplierDeleteResponse struct {
	Outcome string `json:"outcome"`
	Message string `json:"message"`
}

type SupplierPurchase struct {
	ID           int64           `json:"id"`
	SupplierID   int64           `json:"supplier_id"`
	Reference    string          `json:"reference,omitempty"`
	PurchaseDate string          `json:"purchase_date"`
	Total        decimal.Decimal `json:"total"`
	Note         string          `json:"note,omitempty"`
	CreatedBy    string          `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
}

type SupplierPurchaseRequest struct {
	Reference    string          `json:"reference"`
	PurchaseDate string          `json:"purchase_date"`
	Total        decimal.Decimal `json:"total"`
	Note         string          `json:"note"`
}

type SupplierPayment struct {
	ID         int64           `json:"id"`
	SupplierID int64           `json:"supplier_id"`
	PurchaseID *int64          `json:"purchase_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Note       string          `json:"note,omitempty"`
	CreatedBy  string          `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

type SupplierPaymentRequest struct {
	PurchaseID *int64          `json:"purchase_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Note       string          `json:"note"`
}

// SupplierBalanceSummary is derived from the full purchase and payment
// history on every request; it is never stored.
type SupplierBalanceSummary struct {
	SupplierID     int64           `json:"supplier_id"`
	SupplierName   string          `json:"supplier_name"`
	Active         bool            `json:"active"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
	TotalPayments  decimal.Decimal `json:"total_payments"`
	BalanceDue     decimal.Decimal `json:"balance_due"`
	PurchaseCount  int             `json:"purchase_count"`
	PaymentCount   int             `json:"payment_count"`
}

type SupplierBalanceResponse struct {
	Summary SupplierBalanceSummary `json:"summary"`
}

type SupplierBalanceListResponse struct {
	Summaries []SupplierBalanceSummary `json:"summaries"`
}

type SupplierPaymentListResponse struct {
	SupplierID int64             `json:"supplier_id"`
	Payments   []SupplierPayment `json:"payments"`
}

type SupplierPurchaseListResponse struct {
	SupplierID int64              `json:"supplier_id"`
	Purchases  []SupplierPurchase `json:"purchases"`
}

type DaySummary struct {
	Date            string          `json:"date"`
	ShiftsClosed    int             `json:"shifts_closed"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	TotalDifference decimal.Decimal `json:"total_difference"`
	AdjustmentCount int             `json:"adjustment_count"`
	ItemsAdjusted   int             `json:"items_adjusted"`
	PurchasesTotal  decimal.Decimal `json:"purchases_total"`
	PaymentsTotal   decimal.Decimal `json:"payments_total"`
	VarianceFlag    string          `json:"variance_flag"`
	GeneratedAt     string          `json:"generated_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	ActorRole string    `json:"actor_role"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	Detail    string    `json:"detail"`
	RequestID string    `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs []AuditLog `json:"logs"`
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

const (
	ShiftStatusOpen   = "open"
	ShiftStatusClosed = "closed"
)

const (
	EntryKindSale    = "sale"
	EntryKindExpense = "expense"
)

const (
	PaymentMethodCash   = "cash"
	PaymentMethodCard   = "card"
	PaymentMethodMobile = "mobile"
	PaymentMethodBank   = "bank"
)

const (
	SupplierOutcomeDeleted     = "deleted"
	SupplierOutcomeDeactivated = "deactivated"
)
