package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"lodgepos/backoffice/internal/domain"
	"lodgepos/backoffice/internal/ledger"
	"lodgepos/backoffice/internal/store"
)

type Store struct {
	mu sync.RWMutex

	shiftsByID      map[int64]domain.Shift
	entriesByShift  map[int64][]domain.ShiftEntry
	openShiftID     int64
	menuItemsByID   map[int64]domain.MenuItem
	adjustmentsByID map[int64]domain.StockAdjustment
	suppliersByID   map[int64]domain.Supplier
	purchasesByID   map[int64]domain.SupplierPurchase
	paymentsByID    map[int64]domain.SupplierPayment
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount

	shiftSeq      int64
	entrySeq      int64
	menuItemSeq   int64
	adjustmentSeq int64
	lineSeq       int64
	supplierSeq   int64
	purchaseSeq   int64
	paymentSeq    int64
	auditSeq      int64
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	s := &Store{
		shiftsByID:      make(map[int64]domain.Shift),
		entriesByShift:  make(map[int64][]domain.ShiftEntry),
		menuItemsByID:   make(map[int64]domain.MenuItem),
		adjustmentsByID: make(map[int64]domain.StockAdjustment),
		suppliersByID:   make(map[int64]domain.Supplier),
		purchasesByID:   make(map[int64]domain.SupplierPurchase),
		paymentsByID:    make(map[int64]domain.SupplierPayment),
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: seedUsers(),
	}

	for _, item := range []domain.MenuItem{
		{Name: "Nasi Goreng Spesial", Category: "food", Price: decimal.NewFromInt(38000), TrackStock: false},
		{Name: "Mie Goreng Lodge", Category: "food", Price: decimal.NewFromInt(32000), TrackStock: false},
		{Name: "Kopi Tubruk", Category: "beverage", Price: decimal.NewFromInt(15000), TrackStock: false},
		{Name: "Teh Tarik", Category: "beverage", Price: decimal.NewFromInt(14000), TrackStock: false},
		{Name: "Air Mineral 600ml", Category: "minibar", Price: decimal.NewFromInt(8000), TrackStock: true, CurrentStock: 48},
		{Name: "Teh Botol", Category: "minibar", Price: decimal.NewFromInt(9000), TrackStock: true, CurrentStock: 36},
		{Name: "Keripik Singkong", Category: "snack", Price: decimal.NewFromInt(12000), TrackStock: true, CurrentStock: 24},
		{Name: "Coklat Batang", Category: "snack", Price: decimal.NewFromInt(16000), TrackStock: true, CurrentStock: 30},
		{Name: "Amenity Kit", Category: "amenity", Price: decimal.NewFromInt(25000), TrackStock: true, CurrentStock: 40},
		{Name: "Laundry Kilat", Category: "service", Price: decimal.NewFromInt(45000), TrackStock: false},
	} {
		item.ID = nextID(&s.menuItemSeq)
		item.Active = true
		s.menuItemsByID[item.ID] = item
	}

	now := time.Now().UTC()
	for _, supplier := range []domain.Supplier{
		{Name: "CV Sumber Pangan Lestari", Phone: "+62-812-3300-1001", Address: "Jl. Pasar Baru 12, Bandung"},
		{Name: "UD Berkah Linen", Phone: "+62-813-7788-2002", Address: "Jl. Cihampelas 88, Bandung"},
	} {
		supplier.ID = nextID(&s.supplierSeq)
		supplier.Active = true
		supplier.CreatedAt = now
		s.suppliersByID[supplier.ID] = supplier
	}

	return s
}

func (s *Store) GetOpenShift(_ context.Context) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.openShiftID == 0 {
		return nil, store.ErrNotFound
	}
	shift, exists := s.shiftsByID[s.openShiftID]
	if !exists || shift.Status != domain.ShiftStatusOpen {
		return nil, store.ErrNotFound
	}
	copyShift := cloneShift(shift)
	return &copyShift, nil
}

func (s *Store) GetShiftByID(_ context.Context, id int64) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shift, exists := s.shiftsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyShift := cloneShift(shift)
	return &copyShift, nil
}

func (s *Store) ListShifts(_ context.Context, limit int) ([]domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shifts := make([]domain.Shift, 0, len(s.shiftsByID))
	for _, shift := range s.shiftsByID {
		shifts = append(shifts, cloneShift(shift))
	}
	slices.SortFunc(shifts, func(a, b domain.Shift) int {
		if a.OpenedAt.Equal(b.OpenedAt) {
			return cmpInt64(b.ID, a.ID)
		}
		if a.OpenedAt.After(b.OpenedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(shifts) > limit {
		shifts = shifts[:limit]
	}
	return shifts, nil
}

func (s *Store) OpenShift(_ context.Context, shift domain.Shift) (*domain.Shift, error) {
	if strings.TrimSpace(shift.OpenedBy) == "" {
		return nil, fmt.Errorf("opened_by is required: %w", store.ErrValidation)
	}
	if shift.StartCash.IsNegative() {
		return nil, fmt.Errorf("start_cash must not be negative: %w", store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openShiftID != 0 {
		return nil, fmt.Errorf("a shift is already open: %w", store.ErrConflict)
	}

	shift.ID = nextID(&s.shiftSeq)
	shift.Status = domain.ShiftStatusOpen
	shift.TotalSales = decimal.Zero
	shift.TotalExpenses = decimal.Zero
	shift.EndCashExpected = nil
	shift.EndCashActual = nil
	shift.Difference = nil
	shift.Outcome = ""
	shift.ClosedBy = ""
	shift.ClosedAt = nil
	if shift.OpenedAt.IsZero() {
		shift.OpenedAt = time.Now().UTC()
	}

	s.shiftsByID[shift.ID] = shift
	s.openShiftID = shift.ID
	copyShift := cloneShift(shift)
	return &copyShift, nil
}

// CloseShift freezes the shift inside the store lock: the entry totals are
// summed here, so an entry recorded after the close can never move the
// frozen figures.
func (s *Store) CloseShift(_ context.Context, params store.CloseShiftParams) (*domain.Shift, error) {
	if params.EndCashActual.IsNegative() {
		return nil, fmt.Errorf("end_cash_actual must not be negative: %w", store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	shift, exists := s.shiftsByID[params.ShiftID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if shift.Status != domain.ShiftStatusOpen {
		return nil, fmt.Errorf("shift %d is already closed: %w", params.ShiftID, store.ErrConflict)
	}

	totalSales := decimal.Zero
	totalExpenses := decimal.Zero
	for _, entry := range s.entriesByShift[shift.ID] {
		switch entry.Kind {
		case domain.EntryKindSale:
			totalSales = totalSales.Add(entry.Amount)
		case domain.EntryKindExpense:
			totalExpenses = totalExpenses.Add(entry.Amount)
		}
	}

	expected := ledger.ExpectedCash(shift.StartCash, totalSales, totalExpenses)
	actual := params.EndCashActual
	difference := ledger.Difference(actual, expected)
	closedAt := time.Now().UTC()

	shift.Status = domain.ShiftStatusClosed
	shift.ClosedBy = params.ClosedBy
	shift.TotalSales = totalSales
	shift.TotalExpenses = totalExpenses
	shift.EndCashExpected = &expected
	shift.EndCashActual = &actual
	shift.Difference = &difference
	shift.Outcome = ledger.CashOutcome(difference)
	shift.Notes = params.Notes
	shift.ClosedAt = &closedAt

	s.shiftsByID[shift.ID] = shift
	s.openShiftID = 0
	copyShift := cloneShift(shift)
	return &copyShift, nil
}

func (s *Store) AddShiftEntry(_ context.Context, entry domain.ShiftEntry) (*domain.ShiftEntry, error) {
	if entry.Kind != domain.EntryKindSale && entry.Kind != domain.EntryKindExpense {
		return nil, fmt.Errorf("unknown entry kind %q: %w", entry.Kind, store.ErrValidation)
	}
	if !entry.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive: %w", store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	shift, exists := s.shiftsByID[entry.ShiftID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if shift.Status != domain.ShiftStatusOpen {
		return nil, fmt.Errorf("shift %d is closed: %w", entry.ShiftID, store.ErrConflict)
	}

	entry.ID = nextID(&s.entrySeq)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.entriesByShift[shift.ID] = append(s.entriesByShift[shift.ID], entry)

	switch entry.Kind {
	case domain.EntryKindSale:
		shift.TotalSales = shift.TotalSales.Add(entry.Amount)
	case domain.EntryKindExpense:
		shift.TotalExpenses = shift.TotalExpenses.Add(entry.Amount)
	}
	s.shiftsByID[shift.ID] = shift

	copyEntry := entry
	return &copyEntry, nil
}

func (s *Store) ListShiftEntries(_ context.Context, shiftID int64) ([]domain.ShiftEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.shiftsByID[shiftID]; !exists {
		return nil, store.ErrNotFound
	}
	entries := s.entriesByShift[shiftID]
	result := make([]domain.ShiftEntry, len(entries))
	copy(result, entries)
	slices.SortFunc(result, func(a, b domain.ShiftEntry) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpInt64(a.ID, b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return result, nil
}

func (s *Store) ListStockItems(_ context.Context) ([]domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.MenuItem, 0, len(s.menuItemsByID))
	for _, item := range s.menuItemsByID {
		if !item.Active || !item.TrackStock {
			continue
		}
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b domain.MenuItem) int {
		if a.Name == b.Name {
			return cmpInt64(a.ID, b.ID)
		}
		return cmpString(a.Name, b.Name)
	})
	return items, nil
}

func (s *Store) GetMenuItem(_ context.Context, id int64) (*domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.menuItemsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyItem := item
	return &copyItem, nil
}

// CreateStockAdjustment applies every line or none. All lines are resolved
// and checked against a scratch copy of the stock levels first; the live
// levels and the adjustment rows are only written once the whole batch
// passed. Lines later in the batch see the stock left by earlier lines.
func (s *Store) CreateStockAdjustment(_ context.Context, adjustment domain.StockAdjustment) (*domain.StockAdjustment, error) {
	if strings.TrimSpace(adjustment.Reason) == "" {
		return nil, fmt.Errorf("reason is required: %w", store.ErrValidation)
	}
	if len(adjustment.Items) == 0 {
		return nil, fmt.Errorf("at least one line is required: %w", store.ErrValidation)
	}
	if adjustment.AdjustmentDate == "" {
		return nil, fmt.Errorf("adjustment_date is required: %w", store.ErrValidation)
	}
	if _, err := time.Parse(domain.DateLayout, adjustment.AdjustmentDate); err != nil {
		return nil, fmt.Errorf("adjustment_date %q is not YYYY-MM-DD: %w", adjustment.AdjustmentDate, store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	scratch := make(map[int64]int, len(adjustment.Items))
	lines := make([]domain.StockAdjustmentItem, 0, len(adjustment.Items))
	for i, line := range adjustment.Items {
		mode, err := ledger.ParseMode(line.Mode)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		item, exists := s.menuItemsByID[line.MenuItemID]
		if !exists {
			return nil, fmt.Errorf("line %d: menu item %d: %w", i+1, line.MenuItemID, store.ErrNotFound)
		}
		if !item.TrackStock {
			return nil, fmt.Errorf("line %d: %s does not track stock: %w", i+1, item.Name, store.ErrValidation)
		}
		previous, seen := scratch[item.ID]
		if !seen {
			previous = item.CurrentStock
		}
		change, next, err := ledger.ApplyMode(mode, previous, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("line %d (%s): %w", i+1, item.Name, err)
		}
		scratch[item.ID] = next
		lines = append(lines, domain.StockAdjustmentItem{
			MenuItemID:     item.ID,
			MenuItemName:   item.Name,
			Mode:           string(mode),
			Quantity:       line.Quantity,
			Note:           line.Note,
			PreviousStock:  previous,
			QuantityChange: change,
			NewStock:       next,
		})
	}

	adjustment.ID = nextID(&s.adjustmentSeq)
	if adjustment.CreatedAt.IsZero() {
		adjustment.CreatedAt = time.Now().UTC()
	}
	for i := range lines {
		lines[i].ID = nextID(&s.lineSeq)
		lines[i].AdjustmentID = adjustment.ID
	}
	adjustment.Items = lines

	for id, stock := range scratch {
		item := s.menuItemsByID[id]
		item.CurrentStock = stock
		s.menuItemsByID[id] = item
	}
	s.adjustmentsByID[adjustment.ID] = cloneAdjustment(adjustment)

	saved := cloneAdjustment(adjustment)
	return &saved, nil
}

func (s *Store) ListStockAdjustments(_ context.Context) ([]domain.StockAdjustmentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]domain.StockAdjustmentSummary, 0, len(s.adjustmentsByID))
	for _, adjustment := range s.adjustmentsByID {
		summaries = append(summaries, domain.StockAdjustmentSummary{
			ID:             adjustment.ID,
			AdjustmentDate: adjustment.AdjustmentDate,
			Reason:         adjustment.Reason,
			Notes:          adjustment.Notes,
			CreatedBy:      adjustment.CreatedBy,
			CreatedAt:      adjustment.CreatedAt,
			ItemCount:      len(adjustment.Items),
		})
	}
	slices.SortFunc(summaries, func(a, b domain.StockAdjustmentSummary) int {
		if a.AdjustmentDate == b.AdjustmentDate {
			return cmpInt64(b.ID, a.ID)
		}
		return cmpString(b.AdjustmentDate, a.AdjustmentDate)
	})
	return summaries, nil
}

func (s *Store) GetStockAdjustment(_ context.Context, id int64) (*domain.StockAdjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	adjustment, exists := s.adjustmentsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyAdjustment := cloneAdjustment(adjustment)
	return &copyAdjustment, nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, fmt.Errorf("name is required: %w", store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.supplierNameTakenLocked(supplier.Name, 0) {
		return nil, fmt.Errorf("supplier name %q is already in use: %w", supplier.Name, store.ErrValidation)
	}

	supplier.ID = nextID(&s.supplierSeq)
	supplier.Active = true
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}
	s.suppliersByID[supplier.ID] = supplier
	copySupplier := supplier
	return &copySupplier, nil
}

func (s *Store) GetSupplier(_ context.Context, id int64) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, exists := s.suppliersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySupplier := supplier
	return &copySupplier, nil
}

func (s *Store) UpdateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, fmt.Errorf("name is required: %w", store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.suppliersByID[supplier.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if s.supplierNameTakenLocked(supplier.Name, supplier.ID) {
		return nil, fmt.Errorf("supplier name %q is already in use: %w", supplier.Name, store.ErrValidation)
	}

	supplier.CreatedAt = existing.CreatedAt
	s.suppliersByID[supplier.ID] = supplier
	copySupplier := supplier
	return &copySupplier, nil
}

// DeleteSupplier hard-deletes only when the supplier has no purchase or
// payment history; otherwise it deactivates, so the history keeps a valid
// owner. The outcome string tells the caller which of the two happened.
func (s *Store) DeleteSupplier(_ context.Context, id int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supplier, exists := s.suppliersByID[id]
	if !exists {
		return "", store.ErrNotFound
	}

	hasHistory := false
	for _, purchase := range s.purchasesByID {
		if purchase.SupplierID == id {
			hasHistory = true
			break
		}
	}
	if !hasHistory {
		for _, payment := range s.paymentsByID {
			if payment.SupplierID == id {
				hasHistory = true
				break
			}
		}
	}

	if hasHistory {
		supplier.Active = false
		s.suppliersByID[id] = supplier
		return domain.SupplierOutcomeDeactivated, nil
	}
	delete(s.suppliersByID, id)
	return domain.SupplierOutcomeDeleted, nil
}

func (s *Store) ListSuppliers(_ context.Context, includeInactive bool) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.Supplier, 0, len(s.suppliersByID))
	for _, supplier := range s.suppliersByID {
		if !includeInactive && !supplier.Active {
			continue
		}
		suppliers = append(suppliers, supplier)
	}
	slices.SortFunc(suppliers, func(a, b domain.Supplier) int {
		if a.Name == b.Name {
			return cmpInt64(a.ID, b.ID)
		}
		return cmpString(a.Name, b.Name)
	})
	return suppliers, nil
}

func (s *Store) AddSupplierPurchase(_ context.Context, purchase domain.SupplierPurchase) (*domain.SupplierPurchase, error) {
	if !purchase.Total.IsPositive() {
		return nil, fmt.Errorf("total must be positive: %w", store.ErrValidation)
	}
	if purchase.PurchaseDate == "" {
		return nil, fmt.Errorf("purchase_date is required: %w", store.ErrValidation)
	}
	if _, err := time.Parse(domain.DateLayout, purchase.PurchaseDate); err != nil {
		return nil, fmt.Errorf("purchase_date %q is not YYYY-MM-DD: %w", purchase.PurchaseDate, store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.suppliersByID[purchase.SupplierID]; !exists {
		return nil, store.ErrNotFound
	}

	purchase.ID = nextID(&s.purchaseSeq)
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now().UTC()
	}
	s.purchasesByID[purchase.ID] = purchase
	copyPurchase := purchase
	return &copyPurchase, nil
}

func (s *Store) ListSupplierPurchases(_ context.Context, supplierID int64) ([]domain.SupplierPurchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.suppliersByID[supplierID]; !exists {
		return nil, store.ErrNotFound
	}
	purchases := make([]domain.SupplierPurchase, 0, 16)
	for _, purchase := range s.purchasesByID {
		if purchase.SupplierID == supplierID {
			purchases = append(purchases, purchase)
		}
	}
	slices.SortFunc(purchases, func(a, b domain.SupplierPurchase) int {
		if a.PurchaseDate == b.PurchaseDate {
			return cmpInt64(b.ID, a.ID)
		}
		return cmpString(b.PurchaseDate, a.PurchaseDate)
	})
	return purchases, nil
}

func (s *Store) AddSupplierPayment(_ context.Context, payment domain.SupplierPayment) (*domain.SupplierPayment, error) {
	if !payment.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive: %w", store.ErrValidation)
	}
	switch payment.Method {
	case domain.PaymentMethodCash, domain.PaymentMethodCard, domain.PaymentMethodMobile, domain.PaymentMethodBank:
	default:
		return nil, fmt.Errorf("unknown payment method %q: %w", payment.Method, store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.suppliersByID[payment.SupplierID]; !exists {
		return nil, store.ErrNotFound
	}
	if payment.PurchaseID != nil {
		purchase, exists := s.purchasesByID[*payment.PurchaseID]
		if !exists || purchase.SupplierID != payment.SupplierID {
			return nil, fmt.Errorf("purchase %d does not belong to supplier %d: %w", *payment.PurchaseID, payment.SupplierID, store.ErrValidation)
		}
	}

	payment.ID = nextID(&s.paymentSeq)
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	s.paymentsByID[payment.ID] = clonePayment(payment)
	copyPayment := clonePayment(payment)
	return &copyPayment, nil
}

func (s *Store) ListSupplierPayments(_ context.Context, supplierID int64) ([]domain.SupplierPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.suppliersByID[supplierID]; !exists {
		return nil, store.ErrNotFound
	}
	payments := make([]domain.SupplierPayment, 0, 16)
	for _, payment := range s.paymentsByID {
		if payment.SupplierID == supplierID {
			payments = append(payments, clonePayment(payment))
		}
	}
	slices.SortFunc(payments, func(a, b domain.SupplierPayment) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpInt64(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return payments, nil
}

func (s *Store) GetSupplierBalance(_ context.Context, supplierID int64) (*domain.SupplierBalanceSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, exists := s.suppliersByID[supplierID]
	if !exists {
		return nil, store.ErrNotFound
	}
	summary := s.balanceSummaryLocked(supplier)
	return &summary, nil
}

func (s *Store) ListSupplierBalances(_ context.Context, includeInactive bool) ([]domain.SupplierBalanceSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]domain.SupplierBalanceSummary, 0, len(s.suppliersByID))
	for _, supplier := range s.suppliersByID {
		if !includeInactive && !supplier.Active {
			continue
		}
		summaries = append(summaries, s.balanceSummaryLocked(supplier))
	}
	slices.SortFunc(summaries, func(a, b domain.SupplierBalanceSummary) int {
		if a.SupplierName == b.SupplierName {
			return cmpInt64(a.SupplierID, b.SupplierID)
		}
		return cmpString(a.SupplierName, b.SupplierName)
	})
	return summaries, nil
}

// balanceSummaryLocked walks the full purchase and payment history; the
// balance is never read from a stored column. Callers hold at least the
// read lock.
func (s *Store) balanceSummaryLocked(supplier domain.Supplier) domain.SupplierBalanceSummary {
	totalPurchases := decimal.Zero
	totalPayments := decimal.Zero
	purchaseCount := 0
	paymentCount := 0
	for _, purchase := range s.purchasesByID {
		if purchase.SupplierID == supplier.ID {
			totalPurchases = totalPurchases.Add(purchase.Total)
			purchaseCount++
		}
	}
	for _, payment := range s.paymentsByID {
		if payment.SupplierID == supplier.ID {
			totalPayments = totalPayments.Add(payment.Amount)
			paymentCount++
		}
	}
	return domain.SupplierBalanceSummary{
		SupplierID:     supplier.ID,
		SupplierName:   supplier.Name,
		Active:         supplier.Active,
		TotalPurchases: totalPurchases,
		TotalPayments:  totalPayments,
		BalanceDue:     ledger.BalanceDue(totalPurchases, totalPayments),
		PurchaseCount:  purchaseCount,
		PaymentCount:   paymentCount,
	}
}

func (s *Store) GetDaySummary(_ context.Context, date string) (*domain.DaySummary, error) {
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, fmt.Errorf("date %q is not YYYY-MM-DD: %w", date, store.ErrValidation)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.DaySummary{
		Date:            date,
		TotalSales:      decimal.Zero,
		TotalExpenses:   decimal.Zero,
		TotalDifference: decimal.Zero,
		PurchasesTotal:  decimal.Zero,
		PaymentsTotal:   decimal.Zero,
		VarianceFlag:    ledger.VarianceNormal,
	}

	for _, shift := range s.shiftsByID {
		if shift.Status != domain.ShiftStatusClosed || shift.ClosedAt == nil {
			continue
		}
		if shift.ClosedAt.UTC().Format(domain.DateLayout) != date {
			continue
		}
		summary.ShiftsClosed++
		summary.TotalSales = summary.TotalSales.Add(shift.TotalSales)
		summary.TotalExpenses = summary.TotalExpenses.Add(shift.TotalExpenses)
		if shift.Difference != nil {
			summary.TotalDifference = summary.TotalDifference.Add(*shift.Difference)
		}
		if shift.Difference != nil && shift.EndCashExpected != nil {
			flag := ledger.ClassifyVariance(*shift.Difference, *shift.EndCashExpected)
			summary.VarianceFlag = ledger.WorstVariance(summary.VarianceFlag, flag)
		}
	}

	for _, adjustment := range s.adjustmentsByID {
		if adjustment.AdjustmentDate != date {
			continue
		}
		summary.AdjustmentCount++
		summary.ItemsAdjusted += len(adjustment.Items)
	}
	for _, purchase := range s.purchasesByID {
		if purchase.PurchaseDate == date {
			summary.PurchasesTotal = summary.PurchasesTotal.Add(purchase.Total)
		}
	}
	for _, payment := range s.paymentsByID {
		if payment.CreatedAt.UTC().Format(domain.DateLayout) == date {
			summary.PaymentsTotal = summary.PaymentsTotal.Add(payment.Amount)
		}
	}

	summary.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	return &summary, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = nextID(&s.auditSeq)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, len(s.auditLogs))
	copy(result, s.auditLogs)
	slices.SortFunc(result, func(a, b domain.AuditLog) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpInt64(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return fmt.Errorf("username and password are required: %w", store.ErrValidation)
	}
	if _, exists := s.usersByUsername[username]; exists {
		return fmt.Errorf("user %q already exists: %w", username, store.ErrConflict)
	}
	user.Username = username
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) supplierNameTakenLocked(name string, excludeID int64) bool {
	needle := strings.ToLower(name)
	for _, supplier := range s.suppliersByID {
		if supplier.ID == excludeID || !supplier.Active {
			continue
		}
		if strings.ToLower(supplier.Name) == needle {
			return true
		}
	}
	return false
}

func nextID(seq *int64) int64 {
	*seq++
	return *seq
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cmpInt64(a int64, b int64) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneShift(src domain.Shift) domain.Shift {
	dup := src
	if src.EndCashExpected != nil {
		v := *src.EndCashExpected
		dup.EndCashExpected = &v
	}
	if src.EndCashActual != nil {
		v := *src.EndCashActual
		dup.EndCashActual = &v
	}
	if src.Difference != nil {
		v := *src.Difference
		dup.Difference = &v
	}
	if src.ClosedAt != nil {
		t := *src.ClosedAt
		dup.ClosedAt = &t
	}
	return dup
}

func cloneAdjustment(src domain.StockAdjustment) domain.StockAdjustment {
	dup := src
	items := make([]domain.StockAdjustmentItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return dup
}

func clonePayment(src domain.SupplierPayment) domain.SupplierPayment {
	dup := src
	if src.PurchaseID != nil {
		id := *src.PurchaseID
		dup.PurchaseID = &id
	}
	return dup
}
