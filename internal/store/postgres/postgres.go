// Package postgres implements the repository on PostgreSQL. Schema
// migrations are applied out of band; the queries here assume the tables
// exist, including the partial unique index that allows at most one row
// with status = 'open' in shifts and the partial unique index on
// lower(name) for active suppliers.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"lodgepos/backoffice/internal/domain"
	"lodgepos/backoffice/internal/ledger"
	"lodgepos/backoffice/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const shiftColumns = `id, status, opened_by, closed_by, start_cash, total_sales, total_expenses,
	end_cash_expected, end_cash_actual, difference, outcome, notes, opened_at, closed_at`

func (s *Store) GetOpenShift(ctx context.Context) (*domain.Shift, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE status = 'open'
		LIMIT 1
	`)
	shift, err := scanShift(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return shift, nil
}

func (s *Store) GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		WHERE id = $1
	`, id)
	shift, err := scanShift(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return shift, nil
}

func (s *Store) ListShifts(ctx context.Context, limit int) ([]domain.Shift, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+shiftColumns+`
		FROM shifts
		ORDER BY opened_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]domain.Shift, 0, limit)
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, *shift)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return shifts, nil
}

func (s *Store) OpenShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error) {
	if strings.TrimSpace(shift.OpenedBy) == "" {
		return nil, fmt.Errorf("opened_by is required: %w", store.ErrValidation)
	}
	if shift.StartCash.IsNegative() {
		return nil, fmt.Errorf("start_cash must not be negative: %w", store.ErrValidation)
	}
	if shift.OpenedAt.IsZero() {
		shift.OpenedAt = time.Now().UTC()
	}

	// The partial unique index on (status) WHERE status = 'open' makes a
	// second concurrent open fail with a unique violation.
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO shifts (status, opened_by, start_cash, total_sales, total_expenses, opened_at)
		VALUES ('open', $1, $2, 0, 0, $3)
		RETURNING `+shiftColumns+`
	`, shift.OpenedBy, shift.StartCash, shift.OpenedAt)
	saved, err := scanShift(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("a shift is already open: %w", store.ErrConflict)
		}
		return nil, err
	}
	return saved, nil
}

// CloseShift runs in one serializable transaction: the shift row is locked,
// the entry totals are summed off the locked state, and the status flip is a
// compare-and-set on status = 'open'. Entries that commit after the flip
// belong to no open shift and can never move the frozen figures.
func (s *Store) CloseShift(ctx context.Context, params store.CloseShiftParams) (*domain.Shift, error) {
	if params.EndCashActual.IsNegative() {
		return nil, fmt.Errorf("end_cash_actual must not be negative: %w", store.ErrValidation)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	var startCash decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		SELECT status, start_cash
		FROM shifts
		WHERE id = $1
		FOR UPDATE
	`, params.ShiftID).Scan(&status, &startCash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status != domain.ShiftStatusOpen {
		return nil, fmt.Errorf("shift %d is already closed: %w", params.ShiftID, store.ErrConflict)
	}

	var totalSales, totalExpenses decimal.Decimal
	err = tx.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind = 'sale'), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind = 'expense'), 0)
		FROM shift_entries
		WHERE shift_id = $1
	`, params.ShiftID).Scan(&totalSales, &totalExpenses)
	if err != nil {
		return nil, err
	}

	expected := ledger.ExpectedCash(startCash, totalSales, totalExpenses)
	difference := ledger.Difference(params.EndCashActual, expected)
	outcome := ledger.CashOutcome(difference)
	closedAt := time.Now().UTC()

	row := tx.QueryRowContext(ctx, `
		UPDATE shifts
		SET status = 'closed',
			closed_by = $2,
			total_sales = $3,
			total_expenses = $4,
			end_cash_expected = $5,
			end_cash_actual = $6,
			difference = $7,
			outcome = $8,
			notes = $9,
			closed_at = $10
		WHERE id = $1 AND status = 'open'
		RETURNING `+shiftColumns+`
	`, params.ShiftID, params.ClosedBy, totalSales, totalExpenses,
		expected, params.EndCashActual, difference, outcome,
		nullIfEmpty(params.Notes), closedAt)
	closed, err := scanShift(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("shift %d is already closed: %w", params.ShiftID, store.ErrConflict)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return closed, nil
}

func (s *Store) AddShiftEntry(ctx context.Context, entry domain.ShiftEntry) (*domain.ShiftEntry, error) {
	if entry.Kind != domain.EntryKindSale && entry.Kind != domain.EntryKindExpense {
		return nil, fmt.Errorf("unknown entry kind %q: %w", entry.Kind, store.ErrValidation)
	}
	if !entry.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive: %w", store.ErrValidation)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, `
		SELECT status
		FROM shifts
		WHERE id = $1
		FOR UPDATE
	`, entry.ShiftID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status != domain.ShiftStatusOpen {
		return nil, fmt.Errorf("shift %d is closed: %w", entry.ShiftID, store.ErrConflict)
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO shift_entries (shift_id, kind, amount, note, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, entry.ShiftID, entry.Kind, entry.Amount, nullIfEmpty(entry.Note), entry.CreatedAt).Scan(&entry.ID)
	if err != nil {
		return nil, err
	}

	column := "total_sales"
	if entry.Kind == domain.EntryKindExpense {
		column = "total_expenses"
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE shifts SET `+column+` = `+column+` + $2 WHERE id = $1
	`, entry.ShiftID, entry.Amount)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	saved := entry
	return &saved, nil
}

func (s *Store) ListShiftEntries(ctx context.Context, shiftID int64) ([]domain.ShiftEntry, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM shifts WHERE id = $1)
	`, shiftID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shift_id, kind, amount, COALESCE(note, ''), created_at
		FROM shift_entries
		WHERE shift_id = $1
		ORDER BY created_at ASC, id ASC
	`, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.ShiftEntry, 0, 32)
	for rows.Next() {
		var entry domain.ShiftEntry
		if err := rows.Scan(&entry.ID, &entry.ShiftID, &entry.Kind, &entry.Amount, &entry.Note, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) ListStockItems(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, price, track_stock, current_stock, active
		FROM menu_items
		WHERE active = true AND track_stock = true
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.MenuItem, 0, 64)
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Price, &item.TrackStock, &item.CurrentStock, &item.Active); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetMenuItem(ctx context.Context, id int64) (*domain.MenuItem, error) {
	var item domain.MenuItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, price, track_stock, current_stock, active
		FROM menu_items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.Name, &item.Category, &item.Price, &item.TrackStock, &item.CurrentStock, &item.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// CreateStockAdjustment locks every touched menu item, computes each line
// against the locked stock (lines later in the batch see the stock left by
// earlier lines), and writes header, lines and stock levels in one
// transaction. Any failing line rolls back the whole batch.
func (s *Store) CreateStockAdjustment(ctx context.Context, adjustment domain.StockAdjustment) (*domain.StockAdjustment, error) {
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

	itemIDs := make([]int64, 0, len(adjustment.Items))
	seen := make(map[int64]struct{}, len(adjustment.Items))
	for _, line := range adjustment.Items {
		if _, dup := seen[line.MenuItemID]; dup {
			continue
		}
		seen[line.MenuItemID] = struct{}{}
		itemIDs = append(itemIDs, line.MenuItemID)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	type itemState struct {
		name       string
		trackStock bool
		stock      int
	}
	states := make(map[int64]itemState, len(itemIDs))
	// Rows are locked in id order so overlapping batches cannot deadlock.
	itemRows, err := tx.QueryContext(ctx, `
		SELECT id, name, track_stock, current_stock
		FROM menu_items
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, itemIDs)
	if err != nil {
		return nil, err
	}
	for itemRows.Next() {
		var id int64
		var st itemState
		if err := itemRows.Scan(&id, &st.name, &st.trackStock, &st.stock); err != nil {
			_ = itemRows.Close()
			return nil, err
		}
		states[id] = st
	}
	if err := itemRows.Err(); err != nil {
		_ = itemRows.Close()
		return nil, err
	}
	_ = itemRows.Close()

	lines := make([]domain.StockAdjustmentItem, 0, len(adjustment.Items))
	for i, line := range adjustment.Items {
		mode, err := ledger.ParseMode(line.Mode)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		st, exists := states[line.MenuItemID]
		if !exists {
			return nil, fmt.Errorf("line %d: menu item %d: %w", i+1, line.MenuItemID, store.ErrNotFound)
		}
		if !st.trackStock {
			return nil, fmt.Errorf("line %d: %s does not track stock: %w", i+1, st.name, store.ErrValidation)
		}
		change, next, err := ledger.ApplyMode(mode, st.stock, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("line %d (%s): %w", i+1, st.name, err)
		}
		lines = append(lines, domain.StockAdjustmentItem{
			MenuItemID:     line.MenuItemID,
			MenuItemName:   st.name,
			Mode:           string(mode),
			Quantity:       line.Quantity,
			Note:           line.Note,
			PreviousStock:  st.stock,
			QuantityChange: change,
			NewStock:       next,
		})
		st.stock = next
		states[line.MenuItemID] = st
	}

	if adjustment.CreatedAt.IsZero() {
		adjustment.CreatedAt = time.Now().UTC()
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO stock_adjustments (adjustment_date, reason, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, adjustment.AdjustmentDate, adjustment.Reason, nullIfEmpty(adjustment.Notes),
		adjustment.CreatedBy, adjustment.CreatedAt).Scan(&adjustment.ID)
	if err != nil {
		return nil, err
	}

	for i := range lines {
		lines[i].AdjustmentID = adjustment.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO stock_adjustment_items (
				adjustment_id, menu_item_id, menu_item_name, mode, quantity, note,
				previous_stock, quantity_change, new_stock
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING id
		`, lines[i].AdjustmentID, lines[i].MenuItemID, lines[i].MenuItemName, lines[i].Mode,
			lines[i].Quantity, nullIfEmpty(lines[i].Note), lines[i].PreviousStock,
			lines[i].QuantityChange, lines[i].NewStock).Scan(&lines[i].ID)
		if err != nil {
			return nil, err
		}
	}

	for id, st := range states {
		if _, err := tx.ExecContext(ctx, `
			UPDATE menu_items SET current_stock = $2 WHERE id = $1
		`, id, st.stock); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	adjustment.Items = lines
	saved := adjustment
	return &saved, nil
}

func (s *Store) ListStockAdjustments(ctx context.Context) ([]domain.StockAdjustmentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.adjustment_date, a.reason, COALESCE(a.notes, ''), a.created_by, a.created_at, COUNT(i.id)
		FROM stock_adjustments a
		LEFT JOIN stock_adjustment_items i ON i.adjustment_id = a.id
		GROUP BY a.id
		ORDER BY a.adjustment_date DESC, a.id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]domain.StockAdjustmentSummary, 0, 32)
	for rows.Next() {
		var summary domain.StockAdjustmentSummary
		var date time.Time
		if err := rows.Scan(&summary.ID, &date, &summary.Reason, &summary.Notes, &summary.CreatedBy, &summary.CreatedAt, &summary.ItemCount); err != nil {
			return nil, err
		}
		summary.AdjustmentDate = date.UTC().Format(domain.DateLayout)
		summary.CreatedAt = summary.CreatedAt.UTC()
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *Store) GetStockAdjustment(ctx context.Context, id int64) (*domain.StockAdjustment, error) {
	var adjustment domain.StockAdjustment
	var date time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT id, adjustment_date, reason, COALESCE(notes, ''), created_by, created_at
		FROM stock_adjustments
		WHERE id = $1
	`, id).Scan(&adjustment.ID, &date, &adjustment.Reason, &adjustment.Notes, &adjustment.CreatedBy, &adjustment.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	adjustment.AdjustmentDate = date.UTC().Format(domain.DateLayout)
	adjustment.CreatedAt = adjustment.CreatedAt.UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, adjustment_id, menu_item_id, menu_item_name, mode, quantity, COALESCE(note, ''),
			previous_stock, quantity_change, new_stock
		FROM stock_adjustment_items
		WHERE adjustment_id = $1
		ORDER BY id ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.StockAdjustmentItem, 0, 8)
	for rows.Next() {
		var item domain.StockAdjustmentItem
		if err := rows.Scan(&item.ID, &item.AdjustmentID, &item.MenuItemID, &item.MenuItemName, &item.Mode,
			&item.Quantity, &item.Note, &item.PreviousStock, &item.QuantityChange, &item.NewStock); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	adjustment.Items = items
	return &adjustment, nil
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, fmt.Errorf("name is required: %w", store.ErrValidation)
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}
	supplier.Active = true

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO suppliers (name, phone, email, address, notes, active, created_at)
		VALUES ($1, $2, $3, $4, $5, true, $6)
		RETURNING id
	`, supplier.Name, nullIfEmpty(supplier.Phone), nullIfEmpty(supplier.Email),
		nullIfEmpty(supplier.Address), nullIfEmpty(supplier.Notes), supplier.CreatedAt).Scan(&supplier.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("supplier name %q is already in use: %w", supplier.Name, store.ErrValidation)
		}
		return nil, err
	}
	saved := supplier
	return &saved, nil
}

func (s *Store) GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(phone, ''), COALESCE(email, ''), COALESCE(address, ''), COALESCE(notes, ''), active, created_at
		FROM suppliers
		WHERE id = $1
	`, id)
	supplier, err := scanSupplier(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return supplier, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, fmt.Errorf("name is required: %w", store.ErrValidation)
	}

	err := s.db.QueryRowContext(ctx, `
		UPDATE suppliers
		SET name = $2, phone = $3, email = $4, address = $5, notes = $6, active = $7
		WHERE id = $1
		RETURNING created_at
	`, supplier.ID, supplier.Name, nullIfEmpty(supplier.Phone), nullIfEmpty(supplier.Email),
		nullIfEmpty(supplier.Address), nullIfEmpty(supplier.Notes), supplier.Active).Scan(&supplier.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("supplier name %q is already in use: %w", supplier.Name, store.ErrValidation)
		}
		return nil, err
	}
	supplier.CreatedAt = supplier.CreatedAt.UTC()
	saved := supplier
	return &saved, nil
}

// DeleteSupplier decides hard delete versus deactivate inside the same
// transaction that checks the history, so a purchase recorded concurrently
// cannot be orphaned by a racing delete.
func (s *Store) DeleteSupplier(ctx context.Context, id int64) (string, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	var active bool
	err = tx.QueryRowContext(ctx, `
		SELECT active FROM suppliers WHERE id = $1 FOR UPDATE
	`, id).Scan(&active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", store.ErrNotFound
		}
		return "", err
	}

	var hasHistory bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM supplier_purchases WHERE supplier_id = $1)
			OR EXISTS(SELECT 1 FROM supplier_payments WHERE supplier_id = $1)
	`, id).Scan(&hasHistory)
	if err != nil {
		return "", err
	}

	outcome := domain.SupplierOutcomeDeleted
	if hasHistory {
		outcome = domain.SupplierOutcomeDeactivated
		_, err = tx.ExecContext(ctx, `UPDATE suppliers SET active = false WHERE id = $1`, id)
	} else {
		_, err = tx.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	}
	if err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return outcome, nil
}

func (s *Store) ListSuppliers(ctx context.Context, includeInactive bool) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(phone, ''), COALESCE(email, ''), COALESCE(address, ''), COALESCE(notes, ''), active, created_at
		FROM suppliers
		WHERE active = true OR $1
		ORDER BY name ASC, id ASC
	`, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 32)
	for rows.Next() {
		supplier, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, *supplier)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (s *Store) AddSupplierPurchase(ctx context.Context, purchase domain.SupplierPurchase) (*domain.SupplierPurchase, error) {
	if !purchase.Total.IsPositive() {
		return nil, fmt.Errorf("total must be positive: %w", store.ErrValidation)
	}
	if purchase.PurchaseDate == "" {
		return nil, fmt.Errorf("purchase_date is required: %w", store.ErrValidation)
	}
	if _, err := time.Parse(domain.DateLayout, purchase.PurchaseDate); err != nil {
		return nil, fmt.Errorf("purchase_date %q is not YYYY-MM-DD: %w", purchase.PurchaseDate, store.ErrValidation)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM suppliers WHERE id = $1)
	`, purchase.SupplierID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO supplier_purchases (supplier_id, reference, purchase_date, total, note, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, purchase.SupplierID, nullIfEmpty(purchase.Reference), purchase.PurchaseDate,
		purchase.Total, nullIfEmpty(purchase.Note), purchase.CreatedBy, purchase.CreatedAt).Scan(&purchase.ID)
	if err != nil {
		return nil, err
	}
	saved := purchase
	return &saved, nil
}

func (s *Store) ListSupplierPurchases(ctx context.Context, supplierID int64) ([]domain.SupplierPurchase, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM suppliers WHERE id = $1)
	`, supplierID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, supplier_id, COALESCE(reference, ''), purchase_date, total, COALESCE(note, ''), created_by, created_at
		FROM supplier_purchases
		WHERE supplier_id = $1
		ORDER BY purchase_date DESC, id DESC
	`, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := make([]domain.SupplierPurchase, 0, 16)
	for rows.Next() {
		var purchase domain.SupplierPurchase
		var date time.Time
		if err := rows.Scan(&purchase.ID, &purchase.SupplierID, &purchase.Reference, &date,
			&purchase.Total, &purchase.Note, &purchase.CreatedBy, &purchase.CreatedAt); err != nil {
			return nil, err
		}
		purchase.PurchaseDate = date.UTC().Format(domain.DateLayout)
		purchase.CreatedAt = purchase.CreatedAt.UTC()
		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return purchases, nil
}

func (s *Store) AddSupplierPayment(ctx context.Context, payment domain.SupplierPayment) (*domain.SupplierPayment, error) {
	if !payment.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive: %w", store.ErrValidation)
	}
	switch payment.Method {
	case domain.PaymentMethodCash, domain.PaymentMethodCard, domain.PaymentMethodMobile, domain.PaymentMethodBank:
	default:
		return nil, fmt.Errorf("unknown payment method %q: %w", payment.Method, store.ErrValidation)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM suppliers WHERE id = $1)
	`, payment.SupplierID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	if payment.PurchaseID != nil {
		var owner int64
		err := s.db.QueryRowContext(ctx, `
			SELECT supplier_id FROM supplier_purchases WHERE id = $1
		`, *payment.PurchaseID).Scan(&owner)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if errors.Is(err, sql.ErrNoRows) || owner != payment.SupplierID {
			return nil, fmt.Errorf("purchase %d does not belong to supplier %d: %w", *payment.PurchaseID, payment.SupplierID, store.ErrValidation)
		}
	}

	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO supplier_payments (supplier_id, purchase_id, amount, method, note, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, payment.SupplierID, nullInt64(payment.PurchaseID), payment.Amount, payment.Method,
		nullIfEmpty(payment.Note), payment.CreatedBy, payment.CreatedAt).Scan(&payment.ID)
	if err != nil {
		return nil, err
	}
	saved := payment
	return &saved, nil
}

func (s *Store) ListSupplierPayments(ctx context.Context, supplierID int64) ([]domain.SupplierPayment, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM suppliers WHERE id = $1)
	`, supplierID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, supplier_id, purchase_id, amount, method, COALESCE(note, ''), created_by, created_at
		FROM supplier_payments
		WHERE supplier_id = $1
		ORDER BY created_at DESC, id DESC
	`, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.SupplierPayment, 0, 16)
	for rows.Next() {
		var payment domain.SupplierPayment
		var purchaseID sql.NullInt64
		if err := rows.Scan(&payment.ID, &payment.SupplierID, &purchaseID, &payment.Amount,
			&payment.Method, &payment.Note, &payment.CreatedBy, &payment.CreatedAt); err != nil {
			return nil, err
		}
		if purchaseID.Valid {
			id := purchaseID.Int64
			payment.PurchaseID = &id
		}
		payment.CreatedAt = payment.CreatedAt.UTC()
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

const balanceColumns = `s.id, s.name, s.active,
	COALESCE((SELECT SUM(p.total) FROM supplier_purchases p WHERE p.supplier_id = s.id), 0),
	COALESCE((SELECT COUNT(*) FROM supplier_purchases p WHERE p.supplier_id = s.id), 0),
	COALESCE((SELECT SUM(y.amount) FROM supplier_payments y WHERE y.supplier_id = s.id), 0),
	COALESCE((SELECT COUNT(*) FROM supplier_payments y WHERE y.supplier_id = s.id), 0)`

func (s *Store) GetSupplierBalance(ctx context.Context, supplierID int64) (*domain.SupplierBalanceSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+balanceColumns+`
		FROM suppliers s
		WHERE s.id = $1
	`, supplierID)
	summary, err := scanBalance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return summary, nil
}

func (s *Store) ListSupplierBalances(ctx context.Context, includeInactive bool) ([]domain.SupplierBalanceSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+balanceColumns+`
		FROM suppliers s
		WHERE s.active = true OR $1
		ORDER BY s.name ASC, s.id ASC
	`, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]domain.SupplierBalanceSummary, 0, 32)
	for rows.Next() {
		summary, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *Store) GetDaySummary(ctx context.Context, date string) (*domain.DaySummary, error) {
	day, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("date %q is not YYYY-MM-DD: %w", date, store.ErrValidation)
	}
	dayStart := day.UTC()
	dayEnd := dayStart.Add(24 * time.Hour)

	summary := domain.DaySummary{
		Date:            date,
		TotalSales:      decimal.Zero,
		TotalExpenses:   decimal.Zero,
		TotalDifference: decimal.Zero,
		PurchasesTotal:  decimal.Zero,
		PaymentsTotal:   decimal.Zero,
		VarianceFlag:    ledger.VarianceNormal,
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT total_sales, total_expenses, difference, end_cash_expected
		FROM shifts
		WHERE status = 'closed' AND closed_at >= $1 AND closed_at < $2
	`, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var sales, expenses decimal.Decimal
		var difference, expected decimal.NullDecimal
		if err := rows.Scan(&sales, &expenses, &difference, &expected); err != nil {
			_ = rows.Close()
			return nil, err
		}
		summary.ShiftsClosed++
		summary.TotalSales = summary.TotalSales.Add(sales)
		summary.TotalExpenses = summary.TotalExpenses.Add(expenses)
		if difference.Valid {
			summary.TotalDifference = summary.TotalDifference.Add(difference.Decimal)
		}
		if difference.Valid && expected.Valid {
			flag := ledger.ClassifyVariance(difference.Decimal, expected.Decimal)
			summary.VarianceFlag = ledger.WorstVariance(summary.VarianceFlag, flag)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT a.id), COUNT(i.id)
		FROM stock_adjustments a
		LEFT JOIN stock_adjustment_items i ON i.adjustment_id = a.id
		WHERE a.adjustment_date = $1
	`, date).Scan(&summary.AdjustmentCount, &summary.ItemsAdjusted)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total), 0) FROM supplier_purchases WHERE purchase_date = $1
	`, date).Scan(&summary.PurchasesTotal)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM supplier_payments WHERE created_at >= $1 AND created_at < $2
	`, dayStart, dayEnd).Scan(&summary.PaymentsTotal)
	if err != nil {
		return nil, err
	}

	summary.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	return &summary, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (actor, actor_role, action, entity, entity_id, detail, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.Actor, entry.ActorRole, entry.Action, entry.Entity, entry.EntityID,
		entry.Detail, nullIfEmpty(entry.RequestID), entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor, actor_role, action, entity, entity_id, detail, COALESCE(request_id, ''), created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.Actor, &entry.ActorRole, &entry.Action, &entry.Entity,
			&entry.EntityID, &entry.Detail, &entry.RequestID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return fmt.Errorf("username and password are required: %w", store.ErrValidation)
	}
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %q already exists: %w", user.Username, store.ErrConflict)
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (*domain.Shift, error) {
	var shift domain.Shift
	var closedBy, outcome, notes sql.NullString
	var expected, actual, difference decimal.NullDecimal
	var closedAt sql.NullTime
	err := row.Scan(&shift.ID, &shift.Status, &shift.OpenedBy, &closedBy,
		&shift.StartCash, &shift.TotalSales, &shift.TotalExpenses,
		&expected, &actual, &difference, &outcome, &notes,
		&shift.OpenedAt, &closedAt)
	if err != nil {
		return nil, err
	}
	shift.ClosedBy = closedBy.String
	shift.Outcome = outcome.String
	shift.Notes = notes.String
	shift.OpenedAt = shift.OpenedAt.UTC()
	if expected.Valid {
		v := expected.Decimal
		shift.EndCashExpected = &v
	}
	if actual.Valid {
		v := actual.Decimal
		shift.EndCashActual = &v
	}
	if difference.Valid {
		v := difference.Decimal
		shift.Difference = &v
	}
	if closedAt.Valid {
		t := closedAt.Time.UTC()
		shift.ClosedAt = &t
	}
	return &shift, nil
}

func scanSupplier(row rowScanner) (*domain.Supplier, error) {
	var supplier domain.Supplier
	err := row.Scan(&supplier.ID, &supplier.Name, &supplier.Phone, &supplier.Email,
		&supplier.Address, &supplier.Notes, &supplier.Active, &supplier.CreatedAt)
	if err != nil {
		return nil, err
	}
	supplier.CreatedAt = supplier.CreatedAt.UTC()
	return &supplier, nil
}

func scanBalance(row rowScanner) (*domain.SupplierBalanceSummary, error) {
	var summary domain.SupplierBalanceSummary
	err := row.Scan(&summary.SupplierID, &summary.SupplierName, &summary.Active,
		&summary.TotalPurchases, &summary.PurchaseCount,
		&summary.TotalPayments, &summary.PaymentCount)
	if err != nil {
		return nil, err
	}
	summary.BalanceDue = ledger.BalanceDue(summary.TotalPurchases, summary.TotalPayments)
	return &summary, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullInt64(val *int64) any {
	if val == nil {
		return nil
	}
	return *val
}
