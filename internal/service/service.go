package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"lodgepos/backoffice/internal/domain"
	"lodgepos/backoffice/internal/ledger"
	"lodgepos/backoffice/internal/report"
	"lodgepos/backoffice/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type requestIDContextKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey{}).(string)
	return requestID
}

type Service struct {
	repo    store.Repository
	reports *report.Engine
	logger  *zap.Logger
}

func New(repo store.Repository, reports *report.Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:    repo,
		reports: reports,
		logger:  logger,
	}
}

func (s *Service) OpenShift(ctx context.Context, req domain.ShiftOpenRequest) (domain.ShiftResponse, error) {
	actor, _ := ActorFromContext(ctx)

	saved, err := s.repo.OpenShift(ctx, domain.Shift{
		OpenedBy:  actor.Username,
		StartCash: req.StartCash,
	})
	if err != nil {
		return domain.ShiftResponse{}, err
	}

	s.logAudit(ctx, "shift_open", "shift", saved.ID, fmt.Sprintf("start_cash=%s", saved.StartCash))

	return domain.ShiftResponse{Shift: *saved}, nil
}

func (s *Service) CloseShift(ctx context.Context, shiftID int64, req domain.ShiftCloseRequest) (domain.ShiftResponse, error) {
	actor, _ := ActorFromContext(ctx)

	closed, err := s.repo.CloseShift(ctx, store.CloseShiftParams{
		ShiftID:       shiftID,
		ClosedBy:      actor.Username,
		EndCashActual: req.EndCashActual,
		Notes:         strings.TrimSpace(req.Notes),
	})
	if err != nil {
		return domain.ShiftResponse{}, err
	}

	detail := fmt.Sprintf("actual=%s,outcome=%s", req.EndCashActual, closed.Outcome)
	if closed.EndCashExpected != nil && closed.Difference != nil {
		detail = fmt.Sprintf("expected=%s,actual=%s,difference=%s,outcome=%s",
			*closed.EndCashExpected, req.EndCashActual, *closed.Difference, closed.Outcome)
	}
	s.logAudit(ctx, "shift_close", "shift", closed.ID, detail)
	if closed.ClosedAt != nil {
		s.invalidateSummary(ctx, closed.ClosedAt.UTC().Format(domain.DateLayout))
	}

	return domain.ShiftResponse{Shift: *closed}, nil
}

// RecordShiftEntry posts a sale or expense against the currently open
// shift. There being no open shift is a conflict, not a missing resource:
// the caller's drawer state is stale.
func (s *Service) RecordShiftEntry(ctx context.Context, req domain.ShiftEntryRequest) (domain.ShiftEntryResponse, error) {
	open, err := s.repo.GetOpenShift(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ShiftEntryResponse{}, fmt.Errorf("no shift is open: %w", store.ErrConflict)
		}
		return domain.ShiftEntryResponse{}, err
	}

	entry, err := s.repo.AddShiftEntry(ctx, domain.ShiftEntry{
		ShiftID: open.ID,
		Kind:    strings.ToLower(strings.TrimSpace(req.Kind)),
		Amount:  req.Amount,
		Note:    strings.TrimSpace(req.Note),
	})
	if err != nil {
		return domain.ShiftEntryResponse{}, err
	}

	s.logAudit(ctx, "shift_entry_add", "shift", open.ID, fmt.Sprintf("kind=%s,amount=%s", entry.Kind, entry.Amount))

	return domain.ShiftEntryResponse{Entry: *entry}, nil
}

func (s *Service) CurrentShift(ctx context.Context) (domain.CurrentShiftResponse, error) {
	shift, err := s.repo.GetOpenShift(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.CurrentShiftResponse{Open: false}, nil
		}
		return domain.CurrentShiftResponse{}, err
	}
	return domain.CurrentShiftResponse{Open: true, Shift: shift}, nil
}

func (s *Service) ShiftHistory(ctx context.Context, limit int) (domain.ShiftListResponse, error) {
	shifts, err := s.repo.ListShifts(ctx, limit)
	if err != nil {
		return domain.ShiftListResponse{}, err
	}
	return domain.ShiftListResponse{Shifts: shifts}, nil
}

func (s *Service) ShiftEntries(ctx context.Context, shiftID int64) (domain.ShiftEntryListResponse, error) {
	entries, err := s.repo.ListShiftEntries(ctx, shiftID)
	if err != nil {
		return domain.ShiftEntryListResponse{}, err
	}
	return domain.ShiftEntryListResponse{ShiftID: shiftID, Entries: entries}, nil
}

func (s *Service) StockItems(ctx context.Context) (domain.StockItemListResponse, error) {
	items, err := s.repo.ListStockItems(ctx)
	if err != nil {
		return domain.StockItemListResponse{}, err
	}
	return domain.StockItemListResponse{Items: items}, nil
}

func (s *Service) CreateStockAdjustment(ctx context.Context, req domain.StockAdjustmentCreateRequest) (domain.StockAdjustmentResponse, error) {
	req.AdjustmentDate = strings.TrimSpace(req.AdjustmentDate)
	req.Reason = strings.TrimSpace(req.Reason)
	req.Notes = strings.TrimSpace(req.Notes)

	if req.AdjustmentDate == "" {
		return domain.StockAdjustmentResponse{}, fmt.Errorf("adjustment_date is required: %w", store.ErrValidation)
	}
	if _, err := time.Parse(domain.DateLayout, req.AdjustmentDate); err != nil {
		return domain.StockAdjustmentResponse{}, fmt.Errorf("adjustment_date %q is not YYYY-MM-DD: %w", req.AdjustmentDate, store.ErrValidation)
	}
	if req.Reason == "" {
		return domain.StockAdjustmentResponse{}, fmt.Errorf("reason is required: %w", store.ErrValidation)
	}
	if len(req.Items) == 0 {
		return domain.StockAdjustmentResponse{}, fmt.Errorf("at least one line is required: %w", store.ErrValidation)
	}

	lines := make([]domain.StockAdjustmentItem, 0, len(req.Items))
	for i, line := range req.Items {
		if line.MenuItemID < 1 {
			return domain.StockAdjustmentResponse{}, fmt.Errorf("line %d: menu_item_id is required: %w", i+1, store.ErrValidation)
		}
		mode, err := ledger.ParseMode(line.Mode)
		if err != nil {
			return domain.StockAdjustmentResponse{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		if err := ledger.CheckQuantity(mode, line.Quantity); err != nil {
			return domain.StockAdjustmentResponse{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		lines = append(lines, domain.StockAdjustmentItem{
			MenuItemID: line.MenuItemID,
			Mode:       string(mode),
			Quantity:   line.Quantity,
			Note:       strings.TrimSpace(line.Note),
		})
	}

	actor, _ := ActorFromContext(ctx)
	saved, err := s.repo.CreateStockAdjustment(ctx, domain.StockAdjustment{
		AdjustmentDate: req.AdjustmentDate,
		Reason:         req.Reason,
		Notes:          req.Notes,
		CreatedBy:      actor.Username,
		Items:          lines,
	})
	if err != nil {
		return domain.StockAdjustmentResponse{}, err
	}

	s.logAudit(ctx, "stock_adjustment_create", "stock_adjustment", saved.ID, fmt.Sprintf("reason=%s,lines=%d", saved.Reason, len(saved.Items)))
	s.invalidateSummary(ctx, saved.AdjustmentDate)

	return domain.StockAdjustmentResponse{Adjustment: *saved}, nil
}

func (s *Service) StockAdjustments(ctx context.Context) (domain.StockAdjustmentListResponse, error) {
	summaries, err := s.repo.ListStockAdjustments(ctx)
	if err != nil {
		return domain.StockAdjustmentListResponse{}, err
	}
	return domain.StockAdjustmentListResponse{Adjustments: summaries}, nil
}

// StockAdjustmentDetails returns the header and the lines exactly as they
// were recorded. Nothing here recomputes against today's stock.
func (s *Service) StockAdjustmentDetails(ctx context.Context, id int64) (domain.StockAdjustmentDetailResponse, error) {
	adjustment, err := s.repo.GetStockAdjustment(ctx, id)
	if err != nil {
		return domain.StockAdjustmentDetailResponse{}, err
	}

	header := *adjustment
	header.Items = nil
	return domain.StockAdjustmentDetailResponse{Adjustment: header, Items: adjustment.Items}, nil
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierCreateRequest) (domain.SupplierResponse, error) {
	saved, err := s.repo.CreateSupplier(ctx, domain.Supplier{
		Name:    strings.TrimSpace(req.Name),
		Phone:   strings.TrimSpace(req.Phone),
		Email:   strings.TrimSpace(req.Email),
		Address: strings.TrimSpace(req.Address),
		Notes:   strings.TrimSpace(req.Notes),
	})
	if err != nil {
		return domain.SupplierResponse{}, err
	}

	s.logAudit(ctx, "supplier_create", "supplier", saved.ID, fmt.Sprintf("name=%s", saved.Name))

	return domain.SupplierResponse{Supplier: *saved}, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id int64, req domain.SupplierUpdateRequest) (domain.SupplierResponse, error) {
	existing, err := s.repo.GetSupplier(ctx, id)
	if err != nil {
		return domain.SupplierResponse{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.SupplierResponse{}, fmt.Errorf("name must not be empty: %w", store.ErrValidation)
		}
		updated.Name = name
	}
	if req.Phone != nil {
		updated.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		updated.Email = strings.TrimSpace(*req.Email)
	}
	if req.Address != nil {
		updated.Address = strings.TrimSpace(*req.Address)
	}
	if req.Notes != nil {
		updated.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	saved, err := s.repo.UpdateSupplier(ctx, updated)
	if err != nil {
		return domain.SupplierResponse{}, err
	}

	s.logAudit(ctx, "supplier_update", "supplier", saved.ID, fmt.Sprintf("name=%s,active=%t", saved.Name, saved.Active))

	return domain.SupplierResponse{Supplier: *saved}, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id int64) (domain.SupplierDeleteResponse, error) {
	outcome, err := s.repo.DeleteSupplier(ctx, id)
	if err != nil {
		return domain.SupplierDeleteResponse{}, err
	}

	message := "supplier removed"
	if outcome == domain.SupplierOutcomeDeactivated {
		message = "supplier has purchase or payment history and was deactivated instead"
	}

	s.logAudit(ctx, "supplier_delete", "supplier", id, fmt.Sprintf("outcome=%s", outcome))

	return domain.SupplierDeleteResponse{Outcome: outcome, Message: message}, nil
}

func (s *Service) Suppliers(ctx context.Context, includeInactive bool) (domain.SupplierListResponse, error) {
	suppliers, err := s.repo.ListSuppliers(ctx, includeInactive)
	if err != nil {
		return domain.SupplierListResponse{}, err
	}
	return domain.SupplierListResponse{Suppliers: suppliers}, nil
}

func (s *Service) RecordSupplierPurchase(ctx context.Context, supplierID int64, req domain.SupplierPurchaseRequest) (domain.SupplierBalanceResponse, error) {
	actor, _ := ActorFromContext(ctx)

	saved, err := s.repo.AddSupplierPurchase(ctx, domain.SupplierPurchase{
		SupplierID:   supplierID,
		Reference:    strings.TrimSpace(req.Reference),
		PurchaseDate: strings.TrimSpace(req.PurchaseDate),
		Total:        req.Total,
		Note:         strings.TrimSpace(req.Note),
		CreatedBy:    actor.Username,
	})
	if err != nil {
		return domain.SupplierBalanceResponse{}, err
	}

	summary, err := s.repo.GetSupplierBalance(ctx, supplierID)
	if err != nil {
		return domain.SupplierBalanceResponse{}, err
	}

	s.logAudit(ctx, "supplier_purchase_add", "supplier", supplierID, fmt.Sprintf("purchase_id=%d,total=%s", saved.ID, saved.Total))
	s.invalidateSummary(ctx, saved.PurchaseDate)

	return domain.SupplierBalanceResponse{Summary: *summary}, nil
}

func (s *Service) RecordSupplierPayment(ctx context.Context, supplierID int64, req domain.SupplierPaymentRequest) (domain.SupplierBalanceResponse, error) {
	actor, _ := ActorFromContext(ctx)

	saved, err := s.repo.AddSupplierPayment(ctx, domain.SupplierPayment{
		SupplierID: supplierID,
		PurchaseID: req.PurchaseID,
		Amount:     req.Amount,
		Method:     strings.ToLower(strings.TrimSpace(req.Method)),
		Note:       strings.TrimSpace(req.Note),
		CreatedBy:  actor.Username,
	})
	if err != nil {
		return domain.SupplierBalanceResponse{}, err
	}

	summary, err := s.repo.GetSupplierBalance(ctx, supplierID)
	if err != nil {
		return domain.SupplierBalanceResponse{}, err
	}

	s.logAudit(ctx, "supplier_payment_add", "supplier", supplierID, fmt.Sprintf("payment_id=%d,amount=%s,method=%s", saved.ID, saved.Amount, saved.Method))
	s.invalidateSummary(ctx, saved.CreatedAt.UTC().Format(domain.DateLayout))

	return domain.SupplierBalanceResponse{Summary: *summary}, nil
}

func (s *Service) SupplierPurchases(ctx context.Context, supplierID int64) (domain.SupplierPurchaseListResponse, error) {
	purchases, err := s.repo.ListSupplierPurchases(ctx, supplierID)
	if err != nil {
		return domain.SupplierPurchaseListResponse{}, err
	}
	return domain.SupplierPurchaseListResponse{SupplierID: supplierID, Purchases: purchases}, nil
}

func (s *Service) SupplierPayments(ctx context.Context, supplierID int64) (domain.SupplierPaymentListResponse, error) {
	payments, err := s.repo.ListSupplierPayments(ctx, supplierID)
	if err != nil {
		return domain.SupplierPaymentListResponse{}, err
	}
	return domain.SupplierPaymentListResponse{SupplierID: supplierID, Payments: payments}, nil
}

func (s *Service) SupplierBalances(ctx context.Context, includeInactive bool) (domain.SupplierBalanceListResponse, error) {
	summaries, err := s.repo.ListSupplierBalances(ctx, includeInactive)
	if err != nil {
		return domain.SupplierBalanceListResponse{}, err
	}
	return domain.SupplierBalanceListResponse{Summaries: summaries}, nil
}

func (s *Service) DaySummary(ctx context.Context, date string) (domain.DaySummary, error) {
	summary, err := s.reports.DaySummary(ctx, date)
	if err != nil {
		return domain.DaySummary{}, err
	}
	return *summary, nil
}

func (s *Service) AuditLogs(ctx context.Context, limit int) (domain.AuditLogListResponse, error) {
	logs, err := s.repo.ListAuditLogs(ctx, limit)
	if err != nil {
		return domain.AuditLogListResponse{}, err
	}
	return domain.AuditLogListResponse{Logs: logs}, nil
}

func (s *Service) logAudit(ctx context.Context, action string, entity string, entityID int64, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		Actor:     actor.Username,
		ActorRole: actor.Role,
		Action:    action,
		Entity:    entity,
		EntityID:  strconv.FormatInt(entityID, 10),
		Detail:    detail,
		RequestID: RequestIDFromContext(ctx),
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("audit log write failed",
			zap.String("action", action),
			zap.String("entity", entity),
			zap.Int64("entity_id", entityID),
			zap.Error(err))
	}
}

// invalidateSummary drops the cached day summary for a date so the next
// read recomputes against the mutation that just landed.
func (s *Service) invalidateSummary(ctx context.Context, date string) {
	if s.reports == nil || date == "" {
		return
	}
	s.reports.Invalidate(ctx, date)
}
