package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"apotekpos/backend/internal/domain"
	"apotekpos/backend/internal/kitchen"
	"apotekpos/backend/internal/loyalty"
	"apotekpos/backend/internal/store"
	"apotekpos/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo           store.Repository
	loyalty        *loyalty.Engine
	kitchen        kitchen.Client
	taxRatePercent float64
}

func New(repo store.Repository, loyaltyEngine *loyalty.Engine, kitchenClient kitchen.Client, taxRatePercent float64) *Service {
	if kitchenClient == nil {
		kitchenClient = kitchen.NoopClient{}
	}
	if taxRatePercent < 0 || taxRatePercent > 100 {
		taxRatePercent = 0
	}

	return &Service{
		repo:           repo,
		loyalty:        loyaltyEngine,
		kitchen:        kitchenClient,
		taxRatePercent: taxRatePercent,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	if req.Name == "" || req.Category == "" {
		return domain.Product{}, store.ErrInvalidCheckout
	}
	if req.Price < 1 || req.InitialStock < 0 {
		return domain.Product{}, store.ErrInvalidCheckout
	}

	product := domain.Product{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Stock:    req.InitialStock,
		Active:   true,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	return *created, nil
}

func (s *Service) RegisterCustomer(ctx context.Context, req domain.CustomerRegisterRequest) (domain.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	if req.Type == "" {
		req.Type = domain.CustomerTypeMember
	}
	if req.Name == "" {
		return domain.Customer{}, store.ErrInvalidCheckout
	}
	if req.Type != domain.CustomerTypeMember && req.Type != domain.CustomerTypeVIP && req.Type != domain.CustomerTypeWalkIn {
		return domain.Customer{}, store.ErrInvalidCheckout
	}

	// New members start on the floor tier.
	floor, err := s.loyalty.TierFor(ctx, 0)
	if err != nil {
		return domain.Customer{}, err
	}

	customer := domain.Customer{
		ID:              xid.New("cust"),
		Name:            req.Name,
		Phone:           req.Phone,
		Type:            req.Type,
		MembershipLevel: floor.TierName,
		Discount:        floor.DiscountPercentage,
		Active:          true,
		CreatedAt:       time.Now().UTC(),
	}

	created, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		return domain.Customer{}, err
	}
	return *created, nil
}

func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	customer, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) ListCustomers(ctx context.Context, membersOnly bool) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx, membersOnly)
}

// Checkout settles a cart: authoritative pricing, member and voucher
// discounts, tax, the atomic stock-guarded persist, then best-effort
// post-commit work (spend counters, tier resync, kitchen fan-out).
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.Receipt, error) {
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if req.PaymentMethod == "" {
		return domain.Receipt{}, fmt.Errorf("%w: payment method required", store.ErrInvalidCheckout)
	}
	if !isSupportedPaymentMethod(req.PaymentMethod) {
		return domain.Receipt{}, store.ErrInvalidCheckout
	}

	normalized := normalizeItems(req.CartItems)
	if len(normalized) == 0 {
		return domain.Receipt{}, store.ErrInvalidCheckout
	}

	ids := make([]string, 0, len(normalized))
	for _, item := range normalized {
		ids = append(ids, item.ProductID)
	}
	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return domain.Receipt{}, err
	}

	subtotal := int64(0)
	for _, item := range normalized {
		product, exists := products[item.ProductID]
		if !exists {
			return domain.Receipt{}, fmt.Errorf("%w: product %s unavailable", store.ErrInvalidCheckout, item.ProductID)
		}
		subtotal += int64(item.Qty) * product.Price
	}

	var customer *domain.Customer
	if req.CustomerID != "" {
		customer, err = s.repo.GetCustomerByID(ctx, req.CustomerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.Receipt{}, fmt.Errorf("%w: customer %s unknown", store.ErrInvalidCheckout, req.CustomerID)
			}
			return domain.Receipt{}, err
		}
	}

	// Member and voucher discounts are additive, capped at subtotal.
	discount := int64(0)
	if customer != nil && customer.Discount > 0 {
		discount += int64(math.Round(float64(subtotal) * customer.Discount / 100))
	}
	if req.VoucherCode != "" {
		voucherDiscount, err := s.calculateVoucherDiscount(ctx, req.VoucherCode, subtotal)
		if err != nil {
			return domain.Receipt{}, err
		}
		discount += voucherDiscount
	}
	if discount > subtotal {
		discount = subtotal
	}

	taxBase := subtotal - discount
	tax := int64(math.Round(float64(taxBase) * s.taxRatePercent / 100))
	total := taxBase + tax

	if req.PaymentMethod == "cash" && req.PaidAmount < total {
		return domain.Receipt{}, fmt.Errorf("%w: paid %d, total %d", store.ErrInsufficientPayment, req.PaidAmount, total)
	}

	// Points use the tier held before this purchase.
	pointsEarned := int64(0)
	if customer != nil {
		pointsEarned, err = s.loyalty.PointsEarned(ctx, *customer, total)
		if err != nil {
			return domain.Receipt{}, err
		}
	}

	actor, _ := ActorFromContext(ctx)

	lineItems := make([]domain.TransactionItem, 0, len(normalized))
	for _, item := range normalized {
		lineItems = append(lineItems, domain.TransactionItem{ProductID: item.ProductID, Qty: item.Qty})
	}

	tx := domain.Transaction{
		ID:            xid.New("tx"),
		ShiftID:       req.ShiftID,
		CustomerID:    req.CustomerID,
		CashierID:     actor.Username,
		VoucherCode:   strings.ToUpper(strings.TrimSpace(req.VoucherCode)),
		Discount:      discount,
		Tax:           tax,
		PaymentMethod: req.PaymentMethod,
		PaidAmount:    req.PaidAmount,
		PointsEarned:  pointsEarned,
		Status:        domain.TxStatusCompleted,
		CreatedAt:     time.Now().UTC(),
		Items:         lineItems,
	}

	created, err := s.repo.CreateCheckout(ctx, tx)
	if err != nil {
		return domain.Receipt{}, err
	}

	// Post-commit work must not undo the settled transaction.
	if customer != nil {
		if err := s.repo.IncrementCustomerSpend(ctx, customer.ID, created.Total); err != nil {
			log.Printf("[service] WARN: failed to update spend counters customer=%s tx=%s: %v", customer.ID, created.ID, err)
		} else if _, err := s.loyalty.ResyncTier(ctx, customer.ID); err != nil {
			log.Printf("[service] WARN: failed to resync tier customer=%s tx=%s: %v", customer.ID, created.ID, err)
		}
	}

	s.fanOutKitchenTicket(*created, products)

	return toReceipt(created), nil
}

// fanOutKitchenTicket sends food and beverage lines to the kitchen module.
// Fire-and-forget: failures are logged and never affect the settled checkout.
func (s *Service) fanOutKitchenTicket(tx domain.Transaction, products map[string]domain.Product) {
	ticketItems := make([]domain.TransactionItem, 0, len(tx.Items))
	for _, item := range tx.Items {
		product, exists := products[item.ProductID]
		if !exists {
			continue
		}
		if product.Category == "food" || product.Category == "beverage" {
			ticketItems = append(ticketItems, item)
		}
	}
	if len(ticketItems) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		ticket := domain.KitchenTicket{
			SourceTransactionID: tx.ID,
			Items:               ticketItems,
		}
		if err := s.kitchen.CreateTicket(ctx, ticket); err != nil {
			log.Printf("[kitchen] WARN: failed to deliver ticket tx=%s items=%d: %v", tx.ID, len(ticketItems), err)
		}
	}()
}

func (s *Service) GetTransaction(ctx context.Context, id string) (domain.Receipt, error) {
	tx, err := s.repo.FindTransactionByID(ctx, id)
	if err != nil {
		return domain.Receipt{}, err
	}
	return toReceipt(tx), nil
}

func (s *Service) GetTransactionByNumber(ctx context.Context, number string) (domain.Receipt, error) {
	tx, err := s.repo.FindTransactionByNumber(ctx, strings.TrimSpace(number))
	if err != nil {
		return domain.Receipt{}, err
	}
	return toReceipt(tx), nil
}

func (s *Service) VoidTransaction(ctx context.Context, req domain.VoidTransactionRequest) (domain.VoidTransactionResponse, error) {
	if req.TransactionID == "" {
		return domain.VoidTransactionResponse{}, store.ErrInvalidCheckout
	}
	if req.Reason == "" {
		req.Reason = "unspecified"
	}

	voidedAt := time.Now().UTC()
	tx, err := s.repo.VoidTransaction(ctx, req.TransactionID, req.Reason, voidedAt)
	if err != nil {
		return domain.VoidTransactionResponse{}, err
	}

	return domain.VoidTransactionResponse{
		TransactionID: tx.ID,
		Status:        tx.Status,
		VoidedAt:      voidedAt.Format(time.RFC3339),
	}, nil
}

func (s *Service) OpenShift(ctx context.Context, req domain.ShiftOpenRequest) (domain.ShiftResponse, error) {
	req.ShiftName = strings.ToLower(strings.TrimSpace(req.ShiftName))
	if !domain.IsValidShiftName(req.ShiftName) {
		return domain.ShiftResponse{}, store.ErrInvalidCheckout
	}
	if req.InitialCashAmount < 0 {
		return domain.ShiftResponse{}, store.ErrInvalidCheckout
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.ShiftResponse{}, fmt.Errorf("authenticated cashier required")
	}

	now := time.Now().UTC()
	shift := domain.Shift{
		ID:                xid.New("shift"),
		ShiftName:         req.ShiftName,
		ShiftDate:         now.Format("2006-01-02"),
		OpenedBy:          actor.Username,
		OpenedAt:          now,
		InitialCashAmount: req.InitialCashAmount,
		Status:            domain.ShiftStatusOpen,
	}
	saved, err := s.repo.CreateShift(ctx, shift)
	if err != nil {
		return domain.ShiftResponse{}, err
	}

	return domain.ShiftResponse{Shift: *saved}, nil
}

func (s *Service) GetShift(ctx context.Context, id string) (domain.ShiftResponse, error) {
	shift, err := s.repo.GetShiftByID(ctx, id)
	if err != nil {
		return domain.ShiftResponse{}, err
	}
	return domain.ShiftResponse{Shift: *shift}, nil
}

func (s *Service) ListShifts(ctx context.Context, date string) ([]domain.Shift, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, store.ErrInvalidCheckout
	}
	return s.repo.ListShiftsByDate(ctx, date)
}

// RecordHandover logs a mid-shift cash transfer between cashiers. The shift
// stays open; only closing runs the reconciliation arithmetic.
func (s *Service) RecordHandover(ctx context.Context, shiftID string, req domain.ShiftHandoverRequest) (domain.ShiftHandoverResponse, error) {
	req.HandoverTo = strings.TrimSpace(req.HandoverTo)
	if shiftID == "" || req.HandoverTo == "" || req.FinalCashAmount < 0 {
		return domain.ShiftHandoverResponse{}, store.ErrInvalidCheckout
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.ShiftHandoverResponse{}, fmt.Errorf("authenticated cashier required")
	}
	if actor.Username == req.HandoverTo {
		return domain.ShiftHandoverResponse{}, fmt.Errorf("%w: cannot hand over to self", store.ErrInvalidCheckout)
	}

	handover := domain.ShiftHandover{
		ID:              xid.New("ho"),
		ShiftID:         shiftID,
		HandoverFrom:    actor.Username,
		HandoverTo:      req.HandoverTo,
		HandoverAt:      time.Now().UTC(),
		FinalCashAmount: req.FinalCashAmount,
		Notes:           strings.TrimSpace(req.Notes),
		Status:          domain.HandoverStatusCompleted,
	}

	saved, err := s.repo.CreateShiftHandover(ctx, handover)
	if err != nil {
		return domain.ShiftHandoverResponse{}, err
	}
	return domain.ShiftHandoverResponse{Handover: *saved}, nil
}

func (s *Service) ListHandovers(ctx context.Context, shiftID string) ([]domain.ShiftHandover, error) {
	if shiftID == "" {
		return nil, store.ErrInvalidCheckout
	}
	return s.repo.ListShiftHandovers(ctx, shiftID)
}

func (s *Service) CloseShift(ctx context.Context, shiftID string, req domain.ShiftCloseRequest) (domain.ShiftResponse, error) {
	if shiftID == "" || req.FinalCashAmount < 0 {
		return domain.ShiftResponse{}, store.ErrInvalidCheckout
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.ShiftResponse{}, fmt.Errorf("authenticated cashier required")
	}

	closed, err := s.repo.CloseShift(ctx, shiftID, req.FinalCashAmount, actor.Username, strings.TrimSpace(req.Notes), time.Now().UTC())
	if err != nil {
		return domain.ShiftResponse{}, err
	}

	if closed.CashDifference != nil && *closed.CashDifference != 0 {
		log.Printf("[shift] WARN: cash difference on close shift=%s expected=%d counted=%d diff=%d",
			closed.ID, *closed.ExpectedCashAmount, *closed.FinalCashAmount, *closed.CashDifference)
	}

	return domain.ShiftResponse{Shift: *closed}, nil
}

func (s *Service) ListTiers(ctx context.Context) ([]domain.LoyaltyTier, error) {
	return s.loyalty.Catalog(ctx)
}

func (s *Service) CreateTier(ctx context.Context, req domain.TierCreateRequest) (domain.LoyaltyTier, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.LoyaltyTier{}, fmt.Errorf("admin role required")
	}

	req.TierName = strings.TrimSpace(req.TierName)
	if req.TierName == "" || req.TierLevel < 1 {
		return domain.LoyaltyTier{}, store.ErrInvalidCheckout
	}
	if req.MinSpending < 0 || req.PointMultiplier < 0 || req.DiscountPercentage < 0 || req.DiscountPercentage > 100 {
		return domain.LoyaltyTier{}, store.ErrInvalidCheckout
	}

	tier := domain.LoyaltyTier{
		ID:                 xid.New("tier"),
		TierName:           req.TierName,
		TierLevel:          req.TierLevel,
		MinSpending:        req.MinSpending,
		PointMultiplier:    req.PointMultiplier,
		DiscountPercentage: req.DiscountPercentage,
		IsActive:           true,
		CreatedAt:          time.Now().UTC(),
	}

	saved, err := s.repo.CreateTier(ctx, tier)
	if err != nil {
		return domain.LoyaltyTier{}, err
	}
	s.loyalty.InvalidateCatalog(ctx)

	return *saved, nil
}

func (s *Service) SyncCustomerTier(ctx context.Context, customerID string) (domain.TierSyncResult, error) {
	if customerID == "" {
		return domain.TierSyncResult{}, store.ErrInvalidCheckout
	}
	return s.loyalty.ResyncTier(ctx, customerID)
}

func (s *Service) AutoUpgradeTiers(ctx context.Context) (domain.BulkTierSyncResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.BulkTierSyncResponse{}, fmt.Errorf("admin role required")
	}
	return s.loyalty.BulkResync(ctx)
}

func (s *Service) CreateVoucher(ctx context.Context, req domain.VoucherCreateRequest) (domain.Voucher, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Voucher{}, fmt.Errorf("admin role required")
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	if req.Code == "" || req.MinPurchase < 0 {
		return domain.Voucher{}, store.ErrInvalidCheckout
	}
	switch req.Type {
	case domain.VoucherTypePercentage:
		if req.Percent <= 0 || req.Percent > 100 {
			return domain.Voucher{}, store.ErrInvalidCheckout
		}
	case domain.VoucherTypeFixed:
		if req.FixedAmount <= 0 {
			return domain.Voucher{}, store.ErrInvalidCheckout
		}
	default:
		return domain.Voucher{}, store.ErrInvalidCheckout
	}

	voucher := domain.Voucher{
		ID:          xid.New("vch"),
		Code:        req.Code,
		Type:        req.Type,
		Percent:     req.Percent,
		FixedAmount: req.FixedAmount,
		MinPurchase: req.MinPurchase,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}

	saved, err := s.repo.CreateVoucher(ctx, voucher)
	if err != nil {
		return domain.Voucher{}, err
	}
	return *saved, nil
}

func (s *Service) ListVouchers(ctx context.Context) ([]domain.Voucher, error) {
	return s.repo.ListVouchers(ctx)
}

func (s *Service) SetVoucherActive(ctx context.Context, voucherID string, active bool) (domain.Voucher, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Voucher{}, fmt.Errorf("admin role required")
	}

	voucher, err := s.repo.SetVoucherActive(ctx, voucherID, active)
	if err != nil {
		return domain.Voucher{}, err
	}
	return *voucher, nil
}

func (s *Service) DailyReport(ctx context.Context, date string) (domain.DailyReport, error) {
	var day time.Time
	if strings.TrimSpace(date) == "" {
		now := time.Now().UTC()
		day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return domain.DailyReport{}, store.ErrInvalidCheckout
		}
		day = parsed.UTC()
	}
	from := day
	to := from.Add(24 * time.Hour)

	report, err := s.repo.GetDailyReport(ctx, from, to)
	if err != nil {
		return domain.DailyReport{}, err
	}
	report.Date = from.Format("2006-01-02")
	return report, nil
}

func (s *Service) BuildHardwareReceipt(ctx context.Context, req domain.HardwareReceiptRequest) (domain.HardwareReceiptResponse, error) {
	req.TransactionID = strings.TrimSpace(req.TransactionID)
	if req.TransactionID == "" {
		return domain.HardwareReceiptResponse{}, store.ErrInvalidCheckout
	}
	tx, err := s.repo.FindTransactionByID(ctx, req.TransactionID)
	if err != nil {
		return domain.HardwareReceiptResponse{}, err
	}

	lines := []string{
		"ApotekPOS",
		"========================",
		"No : " + tx.TransactionNumber,
		"TX : " + tx.ID,
		"Date: " + tx.CreatedAt.Format("2006-01-02 15:04:05"),
		"------------------------",
	}
	for _, item := range tx.Items {
		lines = append(lines, fmt.Sprintf("%s x%d", item.ProductID, item.Qty))
		lines = append(lines, fmt.Sprintf("  %d", item.Subtotal))
	}
	lines = append(lines,
		"------------------------",
		fmt.Sprintf("Subtotal : %d", tx.Subtotal),
		fmt.Sprintf("Diskon   : %d", tx.Discount),
		fmt.Sprintf("Pajak    : %d", tx.Tax),
		fmt.Sprintf("Total    : %d", tx.Total),
		fmt.Sprintf("Bayar    : %d", tx.PaidAmount),
		fmt.Sprintf("Kembali  : %d", tx.ChangeAmount),
	)
	if tx.PointsEarned > 0 {
		lines = append(lines, fmt.Sprintf("Poin     : %d", tx.PointsEarned))
	}
	lines = append(lines,
		"========================",
		"Terima kasih",
		"",
	)

	escpos := []byte{0x1b, 0x40}
	for _, line := range lines {
		escpos = append(escpos, []byte(line)...)
		escpos = append(escpos, '\n')
	}
	escpos = append(escpos, []byte{0x1d, 0x56, 0x41, 0x10}...)

	return domain.HardwareReceiptResponse{
		TransactionID: tx.ID,
		EscposBase64:  base64.StdEncoding.EncodeToString(escpos),
		PreviewText:   strings.Join(lines, "\n"),
		FileName:      fmt.Sprintf("receipt-%s.bin", tx.ID),
	}, nil
}

func (s *Service) calculateVoucherDiscount(ctx context.Context, code string, subtotal int64) (int64, error) {
	voucher, err := s.repo.GetVoucherByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, fmt.Errorf("%w: voucher %s unknown", store.ErrInvalidCheckout, code)
		}
		return 0, err
	}
	if !voucher.Active {
		return 0, fmt.Errorf("%w: voucher %s inactive", store.ErrInvalidCheckout, voucher.Code)
	}
	if subtotal < voucher.MinPurchase {
		return 0, fmt.Errorf("%w: voucher %s requires minimum purchase %d", store.ErrInvalidCheckout, voucher.Code, voucher.MinPurchase)
	}

	discount := int64(0)
	switch voucher.Type {
	case domain.VoucherTypePercentage:
		discount = int64(math.Round(float64(subtotal) * voucher.Percent / 100))
	case domain.VoucherTypeFixed:
		discount = voucher.FixedAmount
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount, nil
}

func toReceipt(tx *domain.Transaction) domain.Receipt {
	itemCount := 0
	for _, item := range tx.Items {
		itemCount += item.Qty
	}

	return domain.Receipt{
		TransactionID:     tx.ID,
		TransactionNumber: tx.TransactionNumber,
		Status:            tx.Status,
		PaymentMethod:     tx.PaymentMethod,
		Subtotal:          tx.Subtotal,
		Discount:          tx.Discount,
		Tax:               tx.Tax,
		Total:             tx.Total,
		PaidAmount:        tx.PaidAmount,
		ChangeAmount:      tx.ChangeAmount,
		PointsEarned:      tx.PointsEarned,
		ItemCount:         itemCount,
		ShiftID:           tx.ShiftID,
		CustomerID:        tx.CustomerID,
		Items:             tx.Items,
		CreatedAt:         tx.CreatedAt.Format(time.RFC3339),
	}
}

func normalizeItems(items []domain.CartItem) []domain.CartItem {
	agg := make(map[string]int, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" || item.Qty < 1 {
			continue
		}
		if _, seen := agg[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		agg[item.ProductID] += item.Qty
	}

	normalized := make([]domain.CartItem, 0, len(agg))
	for _, id := range order {
		normalized = append(normalized, domain.CartItem{ProductID: id, Qty: agg[id]})
	}
	return normalized
}

func isSupportedPaymentMethod(method string) bool {
	switch method {
	case "cash", "card", "qris", "ewallet":
		return true
	default:
		return false
	}
}
