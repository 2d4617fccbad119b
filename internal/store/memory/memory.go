package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"apotekpos/backend/internal/domain"
	"apotekpos/backend/internal/store"
	"apotekpos/backend/internal/xid"
)

type Store struct {
	mu               sync.RWMutex
	products         map[string]domain.Product
	customersByID    map[string]domain.Customer
	tiersByID        map[string]domain.LoyaltyTier
	vouchersByID     map[string]domain.Voucher
	transactionsByID map[string]*domain.Transaction
	txByNumber       map[string]*domain.Transaction
	shiftsByID       map[string]domain.Shift
	handoversByShift map[string][]domain.ShiftHandover
	dailyTxCounters  map[string]int
	usersByUsername  map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		products:         make(map[string]domain.Product),
		customersByID:    make(map[string]domain.Customer),
		tiersByID:        make(map[string]domain.LoyaltyTier),
		vouchersByID:     make(map[string]domain.Voucher),
		transactionsByID: make(map[string]*domain.Transaction),
		txByNumber:       make(map[string]*domain.Transaction),
		shiftsByID:       make(map[string]domain.Shift),
		handoversByShift: make(map[string][]domain.ShiftHandover),
		dailyTxCounters:  make(map[string]int),
		usersByUsername:  make(map[string]domain.UserAccount),
	}
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
	s := New()
	now := time.Now().UTC()

	products := []domain.Product{
		{ID: "MED-PARA-01", Name: "Paracetamol 500mg Strip", Category: "otc", Price: 8500, Stock: 120},
		{ID: "MED-AMOX-01", Name: "Amoxicillin 500mg Strip", Category: "prescription", Price: 14500, Stock: 80},
		{ID: "MED-OBH-01", Name: "OBH Sirup 100ml", Category: "otc", Price: 18900, Stock: 60},
		{ID: "VIT-C-01", Name: "Vitamin C 1000mg Tube", Category: "supplement", Price: 32000, Stock: 45},
		{ID: "VIT-D-01", Name: "Vitamin D3 1000IU Botol", Category: "supplement", Price: 54000, Stock: 30},
		{ID: "CARE-MASK-01", Name: "Masker Medis 50pcs", Category: "care", Price: 27500, Stock: 90},
		{ID: "CARE-HS-01", Name: "Hand Sanitizer 100ml", Category: "care", Price: 15800, Stock: 70},
		{ID: "FNB-TEH-01", Name: "Teh Jahe Hangat", Category: "beverage", Price: 10000, Stock: 200},
		{ID: "FNB-BUBUR-01", Name: "Bubur Ayam Sehat", Category: "food", Price: 22000, Stock: 50},
	}
	for _, p := range products {
		p.Active = true
		p.CreatedAt = now
		s.products[p.ID] = p
	}

	tiers := []domain.LoyaltyTier{
		{ID: "tier-silver", TierName: "Silver", TierLevel: 1, MinSpending: 0, PointMultiplier: 1.0, DiscountPercentage: 0},
		{ID: "tier-gold", TierName: "Gold", TierLevel: 2, MinSpending: 2_000_000, PointMultiplier: 1.5, DiscountPercentage: 5},
		{ID: "tier-platinum", TierName: "Platinum", TierLevel: 3, MinSpending: 10_000_000, PointMultiplier: 2.0, DiscountPercentage: 10},
	}
	for _, tier := range tiers {
		tier.IsActive = true
		tier.CreatedAt = now
		s.tiersByID[tier.ID] = tier
	}

	customers := []domain.Customer{
		{ID: "cust-budi", Name: "Budi Santoso", Phone: "081234567001", Type: domain.CustomerTypeMember, MembershipLevel: "Silver", Discount: 0, Points: 120, TotalSpent: 1_900_000, TotalPurchases: 14},
		{ID: "cust-sari", Name: "Sari Wulandari", Phone: "081234567002", Type: domain.CustomerTypeVIP, MembershipLevel: "Gold", Discount: 5, Points: 860, TotalSpent: 4_250_000, TotalPurchases: 31},
	}
	for _, c := range customers {
		c.Active = true
		c.CreatedAt = now
		s.customersByID[c.ID] = c
	}

	vouchers := []domain.Voucher{
		{ID: "vch-hemat10", Code: "HEMAT10", Type: domain.VoucherTypePercentage, Percent: 10, MinPurchase: 50_000},
		{ID: "vch-potong5k", Code: "POTONG5K", Type: domain.VoucherTypeFixed, FixedAmount: 5_000, MinPurchase: 20_000},
	}
	for _, v := range vouchers {
		v.Active = true
		v.CreatedAt = now
		s.vouchersByID[v.ID] = v
	}

	s.usersByUsername = seedUsers()
	return s
}

func (m *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		if p.Active {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Category == products[j].Category {
			return products[i].Name < products[j].Name
		}
		return products[i].Category < products[j].Category
	})
	return products, nil
}

func (m *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.Price < 1 || product.Stock < 0 {
		return nil, store.ErrInvalidCheckout
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	product.Active = true
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.products[product.ID]; exists {
		return nil, store.ErrInvalidCheckout
	}
	m.products[product.ID] = product
	created := product
	return &created, nil
}

func (m *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	product, ok := m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := product
	return &found, nil
}

func (m *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := m.products[id]; ok && product.Active {
			result[id] = product
		}
	}
	return result, nil
}

func (m *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, store.ErrInvalidCheckout
	}
	if customer.ID == "" {
		customer.ID = xid.New("cust")
	}
	customer.Active = true
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.customersByID[customer.ID] = customer
	created := customer
	return &created, nil
}

func (m *Store) GetCustomerByID(_ context.Context, id string) (*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	customer, ok := m.customersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := customer
	return &found, nil
}

func (m *Store) ListCustomers(_ context.Context, membersOnly bool) ([]domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(m.customersByID))
	for _, c := range m.customersByID {
		if !c.Active {
			continue
		}
		if membersOnly && c.Type == domain.CustomerTypeWalkIn {
			continue
		}
		customers = append(customers, c)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].Name < customers[j].Name })
	return customers, nil
}

func (m *Store) UpdateCustomerTier(_ context.Context, customerID string, membershipLevel string, discount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	customer, ok := m.customersByID[customerID]
	if !ok {
		return store.ErrNotFound
	}
	customer.MembershipLevel = membershipLevel
	customer.Discount = discount
	m.customersByID[customerID] = customer
	return nil
}

func (m *Store) IncrementCustomerSpend(_ context.Context, customerID string, amount int64) error {
	if amount < 0 {
		return store.ErrInvalidCheckout
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	customer, ok := m.customersByID[customerID]
	if !ok {
		return store.ErrNotFound
	}
	customer.TotalSpent += amount
	customer.TotalPurchases++
	m.customersByID[customerID] = customer
	return nil
}

func (m *Store) ListActiveTiers(_ context.Context) ([]domain.LoyaltyTier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tiers := make([]domain.LoyaltyTier, 0, len(m.tiersByID))
	for _, tier := range m.tiersByID {
		if tier.IsActive {
			tiers = append(tiers, tier)
		}
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].TierLevel < tiers[j].TierLevel })
	return tiers, nil
}

func (m *Store) CreateTier(_ context.Context, tier domain.LoyaltyTier) (*domain.LoyaltyTier, error) {
	if tier.TierName == "" || tier.TierLevel < 1 || tier.MinSpending < 0 || tier.PointMultiplier < 0 {
		return nil, store.ErrInvalidCheckout
	}
	if tier.ID == "" {
		tier.ID = xid.New("tier")
	}
	tier.IsActive = true
	if tier.CreatedAt.IsZero() {
		tier.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tiersByID {
		if existing.TierName == tier.TierName && existing.IsActive {
			return nil, store.ErrInvalidCheckout
		}
	}
	m.tiersByID[tier.ID] = tier
	created := tier
	return &created, nil
}

func (m *Store) GetVoucherByCode(_ context.Context, code string) (*domain.Voucher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, voucher := range m.vouchersByID {
		if strings.EqualFold(voucher.Code, code) {
			found := voucher
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Store) CreateVoucher(_ context.Context, voucher domain.Voucher) (*domain.Voucher, error) {
	if voucher.Code == "" {
		return nil, store.ErrInvalidCheckout
	}
	if voucher.ID == "" {
		voucher.ID = xid.New("vch")
	}
	voucher.Active = true
	if voucher.CreatedAt.IsZero() {
		voucher.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.vouchersByID {
		if strings.EqualFold(existing.Code, voucher.Code) {
			return nil, store.ErrInvalidCheckout
		}
	}
	m.vouchersByID[voucher.ID] = voucher
	created := voucher
	return &created, nil
}

func (m *Store) ListVouchers(_ context.Context) ([]domain.Voucher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	vouchers := make([]domain.Voucher, 0, len(m.vouchersByID))
	for _, v := range m.vouchersByID {
		vouchers = append(vouchers, v)
	}
	sort.Slice(vouchers, func(i, j int) bool { return vouchers[i].Code < vouchers[j].Code })
	return vouchers, nil
}

func (m *Store) SetVoucherActive(_ context.Context, voucherID string, active bool) (*domain.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	voucher, ok := m.vouchersByID[voucherID]
	if !ok {
		return nil, store.ErrNotFound
	}
	voucher.Active = active
	m.vouchersByID[voucherID] = voucher
	updated := voucher
	return &updated, nil
}

// CreateCheckout applies the whole settlement mutation under one lock:
// guarded stock decrements, authoritative money recomputation, day-scoped
// transaction numbering and point accrual either all land or none do.
func (m *Store) CreateCheckout(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if len(tx.Items) == 0 || tx.PaymentMethod == "" {
		return nil, store.ErrInvalidCheckout
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate every line before mutating anything: all-or-nothing.
	subtotal := int64(0)
	recomputed := make([]domain.TransactionItem, 0, len(tx.Items))
	for _, item := range tx.Items {
		if item.Qty < 1 {
			return nil, store.ErrInvalidCheckout
		}
		product, ok := m.products[item.ProductID]
		if !ok || !product.Active {
			return nil, fmt.Errorf("%w: product %s unavailable", store.ErrInvalidCheckout, item.ProductID)
		}
		if product.Stock < item.Qty {
			return nil, fmt.Errorf("%w: product %s (requested %d, available %d)", store.ErrInsufficientStock, item.ProductID, item.Qty, product.Stock)
		}
		lineSubtotal := int64(item.Qty)*product.Price - item.Discount
		recomputed = append(recomputed, domain.TransactionItem{
			ProductID: item.ProductID,
			Qty:       item.Qty,
			UnitPrice: product.Price,
			Discount:  item.Discount,
			Subtotal:  lineSubtotal,
		})
		subtotal += lineSubtotal
	}

	if tx.Discount < 0 || tx.Discount > subtotal || tx.Tax < 0 {
		return nil, store.ErrInvalidCheckout
	}
	total := subtotal - tx.Discount + tx.Tax

	if tx.PaymentMethod == "cash" {
		if tx.PaidAmount < total {
			return nil, fmt.Errorf("%w: paid %d, total %d", store.ErrInsufficientPayment, tx.PaidAmount, total)
		}
		tx.ChangeAmount = tx.PaidAmount - total
	} else {
		tx.PaidAmount = total
		tx.ChangeAmount = 0
	}

	var customer domain.Customer
	hasCustomer := false
	if tx.CustomerID != "" {
		var ok bool
		customer, ok = m.customersByID[tx.CustomerID]
		if !ok {
			return nil, fmt.Errorf("%w: customer %s unknown", store.ErrInvalidCheckout, tx.CustomerID)
		}
		hasCustomer = true
	}

	if tx.ShiftID != "" {
		shift, ok := m.shiftsByID[tx.ShiftID]
		if !ok {
			return nil, fmt.Errorf("%w: shift %s unknown", store.ErrInvalidCheckout, tx.ShiftID)
		}
		if shift.Status != domain.ShiftStatusOpen {
			return nil, store.ErrShiftClosed
		}
	}

	// Validation passed; mutate.
	for _, item := range recomputed {
		product := m.products[item.ProductID]
		product.Stock -= item.Qty
		m.products[item.ProductID] = product
	}

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	day := tx.CreatedAt.Format("20060102")
	m.dailyTxCounters[day]++
	tx.TransactionNumber = fmt.Sprintf("TRX%s%04d", day, m.dailyTxCounters[day])

	tx.Subtotal = subtotal
	tx.Total = total
	tx.Items = recomputed
	if tx.ID == "" {
		tx.ID = xid.New("tx")
	}
	if tx.Status == "" {
		tx.Status = domain.TxStatusCompleted
	}

	if hasCustomer && tx.PointsEarned > 0 {
		customer.Points += tx.PointsEarned
		m.customersByID[customer.ID] = customer
	}

	stored := tx
	m.transactionsByID[stored.ID] = &stored
	m.txByNumber[stored.TransactionNumber] = &stored

	result := stored
	return &result, nil
}

func (m *Store) FindTransactionByID(_ context.Context, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.transactionsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := *tx
	return &found, nil
}

func (m *Store) FindTransactionByNumber(_ context.Context, number string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.txByNumber[number]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := *tx
	return &found, nil
}

func (m *Store) VoidTransaction(_ context.Context, id string, reason string, at time.Time) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.transactionsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if tx.Status == domain.TxStatusVoided {
		return nil, store.ErrAlreadyVoided
	}
	if tx.Status != domain.TxStatusCompleted {
		return nil, store.ErrInvalidCheckout
	}

	for _, item := range tx.Items {
		product, exists := m.products[item.ProductID]
		if !exists {
			return nil, store.ErrNotFound
		}
		product.Stock += item.Qty
		m.products[item.ProductID] = product
	}

	tx.Status = domain.TxStatusVoided
	tx.VoidReason = reason
	voidedAt := at
	tx.VoidedAt = &voidedAt

	result := *tx
	return &result, nil
}

func (m *Store) CreateShift(_ context.Context, shift domain.Shift) (*domain.Shift, error) {
	if shift.ShiftName == "" || shift.OpenedBy == "" || shift.InitialCashAmount < 0 {
		return nil, store.ErrInvalidCheckout
	}
	if shift.ID == "" {
		shift.ID = xid.New("shift")
	}
	if shift.OpenedAt.IsZero() {
		shift.OpenedAt = time.Now().UTC()
	}
	if shift.ShiftDate == "" {
		shift.ShiftDate = shift.OpenedAt.Format("2006-01-02")
	}
	shift.Status = domain.ShiftStatusOpen

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.shiftsByID {
		if existing.ShiftName == shift.ShiftName && existing.ShiftDate == shift.ShiftDate && existing.Status == domain.ShiftStatusOpen {
			return nil, store.ErrDuplicateShift
		}
	}

	m.shiftsByID[shift.ID] = shift
	created := shift
	return &created, nil
}

func (m *Store) GetShiftByID(_ context.Context, id string) (*domain.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	shift, ok := m.shiftsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := shift
	return &found, nil
}

func (m *Store) ListShiftsByDate(_ context.Context, date string) ([]domain.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	shifts := make([]domain.Shift, 0, 4)
	for _, shift := range m.shiftsByID {
		if shift.ShiftDate == date {
			shifts = append(shifts, shift)
		}
	}
	sort.Slice(shifts, func(i, j int) bool { return shifts[i].OpenedAt.Before(shifts[j].OpenedAt) })
	return shifts, nil
}

func (m *Store) CloseShift(_ context.Context, shiftID string, finalCashAmount int64, closedBy string, notes string, closedAt time.Time) (*domain.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	shift, ok := m.shiftsByID[shiftID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if shift.Status == domain.ShiftStatusClosed {
		return nil, store.ErrShiftClosed
	}

	totalSales := int64(0)
	totalTransactions := 0
	for _, tx := range m.transactionsByID {
		if tx.ShiftID == shiftID && tx.Status == domain.TxStatusCompleted {
			totalSales += tx.Total
			totalTransactions++
		}
	}

	expected := shift.InitialCashAmount + totalSales
	difference := finalCashAmount - expected

	shift.Status = domain.ShiftStatusClosed
	shift.ClosedBy = closedBy
	at := closedAt
	shift.ClosedAt = &at
	shift.TotalSales = totalSales
	shift.TotalTransactions = totalTransactions
	shift.FinalCashAmount = &finalCashAmount
	shift.ExpectedCashAmount = &expected
	shift.CashDifference = &difference
	shift.Notes = notes

	m.shiftsByID[shiftID] = shift
	closed := shift
	return &closed, nil
}

func (m *Store) CreateShiftHandover(_ context.Context, handover domain.ShiftHandover) (*domain.ShiftHandover, error) {
	if handover.ShiftID == "" || handover.HandoverFrom == "" || handover.HandoverTo == "" {
		return nil, store.ErrInvalidCheckout
	}
	if handover.ID == "" {
		handover.ID = xid.New("ho")
	}
	if handover.HandoverAt.IsZero() {
		handover.HandoverAt = time.Now().UTC()
	}
	if handover.Status == "" {
		handover.Status = domain.HandoverStatusPending
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	shift, ok := m.shiftsByID[handover.ShiftID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if shift.Status != domain.ShiftStatusOpen {
		return nil, store.ErrShiftClosed
	}

	m.handoversByShift[handover.ShiftID] = append(m.handoversByShift[handover.ShiftID], handover)
	created := handover
	return &created, nil
}

func (m *Store) ListShiftHandovers(_ context.Context, shiftID string) ([]domain.ShiftHandover, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	handovers := m.handoversByShift[shiftID]
	result := make([]domain.ShiftHandover, len(handovers))
	copy(result, handovers)
	return result, nil
}

func (m *Store) GetDailyReport(_ context.Context, from time.Time, to time.Time) (domain.DailyReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report := domain.DailyReport{Date: from.Format("2006-01-02")}
	for _, tx := range m.transactionsByID {
		if tx.CreatedAt.Before(from) || !tx.CreatedAt.Before(to) {
			continue
		}
		if tx.Status == domain.TxStatusVoided {
			report.VoidedCount++
			continue
		}
		if tx.Status != domain.TxStatusCompleted {
			continue
		}
		report.Transactions++
		report.GrossSales += tx.Subtotal
		report.Discount += tx.Discount
		report.Tax += tx.Tax
		report.NetSales += tx.Total
		report.PointsEarnedTotal += tx.PointsEarned
	}
	return report, nil
}

func (m *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidCheckout
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.usersByUsername[user.Username]; exists {
		return store.ErrInvalidCheckout
	}
	m.usersByUsername[user.Username] = user
	return nil
}

func (m *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(m.usersByUsername))
	for _, user := range m.usersByUsername {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (m *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	m.usersByUsername[username] = user
	return nil
}
