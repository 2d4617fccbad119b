package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"apotekpos/backend/internal/domain"
	"apotekpos/backend/internal/store"
	"apotekpos/backend/internal/xid"
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

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, price, stock, active, created_at
		FROM products
		WHERE active = true
		ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, category, price, stock, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now())
	`, product.ID, product.Name, product.Category, product.Price, product.Stock, product.Active, product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidCheckout
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, price, stock, active, created_at
		FROM products
		WHERE id = $1
	`, id).Scan(&product.ID, &product.Name, &product.Category, &product.Price, &product.Stock, &product.Active, &product.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	product.CreatedAt = product.CreatedAt.UTC()
	return &product, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, price, stock, active, created_at
		FROM products
		WHERE active = true AND id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (
			id, name, phone, type, membership_level, discount, points,
			total_spent, total_purchases, active, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
	`, customer.ID, customer.Name, nullIfEmpty(customer.Phone), customer.Type, customer.MembershipLevel,
		customer.Discount, customer.Points, customer.TotalSpent, customer.TotalPurchases, customer.Active, customer.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidCheckout
		}
		return nil, err
	}

	created := customer
	return &created, nil
}

func (s *Store) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	var customer domain.Customer
	var phone sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, type, membership_level, discount, points,
			total_spent, total_purchases, active, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(
		&customer.ID,
		&customer.Name,
		&phone,
		&customer.Type,
		&customer.MembershipLevel,
		&customer.Discount,
		&customer.Points,
		&customer.TotalSpent,
		&customer.TotalPurchases,
		&customer.Active,
		&customer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if phone.Valid {
		customer.Phone = phone.String
	}
	customer.CreatedAt = customer.CreatedAt.UTC()
	return &customer, nil
}

func (s *Store) ListCustomers(ctx context.Context, membersOnly bool) ([]domain.Customer, error) {
	query := `
		SELECT id, name, phone, type, membership_level, discount, points,
			total_spent, total_purchases, active, created_at
		FROM customers
		WHERE active = true
	`
	if membersOnly {
		query += ` AND type <> 'walk-in'`
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var customer domain.Customer
		var phone sql.NullString
		if err := rows.Scan(
			&customer.ID,
			&customer.Name,
			&phone,
			&customer.Type,
			&customer.MembershipLevel,
			&customer.Discount,
			&customer.Points,
			&customer.TotalSpent,
			&customer.TotalPurchases,
			&customer.Active,
			&customer.CreatedAt,
		); err != nil {
			return nil, err
		}
		if phone.Valid {
			customer.Phone = phone.String
		}
		customer.CreatedAt = customer.CreatedAt.UTC()
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *Store) UpdateCustomerTier(ctx context.Context, customerID string, membershipLevel string, discount float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET membership_level = $2, discount = $3, updated_at = now()
		WHERE id = $1
	`, customerID, membershipLevel, discount)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) IncrementCustomerSpend(ctx context.Context, customerID string, amount int64) error {
	if amount < 0 {
		return store.ErrInvalidCheckout
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET total_spent = total_spent + $2, total_purchases = total_purchases + 1, updated_at = now()
		WHERE id = $1
	`, customerID, amount)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListActiveTiers(ctx context.Context) ([]domain.LoyaltyTier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tier_name, tier_level, min_spending, point_multiplier, discount_percentage, is_active, created_at
		FROM loyalty_tiers
		WHERE is_active = true
		ORDER BY tier_level ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tiers := make([]domain.LoyaltyTier, 0, 8)
	for rows.Next() {
		var tier domain.LoyaltyTier
		if err := rows.Scan(&tier.ID, &tier.TierName, &tier.TierLevel, &tier.MinSpending, &tier.PointMultiplier, &tier.DiscountPercentage, &tier.IsActive, &tier.CreatedAt); err != nil {
			return nil, err
		}
		tier.CreatedAt = tier.CreatedAt.UTC()
		tiers = append(tiers, tier)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tiers, nil
}

func (s *Store) CreateTier(ctx context.Context, tier domain.LoyaltyTier) (*domain.LoyaltyTier, error) {
	tier.TierName = strings.TrimSpace(tier.TierName)
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loyalty_tiers (
			id, tier_name, tier_level, min_spending, point_multiplier, discount_percentage, is_active, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
	`, tier.ID, tier.TierName, tier.TierLevel, tier.MinSpending, tier.PointMultiplier, tier.DiscountPercentage, tier.IsActive, tier.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidCheckout
		}
		return nil, err
	}
	saved := tier
	return &saved, nil
}

func (s *Store) GetVoucherByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	var voucher domain.Voucher
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, type, percent, fixed_amount, min_purchase, active, created_at
		FROM vouchers
		WHERE lower(code) = lower($1)
	`, code).Scan(&voucher.ID, &voucher.Code, &voucher.Type, &voucher.Percent, &voucher.FixedAmount, &voucher.MinPurchase, &voucher.Active, &voucher.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	voucher.CreatedAt = voucher.CreatedAt.UTC()
	return &voucher, nil
}

func (s *Store) CreateVoucher(ctx context.Context, voucher domain.Voucher) (*domain.Voucher, error) {
	voucher.Code = strings.ToUpper(strings.TrimSpace(voucher.Code))
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vouchers (id, code, type, percent, fixed_amount, min_purchase, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
	`, voucher.ID, voucher.Code, voucher.Type, voucher.Percent, voucher.FixedAmount, voucher.MinPurchase, voucher.Active, voucher.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidCheckout
		}
		return nil, err
	}
	saved := voucher
	return &saved, nil
}

func (s *Store) ListVouchers(ctx context.Context) ([]domain.Voucher, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, type, percent, fixed_amount, min_purchase, active, created_at
		FROM vouchers
		ORDER BY code ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vouchers := make([]domain.Voucher, 0, 16)
	for rows.Next() {
		var voucher domain.Voucher
		if err := rows.Scan(&voucher.ID, &voucher.Code, &voucher.Type, &voucher.Percent, &voucher.FixedAmount, &voucher.MinPurchase, &voucher.Active, &voucher.CreatedAt); err != nil {
			return nil, err
		}
		voucher.CreatedAt = voucher.CreatedAt.UTC()
		vouchers = append(vouchers, voucher)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vouchers, nil
}

func (s *Store) SetVoucherActive(ctx context.Context, voucherID string, active bool) (*domain.Voucher, error) {
	var voucher domain.Voucher
	err := s.db.QueryRowContext(ctx, `
		UPDATE vouchers
		SET active = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, code, type, percent, fixed_amount, min_purchase, active, created_at
	`, voucherID, active).Scan(&voucher.ID, &voucher.Code, &voucher.Type, &voucher.Percent, &voucher.FixedAmount, &voucher.MinPurchase, &voucher.Active, &voucher.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	voucher.CreatedAt = voucher.CreatedAt.UTC()
	return &voucher, nil
}

// CreateCheckout runs the settlement as one serializable transaction: guarded
// stock decrements, authoritative money recomputation, the day-scoped
// transaction number from the counter table and point accrual on the customer
// row. Any failure rolls the whole thing back.
func (s *Store) CreateCheckout(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if len(tx.Items) == 0 || tx.PaymentMethod == "" {
		return nil, store.ErrInvalidCheckout
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	ids := uniqueProductIDs(tx.Items)
	if len(ids) == 0 {
		return nil, store.ErrInvalidCheckout
	}

	productRows, err := pgTx.QueryContext(ctx, `
		SELECT id, price, stock
		FROM products
		WHERE active = true AND id = ANY($1)
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, err
	}
	productMap := make(map[string]domain.Product, len(ids))
	for productRows.Next() {
		var id string
		var price int64
		var stock int
		if err := productRows.Scan(&id, &price, &stock); err != nil {
			_ = productRows.Close()
			return nil, err
		}
		productMap[id] = domain.Product{ID: id, Price: price, Stock: stock, Active: true}
	}
	if err := productRows.Err(); err != nil {
		_ = productRows.Close()
		return nil, err
	}
	_ = productRows.Close()

	subtotal := int64(0)
	recomputed := make([]domain.TransactionItem, 0, len(tx.Items))
	for _, item := range tx.Items {
		if item.Qty < 1 {
			return nil, store.ErrInvalidCheckout
		}

		product, exists := productMap[item.ProductID]
		if !exists {
			return nil, fmt.Errorf("%w: product %s unavailable", store.ErrInvalidCheckout, item.ProductID)
		}

		res, err := pgTx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $1, updated_at = now()
			WHERE id = $2 AND stock >= $1
		`, item.Qty, item.ProductID)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
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

	if tx.ShiftID != "" {
		var shiftStatus string
		err := pgTx.QueryRowContext(ctx, `
			SELECT status FROM shifts WHERE id = $1 FOR UPDATE
		`, tx.ShiftID).Scan(&shiftStatus)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: shift %s unknown", store.ErrInvalidCheckout, tx.ShiftID)
			}
			return nil, err
		}
		if shiftStatus != domain.ShiftStatusOpen {
			return nil, store.ErrShiftClosed
		}
	}

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	day := tx.CreatedAt.Format("20060102")
	var seq int
	err = pgTx.QueryRowContext(ctx, `
		INSERT INTO transaction_counters (day, seq)
		VALUES ($1, 1)
		ON CONFLICT (day)
		DO UPDATE SET seq = transaction_counters.seq + 1
		RETURNING seq
	`, day).Scan(&seq)
	if err != nil {
		return nil, err
	}
	tx.TransactionNumber = fmt.Sprintf("TRX%s%04d", day, seq)

	tx.Subtotal = subtotal
	tx.Total = total
	tx.Items = recomputed
	if tx.ID == "" {
		tx.ID = xid.New("tx")
	}
	if tx.Status == "" {
		tx.Status = domain.TxStatusCompleted
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO transactions (
			id, transaction_number, shift_id, customer_id, cashier_id, voucher_code,
			subtotal, discount, tax, total, payment_method, paid_amount, change_amount,
			points_earned, status, void_reason, voided_at, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`, tx.ID, tx.TransactionNumber, nullIfEmpty(tx.ShiftID), nullIfEmpty(tx.CustomerID), nullIfEmpty(tx.CashierID),
		nullIfEmpty(tx.VoucherCode), tx.Subtotal, tx.Discount, tx.Tax, tx.Total, tx.PaymentMethod,
		tx.PaidAmount, tx.ChangeAmount, tx.PointsEarned, tx.Status, nullIfEmpty(tx.VoidReason),
		nullTime(tx.VoidedAt), tx.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, item := range tx.Items {
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO transaction_items (transaction_id, product_id, qty, unit_price, discount, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, tx.ID, item.ProductID, item.Qty, item.UnitPrice, item.Discount, item.Subtotal)
		if err != nil {
			return nil, err
		}
	}

	if tx.CustomerID != "" && tx.PointsEarned > 0 {
		res, err := pgTx.ExecContext(ctx, `
			UPDATE customers
			SET points = points + $2, updated_at = now()
			WHERE id = $1
		`, tx.CustomerID, tx.PointsEarned)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, fmt.Errorf("%w: customer %s unknown", store.ErrInvalidCheckout, tx.CustomerID)
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	return &tx, nil
}

func (s *Store) FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.findTransaction(ctx, "id", id)
}

func (s *Store) FindTransactionByNumber(ctx context.Context, number string) (*domain.Transaction, error) {
	return s.findTransaction(ctx, "transaction_number", number)
}

func (s *Store) findTransaction(ctx context.Context, column string, value string) (*domain.Transaction, error) {
	if column != "id" && column != "transaction_number" {
		return nil, fmt.Errorf("unsupported lookup column")
	}

	var tx domain.Transaction
	var shiftID sql.NullString
	var customerID sql.NullString
	var cashierID sql.NullString
	var voucherCode sql.NullString
	var voidReason sql.NullString
	var voidedAt sql.NullTime

	query := fmt.Sprintf(`
		SELECT id, transaction_number, shift_id, customer_id, cashier_id, voucher_code,
			subtotal, discount, tax, total, payment_method, paid_amount, change_amount,
			points_earned, status, void_reason, voided_at, created_at
		FROM transactions
		WHERE %s = $1
	`, column)

	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&tx.ID,
		&tx.TransactionNumber,
		&shiftID,
		&customerID,
		&cashierID,
		&voucherCode,
		&tx.Subtotal,
		&tx.Discount,
		&tx.Tax,
		&tx.Total,
		&tx.PaymentMethod,
		&tx.PaidAmount,
		&tx.ChangeAmount,
		&tx.PointsEarned,
		&tx.Status,
		&voidReason,
		&voidedAt,
		&tx.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if shiftID.Valid {
		tx.ShiftID = shiftID.String
	}
	if customerID.Valid {
		tx.CustomerID = customerID.String
	}
	if cashierID.Valid {
		tx.CashierID = cashierID.String
	}
	if voucherCode.Valid {
		tx.VoucherCode = voucherCode.String
	}
	if voidReason.Valid {
		tx.VoidReason = voidReason.String
	}
	if voidedAt.Valid {
		at := voidedAt.Time.UTC()
		tx.VoidedAt = &at
	}
	tx.CreatedAt = tx.CreatedAt.UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, qty, unit_price, discount, subtotal
		FROM transaction_items
		WHERE transaction_id = $1
		ORDER BY id ASC
	`, tx.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.TransactionItem, 0, 8)
	for rows.Next() {
		var item domain.TransactionItem
		if err := rows.Scan(&item.ProductID, &item.Qty, &item.UnitPrice, &item.Discount, &item.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	tx.Items = items

	return &tx, nil
}

func (s *Store) VoidTransaction(ctx context.Context, id string, reason string, at time.Time) (*domain.Transaction, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var status string
	err = pgTx.QueryRowContext(ctx, `
		SELECT status
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status == domain.TxStatusVoided {
		return nil, store.ErrAlreadyVoided
	}
	if status != domain.TxStatusCompleted {
		return nil, store.ErrInvalidCheckout
	}

	itemRows, err := pgTx.QueryContext(ctx, `
		SELECT product_id, qty
		FROM transaction_items
		WHERE transaction_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	items := make([]domain.TransactionItem, 0, 8)
	for itemRows.Next() {
		var item domain.TransactionItem
		if err := itemRows.Scan(&item.ProductID, &item.Qty); err != nil {
			_ = itemRows.Close()
			return nil, err
		}
		items = append(items, item)
	}
	if err := itemRows.Err(); err != nil {
		_ = itemRows.Close()
		return nil, err
	}
	_ = itemRows.Close()

	_, err = pgTx.ExecContext(ctx, `
		UPDATE transactions
		SET status = $2, void_reason = $3, voided_at = $4
		WHERE id = $1 AND status = $5
	`, id, domain.TxStatusVoided, reason, at, domain.TxStatusCompleted)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		_, err := pgTx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock + $1, updated_at = now()
			WHERE id = $2
		`, item.Qty, item.ProductID)
		if err != nil {
			return nil, err
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	return s.FindTransactionByID(ctx, id)
}

func (s *Store) CreateShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error) {
	if strings.TrimSpace(shift.ShiftName) == "" || strings.TrimSpace(shift.OpenedBy) == "" || shift.InitialCashAmount < 0 {
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
	shift.ClosedAt = nil

	// Partial unique index on (shift_name, shift_date) WHERE status = 'open'
	// turns a concurrent duplicate open into a unique violation.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shifts (
			id, shift_name, shift_date, opened_by, opened_at, initial_cash_amount,
			total_sales, total_transactions, status, notes
		)
		VALUES ($1,$2,$3,$4,$5,$6,0,0,$7,$8)
	`, shift.ID, shift.ShiftName, shift.ShiftDate, shift.OpenedBy, shift.OpenedAt, shift.InitialCashAmount, shift.Status, shift.Notes)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateShift
		}
		return nil, err
	}
	saved := shift
	return &saved, nil
}

func (s *Store) GetShiftByID(ctx context.Context, id string) (*domain.Shift, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, shift_name, shift_date, opened_by, opened_at, closed_by, closed_at,
			initial_cash_amount, final_cash_amount, expected_cash_amount, cash_difference,
			total_sales, total_transactions, status, notes
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
	return &shift, nil
}

func (s *Store) ListShiftsByDate(ctx context.Context, date string) ([]domain.Shift, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shift_name, shift_date, opened_by, opened_at, closed_by, closed_at,
			initial_cash_amount, final_cash_amount, expected_cash_amount, cash_difference,
			total_sales, total_transactions, status, notes
		FROM shifts
		WHERE shift_date = $1
		ORDER BY opened_at ASC
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]domain.Shift, 0, 4)
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return shifts, nil
}

// CloseShift aggregates the shift's completed transactions and writes the
// terminal cash fields in one serializable transaction. Closing twice fails
// on the status guard.
func (s *Store) CloseShift(ctx context.Context, shiftID string, finalCashAmount int64, closedBy string, notes string, closedAt time.Time) (*domain.Shift, error) {
	if closedAt.IsZero() {
		closedAt = time.Now().UTC()
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var status string
	var initialCash int64
	err = pgTx.QueryRowContext(ctx, `
		SELECT status, initial_cash_amount
		FROM shifts
		WHERE id = $1
		FOR UPDATE
	`, shiftID).Scan(&status, &initialCash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status == domain.ShiftStatusClosed {
		return nil, store.ErrShiftClosed
	}

	var totalSales int64
	var totalTransactions int
	err = pgTx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total),0)::bigint, COUNT(*)::int
		FROM transactions
		WHERE shift_id = $1 AND status = $2
	`, shiftID, domain.TxStatusCompleted).Scan(&totalSales, &totalTransactions)
	if err != nil {
		return nil, err
	}

	expected := initialCash + totalSales
	difference := finalCashAmount - expected

	row := pgTx.QueryRowContext(ctx, `
		UPDATE shifts
		SET status = 'closed', closed_by = $2, closed_at = $3, final_cash_amount = $4,
			expected_cash_amount = $5, cash_difference = $6, total_sales = $7,
			total_transactions = $8, notes = $9
		WHERE id = $1
		RETURNING id, shift_name, shift_date, opened_by, opened_at, closed_by, closed_at,
			initial_cash_amount, final_cash_amount, expected_cash_amount, cash_difference,
			total_sales, total_transactions, status, notes
	`, shiftID, closedBy, closedAt, finalCashAmount, expected, difference, totalSales, totalTransactions, notes)
	shift, err := scanShift(row)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	return &shift, nil
}

func (s *Store) CreateShiftHandover(ctx context.Context, handover domain.ShiftHandover) (*domain.ShiftHandover, error) {
	if handover.ShiftID == "" || strings.TrimSpace(handover.HandoverFrom) == "" || strings.TrimSpace(handover.HandoverTo) == "" {
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

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var shiftStatus string
	err = pgTx.QueryRowContext(ctx, `
		SELECT status FROM shifts WHERE id = $1 FOR UPDATE
	`, handover.ShiftID).Scan(&shiftStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if shiftStatus != domain.ShiftStatusOpen {
		return nil, store.ErrShiftClosed
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO shift_handovers (
			id, shift_id, handover_from, handover_to, handover_at, final_cash_amount, notes, status
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, handover.ID, handover.ShiftID, handover.HandoverFrom, handover.HandoverTo, handover.HandoverAt,
		handover.FinalCashAmount, handover.Notes, handover.Status)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	saved := handover
	return &saved, nil
}

func (s *Store) ListShiftHandovers(ctx context.Context, shiftID string) ([]domain.ShiftHandover, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shift_id, handover_from, handover_to, handover_at, final_cash_amount, notes, status
		FROM shift_handovers
		WHERE shift_id = $1
		ORDER BY handover_at ASC
	`, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	handovers := make([]domain.ShiftHandover, 0, 4)
	for rows.Next() {
		var handover domain.ShiftHandover
		if err := rows.Scan(&handover.ID, &handover.ShiftID, &handover.HandoverFrom, &handover.HandoverTo, &handover.HandoverAt, &handover.FinalCashAmount, &handover.Notes, &handover.Status); err != nil {
			return nil, err
		}
		handover.HandoverAt = handover.HandoverAt.UTC()
		handovers = append(handovers, handover)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return handovers, nil
}

func (s *Store) GetDailyReport(ctx context.Context, from time.Time, to time.Time) (domain.DailyReport, error) {
	report := domain.DailyReport{Date: from.Format("2006-01-02")}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*)::bigint,
			COALESCE(SUM(subtotal),0)::bigint,
			COALESCE(SUM(discount),0)::bigint,
			COALESCE(SUM(tax),0)::bigint,
			COALESCE(SUM(total),0)::bigint,
			COALESCE(SUM(points_earned),0)::bigint
		FROM transactions
		WHERE created_at >= $1
			AND created_at < $2
			AND status = $3
	`, from, to, domain.TxStatusCompleted).Scan(
		&report.Transactions,
		&report.GrossSales,
		&report.Discount,
		&report.Tax,
		&report.NetSales,
		&report.PointsEarnedTotal,
	)
	if err != nil {
		return report, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)::bigint
		FROM transactions
		WHERE created_at >= $1
			AND created_at < $2
			AND status = $3
	`, from, to, domain.TxStatusVoided).Scan(&report.VoidedCount)
	if err != nil {
		return report, err
	}

	return report, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidCheckout
	}
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidCheckout
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

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidCheckout
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (domain.Shift, error) {
	var shift domain.Shift
	var closedBy sql.NullString
	var closedAt sql.NullTime
	var finalCash sql.NullInt64
	var expectedCash sql.NullInt64
	var difference sql.NullInt64
	var notes sql.NullString

	err := row.Scan(
		&shift.ID,
		&shift.ShiftName,
		&shift.ShiftDate,
		&shift.OpenedBy,
		&shift.OpenedAt,
		&closedBy,
		&closedAt,
		&shift.InitialCashAmount,
		&finalCash,
		&expectedCash,
		&difference,
		&shift.TotalSales,
		&shift.TotalTransactions,
		&shift.Status,
		&notes,
	)
	if err != nil {
		return shift, err
	}

	shift.OpenedAt = shift.OpenedAt.UTC()
	if closedBy.Valid {
		shift.ClosedBy = closedBy.String
	}
	if closedAt.Valid {
		at := closedAt.Time.UTC()
		shift.ClosedAt = &at
	}
	if finalCash.Valid {
		v := finalCash.Int64
		shift.FinalCashAmount = &v
	}
	if expectedCash.Valid {
		v := expectedCash.Int64
		shift.ExpectedCashAmount = &v
	}
	if difference.Valid {
		v := difference.Int64
		shift.CashDifference = &v
	}
	if notes.Valid {
		shift.Notes = notes.String
	}
	return shift, nil
}

func uniqueProductIDs(items []domain.TransactionItem) []string {
	if len(items) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.ProductID == "" {
			continue
		}
		set[item.ProductID] = struct{}{}
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
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

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}
