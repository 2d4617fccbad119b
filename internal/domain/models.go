package domain

import "time"

// Amounts are whole rupiah carried as int64. Rates and multipliers are float64.

type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     int64     `json:"price"`
	Stock     int       `json:"stock"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type ProductCreateRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Price        int64  `json:"price"`
	InitialStock int    `json:"initial_stock"`
}

type Customer struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Type            string    `json:"type"`
	MembershipLevel string    `json:"membership_level"`
	Discount        float64   `json:"discount"`
	Points          int64     `json:"points"`
	TotalSpent      int64     `json:"total_spent"`
	TotalPurchases  int       `json:"total_purchases"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
}

type CustomerRegisterRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Type  string `json:"type"`
}

type LoyaltyTier struct {
	ID                 string    `json:"id"`
	TierName           string    `json:"tier_name"`
	TierLevel          int       `json:"tier_level"`
	MinSpending        int64     `json:"min_spending"`
	PointMultiplier    float64   `json:"point_multiplier"`
	DiscountPercentage float64   `json:"discount_percentage"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}

type TierCreateRequest struct {
	TierName           string  `json:"tier_name"`
	TierLevel          int     `json:"tier_level"`
	MinSpending        int64   `json:"min_spending"`
	PointMultiplier    float64 `json:"point_multiplier"`
	DiscountPercentage float64 `json:"discount_percentage"`
}

// TierSyncResult reports the outcome of recomputing one customer's tier.
type TierSyncResult struct {
	CustomerID string `json:"customer_id"`
	OldTier    string `json:"old_tier"`
	NewTier    string `json:"new_tier"`
	Changed    bool   `json:"changed"`
	Direction  string `json:"direction,omitempty"`
}

type BulkTierSyncResponse struct {
	Processed  int              `json:"processed"`
	Upgraded   int              `json:"upgraded"`
	Downgraded int              `json:"downgraded"`
	Unchanged  int              `json:"unchanged"`
	Results    []TierSyncResult `json:"results"`
}

type Voucher struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Type        string    `json:"type"`
	Percent     float64   `json:"percent"`
	FixedAmount int64     `json:"fixed_amount"`
	MinPurchase int64     `json:"min_purchase"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type VoucherCreateRequest struct {
	Code        string  `json:"code"`
	Type        string  `json:"type"`
	Percent     float64 `json:"percent"`
	FixedAmount int64   `json:"fixed_amount"`
	MinPurchase int64   `json:"min_purchase"`
}

type VoucherToggleRequest struct {
	Active bool `json:"active"`
}

type CartItem struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type CheckoutRequest struct {
	ShiftID       string     `json:"shift_id,omitempty"`
	CustomerID    string     `json:"customer_id,omitempty"`
	VoucherCode   string     `json:"voucher_code,omitempty"`
	PaymentMethod string     `json:"payment_method"`
	PaidAmount    int64      `json:"paid_amount"`
	CartItems     []CartItem `json:"cart_items"`
}

type Receipt struct {
	TransactionID     string            `json:"transaction_id"`
	TransactionNumber string            `json:"transaction_number"`
	Status            string            `json:"status"`
	PaymentMethod     string            `json:"payment_method"`
	Subtotal          int64             `json:"subtotal"`
	Discount          int64             `json:"discount"`
	Tax               int64             `json:"tax"`
	Total             int64             `json:"total"`
	PaidAmount        int64             `json:"paid_amount"`
	ChangeAmount      int64             `json:"change_amount"`
	PointsEarned      int64             `json:"points_earned"`
	ItemCount         int               `json:"item_count"`
	ShiftID           string            `json:"shift_id,omitempty"`
	CustomerID        string            `json:"customer_id,omitempty"`
	Items             []TransactionItem `json:"items"`
	CreatedAt         string            `json:"created_at"`
}

type TransactionItem struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"unit_price"`
	Discount  int64  `json:"discount"`
	Subtotal  int64  `json:"subtotal"`
}

type Transaction struct {
	ID                string
	TransactionNumber string
	ShiftID           string
	CustomerID        string
	CashierID         string
	VoucherCode       string
	Subtotal          int64
	Discount          int64
	Tax               int64
	Total             int64
	PaymentMethod     string
	PaidAmount        int64
	ChangeAmount      int64
	PointsEarned      int64
	Status            string
	VoidReason        string
	VoidedAt          *time.Time
	CreatedAt         time.Time
	Items             []TransactionItem
}

type VoidTransactionRequest struct {
	TransactionID string `json:"transaction_id"`
	Reason        string `json:"reason"`
	ManagerPIN    string `json:"manager_pin"`
}

type VoidTransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	VoidedAt      string `json:"voided_at"`
}

type Shift struct {
	ID                 string     `json:"id"`
	ShiftName          string     `json:"shift_name"`
	ShiftDate          string     `json:"shift_date"`
	OpenedBy           string     `json:"opened_by"`
	OpenedAt           time.Time  `json:"opened_at"`
	ClosedBy           string     `json:"closed_by,omitempty"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"`
	InitialCashAmount  int64      `json:"initial_cash_amount"`
	FinalCashAmount    *int64     `json:"final_cash_amount,omitempty"`
	ExpectedCashAmount *int64     `json:"expected_cash_amount,omitempty"`
	CashDifference     *int64     `json:"cash_difference,omitempty"`
	TotalSales         int64      `json:"total_sales"`
	TotalTransactions  int        `json:"total_transactions"`
	Status             string     `json:"status"`
	Notes              string     `json:"notes,omitempty"`
}

type ShiftOpenRequest struct {
	ShiftName         string `json:"shift_name"`
	InitialCashAmount int64  `json:"initial_cash_amount"`
}

type ShiftCloseRequest struct {
	FinalCashAmount int64  `json:"final_cash_amount"`
	Notes           string `json:"notes"`
}

type ShiftResponse struct {
	Shift Shift `json:"shift"`
}

type ShiftHandover struct {
	ID              string    `json:"id"`
	ShiftID         string    `json:"shift_id"`
	HandoverFrom    string    `json:"handover_from"`
	HandoverTo      string    `json:"handover_to"`
	HandoverAt      time.Time `json:"handover_at"`
	FinalCashAmount int64     `json:"final_cash_amount"`
	Notes           string    `json:"notes,omitempty"`
	Status          string    `json:"status"`
}

type ShiftHandoverRequest struct {
	HandoverTo      string `json:"handover_to"`
	FinalCashAmount int64  `json:"final_cash_amount"`
	Notes           string `json:"notes"`
}

type ShiftHandoverResponse struct {
	Handover ShiftHandover `json:"handover"`
}

type DailyReport struct {
	Date              string `json:"date"`
	Transactions      int64  `json:"transactions"`
	GrossSales        int64  `json:"gross_sales"`
	Discount          int64  `json:"discount"`
	Tax               int64  `json:"tax"`
	NetSales          int64  `json:"net_sales"`
	VoidedCount       int64  `json:"voided_count"`
	PointsEarnedTotal int64  `json:"points_earned_total"`
}

type HardwareReceiptRequest struct {
	TransactionID string `json:"transaction_id"`
}

type HardwareReceiptResponse struct {
	TransactionID string `json:"transaction_id"`
	EscposBase64  string `json:"escpos_base64"`
	PreviewText   string `json:"preview_text"`
	FileName      string `json:"file_name"`
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

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

// KitchenTicket is the payload fanned out to the kitchen module after a
// checkout commits. Delivery is fire-and-forget.
type KitchenTicket struct {
	SourceTransactionID string            `json:"source_transaction_id"`
	Items               []TransactionItem `json:"items"`
}

const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusCancelled = "cancelled"
	TxStatusRefunded  = "refunded"
	TxStatusVoided    = "voided"
)

const (
	ShiftStatusOpen   = "open"
	ShiftStatusClosed = "closed"
)

const (
	HandoverStatusPending   = "pending"
	HandoverStatusCompleted = "completed"
	HandoverStatusRejected  = "rejected"
)

const (
	CustomerTypeWalkIn = "walk-in"
	CustomerTypeMember = "member"
	CustomerTypeVIP    = "vip"
)

const (
	VoucherTypePercentage = "percentage"
	VoucherTypeFixed      = "fixed"
)

const (
	TierSyncUpgrade   = "upgrade"
	TierSyncDowngrade = "downgrade"
)

// ShiftNames is the fixed set of named shift windows. At most one open shift
// per name per calendar day.
var ShiftNames = []string{"morning", "afternoon", "evening"}

func IsValidShiftName(name string) bool {
	for _, candidate := range ShiftNames {
		if candidate == name {
			return true
		}
	}
	return false
}
