package store

import (
	"context"
	"errors"
	"time"

	"apotekpos/backend/internal/domain"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidCheckout     = errors.New("invalid checkout")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrDuplicateShift      = errors.New("shift already open for this window")
	ErrShiftClosed         = errors.New("shift already closed")
	ErrAlreadyVoided       = errors.New("transaction already voided")
	ErrNoActiveTiers       = errors.New("no active loyalty tiers configured")
)

// Repository is the persistence port for the settlement core. Implementations
// must make CreateCheckout, VoidTransaction and CloseShift atomic: either the
// whole mutation is visible or none of it is.
type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)

	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error)
	ListCustomers(ctx context.Context, membersOnly bool) ([]domain.Customer, error)
	UpdateCustomerTier(ctx context.Context, customerID string, membershipLevel string, discount float64) error
	IncrementCustomerSpend(ctx context.Context, customerID string, amount int64) error

	ListActiveTiers(ctx context.Context) ([]domain.LoyaltyTier, error)
	CreateTier(ctx context.Context, tier domain.LoyaltyTier) (*domain.LoyaltyTier, error)

	GetVoucherByCode(ctx context.Context, code string) (*domain.Voucher, error)
	CreateVoucher(ctx context.Context, voucher domain.Voucher) (*domain.Voucher, error)
	ListVouchers(ctx context.Context) ([]domain.Voucher, error)
	SetVoucherActive(ctx context.Context, voucherID string, active bool) (*domain.Voucher, error)

	// CreateCheckout persists the transaction header and items, decrements
	// stock with a guarded conditional update, assigns the day-scoped
	// transaction number and adds earned points to the customer, all in one
	// atomic unit.
	CreateCheckout(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
	FindTransactionByID(ctx context.Context, id string) (*domain.Transaction, error)
	FindTransactionByNumber(ctx context.Context, number string) (*domain.Transaction, error)
	VoidTransaction(ctx context.Context, id string, reason string, at time.Time) (*domain.Transaction, error)

	CreateShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error)
	GetShiftByID(ctx context.Context, id string) (*domain.Shift, error)
	ListShiftsByDate(ctx context.Context, date string) ([]domain.Shift, error)
	// CloseShift aggregates completed transactions of the shift, fills the
	// terminal cash fields and flips status to closed, atomically. A second
	// close returns ErrShiftClosed.
	CloseShift(ctx context.Context, shiftID string, finalCashAmount int64, closedBy string, notes string, closedAt time.Time) (*domain.Shift, error)
	CreateShiftHandover(ctx context.Context, handover domain.ShiftHandover) (*domain.ShiftHandover, error)
	ListShiftHandovers(ctx context.Context, shiftID string) ([]domain.ShiftHandover, error)

	GetDailyReport(ctx context.Context, from time.Time, to time.Time) (domain.DailyReport, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
