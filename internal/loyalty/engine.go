package loyalty

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"apotekpos/backend/internal/cache"
	"apotekpos/backend/internal/domain"
	"apotekpos/backend/internal/store"
)

// pointsPerRupiah: one base point per 10,000 spent, before the tier
// multiplier is applied.
const pointsDivisor = 10000

// Engine resolves loyalty tiers and point accrual from the active tier
// catalog. Tier selection and point math are pure; the engine only touches
// storage to load the catalog and to persist tier resyncs.
type Engine struct {
	repo      store.Repository
	tierCache cache.TierCache
	cacheTTL  time.Duration
}

func NewEngine(repo store.Repository, tierCache cache.TierCache, cacheTTL time.Duration) *Engine {
	if tierCache == nil {
		tierCache = cache.NoopTierCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Engine{repo: repo, tierCache: tierCache, cacheTTL: cacheTTL}
}

// Catalog returns the active tiers, cache-first. An empty catalog is a
// configuration error: callers must reject rather than default silently.
func (e *Engine) Catalog(ctx context.Context) ([]domain.LoyaltyTier, error) {
	if tiers, ok, err := e.tierCache.Get(ctx); err == nil && ok && len(tiers) > 0 {
		return tiers, nil
	} else if err != nil {
		log.Printf("[loyalty] WARN: tier cache read failed: %v", err)
	}

	tiers, err := e.repo.ListActiveTiers(ctx)
	if err != nil {
		return nil, err
	}
	if len(tiers) == 0 {
		return nil, store.ErrNoActiveTiers
	}

	if err := e.tierCache.Set(ctx, tiers, e.cacheTTL); err != nil {
		log.Printf("[loyalty] WARN: tier cache write failed: %v", err)
	}
	return tiers, nil
}

// InvalidateCatalog drops the cached catalog after a tier mutation.
func (e *Engine) InvalidateCatalog(ctx context.Context) {
	if err := e.tierCache.Invalidate(ctx); err != nil {
		log.Printf("[loyalty] WARN: tier cache invalidation failed: %v", err)
	}
}

func (e *Engine) TierFor(ctx context.Context, totalSpent int64) (domain.LoyaltyTier, error) {
	tiers, err := e.Catalog(ctx)
	if err != nil {
		return domain.LoyaltyTier{}, err
	}
	return SelectTier(tiers, totalSpent), nil
}

// PointsEarned computes the points for a purchase using the customer's
// pre-purchase tier multiplier. The multiplier is looked up against
// TotalSpent as persisted before this purchase, never the post-purchase sum.
func (e *Engine) PointsEarned(ctx context.Context, customer domain.Customer, amountSpent int64) (int64, error) {
	tier, err := e.TierFor(ctx, customer.TotalSpent)
	if err != nil {
		return 0, err
	}
	return AccruePoints(amountSpent, tier.PointMultiplier), nil
}

// ResyncTier recomputes one customer's tier from the persisted TotalSpent and
// persists the new membership level and discount when it changed. Pure with
// respect to its inputs, so safe to retry.
func (e *Engine) ResyncTier(ctx context.Context, customerID string) (domain.TierSyncResult, error) {
	tiers, err := e.Catalog(ctx)
	if err != nil {
		return domain.TierSyncResult{}, err
	}

	customer, err := e.repo.GetCustomerByID(ctx, customerID)
	if err != nil {
		return domain.TierSyncResult{}, err
	}

	result := e.classify(tiers, *customer)
	if result.Changed {
		target := SelectTier(tiers, customer.TotalSpent)
		if err := e.repo.UpdateCustomerTier(ctx, customer.ID, target.TierName, target.DiscountPercentage); err != nil {
			return domain.TierSyncResult{}, err
		}
	}
	return result, nil
}

// BulkResync sweeps every active member and realigns tier and discount with
// cumulative spend. It also mops up customers whose post-checkout resync
// failed earlier.
func (e *Engine) BulkResync(ctx context.Context) (domain.BulkTierSyncResponse, error) {
	tiers, err := e.Catalog(ctx)
	if err != nil {
		return domain.BulkTierSyncResponse{}, err
	}

	members, err := e.repo.ListCustomers(ctx, true)
	if err != nil {
		return domain.BulkTierSyncResponse{}, err
	}

	resp := domain.BulkTierSyncResponse{Results: make([]domain.TierSyncResult, 0, len(members))}
	for _, member := range members {
		result := e.classify(tiers, member)
		if result.Changed {
			target := SelectTier(tiers, member.TotalSpent)
			if err := e.repo.UpdateCustomerTier(ctx, member.ID, target.TierName, target.DiscountPercentage); err != nil {
				return domain.BulkTierSyncResponse{}, err
			}
		}

		resp.Processed++
		switch result.Direction {
		case domain.TierSyncUpgrade:
			resp.Upgraded++
		case domain.TierSyncDowngrade:
			resp.Downgraded++
		default:
			resp.Unchanged++
		}
		resp.Results = append(resp.Results, result)
	}

	return resp, nil
}

func (e *Engine) classify(tiers []domain.LoyaltyTier, customer domain.Customer) domain.TierSyncResult {
	target := SelectTier(tiers, customer.TotalSpent)
	result := domain.TierSyncResult{
		CustomerID: customer.ID,
		OldTier:    customer.MembershipLevel,
		NewTier:    target.TierName,
	}
	if target.TierName == customer.MembershipLevel {
		return result
	}

	result.Changed = true
	oldLevel := 0
	for _, tier := range tiers {
		if tier.TierName == customer.MembershipLevel {
			oldLevel = tier.TierLevel
			break
		}
	}
	if target.TierLevel > oldLevel {
		result.Direction = domain.TierSyncUpgrade
	} else {
		result.Direction = domain.TierSyncDowngrade
	}
	return result
}

// SelectTier picks the tier for a cumulative spend: highest MinSpending that
// does not exceed totalSpent, falling back to the catalog's floor tier when
// nothing matches. When two tiers share MinSpending the higher TierLevel
// wins, which keeps the choice deterministic.
func SelectTier(tiers []domain.LoyaltyTier, totalSpent int64) domain.LoyaltyTier {
	sorted := make([]domain.LoyaltyTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].MinSpending == sorted[j].MinSpending {
			return sorted[i].TierLevel > sorted[j].TierLevel
		}
		return sorted[i].MinSpending > sorted[j].MinSpending
	})

	for _, tier := range sorted {
		if tier.MinSpending <= totalSpent {
			return tier
		}
	}
	// Floor tier: lowest MinSpending. Tiers tied on the floor threshold sort
	// higher-level-first, so walk back to the start of the tied suffix.
	floor := sorted[len(sorted)-1]
	for i := len(sorted) - 2; i >= 0; i-- {
		if sorted[i].MinSpending != floor.MinSpending {
			break
		}
		floor = sorted[i]
	}
	return floor
}

// AccruePoints is the pure accrual rule: one base point per 10,000 spent,
// scaled by the tier multiplier, truncated.
func AccruePoints(amountSpent int64, multiplier float64) int64 {
	if amountSpent <= 0 || multiplier <= 0 {
		return 0
	}
	basePoints := amountSpent / pointsDivisor
	return int64(math.Floor(float64(basePoints) * multiplier))
}
