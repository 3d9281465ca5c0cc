package blobstore

import (
	"context"
	"sort"

	"github.com/rpggio/hourly/internal/domain/payment"
	"github.com/rpggio/hourly/internal/repository"
)

// SettlementRepository stores payment events in the settlements collection.
type SettlementRepository struct {
	r *Repositories
}

// Create adds a settlement. Idempotency keys are unique.
func (s *SettlementRepository) Create(ctx context.Context, settlement *payment.Settlement) error {
	return s.r.run(ctx, func(ctx context.Context, u *unit) error {
		if err := requireContract(ctx, u, settlement.ContractID); err != nil {
			return err
		}
		items, err := load[payment.Settlement](ctx, u, CollectionSettlements)
		if err != nil {
			return err
		}
		for _, existing := range items {
			if existing.ID == settlement.ID {
				return repository.ErrAlreadyExists
			}
			if settlement.IdempotencyKey != nil && existing.IdempotencyKey != nil &&
				*existing.IdempotencyKey == *settlement.IdempotencyKey {
				return repository.ErrAlreadyExists
			}
		}
		return persist(u, CollectionSettlements, append(items, *settlement))
	})
}

// GetByKey finds the settlement recorded under an idempotency key.
func (s *SettlementRepository) GetByKey(ctx context.Context, key string) (*payment.Settlement, error) {
	var found *payment.Settlement
	err := s.r.run(ctx, func(ctx context.Context, u *unit) error {
		items, err := load[payment.Settlement](ctx, u, CollectionSettlements)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].IdempotencyKey != nil && *items[i].IdempotencyKey == key {
				found = &items[i]
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

// ListByContract returns a contract's settlements, oldest first.
func (s *SettlementRepository) ListByContract(ctx context.Context, contractID string) ([]payment.Settlement, error) {
	var out []payment.Settlement
	err := s.r.run(ctx, func(ctx context.Context, u *unit) error {
		items, err := load[payment.Settlement](ctx, u, CollectionSettlements)
		if err != nil {
			return err
		}
		out = make([]payment.Settlement, 0, len(items))
		for _, item := range items {
			if item.ContractID == contractID {
				out = append(out, item)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PaidAt.Before(out[j].PaidAt)
	})
	return out, nil
}
