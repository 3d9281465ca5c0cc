package blobstore

import (
	"context"
	"sort"
	"time"

	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/repository"
)

// ContractRepository stores contracts in the contracts collection.
type ContractRepository struct {
	r *Repositories
}

// Create adds a contract.
func (c *ContractRepository) Create(ctx context.Context, ct *contract.Contract) error {
	return c.r.run(ctx, func(ctx context.Context, u *unit) error {
		items, err := load[contract.Contract](ctx, u, CollectionContracts)
		if err != nil {
			return err
		}
		for _, existing := range items {
			if existing.ID == ct.ID {
				return repository.ErrAlreadyExists
			}
		}
		return persist(u, CollectionContracts, append(items, *ct))
	})
}

// Get finds a contract by ID.
func (c *ContractRepository) Get(ctx context.Context, id string) (*contract.Contract, error) {
	var found *contract.Contract
	err := c.r.run(ctx, func(ctx context.Context, u *unit) error {
		items, err := load[contract.Contract](ctx, u, CollectionContracts)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ID == id {
				found = &items[i]
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

// List returns contracts matching filter, newest first.
func (c *ContractRepository) List(ctx context.Context, filter contract.ListFilter) ([]contract.Contract, error) {
	var out []contract.Contract
	err := c.r.run(ctx, func(ctx context.Context, u *unit) error {
		items, err := load[contract.Contract](ctx, u, CollectionContracts)
		if err != nil {
			return err
		}
		out = make([]contract.Contract, 0, len(items))
		for _, ct := range items {
			if filter.ClientID != "" && ct.ClientID != filter.ClientID {
				continue
			}
			if filter.FreelancerID != "" && ct.FreelancerID != filter.FreelancerID {
				continue
			}
			out = append(out, ct)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateStatus moves a contract from one status to another.
func (c *ContractRepository) UpdateStatus(ctx context.Context, id string, from, to contract.Status, at time.Time) error {
	return c.mutate(ctx, id, func(ct *contract.Contract) error {
		if ct.Status != from {
			return repository.ErrConflict
		}
		ct.Status = to
		ct.UpdatedAt = at
		return nil
	})
}

// AddHours adds to the logged hours.
func (c *ContractRepository) AddHours(ctx context.Context, id string, hours float64, at time.Time) error {
	return c.mutate(ctx, id, func(ct *contract.Contract) error {
		ct.TotalHoursLogged += hours
		ct.UpdatedAt = at
		return nil
	})
}

// AddPaid adds to the paid total.
func (c *ContractRepository) AddPaid(ctx context.Context, id string, amount float64, at time.Time) error {
	return c.mutate(ctx, id, func(ct *contract.Contract) error {
		ct.TotalPaid += amount
		ct.UpdatedAt = at
		return nil
	})
}

func (c *ContractRepository) mutate(ctx context.Context, id string, fn func(*contract.Contract) error) error {
	return c.r.run(ctx, func(ctx context.Context, u *unit) error {
		items, err := load[contract.Contract](ctx, u, CollectionContracts)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ID != id {
				continue
			}
			if err := fn(&items[i]); err != nil {
				return err
			}
			return persist(u, CollectionContracts, items)
		}
		return repository.ErrNotFound
	})
}
