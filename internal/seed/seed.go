// Package seed loads the embedded demo fixture into empty stores.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/repository"
)

//go:embed demo.yaml
var demoYAML []byte

// Fixture is a set of contracts and entries placed relative to a moment.
type Fixture struct {
	Contracts []ContractSpec `yaml:"contracts"`
	Entries   []EntrySpec    `yaml:"entries"`
}

// ContractSpec describes one seeded contract.
type ContractSpec struct {
	ID             string                `yaml:"id"`
	Title          string                `yaml:"title"`
	ClientID       string                `yaml:"client_id"`
	ClientName     string                `yaml:"client_name"`
	FreelancerID   string                `yaml:"freelancer_id"`
	FreelancerName string                `yaml:"freelancer_name"`
	HourlyRate     float64               `yaml:"hourly_rate"`
	PaymentCycle   contract.PaymentCycle `yaml:"payment_cycle"`
	Status         contract.Status       `yaml:"status"`
	StartedDaysAgo int                   `yaml:"started_days_ago"`
}

// EntrySpec describes one seeded time entry.
type EntrySpec struct {
	ID              string           `yaml:"id"`
	ContractID      string           `yaml:"contract_id"`
	DaysAgo         int              `yaml:"days_ago"`
	StartHour       int              `yaml:"start_hour"`
	DurationMinutes float64          `yaml:"duration_minutes"`
	Description     string           `yaml:"description"`
	ActivityScore   int              `yaml:"activity_score"`
	Status          timeentry.Status `yaml:"status"`
}

// Parse decodes a fixture.
func Parse(data []byte) (*Fixture, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("seed: fixture is empty")
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("seed: decode fixture: %w", err)
	}
	rates := make(map[string]bool, len(f.Contracts))
	for _, c := range f.Contracts {
		if c.ID == "" || c.ClientID == "" || c.FreelancerID == "" {
			return nil, fmt.Errorf("seed: contract %q is missing a party", c.ID)
		}
		rates[c.ID] = true
	}
	for _, e := range f.Entries {
		if !rates[e.ContractID] {
			return nil, fmt.Errorf("seed: entry %q references unknown contract %q", e.ID, e.ContractID)
		}
		if !e.Status.Valid() {
			return nil, fmt.Errorf("seed: entry %q has invalid status %q", e.ID, e.Status)
		}
	}
	return &f, nil
}

// Demo returns the embedded demo fixture.
func Demo() (*Fixture, error) {
	return Parse(demoYAML)
}

// Build materializes the fixture relative to now. Contract totals are
// derived from the entries so the aggregates agree with them.
func (f *Fixture) Build(now time.Time) ([]contract.Contract, []timeentry.TimeEntry) {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	contracts := make([]contract.Contract, 0, len(f.Contracts))
	index := make(map[string]int, len(f.Contracts))
	for _, spec := range f.Contracts {
		cycle := spec.PaymentCycle
		if cycle == "" {
			cycle = contract.CycleWeekly
		}
		status := spec.Status
		if status == "" {
			status = contract.StatusActive
		}
		start := day.AddDate(0, 0, -spec.StartedDaysAgo)
		index[spec.ID] = len(contracts)
		contracts = append(contracts, contract.Contract{
			ID:             spec.ID,
			Title:          spec.Title,
			ClientID:       spec.ClientID,
			ClientName:     spec.ClientName,
			FreelancerID:   spec.FreelancerID,
			FreelancerName: spec.FreelancerName,
			Type:           contract.TypeHourly,
			HourlyRate:     spec.HourlyRate,
			PaymentCycle:   cycle,
			Status:         status,
			StartDate:      start,
			CreatedAt:      start,
			UpdatedAt:      now,
		})
	}

	entries := make([]timeentry.TimeEntry, 0, len(f.Entries))
	for _, spec := range f.Entries {
		c := &contracts[index[spec.ContractID]]
		start := day.AddDate(0, 0, -spec.DaysAgo).Add(time.Duration(spec.StartHour) * time.Hour)
		end := start.Add(time.Duration(spec.DurationMinutes * float64(time.Minute)))
		minutes, earnings := timeentry.Price(start, end, c.HourlyRate)

		entry := timeentry.TimeEntry{
			ID:              spec.ID,
			ContractID:      c.ID,
			FreelancerID:    c.FreelancerID,
			StartTime:       start,
			EndTime:         end,
			DurationMinutes: minutes,
			HourlyRate:      c.HourlyRate,
			Earnings:        earnings,
			Description:     spec.Description,
			ActivityScore:   spec.ActivityScore,
			Screenshots:     []string{},
			Status:          spec.Status,
			CreatedAt:       end,
		}
		if spec.Status == timeentry.StatusApproved || spec.Status == timeentry.StatusPaid {
			approved := end
			entry.ApprovedAt = &approved
		}
		if spec.Status == timeentry.StatusPaid {
			paid := end
			entry.PaidAt = &paid
			c.TotalPaid += earnings
		}
		c.TotalHoursLogged += minutes / 60
		entries = append(entries, entry)
	}

	return contracts, entries
}

// ContractStore is what Apply writes contracts through.
type ContractStore interface {
	Create(ctx context.Context, c *contract.Contract) error
	List(ctx context.Context, filter contract.ListFilter) ([]contract.Contract, error)
}

// EntryStore is what Apply writes entries through.
type EntryStore interface {
	Create(ctx context.Context, entry *timeentry.TimeEntry) error
}

// Apply writes the fixture in one unit when the store has no contracts yet.
// It reports whether anything was written.
func Apply(ctx context.Context, tx repository.Transactor, contracts ContractStore, entries EntryStore, f *Fixture, now time.Time) (bool, error) {
	if tx == nil {
		tx = repository.Passthrough
	}
	applied := false
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := contracts.List(ctx, contract.ListFilter{})
		if err != nil {
			return fmt.Errorf("seed: list contracts: %w", err)
		}
		if len(existing) > 0 {
			return nil
		}

		builtContracts, builtEntries := f.Build(now)
		for i := range builtContracts {
			if err := contracts.Create(ctx, &builtContracts[i]); err != nil {
				return fmt.Errorf("seed: create contract %s: %w", builtContracts[i].ID, err)
			}
		}
		for i := range builtEntries {
			if err := entries.Create(ctx, &builtEntries[i]); err != nil {
				return fmt.Errorf("seed: create entry %s: %w", builtEntries[i].ID, err)
			}
		}
		applied = true
		return nil
	})
	return applied, err
}
