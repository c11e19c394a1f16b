package booking

import (
	"fmt"
	"time"

	"github.com/toolshed-rental/service-booking/internal/pkg/domain"
)

const day = 24 * time.Hour

// DefaultDepositPercent is the deposit share used by PercentageDepositPolicy.
const DefaultDepositPercent = 20

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// Calculate returns the rental quote for the given parameters.
	Calculate(params PricingParams) (Quote, error)
}

// PricingParams holds the inputs for price calculation. Amounts are in the
// smallest currency unit.
type PricingParams struct {
	PricePerDay   int64
	DepositAmount int64
	Range         DateRange
}

// Quote is the computed price of a rental.
type Quote struct {
	Days       int64 `json:"days"`
	TotalPrice int64 `json:"totalPrice"`
	Deposit    int64 `json:"deposit"`
}

// RentalDays returns the number of billable days: partial days round up and
// the minimum is one.
func RentalDays(start, end time.Time) int64 {
	d := end.Sub(start)
	days := int64(d / day)
	if d%day != 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

// DepositPolicy derives the deposit for a rental.
type DepositPolicy interface {
	Deposit(toolDeposit, totalPrice int64) int64
	Name() string
}

// FixedDepositPolicy passes the tool's deposit amount through.
type FixedDepositPolicy struct{}

func (FixedDepositPolicy) Deposit(toolDeposit, _ int64) int64 { return toolDeposit }

func (FixedDepositPolicy) Name() string { return "fixed" }

// PercentageDepositPolicy charges Percent of the total price, rounded half-up.
type PercentageDepositPolicy struct {
	Percent int64
}

func (p PercentageDepositPolicy) Deposit(_, totalPrice int64) int64 {
	return (totalPrice*p.Percent + 50) / 100
}

func (p PercentageDepositPolicy) Name() string { return fmt.Sprintf("percentage(%d)", p.Percent) }

// DepositPolicyFromName resolves a configured policy name.
func DepositPolicyFromName(name string, percent int64) (DepositPolicy, error) {
	switch name {
	case "", "fixed":
		return FixedDepositPolicy{}, nil
	case "percentage":
		if percent < 0 || percent > 100 {
			return nil, fmt.Errorf("deposit percent out of range: %d", percent)
		}
		return PercentageDepositPolicy{Percent: percent}, nil
	default:
		return nil, fmt.Errorf("unknown deposit policy: %q", name)
	}
}

// StandardPricingStrategy bills per started day and applies a deposit policy.
type StandardPricingStrategy struct {
	deposit DepositPolicy
}

// NewStandardPricingStrategy creates a new StandardPricingStrategy. A nil
// policy means FixedDepositPolicy.
func NewStandardPricingStrategy(deposit DepositPolicy) *StandardPricingStrategy {
	if deposit == nil {
		deposit = FixedDepositPolicy{}
	}
	return &StandardPricingStrategy{deposit: deposit}
}

// DepositPolicy returns the configured policy.
func (s *StandardPricingStrategy) DepositPolicy() DepositPolicy { return s.deposit }

// Calculate computes total = days * pricePerDay and the policy's deposit.
func (s *StandardPricingStrategy) Calculate(params PricingParams) (Quote, error) {
	if params.PricePerDay < 0 {
		return Quote{}, domain.NewValidationError("price per day cannot be negative")
	}
	if params.DepositAmount < 0 {
		return Quote{}, domain.NewValidationError("deposit amount cannot be negative")
	}
	if !params.Range.Start.Before(params.Range.End) {
		return Quote{}, domain.NewValidationError("endDate must be after startDate")
	}

	days := RentalDays(params.Range.Start, params.Range.End)
	total := days * params.PricePerDay
	return Quote{
		Days:       days,
		TotalPrice: total,
		Deposit:    s.deposit.Deposit(params.DepositAmount, total),
	}, nil
}
