// Package schema defines the canonical feature schema shared by every
// component of the risk engine. The 22 base feature names are a de facto
// interchange format: the synthetic generator emits them, the heuristic
// scorer looks them up by name, and trained models store the exact ordered
// list they were fitted with.
package schema

// Feature groups, in canonical column order.
var (
	// TransactionFeatures describe on-chain transaction activity.
	TransactionFeatures = []string{
		"tx_count",
		"total_volume",
		"avg_frequency",
		"avg_time_between",
	}

	// PortfolioFeatures describe portfolio stability.
	PortfolioFeatures = []string{
		"stablecoin_ratio",
		"avg_holding_period",
		"volatility_index",
		"diversity_score",
	}

	// LendingHistoryFeatures describe prior loan behavior.
	LendingHistoryFeatures = []string{
		"total_loans",
		"repaid_loans",
		"defaulted_loans",
		"avg_repayment_time",
	}

	// DeFiBehaviorFeatures describe protocol usage.
	DeFiBehaviorFeatures = []string{
		"protocol_count",
		"yield_farming_activity",
		"smart_contract_calls",
		"defi_experience",
	}

	// LoanRequestFeatures describe the terms of the loan being scored.
	LoanRequestFeatures = []string{
		"loan_amount",
		"collateral_amount",
		"loan_to_collateral_ratio",
		"duration_days",
		"interest_rate",
	}

	// AccountFeatures describe account age.
	AccountFeatures = []string{
		"account_age_days",
	}
)

// Target is the binary label column: 0 = repaid, 1 = defaulted.
const Target = "default"

// GeneratingProbability is the diagnostic column carrying the probability
// the synthetic generator drew the label from. It is never used as a model
// feature.
const GeneratingProbability = "default_probability"

// BaseFeatures is the full ordered canonical feature list.
var BaseFeatures = concat(
	TransactionFeatures,
	PortfolioFeatures,
	LendingHistoryFeatures,
	DeFiBehaviorFeatures,
	LoanRequestFeatures,
	AccountFeatures,
)

var baseIndex = func() map[string]int {
	m := make(map[string]int, len(BaseFeatures))
	for i, name := range BaseFeatures {
		m[name] = i
	}
	return m
}()

// IsBaseFeature reports whether name belongs to the canonical schema.
func IsBaseFeature(name string) bool {
	_, ok := baseIndex[name]
	return ok
}

// Index returns the canonical position of name, or -1 if unknown.
func Index(name string) int {
	if i, ok := baseIndex[name]; ok {
		return i
	}
	return -1
}

func concat(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
