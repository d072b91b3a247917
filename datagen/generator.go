// Package datagen synthesizes labeled loan datasets for training when no
// historical data exists. Every sample is driven by a single latent risk
// scalar drawn from Beta(2,5): each feature distribution is shifted as a
// function of that scalar, so the label and the features share a hidden
// common cause and carry realistic mutual information.
package datagen

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/p2plend/riskengine/dataset"
	"github.com/p2plend/riskengine/pkg/errors"
	"github.com/p2plend/riskengine/schema"
)

// Default-probability clip bounds. These, together with the formula in
// defaultProbability, are the ground truth the classifier is evaluated
// against; changing them makes evaluation numbers non-comparable.
const (
	minDefaultProbability = 0.01
	maxDefaultProbability = 0.95
)

// Generator produces deterministic synthetic datasets. A single PCG stream
// seeded from Seed is threaded through every draw, so generation is
// reproducible regardless of where the generator runs.
type Generator struct {
	Seed uint64
}

// New creates a generator with the given seed.
func New(seed uint64) *Generator {
	return &Generator{Seed: seed}
}

// Generate produces n labeled samples over the canonical base schema.
// Repeated calls with the same seed and n produce identical datasets.
func (g *Generator) Generate(n int) (*dataset.Dataset, error) {
	if n <= 0 {
		return nil, errors.NewValueError("Generator.Generate", "sample count must be positive")
	}

	rng := rand.New(rand.NewPCG(g.Seed, g.Seed))

	// All base distributions have fixed parameters; risk scaling is applied
	// to the draws. Sharing one Src keeps the draw order, and therefore the
	// output, fully determined by the seed.
	var (
		latentRisk   = distuv.Beta{Alpha: 2, Beta: 5, Src: rng}
		txCount      = distuv.LogNormal{Mu: 5, Sigma: 2, Src: rng}
		totalVolume  = distuv.LogNormal{Mu: 12, Sigma: 2, Src: rng}
		avgFrequency = distuv.Gamma{Alpha: 2, Beta: 1.0 / 2, Src: rng}
		timeBetween  = distuv.Exponential{Rate: 1.0 / 48, Src: rng}

		stablecoin = distuv.Beta{Alpha: 3, Beta: 2, Src: rng}
		holding    = distuv.Gamma{Alpha: 4, Beta: 1.0 / 30, Src: rng}
		volatility = distuv.Beta{Alpha: 2, Beta: 3, Src: rng}
		diversity  = distuv.Beta{Alpha: 3, Beta: 2, Src: rng}

		loanCount   = distuv.Poisson{Lambda: 10, Src: rng}
		repayment   = distuv.Beta{Alpha: 8, Beta: 2, Src: rng}
		defaultBump = distuv.Beta{Alpha: 1, Beta: 9, Src: rng}
		repayTime   = distuv.Beta{Alpha: 3, Beta: 2, Src: rng}

		protocols  = distuv.Poisson{Lambda: 5, Src: rng}
		farming    = distuv.Beta{Alpha: 2, Beta: 3, Src: rng}
		contracts  = distuv.LogNormal{Mu: 4, Sigma: 1.5, Src: rng}
		experience = distuv.Gamma{Alpha: 3, Beta: 1.0 / 60, Src: rng}

		loanAmount = distuv.LogNormal{Mu: 10, Sigma: 1.5, Src: rng}
		collRatio  = distuv.Uniform{Min: 1.2, Max: 2.5, Src: rng}
		duration   = distuv.Gamma{Alpha: 3, Beta: 1.0 / 30, Src: rng}
		rateNoise  = distuv.Normal{Mu: 0, Sigma: 200, Src: rng}

		accountAge = distuv.Gamma{Alpha: 4, Beta: 1.0 / 90, Src: rng}
	)

	ds := dataset.New(schema.BaseFeatures)
	ds.Samples = make([]dataset.Sample, 0, n)

	for i := 0; i < n; i++ {
		r := latentRisk.Rand()
		fv := make(schema.FeatureVector, len(schema.BaseFeatures))

		// Transaction activity shrinks as risk grows; inter-transaction
		// time stretches.
		fv["tx_count"] = math.Trunc(txCount.Rand() * (1 - r*0.3))
		fv["total_volume"] = totalVolume.Rand() * (1 - r*0.2)
		fv["avg_frequency"] = avgFrequency.Rand() * (1 - r*0.3)
		fv["avg_time_between"] = timeBetween.Rand() * (1 + r*0.5)

		fv["stablecoin_ratio"] = clip(stablecoin.Rand()*(1-r*0.4), 0, 1)
		fv["avg_holding_period"] = math.Trunc(holding.Rand() * (1 - r*0.3))
		fv["volatility_index"] = clip(volatility.Rand()*(1+r*0.5), 0, 1)
		fv["diversity_score"] = clip(diversity.Rand()*(1-r*0.2), 0, 1)

		totalLoans := math.Trunc(loanCount.Rand() * (1 + r*0.2))
		fv["total_loans"] = totalLoans

		// Repayment rate used by the label formula. With no history the
		// formula sees a neutral 0.5.
		labelRepaymentRate := 0.5
		if totalLoans > 0 {
			repaymentRate := clip(repayment.Rand()*(1-r*0.6), 0, 1)
			fv["repaid_loans"] = math.Trunc(totalLoans * repaymentRate)
			defaultRate := clip(r*0.5+defaultBump.Rand(), 0, 1-repaymentRate)
			fv["defaulted_loans"] = math.Trunc(totalLoans * defaultRate)
			fv["avg_repayment_time"] = clip(repayTime.Rand()*(1+r*0.3), 0, 1)
			labelRepaymentRate = repaymentRate
		} else {
			fv["repaid_loans"] = 0
			fv["defaulted_loans"] = 0
			fv["avg_repayment_time"] = 0.5
		}

		fv["protocol_count"] = math.Trunc(protocols.Rand() * (1 - r*0.3))
		fv["yield_farming_activity"] = clip(farming.Rand()*(1-r*0.2), 0, 1)
		fv["smart_contract_calls"] = math.Trunc(contracts.Rand() * (1 - r*0.3))
		fv["defi_experience"] = math.Trunc(experience.Rand() * (1 - r*0.2))

		amount := loanAmount.Rand()
		collateral := amount * collRatio.Rand() * (1 + r*0.3)
		fv["loan_amount"] = amount
		fv["collateral_amount"] = collateral
		fv["loan_to_collateral_ratio"] = amount / collateral
		fv["duration_days"] = math.Trunc(duration.Rand() * (1 + r*0.3))
		fv["interest_rate"] = 300 + r*2000 + rateNoise.Rand() // basis points

		fv["account_age_days"] = math.Trunc(accountAge.Rand() * (1 - r*0.2))

		prob := defaultProbability(r, labelRepaymentRate,
			fv["loan_to_collateral_ratio"], fv["stablecoin_ratio"], fv["account_age_days"])

		label := 0
		if rng.Float64() < prob {
			label = 1
		}

		ds.Append(dataset.Sample{
			Features: fv,
			Label:    label,
			Labeled:  true,
			GenProb:  prob,
		})
	}

	return ds, nil
}

// defaultProbability computes the probability the binary label is drawn
// from. It is deliberately a separate hand-tuned formula from the heuristic
// scorer's rule bands; the two must never be unified.
func defaultProbability(risk, repaymentRate, loanToCollateral, stablecoinRatio, accountAgeDays float64) float64 {
	prob := risk * 0.4

	// Repayment history is the strongest signal.
	if repaymentRate > 0 {
		prob += (1 - repaymentRate) * 0.3
	}

	if loanToCollateral > 0.8 {
		prob += 0.2
	} else if loanToCollateral > 0.7 {
		prob += 0.1
	}

	prob -= stablecoinRatio * 0.15

	if accountAgeDays < 30 {
		prob += 0.15
	} else if accountAgeDays < 90 {
		prob += 0.08
	} else if accountAgeDays > 365 {
		prob -= 0.1
	}

	return clip(prob, minDefaultProbability, maxDefaultProbability)
}

func clip(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
