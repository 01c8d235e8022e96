// Package portfolio implements the Monte Carlo portfolio simulator.
//
// A cohort of pre-seed projects is pushed through three stage transitions
// (Pre-Seed -> Seed -> Series A -> Series B). Each transition draws one
// shared "common factor" for the whole cohort and one draw per project; the
// two are blended by the configured correlation and compared against the
// stage's advancement rate. The common factor of each later transition
// keeps part of the previous one, so systemic conditions drift rather than
// reset between stages.
//
// The engine is a pure function of its Config and Source: no state survives
// between calls. Seed the Source to replay a run exactly.
//
// Usage:
//
//	res, err := portfolio.Run(ctx, portfolio.DefaultConfig(), portfolio.NewSource(42))
//	if errors.Is(err, portfolio.ErrInvalidConfiguration) {
//	    ...
//	}
//	fmt.Println(res.ExpectedSuccessCount, res.ProbabilityOfTarget)
package portfolio
