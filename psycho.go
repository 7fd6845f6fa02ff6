package ulc

import "math"

// psychoState carries the sliding critical-band and noise-band window sums
// used to build a masking curve across one sub-block's spectrum. It is
// rebuilt per sub-block (not carried across blocks), unlike smoothingTaps.
type psychoState struct {
	logEnergy []float64 // ln(coef[k]^2 + eps) per band, the reference's "Nepers" buffer
}

// mainBandRadius and noiseBandRadius set the half-widths (in bands) of the
// two sliding windows the reference mixes to build its masking curve: a wide
// "main" critical-band estimate and a narrower "noise" band estimate. Grounded
// on ulcEncoder_Psycho.h's LoRangeScale/HiRangeScale pairs (29/45 for the main
// band, 15/20 for the noise band, both expressed there as fixed-point shift
// amounts); here they're plain band counts since this package works in
// float64 throughout rather than the reference's Q32 fixed point.
const (
	mainBandRadius  = 6
	noiseBandRadius = 2
)

// calculatePsychoacoustics computes, for one sub-block's MDCT coefficients,
// a per-band importance score used to rank coefficients for the quantizer's
// rate/quality cutoff. Grounded on
// Block_Transform_CalculatePsychoacoustics (ulcEncoder_Psycho.h): each band's
// score folds its own log-energy against a local masking estimate and a
// spectral-flatness correction, so that tonal peaks above the noise floor of
// their neighborhood score higher than energy sitting inside a broadband
// noise-like region even at equal absolute level.
func calculatePsychoacoustics(coef []float64) []float64 {
	n := len(coef)
	st := &psychoState{logEnergy: make([]float64, n)}
	for k, c := range coef {
		e := c*c + coefEps*coefEps
		st.logEnergy[k] = math.Log(e)
	}

	windowMean := func(center, radius int) float64 {
		lo, hi := center-radius, center+radius
		if lo < 0 {
			lo = 0
		}
		if hi >= n {
			hi = n - 1
		}
		var sum float64
		for i := lo; i <= hi; i++ {
			sum += st.logEnergy[i]
		}
		return sum / float64(hi-lo+1)
	}

	// Spectral flatness over the noise-band window: ratio of the geometric
	// mean to the arithmetic mean of band energy, in [0,1], 1 == flat noise.
	flatness := func(center, radius int) float64 {
		lo, hi := center-radius, center+radius
		if lo < 0 {
			lo = 0
		}
		if hi >= n {
			hi = n - 1
		}
		var logSum, arith float64
		cnt := 0
		for i := lo; i <= hi; i++ {
			e := math.Exp(st.logEnergy[i])
			logSum += st.logEnergy[i]
			arith += e
			cnt++
		}
		if arith <= 0 || cnt == 0 {
			return 0
		}
		geo := math.Exp(logSum / float64(cnt))
		f := geo / (arith / float64(cnt))
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		return f
	}

	// Block-wide analysis power term: log-mean energy across the whole
	// sub-block, giving every band's score a common per-block offset so
	// louder sub-blocks outrank quieter ones at equal internal shape.
	var analysisPower float64
	for _, l := range st.logEnergy {
		analysisPower += l
	}
	if n > 0 {
		analysisPower /= float64(n)
	}

	scores := make([]float64, n)
	for k := range coef {
		ell := st.logEnergy[k]
		m := windowMean(k, mainBandRadius)
		flat := flatness(k, noiseBandRadius)
		flat2 := flat * flat
		scores[k] = math.Exp(2*(3.455*ell-2.533*m) + 8*flat2*(flat2-1) + analysisPower)
	}
	return scores
}
