package ulc

import "math"

// noiseBands is the number of geometric-mean noise-floor segments fitted per
// sub-block, and the number of fill amplitudes the bitstream's "8,F,..."
// payload carries (spec §4.4/§4.7).
const noiseBands = 8

// hfExtParams is the weighted least-squares fit of the high-frequency noise
// floor's log-amplitude against band offset x from the start of the fitted
// upper half: logAmp(start+x) ~= amplitude - decay*x.
// Grounded on Block_Encode_EncodePass_GetHFExtParams_LeastSquares
// (ulcEncoder_NoiseFill.h).
type hfExtParams struct {
	amplitude float64
	decay     float64
}

// noiseAnalysis is the per-sub-block output of the noise analyzer: one
// geometric-mean fill amplitude per noise band (quantized only when
// writeNoiseFill emits it) plus the HF-extension fit used to
// synthesize bands beyond the coded spectrum.
type noiseAnalysis struct {
	fillAmplitude [noiseBands]float64
	hfExt         hfExtParams
}

// pseudoDFTPower returns |X_k|^2 computed from the MDCT/MDST pair, the
// reference's "pseudo-DFT" power estimate (Block_Transform_CalculateNoiseLogSpectrum
// forms the same quantity from DCT+DST outputs; here mdct/mdst come straight
// out of fourierKernel.forward instead of a second transform pass).
func pseudoDFTPower(mdct, mdst []float64) []float64 {
	power := make([]float64, len(mdct))
	for k := range mdct {
		power[k] = mdct[k]*mdct[k] + mdst[k]*mdst[k]
	}
	return power
}

// maskBandwidth and floorBandwidth give sliding-window half-widths (in
// bands) for a mask window and a noise-floor window, each scaled by sample
// rate the way the reference scales its window constants by 16000*2/RateHz
// (mask) and RateHz/(22000*2) (floor): a lower rate gives a wider mask
// window and a narrower floor window. calculateNoiseAnalysis uses only
// floorBandwidth; no mask window is applied to the noise-floor estimate.
func maskBandwidth(rateHz, nBands int) int {
	w := nBands * 16000 * 2 / rateHz / 8
	if w < 1 {
		w = 1
	}
	return w
}

func floorBandwidth(rateHz, nBands int) int {
	w := nBands * rateHz / (22000 * 2) / 8
	if w < 1 {
		w = 1
	}
	return w
}

// calculateNoiseAnalysis derives the (unquantized) noise-fill amplitudes and the
// HF-extension fit for one sub-block, given its pseudo-DFT power spectrum.
// Grounded on Block_Transform_CalculateNoiseLogSpectrumWithWeights,
// Block_Encode_EncodePass_GetNoiseQ and
// Block_Encode_EncodePass_GetHFExtParams (ulcEncoder_NoiseFill.h).
func calculateNoiseAnalysis(power []float64, rateHz int) noiseAnalysis {
	n := len(power)
	var na noiseAnalysis
	if n == 0 {
		return na
	}
	floorW := floorBandwidth(rateHz, n)

	logFloor := make([]float64, n)
	for k := range power {
		lo, hi := k-floorW, k+floorW
		if lo < 0 {
			lo = 0
		}
		if hi >= n {
			hi = n - 1
		}
		var sum float64
		for i := lo; i <= hi; i++ {
			sum += math.Log(power[i] + coefEps*coefEps)
		}
		logFloor[k] = sum / float64(hi-lo+1)
	}

	bandSize := (n + noiseBands - 1) / noiseBands
	for b := 0; b < noiseBands; b++ {
		lo := b * bandSize
		hi := lo + bandSize
		if lo >= n {
			na.fillAmplitude[b] = 0
			continue
		}
		if hi > n {
			hi = n
		}
		var sum float64
		for k := lo; k < hi; k++ {
			sum += logFloor[k]
		}
		mean := sum / float64(hi-lo)
		na.fillAmplitude[b] = math.Exp(0.5 * mean) // geometric-mean amplitude, not power
	}

	na.hfExt = fitHFExtension(logFloor)
	return na
}

// fitHFExtension performs a weighted least-squares fit of log-amplitude
// against band index over the spectrum's upper half, weighting each band by
// its own floor amplitude so that bands near the noise floor (rather than
// stray near-zero coefficients) dominate the slope estimate. Grounded on
// Block_Encode_EncodePass_GetHFExtParams_LeastSquares.
func fitHFExtension(logFloor []float64) hfExtParams {
	n := len(logFloor)
	start := n / 2
	if start >= n {
		return hfExtParams{}
	}
	var sw, swx, swy, swxx, swxy float64
	for k := start; k < n; k++ {
		x := float64(k - start)
		y := 0.5 * logFloor[k]
		w := math.Exp(y) // weight by floor amplitude
		sw += w
		swx += w * x
		swy += w * y
		swxx += w * x * x
		swxy += w * x * y
	}
	if sw == 0 {
		return hfExtParams{}
	}
	denom := sw*swxx - swx*swx
	if math.Abs(denom) < 1e-12 {
		return hfExtParams{amplitude: swy / sw}
	}
	slope := (sw*swxy - swx*swy) / denom
	intercept := (swy - slope*swx) / sw
	return hfExtParams{amplitude: intercept, decay: -slope}
}
