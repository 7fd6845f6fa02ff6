package ulc

import (
	"math"
	"testing"
)

func TestPseudoDFTPower(t *testing.T) {
	mdct := []float64{3, 0, -1}
	mdst := []float64{4, 2, 1}
	power := pseudoDFTPower(mdct, mdst)
	want := []float64{25, 4, 2}
	for i := range want {
		if math.Abs(power[i]-want[i]) > 1e-9 {
			t.Errorf("power[%d] = %v, want %v", i, power[i], want[i])
		}
	}
}

func TestCalculateNoiseAnalysisFillAmplitudeNonNegative(t *testing.T) {
	n := 128
	power := make([]float64, n)
	for i := range power {
		power[i] = float64(i%7) * 0.1
	}
	na := calculateNoiseAnalysis(power, 48000)
	for i, a := range na.fillAmplitude {
		if a < 0 {
			t.Errorf("fillAmplitude[%d] = %v, want non-negative", i, a)
		}
	}
}

func TestCalculateNoiseAnalysisEmptySpectrum(t *testing.T) {
	na := calculateNoiseAnalysis(nil, 48000)
	for i, a := range na.fillAmplitude {
		if a != 0 {
			t.Errorf("fillAmplitude[%d] = %v, want 0 for empty spectrum", i, a)
		}
	}
	if na.hfExt != (hfExtParams{}) {
		t.Errorf("hfExt = %+v, want zero value for empty spectrum", na.hfExt)
	}
}

func TestFitHFExtensionDetectsDecay(t *testing.T) {
	n := 64
	logFloor := make([]float64, n)
	for i := range logFloor {
		logFloor[i] = -0.05 * float64(i) // monotonically decaying log-amplitude
	}
	params := fitHFExtension(logFloor)
	if params.decay <= 0 {
		t.Errorf("fitHFExtension: decay = %v, want positive for a decaying floor", params.decay)
	}
}

func TestMaskAndFloorBandwidthScaleWithRate(t *testing.T) {
	lowRate := maskBandwidth(8000, 256)
	highRate := maskBandwidth(48000, 256)
	if lowRate <= highRate {
		t.Errorf("maskBandwidth(8000,256)=%d should exceed maskBandwidth(48000,256)=%d", lowRate, highRate)
	}

	lowRateFloor := floorBandwidth(8000, 256)
	highRateFloor := floorBandwidth(48000, 256)
	if lowRateFloor >= highRateFloor {
		t.Errorf("floorBandwidth(8000,256)=%d should be less than floorBandwidth(48000,256)=%d", lowRateFloor, highRateFloor)
	}
}
