package ulc

import "testing"

func TestSelectWindowControlSilenceStaysUndecimated(t *testing.T) {
	blockSize := 256
	cur := make([]float64, blockSize)
	prev := make([]float64, blockSize)
	var taps smoothingTaps

	wc := selectWindowControl(cur, prev, &taps, 1, blockSize, 48000, true)
	if decimationSelector(wc) != 1 {
		t.Errorf("silent block: decimationSelector(wc) = %d, want 1 (no decimation)", decimationSelector(wc))
	}
}

func TestSelectWindowControlTransientTriggersDecimation(t *testing.T) {
	blockSize := 256
	prev := make([]float64, blockSize)
	cur := make([]float64, blockSize)
	// A sharp onset halfway through the current block: silence then a loud
	// tone, which should register as a transient relative to the silent
	// previous block and push the decimation selector away from 1.
	for i := blockSize / 2; i < blockSize; i++ {
		cur[i] = 1.0
		if i%2 == 0 {
			cur[i] = -1.0
		}
	}
	var taps smoothingTaps
	wc := selectWindowControl(cur, prev, &taps, 1, blockSize, 48000, true)

	if decimationSelector(wc) == 1 {
		t.Errorf("onset block: decimationSelector(wc) = 1, want a decimated pattern")
	}
	if overlapScaleOf(wc) < 0 || overlapScaleOf(wc) > 7 {
		t.Errorf("overlapScaleOf(wc) = %d, out of [0,7]", overlapScaleOf(wc))
	}
	sizes, transientIdx := subBlockSizes(wc, blockSize)
	sum := 0
	for _, s := range sizes {
		sum += s
	}
	if sum != blockSize {
		t.Errorf("sub-block sizes sum to %d, want %d", sum, blockSize)
	}
	if transientIdx < 0 || transientIdx >= len(sizes) {
		t.Errorf("transientIdx %d out of range [0,%d)", transientIdx, len(sizes))
	}
}

func TestSelectWindowControlDisabledSwitchingNeverDecimates(t *testing.T) {
	blockSize := 256
	prev := make([]float64, blockSize)
	cur := make([]float64, blockSize)
	for i := blockSize / 2; i < blockSize; i++ {
		cur[i] = 1.0
	}
	var taps smoothingTaps
	wc := selectWindowControl(cur, prev, &taps, 1, blockSize, 48000, false)
	if decimationSelector(wc) != 1 {
		t.Errorf("windowSwitching=false: decimationSelector(wc) = %d, want 1", decimationSelector(wc))
	}
}
