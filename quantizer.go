package ulc

import "math"

// maxCodingKbps returns the bitrate a block configuration reaches when every
// coefficient is coded at the worst-case cost MaxBlockBits assumes (one
// coefficient nibble plus one quantizer-header nibble): 8
// bits/coefficient/channel, amortized over one block's duration.
// Grounded on ulcEncoder_BlockTransform.h's MaxCodingKbps(BlockSize, nChan,
// RateHz) divisor; blockSize cancels algebraically (bits-per-block and
// block-duration both scale with it) but is kept as a parameter to match
// that reference signature and because a future non-uniform coefficient
// budget could reintroduce the dependency.
func maxCodingKbps(blockSize, nChan, rateHz int) float64 {
	bitsPerBlock := float64(8 * blockSize * nChan)
	blockSeconds := float64(blockSize) / float64(rateHz)
	return bitsPerBlock / 1000 / blockSeconds
}

// deltaThreshold returns the log-amplitude deviation (in Nepers) that ends a
// quantizer zone and starts a new one: spec §4.5's
// Delta = 4.608 * max(1, 2 - kbps/max_kbps(N,C,rate)), grounded on
// ulcEncoder_BlockTransform.h's QuantRangeScale/QuantRange (0x1.25701Bp2,
// half the Nepers range of a 7-bit companded coefficient). Target rates at
// or above maxCodingKbps clamp to the finest threshold (4.608 Np); slower
// targets widen it, up to 9.216 Np as kbps falls to zero.
func deltaThreshold(kbps float64, blockSize, nChan, rateHz int) float64 {
	scale := 2.0 - kbps/maxCodingKbps(blockSize, nChan, rateHz)
	if scale < 1.0 {
		scale = 1.0
	}
	return 4.608 * scale
}

// partitionQuantZones splits one sub-block's coefficient magnitudes into
// contiguous zones sharing a power-of-two quantizer step, by walking the
// spectrum left to right and starting a new zone whenever a coefficient's
// log-amplitude strays more than delta from the running zone mean. Grounded
// on the reference's incremental zone builder in ulcEncoder_Encode.h; capped
// to maxZones by merging the cheapest-to-merge adjacent pair (smallest mean
// difference) until the budget is met, mirroring the reference's
// fixed 48-zone-per-channel budget (maxQBands).
func partitionQuantZones(mag []float64, maxZones int, delta float64) []quantZone {
	n := len(mag)
	if n == 0 {
		return nil
	}

	logAmp := make([]float64, n)
	for i, m := range mag {
		logAmp[i] = math.Log(m + coefEps)
	}

	var zones []quantZone
	start := 0
	var sum float64
	cnt := 0
	flush := func(end int) {
		if cnt == 0 {
			return
		}
		mean := sum / float64(cnt)
		zones = append(zones, quantZone{start: start, width: end - start, exponent: exponentFor(mean)})
	}
	for i := 0; i < n; i++ {
		if cnt > 0 {
			mean := sum / float64(cnt)
			if math.Abs(logAmp[i]-mean) > delta {
				flush(i)
				start, sum, cnt = i, 0, 0
			}
		}
		sum += logAmp[i]
		cnt++
	}
	flush(n)

	for len(zones) > maxZones {
		zones = mergeCheapestPair(zones, logAmp)
	}

	for zi, z := range zones {
		allZero := true
		for i := z.start; i < z.start+z.width; i++ {
			if compandedQuantizeUnsigned(mag[i]/exponentScale(z.exponent)) != 0 {
				allZero = false
				break
			}
		}
		if allZero {
			zones[zi].exponent = quantUnused
		}
	}
	return zones
}

// exponentFor maps a zone's mean log-amplitude to the power-of-two quantizer
// exponent whose step size best covers it, stored with a +16 bias and
// clamped to [0,30]; only its low 4 bits reach the bitstream's quantizer
// header (see encodeChannel).
func exponentFor(meanLogAmp float64) int {
	e := int(math.Round(meanLogAmp/math.Ln2)) + 16
	if e < 0 {
		e = 0
	}
	if e > 30 {
		e = 30
	}
	return e
}

// exponentScale returns 2^(exponent-16), undoing exponentFor's offset.
func exponentScale(exponent int) float64 {
	return math.Exp2(float64(exponent - 16))
}

// mergeCheapestPair merges the two adjacent zones whose combined mean
// log-amplitude varies least, i.e. the pair whose separate encoding buys the
// least precision for the extra quantizer header it costs.
func mergeCheapestPair(zones []quantZone, logAmp []float64) []quantZone {
	if len(zones) < 2 {
		return zones
	}
	bestIdx, bestCost := 0, math.Inf(1)
	for i := 0; i < len(zones)-1; i++ {
		a, b := zones[i], zones[i+1]
		meanA := zoneMeanLogAmp(a, logAmp)
		meanB := zoneMeanLogAmp(b, logAmp)
		cost := math.Abs(meanA - meanB)
		if cost < bestCost {
			bestCost, bestIdx = cost, i
		}
	}
	a, b := zones[bestIdx], zones[bestIdx+1]
	merged := quantZone{start: a.start, width: a.width + b.width, exponent: exponentFor(zoneMeanLogAmp(quantZone{start: a.start, width: a.width + b.width}, logAmp))}
	out := make([]quantZone, 0, len(zones)-1)
	out = append(out, zones[:bestIdx]...)
	out = append(out, merged)
	out = append(out, zones[bestIdx+2:]...)
	return out
}

func zoneMeanLogAmp(z quantZone, logAmp []float64) float64 {
	if z.width == 0 {
		return 0
	}
	var sum float64
	for i := z.start; i < z.start+z.width && i < len(logAmp); i++ {
		sum += logAmp[i]
	}
	return sum / float64(z.width)
}
