package ulc

import "math"

// smoothingTaps holds the two IIR states shared across blocks by the
// transient detector: a low-pass tracker and a DC-removal tracker.
type smoothingTaps struct {
	lowpass float64
	dc      float64
}

// windowSegments is the number of interleaved groups the transition-region
// energy is partitioned into for the binary descent (spec §4.2).
const windowSegments = 16

// selectWindowControl runs the transient analyzer over the current and
// previous block's samples and returns the 16-pattern-table window control
// byte (see decimationPattern/overlapScaleOf in types.go). cur and prev are
// channel-planar, each nChan*blockSize samples long.
func selectWindowControl(cur, prev []float64, taps *smoothingTaps, nChan, blockSize, rateHz int, windowSwitching bool) uint16 {
	half := blockSize / 2

	// Bandpass-filter H(z) = z - z^-1, square, sum across channels, over
	// the transition region (last quarter of prev + all of cur), then
	// average down to half samples.
	region := make([]float64, blockSize+blockSize/4)
	for ch := 0; ch < nChan; ch++ {
		p := prev[ch*blockSize:]
		c := cur[ch*blockSize:]
		src := func(i int) float64 {
			// i in [0, blockSize+blockSize/4): first quarter+blockSize
			// spans prev[3*blockSize/4:] ++ cur[:].
			if i < blockSize/4 {
				return p[blockSize*3/4+i]
			}
			return c[i-blockSize/4]
		}
		for i := range region {
			var a, b float64
			if i > 0 {
				a = src(i - 1)
			} else {
				a = src(0)
			}
			if i < len(region)-1 {
				b = src(i + 1)
			} else {
				b = src(i)
			}
			d := b - a
			region[i] += d * d
		}
	}

	// First-order low-pass (decay 240/256) then DC-removal (decay 252/256),
	// both stateful via the shared smoothing taps.
	const lpDecay = 240.0 / 256.0
	const dcDecay = 252.0 / 256.0
	filtered := make([]float64, len(region))
	lp := taps.lowpass
	dc := taps.dc
	for i, v := range region {
		lp = lpDecay*lp + (1-lpDecay)*v
		dc = dcDecay*dc + (1-dcDecay)*lp
		filtered[i] = lp - dc
		if filtered[i] < 1e-30 {
			filtered[i] = 1e-30
		}
	}
	taps.lowpass, taps.dc = lp, dc

	// Average down to half samples covering the whole transition region
	// (len(filtered)/half = 2.5 filtered samples per output on average).
	decimated := make([]float64, half)
	for i := range decimated {
		lo := i * len(filtered) / half
		hi := (i + 1) * len(filtered) / half
		var sum float64
		for j := lo; j < hi; j++ {
			sum += filtered[j]
		}
		decimated[i] = sum / float64(hi-lo)
	}

	// Partition into 16 contiguous segments of half/16 samples each (the
	// segments are not interleaved); accumulate (Σ w·ln d, Σ w) with w = d^2
	// per segment.
	type segStat struct{ wLog, w float64 }
	segs := make([]segStat, windowSegments)
	segLen := half / windowSegments
	if segLen < 1 {
		segLen = 1
	}
	for i, d := range decimated {
		seg := i / segLen
		if seg >= windowSegments {
			seg = windowSegments - 1
		}
		w := d * d
		segs[seg].w += w
		segs[seg].wLog += w * math.Log(d)
	}
	groupStat := func(lo, hi int) float64 {
		var w, wLog float64
		for i := lo; i < hi && i < windowSegments; i++ {
			w += segs[i].w
			wLog += segs[i].wLog
		}
		if w == 0 {
			return 0
		}
		return wLog / w
	}

	// Binary descent over LL/L/M/R groups of the 16 segments.
	lowNibble := 1 // decimation selector: 1 = "no decimation" pattern index
	regionStart, regionLen := 0, windowSegments/4
	subBlockSize := blockSize
	var finalRatio float64
	for decimations := 0; ; decimations++ {
		ll := groupStat(regionStart, regionStart+regionLen)
		l := groupStat(regionStart+regionLen, regionStart+2*regionLen)
		m := groupStat(regionStart+2*regionLen, regionStart+3*regionLen)
		r := groupStat(regionStart+3*regionLen, regionStart+4*regionLen)
		rL, rM, rR := l-ll, m-l, r-m

		pos := 0 // 0=L, 1=M, 2=R
		best := rL
		if rM > best {
			best, pos = rM, 1
		}
		if rR > best {
			best, pos = rR, 2
		}

		canDecimate := windowSwitching && decimations < 3 && regionLen > 1 && subBlockSize/2 >= 64
		if canDecimate && pos != 2 && best > math.Ln2 {
			if pos == 0 {
				lowNibble = (lowNibble << 1) | 0
			} else {
				lowNibble = (lowNibble << 1) | 1
				regionStart += regionLen
			}
			regionLen /= 2
			subBlockSize /= 2
			continue
		}
		finalRatio = best
		break
	}

	// Overlap scale from the winning ratio.
	s := int(math.Round(math.Log2(float64(subBlockSize)) + 4.32 - 1.44*(math.Log(float64(rateHz))-finalRatio)))
	if s < 0 {
		s = 0
	}
	if s > 7 {
		s = 7
	}
	for s > 0 && subBlockSize>>uint(s) < 16 {
		s--
	}

	flag := 0
	if lowNibble != 1 {
		flag = 1
	}
	return uint16(s) | uint16(flag<<3) | uint16(lowNibble<<4)
}
