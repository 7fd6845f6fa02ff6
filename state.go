package ulc

// channelState carries the inter-block memory a single channel's transform
// and transient analysis need: the MDCT lap (the raw samples of the
// previous sub-block, which fourierKernel.forward windows together with the
// next sub-block's new samples), the raw previous block (for the window controller's
// transition-region analysis), and that controller's smoothing taps.
type channelState struct {
	lap     []float64
	prev    []float64
	taps    smoothingTaps
	hasPrev bool
}

// Encoder holds everything needed to encode a stream of fixed-size blocks:
// configuration, the trig-table cache (one fourierKernel per distinct
// sub-block size in play), and per-channel carried state. Grounded on the
// reference's single-arena ULC_EncoderState_t (ulcEncoder.h), split here
// into ordinary Go fields rather than one flat buffer, since nothing in this
// package's hot path depends on a single contiguous allocation.
type Encoder struct {
	params Params

	kernels map[int]*fourierKernel
	chans   []channelState
}

// New validates params and allocates an Encoder ready to process blocks of
// params.BlockSize samples per channel. No partial state is retained if it
// returns a non-nil error.
func New(params Params) (*Encoder, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	e := &Encoder{
		params:  params,
		kernels: make(map[int]*fourierKernel),
		chans:   make([]channelState, params.Channels),
	}
	for ch := range e.chans {
		e.chans[ch].lap = make([]float64, params.BlockSize)
		e.chans[ch].prev = make([]float64, params.BlockSize)
	}
	return e, nil
}

// Close releases the Encoder's internal caches. An Encoder isn't reusable
// after Close.
func (e *Encoder) Close() {
	e.kernels = nil
	e.chans = nil
}

// MaxBlockBits returns an upper bound on the number of bits EncodeBlockCBR
// or EncodeBlockVBR can emit for one block: the leading window control byte
// (spec §4.7 item 1) plus, per channel, every coefficient coded at full
// precision (worst case, one nibble each) plus one quantizer-header nibble
// per coefficient and the noise-fill payload.
func (e *Encoder) MaxBlockBits() int {
	bands := e.params.BlockSize * e.params.Channels
	bits := 8 + bands*2*4 // window control byte + header nibble (worst case one per band) + coefficient nibble
	if e.params.Flags.NoiseCoding {
		bits += e.params.Channels * (2 + noiseBands) * 4
	}
	return bits
}

func (e *Encoder) kernelFor(size int) *fourierKernel {
	if k, ok := e.kernels[size]; ok {
		return k
	}
	k := newFourierKernel(size)
	e.kernels[size] = k
	return k
}

// blockAnalysis is one channel's full per-block working state: the flattened
// coefficient and importance-score bands (concatenated across sub-blocks, in
// band order, matching the reference's flat per-channel TransformBuffer),
// and the per-sub-block noise analysis used for the noise-fill payload.
type blockAnalysis struct {
	coef       []float64
	mdst       []float64
	importance []float64
	noise      []noiseAnalysis
}

// analyzeBlock runs the transform, psychoacoustic, and noise-analysis
// stages for one channel's block and returns the flattened per-band results.
//
// subBlockSizes' entries are hop lengths (new samples consumed per
// sub-block), summing to BlockSize; each sub-block's actual MDCT window is
// twice its hop (hop lapped samples + hop new samples in, hop coefficients
// out), the standard 50%-overlap relationship spec §4.1 assumes.
func (e *Encoder) analyzeBlock(ch int, cur []float64, windowCtrl uint16) blockAnalysis {
	hops, transientIdx := subBlockSizes(windowCtrl, e.params.BlockSize)
	overlap := maxOverlapLen(hops[transientIdx], overlapScaleOf(windowCtrl))

	st := &e.chans[ch]
	var ba blockAnalysis
	offset := 0
	for i, hop := range hops {
		k := e.kernelFor(2 * hop)

		sub := make([]float64, hop)
		mdst := make([]float64, hop)
		ov := overlap
		if i != transientIdx {
			ov = hop // non-transient subblocks use the full sine window
		}
		lap := resizeLap(st.lap, hop)
		k.forward(sub, mdst, lap, cur[offset:offset+hop], ov)
		st.lap = lap

		ba.coef = append(ba.coef, sub...)
		ba.mdst = append(ba.mdst, mdst...)

		if e.params.Flags.Psychoacoustics {
			ba.importance = append(ba.importance, calculatePsychoacoustics(sub)...)
		} else {
			flat := make([]float64, hop)
			for j := range flat {
				flat[j] = sub[j] * sub[j]
			}
			ba.importance = append(ba.importance, flat...)
		}
		if e.params.Flags.NoiseCoding {
			power := pseudoDFTPower(sub, mdst)
			ba.noise = append(ba.noise, calculateNoiseAnalysis(power, e.params.RateHz))
		}
		offset += hop
	}
	return ba
}

// resizeLap returns a lap buffer of exactly n samples, truncating from the
// front or zero-padding at the front to match a sub-block size change
// across a window-control transition.
func resizeLap(lap []float64, n int) []float64 {
	if len(lap) == n {
		return lap
	}
	out := make([]float64, n)
	if len(lap) > n {
		copy(out, lap[len(lap)-n:])
	} else {
		copy(out[n-len(lap):], lap)
	}
	return out
}

// maxOverlapLen clamps the overlap-scale-derived overlap length to the
// transient sub-block's own hop length (the largest overlap a 50%-overlap
// window can use), per spec §4.1/§4.2.
func maxOverlapLen(hop, scale int) int {
	ov := hop >> uint(scale)
	if ov < 1 {
		ov = 1
	}
	if ov > hop {
		ov = hop
	}
	return ov
}

// quantizeChannel rounds a channel's flattened coefficients against the
// given zones into bitstream-ready integers, applying the importance
// threshold: any band whose importance falls below threshold is forced to
// zero before rounding, which is what the CBR/VBR cutoff search actually
// controls.
func quantizeChannel(coef, importance []float64, zones []quantZone, threshold float64) []int {
	out := make([]int, len(coef))
	for _, z := range zones {
		if z.exponent == quantUnused {
			continue
		}
		scale := exponentScale(z.exponent)
		for i := z.start; i < z.start+z.width && i < len(coef); i++ {
			if importance[i] < threshold {
				continue
			}
			out[i] = compandedQuantizeCoefficientUnsigned(absf(coef[i])/scale, 7)
			if coef[i] < 0 {
				out[i] = -out[i]
			}
		}
	}
	return out
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// encodeBlock writes one fully analyzed block (already quantized at a given
// threshold) for every channel into w. Spec §4.7 item 1 / §6: every block
// begins with the window control byte, overlap nibble first then
// decimation nibble, ahead of the per-channel quantizer/coefficient data.
func encodeBlock(w *bitWriter, params Params, windowCtrl uint16, kbps float64, perChan []blockAnalysis, threshold float64) {
	w.writeNibble(int(windowCtrl & 0xF))
	w.writeNibble(int(windowCtrl >> 4))
	delta := deltaThreshold(kbps, params.BlockSize, params.Channels, params.RateHz)
	for ch := range perChan {
		ba := &perChan[ch]
		zones := partitionQuantZones(absAll(ba.coef), maxQBands, delta)
		qcoef := quantizeChannel(ba.coef, ba.importance, zones, threshold)
		encodeChannel(w, qcoef, zones)
		if params.Flags.NoiseCoding {
			for _, na := range ba.noise {
				w.writeNoiseFill(na)
			}
		}
	}
}

func absAll(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = absf(v)
	}
	return out
}

// EncodeBlockCBR encodes one block at (approximately) a fixed bit rate,
// binary-searching the importance cutoff that brings the coded size at or
// under the budget implied by kbps, and returns the number of bytes written
// to dst. len(src) must be params.Channels*params.BlockSize.
func (e *Encoder) EncodeBlockCBR(dst []byte, src []float32, kbps float64) (int, error) {
	targetBits := int(kbps * 1000 * float64(e.params.BlockSize) / float64(e.params.RateHz))
	return e.encodeBlock(dst, src, kbps, func(windowCtrl uint16, perChan []blockAnalysis) float64 {
		return selectCutoffCBR(func(threshold float64) int {
			w := &bitWriter{}
			encodeBlock(w, e.params, windowCtrl, kbps, perChan, threshold)
			return w.bits()
		}, targetBits)
	})
}

// EncodeBlockVBR encodes one block at a fixed perceptual quality level
// (higher quality = larger, more detailed blocks) and returns the number of
// bytes written to dst. Quality drives the importance cutoff directly, so
// there's no rate target to feed the quantizer-zone split threshold (spec
// §4.5); maxCodingKbps is passed instead, which clamps §4.5's scale term to
// 1 and so always picks the finest zone threshold (4.608 Np), deferring all
// rate control to the importance cutoff.
func (e *Encoder) EncodeBlockVBR(dst []byte, src []float32, quality float64) (int, error) {
	kbps := maxCodingKbps(e.params.BlockSize, e.params.Channels, e.params.RateHz)
	return e.encodeBlock(dst, src, kbps, func(windowCtrl uint16, perChan []blockAnalysis) float64 {
		return selectCutoffVBR(quality)
	})
}

func (e *Encoder) encodeBlock(dst []byte, src []float32, kbps float64, chooseThreshold func(uint16, []blockAnalysis) float64) (int, error) {
	nChan, blockSize := e.params.Channels, e.params.BlockSize
	if len(src) != nChan*blockSize {
		return 0, ErrSrcLength
	}
	if len(dst)*8 < e.MaxBlockBits() {
		return 0, ErrDstLength
	}

	cur := make([][]float64, nChan)
	for ch := 0; ch < nChan; ch++ {
		cur[ch] = make([]float64, blockSize)
		for i := 0; i < blockSize; i++ {
			cur[ch][i] = float64(src[ch*blockSize+i])
		}
	}

	var windowCtrl uint16
	if e.params.Flags.WindowSwitching && nChan > 0 {
		st := &e.chans[0]
		if st.hasPrev {
			windowCtrl = selectWindowControl(cur[0], st.prev, &st.taps, 1, blockSize, e.params.RateHz, true)
		}
	}

	perChan := make([]blockAnalysis, nChan)
	for ch := 0; ch < nChan; ch++ {
		perChan[ch] = e.analyzeBlock(ch, cur[ch], windowCtrl)
	}

	threshold := chooseThreshold(windowCtrl, perChan)
	w := &bitWriter{}
	encodeBlock(w, e.params, windowCtrl, kbps, perChan, threshold)

	for ch := 0; ch < nChan; ch++ {
		copy(e.chans[ch].prev, cur[ch])
		e.chans[ch].hasPrev = true
	}

	n := copy(dst, w.buf)
	return n, nil
}
