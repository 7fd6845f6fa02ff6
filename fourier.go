package ulc

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// fourierKernel computes the forward MDCT/MDST pair for one sub-block and
// threads the lap buffer between successive calls. A kernel is created once
// per distinct sub-block size encountered and its twiddle tables are reused
// across blocks, since sub-block sizes are drawn from a small fixed set
// (BlockSize >> {0,1,2,3}).
//
// The transform itself is the standard "odd-stacked" half-sample-shifted
// DFT reduction: cos[k] + i*(-sin[k]) = sum_n x[n] * exp(-i*theta(n,k))
// factors into a per-sample time-domain twiddle, a plain N-point complex
// DFT, and a per-bin frequency-domain twiddle (derived by expanding
// theta(n,k) = (2*pi/N)*(n+n0)*(k+0.5) into n*k, n0*k, n/2 and n0/2 terms
// and grouping the n*k term into an ordinary DFT kernel). This lets the
// actual O(N log N) work run through go-dsp/fft's complex FFT instead of
// the direct O(N^2) summation.
type fourierKernel struct {
	size int // N: sub-block window length; half = N/2 new+lap samples in, N/2 coefficients out

	premul  []complex128 // exp(-i*pi*n/N), n=0..N-1: the time-domain half-bin shift
	postmul []complex128 // exp(-i*pi*n0/N) * exp(-i*2*pi*n0*k/N), k=0..N/2-1

	win []float64 // analysis window, length N, rebuilt when overlap length changes
	ov  int       // overlap length the window table was built for
}

func newFourierKernel(size int) *fourierKernel {
	k := &fourierKernel{size: size}
	N := float64(size)
	half := size / 2
	n0 := float64(half+1) / 2

	k.premul = make([]complex128, size)
	for n := 0; n < size; n++ {
		k.premul[n] = cmplx.Exp(complex(0, -math.Pi*float64(n)/N))
	}

	base := cmplx.Exp(complex(0, -math.Pi*n0/N))
	k.postmul = make([]complex128, half)
	for kk := 0; kk < half; kk++ {
		k.postmul[kk] = base * cmplx.Exp(complex(0, -2*math.Pi*n0*float64(kk)/N))
	}
	return k
}

// analysisWindow builds (or reuses) a sine-shaped MDCT window of length N
// whose rising/falling transition regions have length overlap samples; the
// window is flat at 0 before the rise and flat at 1 between the rise and
// fall, per spec §4.1.
func (k *fourierKernel) analysisWindow(overlap int) []float64 {
	if k.win != nil && k.ov == overlap {
		return k.win
	}
	N := k.size
	w := make([]float64, N)
	for n := 0; n < N; n++ {
		switch {
		case n < overlap:
			w[n] = math.Sin((math.Pi / 2) * (float64(n) + 0.5) / float64(overlap))
		case n >= N-overlap:
			m := N - 1 - n
			w[n] = math.Sin((math.Pi / 2) * (float64(m) + 0.5) / float64(overlap))
		default:
			w[n] = 1
		}
	}
	k.win = w
	k.ov = overlap
	return w
}

// forward runs one MDCT (and, into mdst, the auxiliary MDST) over lap (N/2
// prior samples, updated in place for the next call) and newSamples (N/2
// fresh samples), via a single N-point complex FFT (see the fourierKernel
// doc comment for the derivation). coef and mdst must each have length N/2.
func (k *fourierKernel) forward(coef, mdst []float64, lap, newSamples []float64, overlap int) {
	N := k.size
	half := N / 2
	w := k.analysisWindow(overlap)

	x := make([]complex128, N)
	for n := 0; n < half; n++ {
		x[n] = complex(w[n]*lap[n], 0) * k.premul[n]
		x[half+n] = complex(w[half+n]*newSamples[n], 0) * k.premul[half+n]
	}

	spec := fft.FFT(x)
	for kk := 0; kk < half; kk++ {
		s := k.postmul[kk] * spec[kk]
		coef[kk] = real(s)
		mdst[kk] = -imag(s)
	}
	copy(lap, newSamples)
}
