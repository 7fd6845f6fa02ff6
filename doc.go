// Package ulc implements the encoder core of an ultra-low-complexity
// perceptual audio codec: transient-adaptive windowed MDCT, psychoacoustic
// masking, noise-floor/HF-extension side information, geometric-mean-zone
// quantization, and a self-synchronizing nibble-oriented bitstream.
//
// The decoder, file framing, and WAV/CLI argument handling are not part of
// this package; see cmd/ulcenc for a minimal external consumer.
package ulc
