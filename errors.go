package ulc

import "errors"

// Configuration errors returned by New. No partial state is left allocated
// when New returns a non-nil error.
var (
	ErrInvalidRate      = errors.New("ulc: sample rate out of range [8000,96000]")
	ErrInvalidChannels  = errors.New("ulc: channel count out of range [1,255]")
	ErrInvalidBlockSize = errors.New("ulc: block size must be a power of two in [256,8192]")
)

// Contract-violation errors returned by EncodeBlockCBR/EncodeBlockVBR when
// the caller's buffers don't match the encoder's configured shape. Spec
// treats these as undefined-by-design at the inner boundary; Go slices
// carry their own length, so checking up front is nearly free and avoids
// silently reading or writing out of bounds.
var (
	ErrSrcLength = errors.New("ulc: src length must be nChan*BlockSize")
	ErrDstLength = errors.New("ulc: dst too small for MaxBlockBits")
)
