// Command ulcenc encodes headerless 32-bit-float PCM into a raw ulc
// bitstream, one block at a time. It is a thin consumer of package ulc: no
// file framing, no WAV parsing, just back-to-back blocks, matching the
// reference command line tools' raw-in/raw-out convention.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	ulc "github.com/aikku-ulc/ulc-codec-go"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] InputRawFile OutputBitFile\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "e.g. (headerless)  %s -rate 48000 -chan 2 input.f32 output.ulc\n", os.Args[0])
	flag.PrintDefaults()
	os.Exit(1)
}

func main() {
	rateHz := flag.Int("rate", 48000, "sample rate in Hz")
	nChan := flag.Int("chan", 2, "channel count")
	blockSize := flag.Int("blocksize", 2048, "block size in samples per channel")
	kbps := flag.Float64("kbps", 0, "constant-bitrate target in kbps (0 disables CBR)")
	quality := flag.Float64("quality", 8, "VBR quality level, used when -kbps is 0")
	psycho := flag.Bool("psycho", true, "enable psychoacoustic analysis")
	windowSwitch := flag.Bool("windowswitch", true, "enable transient window switching")
	noiseFill := flag.Bool("noisefill", true, "enable noise-fill side information")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 2 {
		usage()
	}
	inputFile, outputFile := flag.Arg(0), flag.Arg(1)

	params := ulc.Params{
		RateHz:    *rateHz,
		Channels:  *nChan,
		BlockSize: *blockSize,
		Flags: ulc.Flags{
			Psychoacoustics: *psycho,
			WindowSwitching: *windowSwitch,
			NoiseCoding:     *noiseFill,
		},
	}
	enc, err := ulc.New(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating encoder: %v\n", err)
		os.Exit(1)
	}
	defer enc.Close()

	var fin *os.File
	if inputFile == "-" {
		fin = os.Stdin
	} else if fin, err = os.Open(inputFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error opening input PCM file: %s: %s\n", inputFile, err)
		os.Exit(1)
	}
	defer fin.Close()

	var fout *os.File
	if outputFile == "-" {
		fout = os.Stdout
	} else if fout, err = os.Create(outputFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error opening output bitstream file: %s: %s\n", outputFile, err)
		os.Exit(1)
	}
	defer fout.Close()

	samplesPerBlock := *nChan * *blockSize
	frame := make([]byte, samplesPerBlock*4)
	pcm := make([]float32, samplesPerBlock)
	dst := make([]byte, (enc.MaxBlockBits()+7)/8)

	blockCount := 0
	for {
		blockCount++
		_, err := io.ReadFull(fin, frame)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			os.Exit(1)
		}
		// Input is interleaved; the encoder takes channel-planar blocks.
		for i := 0; i < *blockSize; i++ {
			for ch := 0; ch < *nChan; ch++ {
				bits := binary.LittleEndian.Uint32(frame[(i**nChan+ch)*4:])
				pcm[ch**blockSize+i] = math.Float32frombits(bits)
			}
		}

		var n int
		if *kbps > 0 {
			n, err = enc.EncodeBlockCBR(dst, pcm, *kbps)
		} else {
			n, err = enc.EncodeBlockVBR(dst, pcm, *quality)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding block %d: %v\n", blockCount, err)
			os.Exit(1)
		}
		if _, err := fout.Write(dst[:n]); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}

		if fin == os.Stdin {
			fmt.Fprintf(os.Stderr, "Block: %d\r", blockCount)
		}
	}
}
