package ulc

import "testing"

func TestBitWriterNibblePacking(t *testing.T) {
	var w bitWriter
	w.writeNibble(0x3)
	w.writeNibble(0xA)
	w.writeNibble(0x5)
	if len(w.buf) != 2 {
		t.Fatalf("len(buf) = %d, want 2", len(w.buf))
	}
	// First pair: nibble 1 (0x3) in low bits, nibble 2 (0xA) in high bits.
	if w.buf[0] != 0xA3 {
		t.Errorf("buf[0] = %#x, want 0xA3", w.buf[0])
	}
	// Third nibble starts a fresh byte, in the low bits.
	if w.buf[1] != 0x05 {
		t.Errorf("buf[1] = %#x, want 0x05", w.buf[1])
	}
	if w.bits() != 12 {
		t.Errorf("bits() = %d, want 12", w.bits())
	}
}

func TestWriteZeroRunShortForm(t *testing.T) {
	var w bitWriter
	consumed := w.writeZeroRun(10)
	if consumed != 10 {
		t.Errorf("writeZeroRun(10) consumed %d, want 10 (exact short-form run)", consumed)
	}
	if w.nibble != 2 {
		t.Errorf("short-form zero run should cost 2 nibbles, wrote %d", w.nibble)
	}
}

func TestWriteZeroRunLongForm(t *testing.T) {
	var w bitWriter
	consumed := w.writeZeroRun(100)
	if consumed != 100 {
		t.Errorf("writeZeroRun(100) consumed %d, want 100 (exact long-form run)", consumed)
	}
	if w.nibble != 3 {
		t.Errorf("long-form zero run should cost 3 nibbles, wrote %d", w.nibble)
	}
}

func TestWriteZeroRunLongFormSaturates(t *testing.T) {
	var w bitWriter
	consumed := w.writeZeroRun(1000)
	if consumed != 152 {
		t.Errorf("writeZeroRun(1000) consumed %d, want 152 (max long-form run)", consumed)
	}
}

func TestWriteStop(t *testing.T) {
	var w1 bitWriter
	w1.writeStop(1)
	if w1.nibble != 1 {
		t.Errorf("writeStop(1) wrote %d nibbles, want 1", w1.nibble)
	}

	var w2 bitWriter
	w2.writeStop(5)
	if w2.nibble != 2 {
		t.Errorf("writeStop(5) wrote %d nibbles, want 2", w2.nibble)
	}

	var w0 bitWriter
	w0.writeStop(0)
	if w0.nibble != 0 {
		t.Errorf("writeStop(0) wrote %d nibbles, want 0", w0.nibble)
	}
}

func TestWriteCoefficientClampsAndTwosComplement(t *testing.T) {
	var w bitWriter
	w.writeCoefficient(3)
	w.writeCoefficient(-3)
	w.writeCoefficient(20)  // clamp to +7
	w.writeCoefficient(-20) // clamp to -7
	want := []byte{3, 0xD, 7, 0x9} // -3 -> 13 (0xD), -7 -> 9
	for i, wantNibble := range want {
		idx := i / 2
		var got byte
		if i%2 == 0 {
			got = w.buf[idx] & 0xF
		} else {
			got = w.buf[idx] >> 4
		}
		if got != wantNibble {
			t.Errorf("nibble %d = %#x, want %#x", i, got, wantNibble)
		}
	}
}

func TestEncodeChannelSkipsUnusedZones(t *testing.T) {
	qcoef := []int{0, 0, 0, 0, 3, -2, 0, 0}
	zones := []quantZone{
		{start: 0, width: 4, exponent: quantUnused},
		{start: 4, width: 4, exponent: 2},
	}
	var w bitWriter
	encodeChannel(&w, qcoef, zones)
	if w.nibble == 0 {
		t.Fatal("encodeChannel wrote nothing")
	}
	// Header: one nibble per zone (2 zones).
	if w.nibble < 2 {
		t.Errorf("nibble count %d too small to include both zone headers", w.nibble)
	}
	// 2 headers + 3h,Eh + stop 8h,0h for the two trailing zeros: the unused
	// zone's four zero bands cost nothing.
	if w.nibble != 6 {
		t.Errorf("nibble count %d, want 6 (unused zone skipped)", w.nibble)
	}
}

func TestWriteNoiseFillPrefix(t *testing.T) {
	var w bitWriter
	w.writeNoiseFill(noiseAnalysis{})
	if w.nibble != 2+noiseBands {
		t.Errorf("writeNoiseFill wrote %d nibbles, want %d", w.nibble, 2+noiseBands)
	}
	if w.buf[0]&0xF != 0x8 {
		t.Errorf("first nibble = %#x, want 0x8 escape", w.buf[0]&0xF)
	}
}
