// Copyright (c) 2014-2017 The btcsuite developers
// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"pgregory.net/rapid"

	"github.com/nowputfinance/nowpd/chaincfg"
)

// TestBigToCompact ensures BigToCompact converts big integers to the
// expected compact representation.
func TestBigToCompact(t *testing.T) {
	tests := []struct {
		in  int64
		out uint32
	}{
		{0, 0},
		{-1, 25231360},
		{0x12345678, 0x04123456},
	}

	for x, test := range tests {
		n := big.NewInt(test.in)
		r := BigToCompact(n)
		if r != test.out {
			t.Errorf("TestBigToCompact test #%d failed: got %d want %d",
				x, r, test.out)
			return
		}
	}
}

// TestCompactToBig ensures CompactToBig converts numbers using the compact
// representation to the expected big integers.
func TestCompactToBig(t *testing.T) {
	tests := []struct {
		in  uint32
		out int64
	}{
		{10000000, 0},
		{0x01123456, 0x12},
		{0x02123456, 0x1234},
		{0x03123456, 0x123456},
		{0x04123456, 0x12345600},
		{0x04923456, -0x12345600},
		{0x05009234, 0x92340000},
	}

	for x, test := range tests {
		n := CompactToBig(test.in)
		want := big.NewInt(test.out)
		if n.Cmp(want) != 0 {
			t.Errorf("TestCompactToBig test #%d failed: got %d want %d",
				x, n, want)
			return
		}
	}
}

// TestCompactRoundTrip ensures canonically encoded compact targets survive a
// decode and re-encode unchanged.
func TestCompactRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		exponent := rapid.Uint32Range(4, 32).Draw(t, "exponent")
		mantissa := rapid.Uint32Range(0x010000, 0x7fffff).Draw(t, "mantissa")
		compact := exponent<<24 | mantissa

		if got := BigToCompact(CompactToBig(compact)); got != compact {
			t.Fatalf("round trip of %08x produced %08x", compact, got)
		}
	})
}

// TestCheckProofOfWorkProperty verifies CheckProofOfWork agrees with a
// direct comparison of the hash against the decoded target for random valid
// compact encodings.
func TestCheckProofOfWorkProperty(t *testing.T) {
	powLimit := chaincfg.RegressionNetParams.PowLimit

	rapid.Check(t, func(t *rapid.T) {
		var hash chainhash.Hash
		copy(hash[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "hash"))

		// Bound the exponent so the target is positive, canonical and
		// below the regression network proof-of-work limit.
		exponent := rapid.Uint32Range(4, 28).Draw(t, "exponent")
		mantissa := rapid.Uint32Range(0x010000, 0x7fffff).Draw(t, "mantissa")
		bits := exponent<<24 | mantissa

		err := CheckProofOfWork(&hash, bits, powLimit)
		passes := HashToBig(&hash).Cmp(CompactToBig(bits)) <= 0
		if passes != (err == nil) {
			t.Fatalf("CheckProofOfWork(%v, %08x) = %v, direct "+
				"comparison says %v", hash, bits, err, passes)
		}
	})
}

// TestCheckProofOfWorkInvalid ensures negative, zero, overflowing and
// out-of-range targets are rejected outright.
func TestCheckProofOfWorkInvalid(t *testing.T) {
	powLimit := chaincfg.MainNetParams.PowLimit

	tests := []struct {
		name string
		bits uint32
		want ErrorCode
	}{
		{"zero target", 0x00000000, ErrCompactEncodingInvalid},
		{"negative target", 0x04923456, ErrCompactEncodingInvalid},
		{"overflowing target", 0x23123456, ErrCompactEncodingInvalid},
		{"above pow limit", 0x21008000, ErrUnexpectedDifficulty},
	}
	var hash chainhash.Hash
	for _, test := range tests {
		err := CheckProofOfWork(&hash, test.bits, powLimit)
		if !IsRuleErrorCode(err, test.want) {
			t.Errorf("%s: got %v, want %v", test.name, err, test.want)
		}
	}
}

// TestEMARetarget exercises the per-block exponential retarget.
func TestEMARetarget(t *testing.T) {
	params := chaincfg.MainNetParams
	k := newTestKernel(t, &params)
	fc := newFakeChain(t, k)

	const bits = 0x1d0fffff
	powSpacing := k.powTargetSpacing

	// Exact spacing keeps the difficulty unchanged.
	fc.extendBy(5, powSpacing, false, bits)
	if got := k.CalcNextRequiredDifficulty(fc.tip, false); got != bits {
		t.Fatalf("exact spacing: got %08x, want %08x", got, bits)
	}

	// A slow block eases the difficulty (larger target).
	slow := fc.extend(fc.tip.Timestamp+4*powSpacing, false, bits)
	got := k.CalcNextRequiredDifficulty(slow, false)
	if CompactToBig(got).Cmp(CompactToBig(bits)) <= 0 {
		t.Fatalf("slow spacing: target %08x did not ease from %08x",
			got, bits)
	}

	// The rfc20 hypothetical spacing: when the block after the last
	// proof-of-work block is far in the future, the next proof-of-work
	// target eases even though the historical spacing was exact.
	k2 := newTestKernel(t, &params)
	fc2 := newFakeChain(t, k2)
	fc2.extendBy(5, powSpacing, false, bits)
	exact := k2.CalcNextRequiredDifficulty(fc2.tip, false)
	stale := fc2.extend(fc2.tip.Timestamp+10*powSpacing, true, bits)
	eased := k2.CalcNextRequiredDifficulty(stale, false)
	if CompactToBig(eased).Cmp(CompactToBig(exact)) <= 0 {
		t.Fatalf("hypothetical spacing: target %08x did not ease "+
			"from %08x", eased, exact)
	}
}

// TestEMARetargetBootstrap ensures the initial hash target is used until
// two blocks of the requested kind exist and the pow limit before genesis.
func TestEMARetargetBootstrap(t *testing.T) {
	params := chaincfg.MainNetParams
	k := newTestKernel(t, &params)

	if got, want := k.CalcNextRequiredDifficulty(nil, false),
		BigToCompact(params.PowLimit); got != want {

		t.Fatalf("nil previous node: got %08x, want %08x", got, want)
	}

	fc := newFakeChain(t, k)
	want := BigToCompact(params.InitialHashTarget)
	if got := k.CalcNextRequiredDifficulty(fc.tip, false); got != want {
		t.Fatalf("first block: got %08x, want %08x", got, want)
	}
	fc.extend(fc.tip.Timestamp+60, false, 0x1d0fffff)
	if got := k.CalcNextRequiredDifficulty(fc.tip, false); got != want {
		t.Fatalf("second block: got %08x, want %08x", got, want)
	}
}

// TestEMARetargetRegtest ensures difficulty never retargets on networks
// with retargeting disabled.
func TestEMARetargetRegtest(t *testing.T) {
	params := chaincfg.RegressionNetParams
	k := newTestKernel(t, &params)
	fc := newFakeChain(t, k)

	const bits = 0x207fffff
	fc.extendBy(10, 7, false, bits)
	if got := k.CalcNextRequiredDifficulty(fc.tip, false); got != bits {
		t.Fatalf("regtest retargeted: got %08x, want %08x", got, bits)
	}
}

// TestDarkGravityWave exercises the moving average retarget: exact spacing
// leaves the target unchanged while faster recent blocks tighten it.
func TestDarkGravityWave(t *testing.T) {
	params := chaincfg.MainNetParams
	params.PowDGWHeight = 10
	params.PoSActivationHeight = 1 << 30
	k := newTestKernel(t, &params)
	fc := newFakeChain(t, k)

	const bits = 0x1d0fffff
	powSpacing := k.powTargetSpacing

	// 70 proof-of-work ancestors spaced exactly at the target spacing.
	fc.extendBy(70, powSpacing, false, bits)
	if got := k.CalcNextRequiredDifficulty(fc.tip, false); got != bits {
		t.Fatalf("exact spacing: got %08x, want %08x", got, bits)
	}

	// Halve the spacing on the last 10 blocks; the target must tighten.
	k2 := newTestKernel(t, &params)
	fc2 := newFakeChain(t, k2)
	fc2.extendBy(60, powSpacing, false, bits)
	fc2.extendBy(10, powSpacing/2, false, bits)
	got := k2.CalcNextRequiredDifficulty(fc2.tip, false)
	if CompactToBig(got).Cmp(CompactToBig(bits)) >= 0 {
		t.Fatalf("faster spacing: target %08x did not tighten from "+
			"%08x", got, bits)
	}
}

// TestDarkGravityWaveClamp verifies the observed timespan clamp bounds the
// retarget to a factor of three in either direction.
func TestDarkGravityWaveClamp(t *testing.T) {
	params := chaincfg.MainNetParams
	params.PowDGWHeight = 10
	params.PoSActivationHeight = 1 << 30
	k := newTestKernel(t, &params)

	const bits = 0x1d0fffff
	powSpacing := k.powTargetSpacing

	// Vastly slower blocks: the eased target saturates at 3x.
	fc := newFakeChain(t, k)
	fc.extendBy(70, powSpacing*100, false, bits)
	got := k.CalcNextRequiredDifficulty(fc.tip, false)
	want := new(big.Int).Mul(CompactToBig(bits), big.NewInt(3))
	if CompactToBig(got).Cmp(want) > 0 {
		t.Fatalf("eased target %08x exceeds 3x clamp", got)
	}

	// Vastly faster blocks: the tightened target saturates at 1/3.
	k2 := newTestKernel(t, &params)
	fc2 := newFakeChain(t, k2)
	fc2.extendBy(70, 2, false, bits)
	got = k2.CalcNextRequiredDifficulty(fc2.tip, false)
	want = new(big.Int).Div(CompactToBig(bits), big.NewInt(3))
	if CompactToBig(got).Cmp(want) < 0 {
		t.Fatalf("tightened target %08x below 1/3 clamp", got)
	}
}

// TestDGWNeverExceedsPowLimit ensures the retarget saturates to the
// proof-of-work limit no matter how slow the chain was.
func TestDGWNeverExceedsPowLimit(t *testing.T) {
	params := chaincfg.MainNetParams
	params.PowDGWHeight = 10
	params.PoSActivationHeight = 1 << 30
	k := newTestKernel(t, &params)
	fc := newFakeChain(t, k)

	// Ancestors already at the limit with very slow spacing.
	fc.extendBy(70, k.powTargetSpacing*1000, false, params.PowLimitBits)
	got := k.CalcNextRequiredDifficulty(fc.tip, false)
	if CompactToBig(got).Cmp(params.PowLimit) > 0 {
		t.Fatalf("retarget %08x exceeds the pow limit", got)
	}
}
