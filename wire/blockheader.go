// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/crypto/scrypt"
)

const (
	// NormalHeaderSize is the number of bytes of the legacy bitcoin-style
	// header fields (version through nonce).  Transaction offsets recorded
	// by the transaction index are relative to the end of the full
	// serialized header (MaxBlockHeaderPayload bytes, flags included); the
	// stake kernel adds this size to them to form its hashed tx offset.
	NormalHeaderSize = 80

	// MaxBlockHeaderPayload is the maximum number of bytes a block header
	// can be.  Version 4 bytes + PrevBlock and MerkleRoot hashes + Timestamp
	// 4 bytes + Bits 4 bytes + Nonce 4 bytes + Flags 4 bytes.
	MaxBlockHeaderPayload = NormalHeaderSize + 4
)

// Block header flag bits.  The flags field is excluded from both the block
// hash and the proof-of-work hash and carries per-block consensus state that
// is cheap to recompute but expensive to rediscover.
const (
	// BlockFlagProofOfStake indicates the block is proof-of-stake.
	BlockFlagProofOfStake uint32 = 1 << iota

	// BlockFlagStakeEntropy carries the cached entropy bit of the block.
	BlockFlagStakeEntropy

	// BlockFlagStakeModifier indicates the block generated a new stake
	// modifier.
	BlockFlagStakeModifier
)

// scrypt parameters for the memory-hard proof-of-work hash.
const (
	powHashN = 1024
	powHashR = 1
	powHashP = 1
)

// BlockHeader defines information about a block and is used in the nowp
// block (MsgBlock).
type BlockHeader struct {
	// Version of the block.  This is not the same as the protocol version.
	Version int32

	// Hash of the previous block header in the block chain.
	PrevBlock chainhash.Hash

	// Merkle tree reference to hash of all transactions for the block.
	MerkleRoot chainhash.Hash

	// Time the block was created.  This is, unfortunately, encoded as a
	// uint32 on the wire and therefore is limited to 2106.
	Timestamp time.Time

	// Difficulty target for the block.
	Bits uint32

	// Nonce used to generate the block.
	Nonce uint32

	// Flags carries the proof-of-stake and stake modifier bits.  It is
	// zeroed when hashing so a block's identity never depends on it.
	Flags uint32
}

// blockHeaderLen is a constant that represents the number of bytes for a
// serialized block header.
const blockHeaderLen = MaxBlockHeaderPayload

// BlockHash computes the block identifier hash for the given block header.
// The flags field takes no part in the block identity, so it is serialized
// as zero before the double sha256 is taken.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	buf := bytes.NewBuffer(make([]byte, 0, blockHeaderLen))
	tmp := *h
	tmp.Flags = 0
	_ = writeBlockHeader(buf, &tmp)

	return chainhash.DoubleHashH(buf.Bytes())
}

// PowHash computes the memory-hard proof-of-work hash of the header.  The
// hash covers only the legacy 80-byte header region, so the flags field
// cannot influence the proof.  This is expensive; callers are expected to
// consult a pow cache before recomputing it.
func (h *BlockHeader) PowHash() chainhash.Hash {
	buf := bytes.NewBuffer(make([]byte, 0, blockHeaderLen))
	_ = writeBlockHeader(buf, h)

	var powHash chainhash.Hash
	digest, err := scrypt.Key(buf.Bytes()[:NormalHeaderSize],
		buf.Bytes()[:NormalHeaderSize], powHashN, powHashR, powHashP,
		chainhash.HashSize)
	if err != nil {
		// Only reachable with invalid fixed parameters.
		panic(err)
	}
	copy(powHash[:], digest)
	return powHash
}

// Deserialize decodes a block header from r into the receiver using a format
// that is suitable for long-term storage such as a database.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	return readBlockHeader(r, h)
}

// Serialize encodes a block header from the receiver to w using a format
// that is suitable for long-term storage such as a database.
func (h *BlockHeader) Serialize(w io.Writer) error {
	return writeBlockHeader(w, h)
}

// NewBlockHeader returns a new BlockHeader using the provided version,
// previous block hash, merkle root hash, difficulty bits, and nonce with the
// timestamp truncated to one second precision.
func NewBlockHeader(version int32, prevHash, merkleRootHash *chainhash.Hash,
	bits uint32, nonce uint32) *BlockHeader {

	return &BlockHeader{
		Version:    version,
		PrevBlock:  *prevHash,
		MerkleRoot: *merkleRootHash,
		Timestamp:  time.Unix(time.Now().Unix(), 0),
		Bits:       bits,
		Nonce:      nonce,
	}
}

// readBlockHeader reads a nowp block header from r.
func readBlockHeader(r io.Reader, bh *BlockHeader) error {
	version, err := readUint32(r)
	if err != nil {
		return err
	}
	bh.Version = int32(version)

	if err := readHash(r, &bh.PrevBlock); err != nil {
		return err
	}
	if err := readHash(r, &bh.MerkleRoot); err != nil {
		return err
	}

	timestamp, err := readUint32(r)
	if err != nil {
		return err
	}
	bh.Timestamp = time.Unix(int64(timestamp), 0)

	if bh.Bits, err = readUint32(r); err != nil {
		return err
	}
	if bh.Nonce, err = readUint32(r); err != nil {
		return err
	}
	bh.Flags, err = readUint32(r)
	return err
}

// writeBlockHeader writes a nowp block header to w.
func writeBlockHeader(w io.Writer, bh *BlockHeader) error {
	if err := writeUint32(w, uint32(bh.Version)); err != nil {
		return err
	}
	if err := writeHash(w, &bh.PrevBlock); err != nil {
		return err
	}
	if err := writeHash(w, &bh.MerkleRoot); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(bh.Timestamp.Unix())); err != nil {
		return err
	}
	if err := writeUint32(w, bh.Bits); err != nil {
		return err
	}
	if err := writeUint32(w, bh.Nonce); err != nil {
		return err
	}
	return writeUint32(w, bh.Flags)
}
