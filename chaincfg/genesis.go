// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/nowputfinance/nowpd/wire"
)

// genesisCoinbaseTx is the coinbase transaction for the genesis blocks for
// the main network, regression test network, and test network (version 3).
var genesisCoinbaseTx = wire.MsgTx{
	Version: 1,
	Time:    0x63fcb5a0,
	TxIn: []*wire.TxIn{
		{
			PreviousOutPoint: wire.OutPoint{
				Hash:  chainhash.Hash{},
				Index: 0xffffffff,
			},
			SignatureScript: []byte{
				0x04, 0xff, 0xff, 0x00, 0x1d, 0x01, 0x04, 0x3c, /* |.......<| */
				0x46, 0x54, 0x20, 0x32, 0x37, 0x2f, 0x46, 0x65, /* |FT 27/Fe| */
				0x62, 0x2f, 0x32, 0x30, 0x32, 0x33, 0x20, 0x42, /* |b/2023 B| */
				0x61, 0x6e, 0x6b, 0x73, 0x20, 0x62, 0x72, 0x61, /* |anks bra| */
				0x63, 0x65, 0x20, 0x66, 0x6f, 0x72, 0x20, 0x61, /* |ce for a| */
				0x20, 0x6e, 0x65, 0x77, 0x20, 0x72, 0x6f, 0x75, /* | new rou| */
				0x6e, 0x64, 0x20, 0x6f, 0x66, 0x20, 0x72, 0x61, /* |nd of ra| */
				0x74, 0x65, 0x20, 0x72, 0x69, 0x73, 0x65, 0x73, /* |te rises| */
			},
			Sequence: 0xffffffff,
		},
	},
	TxOut: []*wire.TxOut{
		{
			Value:    0,
			PkScript: []byte{0x51}, // OP_TRUE
		},
	},
	LockTime: 0,
}

// genesisMerkleRoot is the hash of the first transaction in the genesis block
// for the main network.
var genesisMerkleRoot = genesisCoinbaseTx.TxHash()

// genesisBlock defines the genesis block of the block chain which serves as
// the public transaction ledger for the main network.
var genesisBlock = wire.MsgBlock{
	Header: wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{},
		MerkleRoot: genesisMerkleRoot,
		Timestamp:  time.Unix(0x63fcb5a0, 0), // 2023-02-27 13:52:32 +0000 UTC
		Bits:       0x1e0ffff0,
		Nonce:      0x000e2f10,
	},
	Transactions: []*wire.MsgTx{&genesisCoinbaseTx},
}

// genesisHash is the hash of the first block in the block chain for the main
// network (genesis block).
var genesisHash = genesisBlock.BlockHash()

// testNet3GenesisBlock defines the genesis block of the block chain which
// serves as the public transaction ledger for the test network (version 3).
var testNet3GenesisBlock = wire.MsgBlock{
	Header: wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{},
		MerkleRoot: genesisMerkleRoot,
		Timestamp:  time.Unix(0x63fcb5a1, 0),
		Bits:       0x1e0ffff0,
		Nonce:      0x00031bb2,
	},
	Transactions: []*wire.MsgTx{&genesisCoinbaseTx},
}

// testNet3GenesisHash is the hash of the first block in the block chain for
// the test network (version 3).
var testNet3GenesisHash = testNet3GenesisBlock.BlockHash()

// regTestGenesisBlock defines the genesis block of the block chain which
// serves as the public transaction ledger for the regression test network.
var regTestGenesisBlock = wire.MsgBlock{
	Header: wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{},
		MerkleRoot: genesisMerkleRoot,
		Timestamp:  time.Unix(0x63fcb5a2, 0),
		Bits:       0x207fffff,
		Nonce:      0,
	},
	Transactions: []*wire.MsgTx{&genesisCoinbaseTx},
}

// regTestGenesisHash is the hash of the first block in the block chain for
// the regression test network.
var regTestGenesisHash = regTestGenesisBlock.BlockHash()
