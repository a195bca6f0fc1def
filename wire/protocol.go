// Copyright (c) 2013-2024 The btcsuite developers
// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
)

// NowpNet represents which nowp network a message belongs to.
type NowpNet uint32

// Constants used to indicate the message nowp network.  They can also be
// used to seek to the next message when a stream's state is unknown, but
// this package does not provide that functionality since it's generally a
// better idea to simply disconnect clients that are misbehaving over TCP.
const (
	// MainNet represents the main nowp network.
	MainNet NowpNet = 0x6e707766 // "npwf"

	// TestNet3 represents the test network (version 3).
	TestNet3 NowpNet = 0x6e707774 // "npwt"

	// RegNet represents the regression test network.
	RegNet NowpNet = 0x6e707772 // "npwr"
)

// nnStrings is a map of nowp networks back to their constant names for
// pretty printing.
var nnStrings = map[NowpNet]string{
	MainNet:  "MainNet",
	TestNet3: "TestNet3",
	RegNet:   "RegNet",
}

// String returns the NowpNet in human-readable form.
func (n NowpNet) String() string {
	if s, ok := nnStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("Unknown NowpNet (%d)", uint32(n))
}
