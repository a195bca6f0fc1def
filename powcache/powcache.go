// Copyright (c) 2023-2025 The Nowp developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package powcache implements a bounded, persistent cache of proof-of-work
// hashes keyed by block header hash.
//
// The nowp proof-of-work hash is memory hard and therefore far too expensive
// to recompute for every header that passes through validation.  The cache
// remembers previously computed hashes with least-recently-used eviction and
// persists itself to powcache.dat in the data directory so a restarted node
// does not have to rebuild it from scratch.
package powcache

import (
	"bytes"
	"container/list"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/nowputfinance/nowpd/wire"
)

const (
	// DefaultMaxElements is the maximum size of the cache, in elements,
	// when no override is supplied.
	DefaultMaxElements = 1000000

	// DefaultSaveInterval is the number of new elements after which the
	// cache wants to be saved.
	DefaultSaveInterval = 720

	// cacheVersion is the current serialization version of powcache.dat.
	cacheVersion = 1

	// cacheFilename is the name of the cache file within the data
	// directory.
	cacheFilename = "powcache.dat"
)

// Options configures a Cache.  The zero value of each field selects the
// corresponding default.
type Options struct {
	// MaxElements is the LRU bound.  Values less than or equal to zero
	// fall back to DefaultMaxElements.
	MaxElements int64

	// SaveInterval is how many elements the cache must have grown by since
	// the last save before WantsToSave reports true; overwrites and
	// evictions do not count.  Values less than or equal to zero fall back to
	// DefaultSaveInterval.
	SaveInterval int64

	// Validate causes every cache hit to be recomputed and corrected on
	// mismatch.  Pow hashing is expensive; this exists for paranoia in
	// test runs.
	Validate bool

	// DataDir is the directory powcache.dat is loaded from and saved to.
	DataDir string
}

// entry is a single cached header hash to pow hash association.
type entry struct {
	headerHash chainhash.Hash
	powHash    chainhash.Hash
}

// Cache provides a concurrency safe least-recently-used cache of pow hashes
// with load and save support.
type Cache struct {
	mtx sync.Mutex

	maxElements  int64
	saveInterval int64
	validate     bool
	dataDir      string

	entries   map[chainhash.Hash]*list.Element
	order     *list.List // Front is the most recently used entry.
	savedSize int
}

// New returns a new pow hash cache configured by the passed options.  A nil
// options pointer selects all defaults.
func New(opts *Options) *Cache {
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.MaxElements <= 0 {
		o.MaxElements = DefaultMaxElements
	}
	if o.SaveInterval <= 0 {
		o.SaveInterval = DefaultSaveInterval
	}

	if o.Validate {
		log.Infof("PowCache: validation and auto correction enabled")
	}

	return &Cache{
		maxElements:  o.MaxElements,
		saveInterval: o.SaveInterval,
		validate:     o.Validate,
		dataDir:      o.DataDir,
		entries:      make(map[chainhash.Hash]*list.Element),
		order:        list.New(),
	}
}

// Get returns the cached pow hash for the passed header hash, promoting the
// entry to most recently used.  The second return value reports whether the
// entry was present.
//
// The lock is never held across pow computation; on a miss the caller
// computes the hash outside the cache and inserts the result.
func (c *Cache) Get(headerHash *chainhash.Hash) (chainhash.Hash, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	elem, ok := c.entries[*headerHash]
	if !ok {
		return chainhash.Hash{}, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*entry).powHash, true
}

// Insert adds the passed association to the cache, evicting the least
// recently used entry when the cache would otherwise exceed its bound.
// Inserting an existing key overwrites the cached pow hash and promotes the
// entry.
func (c *Cache) Insert(headerHash, powHash *chainhash.Hash) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.insert(headerHash, powHash)
}

// insert performs Insert under the lock held by the caller.
func (c *Cache) insert(headerHash, powHash *chainhash.Hash) {
	if elem, ok := c.entries[*headerHash]; ok {
		elem.Value.(*entry).powHash = *powHash
		c.order.MoveToFront(elem)
		return
	}

	if int64(len(c.entries)) >= c.maxElements {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*entry).headerHash)
		}
	}

	e := &entry{headerHash: *headerHash, powHash: *powHash}
	c.entries[*headerHash] = c.order.PushFront(e)
}

// Validate returns whether the cache was configured to recompute and correct
// entries on every access.
func (c *Cache) Validate() bool {
	return c.validate
}

// Len returns the number of entries in the cache.
func (c *Cache) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return len(c.entries)
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.clear()
}

// clear performs Clear under the lock held by the caller.
func (c *Cache) clear() {
	c.entries = make(map[chainhash.Hash]*list.Element)
	c.order.Init()
}

// WantsToSave returns whether enough entries have been inserted since the
// last save for a save to be worthwhile.
func (c *Cache) WantsToSave() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return int64(len(c.entries)-c.savedSize) >= c.saveInterval
}

// DoMaintenance saves the cache when it has grown enough since the last
// save.  It is intended to be invoked from a periodic maintenance hook.
func (c *Cache) DoMaintenance() {
	if c.WantsToSave() {
		c.Save()
	}
}

// Save serializes the cache to powcache.dat in the data directory.  Failure
// to open or write the file is logged and otherwise ignored; the cache
// contents are unaffected.
func (c *Cache) Save() {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	var buf bytes.Buffer
	if err := c.serialize(&buf); err != nil {
		log.Errorf("PowCache: unable to serialize: %v", err)
		return
	}

	path := filepath.Join(c.dataDir, cacheFilename)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		log.Errorf("PowCache: unable to save file: %v", err)
		return
	}

	c.savedSize = len(c.entries)
	log.Infof("PowCache: saved %d elements", len(c.entries))
}

// Load replaces the cache contents with those serialized in powcache.dat.
// A missing file is not an error; the cache simply starts empty.
func (c *Cache) Load() {
	path := filepath.Join(c.dataDir, cacheFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		log.Infof("PowCache: unable to load file, cache is empty")
		return
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()

	c.clear()
	if err := c.deserialize(bytes.NewReader(data)); err != nil {
		log.Errorf("PowCache: corrupt cache file: %v", err)
		c.clear()
	}
	c.savedSize = len(c.entries)
	log.Infof("PowCache: loaded %d elements", len(c.entries))
}

// serialize writes the version, the entry count as a compact size, and each
// cached pair to w.  Entry order is arbitrary.
func (c *Cache) serialize(w *bytes.Buffer) error {
	var versionBuf [4]byte
	versionBuf[0] = cacheVersion
	if _, err := w.Write(versionBuf[:]); err != nil {
		return err
	}
	if err := wire.WriteVarInt(w, uint64(len(c.entries))); err != nil {
		return err
	}

	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		e := elem.Value.(*entry)
		if _, err := w.Write(e.headerHash[:]); err != nil {
			return err
		}
		if _, err := w.Write(e.powHash[:]); err != nil {
			return err
		}
	}
	return nil
}

// deserialize restores the cache from r.  Entries are inserted in the order
// read; the caller guarantees the configured bound covers the file contents
// so no eviction occurs during a load.
func (c *Cache) deserialize(r *bytes.Reader) error {
	var versionBuf [4]byte
	if _, err := io.ReadFull(r, versionBuf[:]); err != nil {
		return err
	}
	version := uint32(versionBuf[0]) | uint32(versionBuf[1])<<8 |
		uint32(versionBuf[2])<<16 | uint32(versionBuf[3])<<24
	if version != cacheVersion {
		return fmt.Errorf("unsupported powcache version %d", version)
	}

	count, err := wire.ReadVarInt(r)
	if err != nil {
		return err
	}

	var headerHash, powHash chainhash.Hash
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(r, headerHash[:]); err != nil {
			return err
		}
		if _, err := io.ReadFull(r, powHash[:]); err != nil {
			return err
		}
		c.insert(&headerHash, &powHash)
	}
	return nil
}

// String returns a one-line human readable summary of the cache.
func (c *Cache) String() string {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return fmt.Sprintf("PowCache: elements: %d", len(c.entries))
}
