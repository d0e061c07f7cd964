package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GenesisPrevHash is the fixed sentinel previous-hash of the genesis block.
const GenesisPrevHash = "0000000000000000000000000000000000000000000000000000000000000000"

// GenesisPayload is the fixed genesis payload; the genesis block is created
// once at ledger initialization and never re-created.
const GenesisPayload = `{"event":"genesis"}`

// Block is one entry in the append-only donation ledger. Once accepted a block
// is never mutated or removed.
type Block struct {
	Index      int64     `json:"index"`
	Payload    string    `json:"payload"`
	Timestamp  time.Time `json:"timestamp"`
	PrevHash   string    `json:"prev_hash"`
	Nonce      int64     `json:"nonce"`
	Difficulty int       `json:"difficulty"`
	Hash       string    `json:"hash"`
}

// truncateForStorage caps timestamp precision at what TIMESTAMPTZ columns
// keep, so a block's hash still recomputes after a database round-trip.
func truncateForStorage(t time.Time) time.Time {
	return t.Truncate(time.Microsecond)
}

// ComputeHash digests the block's binding fields. Timestamps hash by Unix
// nanoseconds so the digest survives serialization round-trips that lose
// monotonic clock readings.
func (b *Block) ComputeHash() string {
	h := sha256.Sum256(fmt.Appendf(nil, "%d|%s|%d|%s|%d",
		b.Index, b.Payload, b.Timestamp.UnixNano(), b.PrevHash, b.Nonce))
	return hex.EncodeToString(h[:])
}

// MeetsDifficulty reports whether hash has at least difficulty leading zero
// hex digits.
func MeetsDifficulty(hash string, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	if difficulty > len(hash) {
		return false
	}
	return strings.HasPrefix(hash, strings.Repeat("0", difficulty))
}

// NewGenesisBlock builds the index-0 block. The genesis carries no
// proof-of-work; its hash is computed with nonce 0 and the sentinel prev hash.
func NewGenesisBlock(at time.Time) Block {
	b := Block{
		Index:      0,
		Payload:    GenesisPayload,
		Timestamp:  truncateForStorage(at),
		PrevHash:   GenesisPrevHash,
		Nonce:      0,
		Difficulty: 0,
	}
	b.Hash = b.ComputeHash()
	return b
}
