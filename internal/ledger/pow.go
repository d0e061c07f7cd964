package ledger

import (
	"context"
	"time"
)

// checkEvery bounds how many nonces are tried between context checks so a
// cancelled request abandons mining promptly.
const checkEvery = 4096

// mine searches for a nonce whose hash meets the difficulty. It references a
// snapshot of the chain tail and holds no locks; the caller validates the tail
// is still current when committing. Average cost grows with 16^difficulty.
func mine(ctx context.Context, prev Block, payload string, difficulty int) (Block, error) {
	b := Block{
		Index:      prev.Index + 1,
		Payload:    payload,
		Timestamp:  truncateForStorage(time.Now()),
		PrevHash:   prev.Hash,
		Difficulty: difficulty,
	}
	for nonce := int64(0); ; nonce++ {
		if nonce%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Block{}, err
			}
		}
		b.Nonce = nonce
		hash := b.ComputeHash()
		if MeetsDifficulty(hash, difficulty) {
			b.Hash = hash
			return b, nil
		}
	}
}
