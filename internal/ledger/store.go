package ledger

import "context"

// Store persists the block chain. The persisted form keeps index, prev_hash
// and hash per row so the chain is reconstructible by index alone, independent
// of row-insertion order.
type Store interface {
	// AppendAfter atomically appends b if and only if the current tail's hash
	// equals b.PrevHash; otherwise it returns sentinel.ErrStaleTail and writes
	// nothing. This is the single serialization point of the chain.
	AppendAfter(ctx context.Context, b Block) error
	// Tail returns the highest-index block; sentinel.ErrNotFound when empty.
	Tail(ctx context.Context) (Block, error)
	Get(ctx context.Context, index int64) (Block, error)
	// List returns all blocks ordered by ascending index.
	List(ctx context.Context) ([]Block, error)
	Length(ctx context.Context) (int64, error)
}
