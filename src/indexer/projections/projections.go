package projections

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/finitestate/dao-indexer/src/indexer/metadata"
)

var (
	// ErrNotFound marks a projection referencing a project or proposal
	// that was never created. Fatal to the single event's processing.
	ErrNotFound = errors.New("referenced record not found")

	// ErrDuplicateKey marks a creation event for a key that already
	// exists. Chain data never legitimately replays creation events.
	ErrDuplicateKey = errors.New("record already exists")
)

// MetadataFetcher retrieves off-chain documents by content pointer.
type MetadataFetcher interface {
	FetchProposal(ctx context.Context, cid string) (*metadata.ProposalMeta, error)
	FetchProject(ctx context.Context, cid string) (*metadata.ProjectMeta, error)
}

// Projector applies decoded chain events and extrinsics to the entity
// store. Handlers must be called in chain order; blocks are processed
// strictly sequentially, so no locking happens here.
type Projector struct {
	db   *gorm.DB
	meta MetadataFetcher
}

func New(db *gorm.DB, meta MetadataFetcher) *Projector {
	return &Projector{db: db, meta: meta}
}
