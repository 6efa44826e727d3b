package projections

import (
	"context"

	"gorm.io/gorm/clause"

	daoportal "github.com/finitestate/dao-indexer/src/daoportal-go"
	"github.com/finitestate/dao-indexer/src/indexer/types"
)

// EnsureAccount records the account's identifier and protocol if not yet
// known. Idempotent: the protocol tag is immutable by the chain's own
// type invariant, so an existing record is left untouched.
func (p *Projector) EnsureAccount(ctx context.Context, acc daoportal.CrossChainAccount) error {
	record := types.CrossChainAccount{
		Address:  acc.Key(),
		Protocol: acc.Protocol().String(),
	}
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error
}
