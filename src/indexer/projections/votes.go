package projections

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	daoportal "github.com/finitestate/dao-indexer/src/daoportal-go"
	"github.com/finitestate/dao-indexer/src/indexer/types"
)

// HandleVoteUpdated replaces the proposal's tally list positionally with
// the freshly supplied values, hex encoded.
func (p *Projector) HandleVoteUpdated(ctx context.Context, update *daoportal.VoteUpdate, height uint64) error {
	key := types.ProposalKey(uint32(update.Project), uint32(update.Proposal))

	var record types.Proposal
	err := p.db.WithContext(ctx).First(&record, "id = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("proposal %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return err
	}

	votes := make([]string, 0, len(update.Votes))
	for _, v := range update.Votes {
		votes = append(votes, daoportal.HexPower(v))
	}
	record.Votes = votes

	if update.PubVoters.HasValue {
		record.PubVoters = string(update.PubVoters.Value)
	}

	record.Updates++
	record.Updated = height

	return p.db.WithContext(ctx).Save(&record).Error
}

// HandleSnapshotUpdated replaces the proposal's snapshot list
// positionally; absent slots persist as empty strings.
func (p *Projector) HandleSnapshotUpdated(ctx context.Context, projectID, proposalID uint32, snapshots []daoportal.OptionVotingPower, height uint64) error {
	key := types.ProposalKey(projectID, proposalID)

	var record types.Proposal
	err := p.db.WithContext(ctx).First(&record, "id = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("proposal %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return err
	}

	mapped := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		if s.HasValue {
			mapped = append(mapped, daoportal.HexPower(s.Value))
		} else {
			mapped = append(mapped, "")
		}
	}
	record.Snapshots = mapped
	record.Updated = height

	return p.db.WithContext(ctx).Save(&record).Error
}
