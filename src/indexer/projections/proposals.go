package projections

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	daoportal "github.com/finitestate/dao-indexer/src/daoportal-go"
	"github.com/finitestate/dao-indexer/src/indexer/types"
)

// HandleProposalCreated projects a ProposalCreated event paired with the
// creation extrinsic's full proposal payload. The parent project must
// exist; a duplicate composite key is fatal since the chain never emits
// two creation events for the same (project, proposal) pair.
func (p *Projector) HandleProposalCreated(ctx context.Context, projectID, proposalID uint32, proposal *daoportal.DAOProposal, height uint64) error {
	key := types.ProposalKey(projectID, proposalID)

	var existing types.Proposal
	err := p.db.WithContext(ctx).First(&existing, "id = ?", key).Error
	if err == nil {
		return fmt.Errorf("proposal %s: %w", key, ErrDuplicateKey)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var project types.Project
	err = p.db.WithContext(ctx).First(&project, "id = ?", types.ProjectKey(projectID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("proposal %s: parent project: %w", key, ErrNotFound)
	}
	if err != nil {
		return err
	}

	if err := p.EnsureAccount(ctx, proposal.Author); err != nil {
		return fmt.Errorf("ensure author: %w", err)
	}

	votes := make([]string, proposal.OptionCount)
	for i := range votes {
		votes[i] = "0"
	}

	record := types.Proposal{
		ID:           key,
		ProjectID:    project.ID,
		ProposalID:   proposalID,
		Author:       proposal.Author.Key(),
		Start:        uint64(proposal.Start),
		End:          uint64(proposal.End),
		Privacy:      proposal.Privacy.Tag(),
		VotingFormat: proposal.VotingFormat.String(),
		OptionCount:  uint8(proposal.OptionCount),
		Finalized:    false,
		Blacklisted:  false,
		Votes:        votes,
		Updates:      0,
		Data:         string(proposal.Data),
		// Snapshot of the parent's workspaces at creation time; later
		// project updates must not retroactively alter this proposal.
		Workspaces: append([]types.Workspace(nil), project.Workspaces...),
		Created:    height,
		Updated:    height,
	}

	if proposal.Privacy.IsOpaque {
		param := uint8(proposal.Privacy.OpaqueArg)
		record.PrivacyParam = &param
	}
	if proposal.Frequency.HasValue {
		freq := uint64(proposal.Frequency.Value)
		record.Frequency = &freq
	}

	p.enrichProposal(ctx, &record)

	// The proposal write and the parent counter bump must land together.
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		project.PropCount++
		project.PropUpdated = height
		return tx.Save(&project).Error
	})
}

func (p *Projector) enrichProposal(ctx context.Context, record *types.Proposal) {
	if p.meta == nil || record.Data == "" {
		return
	}
	meta, err := p.meta.FetchProposal(ctx, record.Data)
	if err != nil {
		log.Printf("proposal %s: enrichment failed: %v", record.ID, err)
		return
	}
	record.Title = meta.Title
	record.Description = meta.Description
	record.Options = meta.Options
}
