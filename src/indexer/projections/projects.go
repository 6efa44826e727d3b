package projections

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	daoportal "github.com/finitestate/dao-indexer/src/daoportal-go"
	"github.com/finitestate/dao-indexer/src/indexer/types"
)

// HandleProjectCreated projects a new on-chain project into the store.
// A key that already exists is a replay; rebuilding the record would
// reset the proposal counters, so it is refused instead.
func (p *Projector) HandleProjectCreated(ctx context.Context, projectID uint32, project *daoportal.Project, height uint64) error {
	var existing types.Project
	err := p.db.WithContext(ctx).First(&existing, "id = ?", types.ProjectKey(projectID)).Error
	if err == nil {
		return fmt.Errorf("project %d: %w", projectID, ErrDuplicateKey)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := p.EnsureAccount(ctx, project.Usergroup.Owner); err != nil {
		return fmt.Errorf("ensure owner: %w", err)
	}

	record := types.Project{
		ID:             types.ProjectKey(projectID),
		Owner:          project.Usergroup.Owner.Key(),
		OwnerProtocol:  project.Usergroup.Owner.Protocol().String(),
		Data:           string(project.Data),
		PropCount:      0,
		Updated:        height,
		PropUpdated:    height,
		Workspaces:     mapWorkspaces(project.Workspaces),
		EnableProposer: project.Usergroup.Proposers.HasValue,
	}

	p.enrichProject(ctx, &record)

	return p.db.WithContext(ctx).Save(&record).Error
}

// HandleProjectUpdated overwrites the mutable project fields. The
// embedded workspace list is replaced wholesale; stale workspaces and
// strategies from the previous state are discarded, not migrated.
// Proposal counters are not touched.
func (p *Projector) HandleProjectUpdated(ctx context.Context, projectID uint32, project *daoportal.Project, height uint64) error {
	var record types.Project
	err := p.db.WithContext(ctx).First(&record, "id = ?", types.ProjectKey(projectID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("project %d: %w", projectID, ErrNotFound)
	}
	if err != nil {
		return err
	}

	if err := p.EnsureAccount(ctx, project.Usergroup.Owner); err != nil {
		return fmt.Errorf("ensure owner: %w", err)
	}

	record.Owner = project.Usergroup.Owner.Key()
	record.OwnerProtocol = project.Usergroup.Owner.Protocol().String()
	record.Data = string(project.Data)
	record.Updated = height
	record.Workspaces = mapWorkspaces(project.Workspaces)
	record.EnableProposer = project.Usergroup.Proposers.HasValue

	p.enrichProject(ctx, &record)

	return p.db.WithContext(ctx).Save(&record).Error
}

// enrichProject fills display fields from the off-chain document. Best
// effort: failures are logged and the record persists without them.
func (p *Projector) enrichProject(ctx context.Context, record *types.Project) {
	if p.meta == nil || record.Data == "" {
		return
	}
	meta, err := p.meta.FetchProject(ctx, record.Data)
	if err != nil {
		log.Printf("project %s: enrichment failed: %v", record.ID, err)
		return
	}
	record.Name = meta.Name
	record.Description = meta.Description
	record.Icon = meta.Icon
	record.Banner = meta.Banner
}

// mapWorkspaces converts the decoded workspace vector into the embedded
// list, preserving declaration order. Pure; no store interaction.
func mapWorkspaces(workspaces []daoportal.Workspace) []types.Workspace {
	out := make([]types.Workspace, 0, len(workspaces))
	for _, ws := range workspaces {
		mapped := types.Workspace{
			Chain:      uint32(ws.Chain),
			Strategies: make([]types.Strategy, 0, len(ws.Strategies)),
		}
		for _, s := range ws.Strategies {
			mapped.Strategies = append(mapped.Strategies, mapStrategy(s))
		}
		out = append(out, mapped)
	}
	return out
}

func mapStrategy(s daoportal.Strategy) types.Strategy {
	mapped := types.Strategy{
		Protocol: s.Protocol().String(),
		Kind:     s.Kind(),
	}
	switch {
	case s.IsSolidity && s.Solidity.IsERC20Balance:
		mapped.Params = "0x" + hex.EncodeToString(s.Solidity.ERC20Token[:])
	case s.IsSolidity && s.Solidity.IsCustom:
		mapped.Code = string(s.Solidity.CustomCode)
		if len(s.Solidity.CustomParams) > 0 {
			mapped.Params = "0x" + hex.EncodeToString(s.Solidity.CustomParams)
		}
	case s.IsSubstrate && s.Substrate.IsCustom:
		mapped.Code = string(s.Substrate.CustomCode)
		if len(s.Substrate.CustomParams) > 0 {
			mapped.Params = "0x" + hex.EncodeToString(s.Substrate.CustomParams)
		}
	}
	return mapped
}
