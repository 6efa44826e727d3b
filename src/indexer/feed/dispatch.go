package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	daoportal "github.com/finitestate/dao-indexer/src/daoportal-go"
	"github.com/finitestate/dao-indexer/src/indexer/projections"
)

// dispatch applies a block's daoPortal events in chain order. Missing
// referents and duplicate creations are surfaced and skipped so that
// re-processing a block stays idempotent; any other error aborts the
// block for retry.
func (f *Feed) dispatch(ctx context.Context, height uint64, events []ChainEvent, extrinsics []ChainExtrinsic) error {
	for _, ev := range events {
		if !strings.EqualFold(ev.ModuleID, daoportal.SectionName) {
			continue
		}

		err := f.apply(ctx, height, ev, extrinsics)
		if err == nil {
			continue
		}
		if errors.Is(err, projections.ErrNotFound) || errors.Is(err, projections.ErrDuplicateKey) {
			log.Printf("feed: block %d event %d %s.%s: %v", height, ev.EventIdx, ev.ModuleID, ev.EventID, err)
			continue
		}
		return fmt.Errorf("event %d %s.%s: %w", ev.EventIdx, ev.ModuleID, ev.EventID, err)
	}
	return nil
}

func (f *Feed) apply(ctx context.Context, height uint64, ev ChainEvent, extrinsics []ChainExtrinsic) error {
	switch ev.EventID {
	case "ProjectCreated", "ProjectUpdated":
		if len(ev.Params) < 1 {
			return fmt.Errorf("missing project id param")
		}
		projectID, err := daoportal.ParseU32(ev.Params[0].Value, "project id")
		if err != nil {
			return err
		}
		payload, err := extrinsicParam(extrinsics, ev.ExtrinsicIdx, "Project")
		if err != nil {
			return err
		}
		project, err := daoportal.ParseProject(payload)
		if err != nil {
			return err
		}
		if ev.EventID == "ProjectCreated" {
			return f.proj.HandleProjectCreated(ctx, projectID, project, height)
		}
		return f.proj.HandleProjectUpdated(ctx, projectID, project, height)

	case "ProposalCreated":
		if len(ev.Params) < 2 {
			return fmt.Errorf("missing proposal key params")
		}
		projectID, err := daoportal.ParseU32(ev.Params[0].Value, "project id")
		if err != nil {
			return err
		}
		proposalID, err := daoportal.ParseU32(ev.Params[1].Value, "proposal id")
		if err != nil {
			return err
		}
		payload, err := extrinsicParam(extrinsics, ev.ExtrinsicIdx, "DAOProposal")
		if err != nil {
			return err
		}
		proposal, err := daoportal.ParseProposal(payload)
		if err != nil {
			return err
		}
		return f.proj.HandleProposalCreated(ctx, projectID, proposalID, proposal, height)

	case "VoteUpdated":
		if len(ev.Params) < 1 {
			return fmt.Errorf("missing vote update param")
		}
		update, err := daoportal.ParseVoteUpdate(ev.Params[0].Value)
		if err != nil {
			return err
		}
		return f.proj.HandleVoteUpdated(ctx, update, height)

	case "SnapshotUpdated":
		if len(ev.Params) < 3 {
			return fmt.Errorf("missing snapshot params")
		}
		projectID, err := daoportal.ParseU32(ev.Params[0].Value, "project id")
		if err != nil {
			return err
		}
		proposalID, err := daoportal.ParseU32(ev.Params[1].Value, "proposal id")
		if err != nil {
			return err
		}
		snapshots, err := daoportal.ParseSnapshots(ev.Params[2].Value)
		if err != nil {
			return err
		}
		return f.proj.HandleSnapshotUpdated(ctx, projectID, proposalID, snapshots, height)
	}

	// Unknown daoPortal events are ignored; the pallet may add events
	// this indexer has no projection for.
	return nil
}

// extrinsicParam finds the argument with the given chain type in the
// extrinsic an event points at.
func extrinsicParam(extrinsics []ChainExtrinsic, idx int, typeName string) (interface{}, error) {
	if idx < 0 || idx >= len(extrinsics) {
		return nil, fmt.Errorf("extrinsic index %d out of range", idx)
	}
	for _, param := range extrinsics[idx].Params {
		if param.Type == typeName {
			return param.Value, nil
		}
	}
	return nil, fmt.Errorf("extrinsic %d has no %s argument", idx, typeName)
}
