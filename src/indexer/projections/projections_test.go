package projections_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	daoportal "github.com/finitestate/dao-indexer/src/daoportal-go"
	"github.com/finitestate/dao-indexer/src/indexer/data"
	"github.com/finitestate/dao-indexer/src/indexer/metadata"
	"github.com/finitestate/dao-indexer/src/indexer/projections"
	"github.com/finitestate/dao-indexer/src/indexer/types"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Named shared-cache databases keep the schema visible across the
	// pool's connections while isolating tests from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, data.Migrate(db))
	return db
}

// fakeFetcher serves canned metadata documents or a fixed error.
type fakeFetcher struct {
	proposals map[string]*metadata.ProposalMeta
	projects  map[string]*metadata.ProjectMeta
	err       error
}

func (f *fakeFetcher) FetchProposal(ctx context.Context, cid string) (*metadata.ProposalMeta, error) {
	if f.err != nil {
		return nil, f.err
	}
	if m, ok := f.proposals[cid]; ok {
		return m, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeFetcher) FetchProject(ctx context.Context, cid string) (*metadata.ProjectMeta, error) {
	if f.err != nil {
		return nil, f.err
	}
	if m, ok := f.projects[cid]; ok {
		return m, nil
	}
	return nil, errors.New("not found")
}

func evmAccount(fill byte) daoportal.CrossChainAccount {
	acc := daoportal.CrossChainAccount{IsSolidity: true}
	for i := range acc.SolidityAcc {
		acc.SolidityAcc[i] = fill
	}
	return acc
}

func substrateAccount(fill byte) daoportal.CrossChainAccount {
	acc := daoportal.CrossChainAccount{IsSubstrate: true}
	for i := range acc.SubstrateAcc {
		acc.SubstrateAcc[i] = fill
	}
	return acc
}

func sampleProject(owner daoportal.CrossChainAccount) *daoportal.Project {
	var token daoportal.SolidityStrategy
	token.IsERC20Balance = true
	token.ERC20Token[0] = 0xbb

	return &daoportal.Project{
		Usergroup: daoportal.UserGroup{Owner: owner},
		Data:      "QmProject",
		Workspaces: []daoportal.Workspace{
			{
				Chain: 1,
				Strategies: []daoportal.Strategy{
					{IsSolidity: true, Solidity: token},
					{IsSubstrate: true, Substrate: daoportal.SubstrateStrategy{IsNativeBalance: true}},
				},
			},
		},
	}
}

func sampleProposal(author daoportal.CrossChainAccount, options uint8) *daoportal.DAOProposal {
	return &daoportal.DAOProposal{
		Author:       author,
		VotingFormat: daoportal.VotingFormatSingleChoice,
		OptionCount:  daoportal.OptionIndex(options),
		Data:         "QmProposal",
		Privacy:      daoportal.PrivacyLevel{IsOpaque: true, OpaqueArg: 2},
		Start:        1000,
		End:          2000,
	}
}

func TestHandleProjectCreated(t *testing.T) {
	db := testDB(t)
	p := projections.New(db, nil)
	owner := evmAccount(0xaa)

	require.NoError(t, p.HandleProjectCreated(context.Background(), 7, sampleProject(owner), 100))

	var record types.Project
	require.NoError(t, db.First(&record, "id = ?", "7").Error)
	require.Equal(t, owner.Key(), record.Owner)
	require.Equal(t, "Solidity", record.OwnerProtocol)
	require.Equal(t, "QmProject", record.Data)
	require.EqualValues(t, 0, record.PropCount)
	require.EqualValues(t, 100, record.Updated)

	require.Len(t, record.Workspaces, 1)
	strategies := record.Workspaces[0].Strategies
	require.Len(t, strategies, 2)
	require.Equal(t, "ERC20Balance", strategies[0].Kind)
	require.Equal(t, "0xbb00000000000000000000000000000000000000", strategies[0].Params)
	require.Equal(t, "NativeBalance", strategies[1].Kind)
	require.Empty(t, strategies[1].Params)

	var account types.CrossChainAccount
	require.NoError(t, db.First(&account, "address = ?", owner.Key()).Error)
	require.Equal(t, "Solidity", account.Protocol)
}

func TestHandleProjectCreatedReplay(t *testing.T) {
	db := testDB(t)
	p := projections.New(db, nil)
	ctx := context.Background()

	require.NoError(t, p.HandleProjectCreated(ctx, 7, sampleProject(evmAccount(0xaa)), 100))
	require.NoError(t, p.HandleProposalCreated(ctx, 7, 3, sampleProposal(substrateAccount(0x22), 2), 100))

	// Replaying the creation after a proposal landed must not rebuild
	// the record and zero the proposal counters.
	err := p.HandleProjectCreated(ctx, 7, sampleProject(evmAccount(0xaa)), 100)
	require.ErrorIs(t, err, projections.ErrDuplicateKey)

	var record types.Project
	require.NoError(t, db.First(&record, "id = ?", "7").Error)
	require.EqualValues(t, 1, record.PropCount)
	require.EqualValues(t, 100, record.PropUpdated)

	var count int64
	db.Model(&types.Project{}).Count(&count)
	require.EqualValues(t, 1, count)
}

func TestHandleProjectUpdated(t *testing.T) {
	db := testDB(t)
	p := projections.New(db, nil)
	ctx := context.Background()

	require.NoError(t, p.HandleProjectCreated(ctx, 7, sampleProject(evmAccount(0xaa)), 100))

	updated := sampleProject(substrateAccount(0x11))
	updated.Data = "QmNewData"
	updated.Workspaces = updated.Workspaces[:0]
	require.NoError(t, p.HandleProjectUpdated(ctx, 7, updated, 200))

	var record types.Project
	require.NoError(t, db.First(&record, "id = ?", "7").Error)
	require.Equal(t, "QmNewData", record.Data)
	require.Equal(t, "Substrate", record.OwnerProtocol)
	require.EqualValues(t, 200, record.Updated)
	require.Empty(t, record.Workspaces)
}

func TestHandleProjectUpdatedMissing(t *testing.T) {
	db := testDB(t)
	p := projections.New(db, nil)

	err := p.HandleProjectUpdated(context.Background(), 99, sampleProject(evmAccount(0xaa)), 100)
	require.ErrorIs(t, err, projections.ErrNotFound)
}

func TestHandleProposalCreated(t *testing.T) {
	db := testDB(t)
	p := projections.New(db, nil)
	ctx := context.Background()

	require.NoError(t, p.HandleProjectCreated(ctx, 7, sampleProject(evmAccount(0xaa)), 100))

	author := substrateAccount(0x22)
	require.NoError(t, p.HandleProposalCreated(ctx, 7, 3, sampleProposal(author, 4), 150))

	var record types.Proposal
	require.NoError(t, db.First(&record, "id = ?", "7-3").Error)
	require.Equal(t, "7", record.ProjectID)
	require.EqualValues(t, 3, record.ProposalID)
	require.Equal(t, author.Key(), record.Author)
	require.Equal(t, []string{"0", "0", "0", "0"}, record.Votes)
	require.Equal(t, "Opaque", record.Privacy)
	require.NotNil(t, record.PrivacyParam)
	require.EqualValues(t, 2, *record.PrivacyParam)
	require.Nil(t, record.Frequency)
	require.EqualValues(t, 0, record.Updates)
	require.EqualValues(t, 150, record.Created)

	// Workspace snapshot carried over from the parent.
	require.Len(t, record.Workspaces, 1)
	require.Equal(t, "ERC20Balance", record.Workspaces[0].Strategies[0].Kind)

	var project types.Project
	require.NoError(t, db.First(&project, "id = ?", "7").Error)
	require.EqualValues(t, 1, project.PropCount)
	require.EqualValues(t, 150, project.PropUpdated)
}

func TestHandleProposalCreatedDuplicate(t *testing.T) {
	db := testDB(t)
	p := projections.New(db, nil)
	ctx := context.Background()

	require.NoError(t, p.HandleProjectCreated(ctx, 7, sampleProject(evmAccount(0xaa)), 100))
	require.NoError(t, p.HandleProposalCreated(ctx, 7, 3, sampleProposal(substrateAccount(0x22), 2), 150))

	err := p.HandleProposalCreated(ctx, 7, 3, sampleProposal(substrateAccount(0x22), 2), 151)
	require.ErrorIs(t, err, projections.ErrDuplicateKey)

	// The counter must not double-bump.
	var project types.Project
	require.NoError(t, db.First(&project, "id = ?", "7").Error)
	require.EqualValues(t, 1, project.PropCount)
}

func TestHandleProposalCreatedOrphan(t *testing.T) {
	db := testDB(t)
	p := projections.New(db, nil)

	err := p.HandleProposalCreated(context.Background(), 99, 0, sampleProposal(substrateAccount(0x22), 2), 150)
	require.ErrorIs(t, err, projections.ErrNotFound)

	var count int64
	db.Model(&types.Proposal{}).Count(&count)
	require.EqualValues(t, 0, count)
}

func TestWorkspaceSnapshotImmutable(t *testing.T) {
	db := testDB(t)
	p := projections.New(db, nil)
	ctx := context.Background()

	require.NoError(t, p.HandleProjectCreated(ctx, 7, sampleProject(evmAccount(0xaa)), 100))
	require.NoError(t, p.HandleProposalCreated(ctx, 7, 0, sampleProposal(substrateAccount(0x22), 2), 150))

	updated := sampleProject(evmAccount(0xaa))
	updated.Workspaces = nil
	require.NoError(t, p.HandleProjectUpdated(ctx, 7, updated, 200))

	var record types.Proposal
	require.NoError(t, db.First(&record, "id = ?", "7-0").Error)
	require.Len(t, record.Workspaces, 1)
}

func TestHandleVoteUpdated(t *testing.T) {
	db := testDB(t)
	p := projections.New(db, nil)
	ctx := context.Background()

	require.NoError(t, p.HandleProjectCreated(ctx, 7, sampleProject(evmAccount(0xaa)), 100))
	require.NoError(t, p.HandleProposalCreated(ctx, 7, 3, sampleProposal(substrateAccount(0x22), 4), 150))

	update := &daoportal.VoteUpdate{
		Project:  7,
		Proposal: 3,
		Votes: []daoportal.VotingPower{
			daoportal.NewPower(5),
			daoportal.NewPower(2),
			daoportal.NewPower(0),
			daoportal.NewPower(255),
		},
	}
	require.NoError(t, p.HandleVoteUpdated(ctx, update, 160))

	var record types.Proposal
	require.NoError(t, db.First(&record, "id = ?", "7-3").Error)
	require.Equal(t, []string{"5", "2", "0", "ff"}, record.Votes)
	require.EqualValues(t, 1, record.Updates)
	require.EqualValues(t, 160, record.Updated)
	require.Empty(t, record.PubVoters)

	update.PubVoters = daoportal.OptionIpfsHash{HasValue: true, Value: "QmVoters"}
	require.NoError(t, p.HandleVoteUpdated(ctx, update, 170))

	require.NoError(t, db.First(&record, "id = ?", "7-3").Error)
	require.EqualValues(t, 2, record.Updates)
	require.Equal(t, "QmVoters", record.PubVoters)
}

func TestHandleVoteUpdatedMissing(t *testing.T) {
	db := testDB(t)
	p := projections.New(db, nil)

	update := &daoportal.VoteUpdate{Project: 1, Proposal: 1}
	require.ErrorIs(t, p.HandleVoteUpdated(context.Background(), update, 100), projections.ErrNotFound)
}

func TestHandleSnapshotUpdated(t *testing.T) {
	db := testDB(t)
	p := projections.New(db, nil)
	ctx := context.Background()

	require.NoError(t, p.HandleProjectCreated(ctx, 7, sampleProject(evmAccount(0xaa)), 100))
	require.NoError(t, p.HandleProposalCreated(ctx, 7, 3, sampleProposal(substrateAccount(0x22), 3), 150))

	snapshots := []daoportal.OptionVotingPower{
		{HasValue: true, Value: daoportal.NewPower(100)},
		{},
		{HasValue: true, Value: daoportal.NewPower(0)},
	}
	require.NoError(t, p.HandleSnapshotUpdated(ctx, 7, 3, snapshots, 160))

	var record types.Proposal
	require.NoError(t, db.First(&record, "id = ?", "7-3").Error)
	require.Equal(t, []string{"64", "", "0"}, record.Snapshots)
	require.EqualValues(t, 160, record.Updated)
	// Snapshot writes are not vote updates.
	require.EqualValues(t, 0, record.Updates)
}

func TestEnsureAccountIdempotent(t *testing.T) {
	db := testDB(t)
	p := projections.New(db, nil)
	ctx := context.Background()
	acc := substrateAccount(0x33)

	require.NoError(t, p.EnsureAccount(ctx, acc))
	require.NoError(t, p.EnsureAccount(ctx, acc))

	var count int64
	db.Model(&types.CrossChainAccount{}).Count(&count)
	require.EqualValues(t, 1, count)
}

func TestEnrichment(t *testing.T) {
	db := testDB(t)
	fetcher := &fakeFetcher{
		projects: map[string]*metadata.ProjectMeta{
			"QmProject": {Name: "Test DAO", Icon: "icon.png"},
		},
		proposals: map[string]*metadata.ProposalMeta{
			"QmProposal": {Title: "Funding Round", Options: []string{"Yes", "No"}},
		},
	}
	p := projections.New(db, fetcher)
	ctx := context.Background()

	require.NoError(t, p.HandleProjectCreated(ctx, 7, sampleProject(evmAccount(0xaa)), 100))
	require.NoError(t, p.HandleProposalCreated(ctx, 7, 3, sampleProposal(substrateAccount(0x22), 2), 150))

	var project types.Project
	require.NoError(t, db.First(&project, "id = ?", "7").Error)
	require.Equal(t, "Test DAO", project.Name)
	require.Equal(t, "icon.png", project.Icon)

	var proposal types.Proposal
	require.NoError(t, db.First(&proposal, "id = ?", "7-3").Error)
	require.Equal(t, "Funding Round", proposal.Title)
	require.Equal(t, []string{"Yes", "No"}, proposal.Options)
}

func TestEnrichmentFailureNonFatal(t *testing.T) {
	db := testDB(t)
	p := projections.New(db, &fakeFetcher{err: errors.New("gateway down")})
	ctx := context.Background()

	require.NoError(t, p.HandleProjectCreated(ctx, 7, sampleProject(evmAccount(0xaa)), 100))
	require.NoError(t, p.HandleProposalCreated(ctx, 7, 3, sampleProposal(substrateAccount(0x22), 2), 150))

	var project types.Project
	require.NoError(t, db.First(&project, "id = ?", "7").Error)
	require.Empty(t, project.Name)
	require.Equal(t, "QmProject", project.Data)

	var proposal types.Proposal
	require.NoError(t, db.First(&proposal, "id = ?", "7-3").Error)
	require.Empty(t, proposal.Title)
	require.Equal(t, []string{"0", "0"}, proposal.Votes)
}
