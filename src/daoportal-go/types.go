package daoportal

import (
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// SectionName is the event section spelling used for routing decoded
// events; part of the wire contract.
const SectionName = "daoPortal"

// Scalar aliases used by the daoPortal pallet. Widths are part of the
// chain's encoding contract and must not change.
type (
	ProjectID   = types.U32
	ProposalID  = types.U32
	ChainIndex  = types.U32
	OptionIndex = types.U8
	VotingPower = types.U256
	IpfsHash    = types.Text
)

// Protocol tags which chain family an account or strategy belongs to.
type Protocol byte

const (
	ProtocolSolidity  Protocol = 0
	ProtocolSubstrate Protocol = 1
)

// CrossChainAccount is either an EVM account (H160) or a Substrate
// account (AccountID), discriminated by Protocol.
type CrossChainAccount struct {
	IsSolidity   bool
	SolidityAcc  types.H160
	IsSubstrate  bool
	SubstrateAcc types.AccountID
}

// SolidityStrategy selects the voting power computation on an EVM chain.
type SolidityStrategy struct {
	IsERC20Balance bool
	ERC20Token     types.H160
	IsCustom       bool
	CustomCode     IpfsHash
	CustomParams   types.Bytes
}

// SubstrateStrategy selects the voting power computation on a Substrate chain.
type SubstrateStrategy struct {
	IsNativeBalance bool
	IsCustom        bool
	CustomCode      IpfsHash
	CustomParams    types.Bytes
}

// Strategy wraps the protocol specific strategy arms.
type Strategy struct {
	IsSolidity  bool
	Solidity    SolidityStrategy
	IsSubstrate bool
	Substrate   SubstrateStrategy
}

// Workspace binds a target chain to its ordered strategy list.
// Strategy order is declaration order on chain and is significant.
type Workspace struct {
	Chain      ChainIndex
	Strategies []Strategy
}

// UserGroup describes ownership and permissions of a project.
type UserGroup struct {
	Owner       CrossChainAccount
	Admins      []CrossChainAccount
	Maintainers []CrossChainAccount
	Proposers   OptionCrossChainAccounts
}

// OptionCrossChainAccounts is Option<Vec<CrossChainAccount>>.
type OptionCrossChainAccounts struct {
	HasValue bool
	Value    []CrossChainAccount
}

// Project is the on-chain project record.
type Project struct {
	Usergroup  UserGroup
	Data       IpfsHash
	Workspaces []Workspace
}

// VotingFormat is a plain enum.
type VotingFormat byte

const (
	VotingFormatSingleChoice VotingFormat = 0
	VotingFormatSplitVote    VotingFormat = 1
)

// PrivacyLevel is a tagged union; only Opaque carries a parameter.
type PrivacyLevel struct {
	IsOpaque  bool
	OpaqueArg types.U8
	IsRank    bool
	IsPrivate bool
	IsPublic  bool
	IsMixed   bool
}

// DAOProposalState is the mutable part of an on-chain proposal.
type DAOProposalState struct {
	Finalized   bool
	Snapshots   []VotingPower
	Blacklisted bool
	Votes       []VotingPower
	PubVoters   OptionIpfsHash
	Updates     types.U32
}

// OptionIpfsHash is Option<IpfsHash>.
type OptionIpfsHash struct {
	HasValue bool
	Value    IpfsHash
}

// OptionU64 is Option<u64>.
type OptionU64 struct {
	HasValue bool
	Value    types.U64
}

// DAOProposal is the full proposal payload carried by the creation extrinsic.
type DAOProposal struct {
	Author       CrossChainAccount
	VotingFormat VotingFormat
	OptionCount  OptionIndex
	Data         IpfsHash
	Privacy      PrivacyLevel
	Start        types.U64
	End          types.U64
	Frequency    OptionU64
	State        DAOProposalState
}

// VoteUpdate is emitted whenever tallies for a proposal change.
type VoteUpdate struct {
	Project   ProjectID
	Proposal  ProposalID
	Votes     []VotingPower
	PubVoters OptionIpfsHash
}

// SnapshotUpdate carries per-option snapshot values; a slot may be absent.
type SnapshotUpdate struct {
	Project   ProjectID
	Proposal  ProposalID
	Snapshots []OptionVotingPower
}

// OptionVotingPower is Option<VotingPower>.
type OptionVotingPower struct {
	HasValue bool
	Value    VotingPower
}
