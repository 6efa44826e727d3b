package types

import (
	"fmt"
	"strconv"
	"time"
)

// Cross-chain accounts referenced by projects and proposals. The
// protocol tag is immutable once set; an identifier cannot change chains.
type CrossChainAccount struct {
	Address  string `gorm:"primaryKey;size:128" json:"address"`
	Protocol string `gorm:"size:16;not null" json:"protocol"`
}

// Strategy is a voting power computation method, embedded in a workspace.
// Params holds the optional parameter blob as hex; empty when the chain
// encodes no payload for the active arm.
type Strategy struct {
	Protocol string `json:"protocol"`
	Kind     string `json:"kind"`
	Code     string `json:"code,omitempty"`
	Params   string `json:"params,omitempty"`
}

// Workspace binds a target chain index to its ordered strategy list.
// Identity is positional; order follows on-chain declaration order.
type Workspace struct {
	Chain      uint32     `json:"chain"`
	Strategies []Strategy `json:"strategies"`
}

// Projects
type Project struct {
	ID             string      `gorm:"primaryKey;size:16" json:"id"`
	Owner          string      `gorm:"size:128;not null;index" json:"owner"`
	OwnerProtocol  string      `gorm:"size:16" json:"ownerProtocol"`
	Data           string      `gorm:"size:128" json:"data"`
	Name           string      `gorm:"size:255" json:"name,omitempty"`
	Description    string      `gorm:"type:text" json:"description,omitempty"`
	Icon           string      `gorm:"size:255" json:"icon,omitempty"`
	Banner         string      `gorm:"size:255" json:"banner,omitempty"`
	PropCount      uint32      `gorm:"default:0" json:"propCount"`
	Updated        uint64      `gorm:"default:0" json:"updated"`
	PropUpdated    uint64      `gorm:"default:0" json:"propUpdated"`
	Workspaces     []Workspace `gorm:"serializer:json" json:"workspaces"`
	EnableProposer bool        `gorm:"default:false" json:"enableProposer"`
	CreatedAt      time.Time   `json:"-"`
	UpdatedAt      time.Time   `json:"-"`
}

// Proposals, keyed "{projectId}-{proposalId}". Workspaces is a snapshot
// of the owning project's list at creation time, never updated afterward.
type Proposal struct {
	ID           string      `gorm:"primaryKey;size:32" json:"id"`
	ProjectID    string      `gorm:"size:16;index;not null" json:"projectId"`
	ProposalID   uint32      `gorm:"not null" json:"proposalId"`
	Author       string      `gorm:"size:128;not null" json:"author"`
	Start        uint64      `gorm:"default:0" json:"start"`
	End          uint64      `gorm:"default:0" json:"end"`
	Privacy      string      `gorm:"size:16" json:"privacy"`
	PrivacyParam *uint8      `json:"privacyParam,omitempty"`
	VotingFormat string      `gorm:"size:16" json:"votingFormat"`
	OptionCount  uint8       `gorm:"not null" json:"optionCount"`
	Frequency    *uint64     `json:"frequency,omitempty"`
	Finalized    bool        `gorm:"default:false" json:"finalized"`
	Blacklisted  bool        `gorm:"default:false" json:"blacklisted"`
	Votes        []string    `gorm:"serializer:json" json:"votes"`
	Updates      uint32      `gorm:"default:0" json:"updates"`
	Snapshots    []string    `gorm:"serializer:json" json:"snapshots,omitempty"`
	PubVoters    string      `gorm:"size:128" json:"pubVoters,omitempty"`
	Data         string      `gorm:"size:128" json:"data"`
	Title        string      `gorm:"size:255" json:"title,omitempty"`
	Description  string      `gorm:"type:text" json:"description,omitempty"`
	Options      []string    `gorm:"serializer:json" json:"options,omitempty"`
	Workspaces   []Workspace `gorm:"serializer:json" json:"workspaces"`
	Created      uint64      `gorm:"default:0" json:"created"`
	Updated      uint64      `gorm:"default:0" json:"updated"`
	CreatedAt    time.Time   `json:"-"`
	UpdatedAt    time.Time   `json:"-"`
}

// Checkpoint records the last fully processed block so the feed can
// resume after a restart.
type Checkpoint struct {
	ID     uint8  `gorm:"primaryKey"`
	Height uint64 `gorm:"default:0"`
}

// ProjectKey renders the stored project id for a chain project id.
func ProjectKey(projectID uint32) string {
	return strconv.FormatUint(uint64(projectID), 10)
}

// ProposalKey renders the stored composite proposal id.
func ProposalKey(projectID, proposalID uint32) string {
	return fmt.Sprintf("%d-%d", projectID, proposalID)
}
