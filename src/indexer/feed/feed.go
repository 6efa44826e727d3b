package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	substrate "github.com/itering/substrate-api-rpc"
	"github.com/itering/substrate-api-rpc/metadata"
	"github.com/itering/substrate-api-rpc/rpc"
	"github.com/itering/substrate-api-rpc/websocket"
	"gorm.io/gorm"

	daoportal "github.com/finitestate/dao-indexer/src/daoportal-go"
	"github.com/finitestate/dao-indexer/src/indexer/projections"
	"github.com/finitestate/dao-indexer/src/indexer/types"
)

const checkpointID = 1

// Feed follows finalized blocks and delivers decoded daoPortal events
// and extrinsics to the projector, strictly one block at a time. Within
// a block, events are applied in chain order (extrinsic order, then
// event order); consistency of the store depends on this sequencing.
type Feed struct {
	db   *gorm.DB
	proj *projections.Projector

	specVersion int
	meta        *metadata.Instant
}

func New(db *gorm.DB, proj *projections.Projector) *Feed {
	daoportal.RegisterTypes()
	return &Feed{db: db, proj: proj, specVersion: -1}
}

// Run connects to the node and polls for new finalized blocks until the
// context is cancelled.
func (f *Feed) Run(ctx context.Context, rpcURL string, interval time.Duration, startHeight uint64) {
	websocket.SetEndpoint(rpcURL)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	f.syncOnce(ctx, startHeight)

	for {
		select {
		case <-ctx.Done():
			log.Printf("feed: stopping")
			return
		case <-ticker.C:
			f.syncOnce(ctx, startHeight)
		}
	}
}

func (f *Feed) syncOnce(ctx context.Context, startHeight uint64) {
	head, err := f.finalizedHeight()
	if err != nil {
		log.Printf("feed: head: %v", err)
		return
	}

	next := f.checkpoint() + 1
	if next < startHeight {
		next = startHeight
	}

	for height := next; height <= head; height++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := f.processBlock(ctx, height); err != nil {
			// Leave the checkpoint untouched; the block is retried on
			// the next tick.
			log.Printf("feed: block %d: %v", height, err)
			return
		}
		if err := f.saveCheckpoint(height); err != nil {
			log.Printf("feed: checkpoint %d: %v", height, err)
			return
		}
	}
}

func (f *Feed) checkpoint() uint64 {
	var cp types.Checkpoint
	if err := f.db.First(&cp, "id = ?", checkpointID).Error; err != nil {
		return 0
	}
	return cp.Height
}

func (f *Feed) saveCheckpoint(height uint64) error {
	cp := types.Checkpoint{ID: checkpointID, Height: height}
	return f.db.Save(&cp).Error
}

func (f *Feed) finalizedHeight() (uint64, error) {
	v := &rpc.JsonRpcResult{}
	if err := websocket.SendWsRequest(nil, v, chainGetFinalizedHead(wsID())); err != nil {
		return 0, err
	}
	hash, err := v.ToString()
	if err != nil {
		return 0, err
	}

	block := &rpc.JsonRpcResult{}
	if err := websocket.SendWsRequest(nil, block, rpc.ChainGetBlock(wsID(), hash)); err != nil {
		return 0, err
	}
	rpcBlock := block.ToBlock()
	if rpcBlock == nil {
		return 0, fmt.Errorf("empty block for head %s", hash)
	}
	return parseHexNumber(rpcBlock.Block.Header.Number)
}

func (f *Feed) processBlock(ctx context.Context, height uint64) error {
	v := &rpc.JsonRpcResult{}
	if err := websocket.SendWsRequest(nil, v, rpc.ChainGetBlockHash(wsID(), int(height))); err != nil {
		return fmt.Errorf("block hash: %w", err)
	}
	blockHash, err := v.ToString()
	if err != nil || blockHash == "" {
		return fmt.Errorf("block hash: %v", err)
	}

	if err := f.refreshMetadata(blockHash); err != nil {
		return err
	}

	blockRes := &rpc.JsonRpcResult{}
	if err := websocket.SendWsRequest(nil, blockRes, rpc.ChainGetBlock(wsID(), blockHash)); err != nil {
		return fmt.Errorf("block: %w", err)
	}
	rpcBlock := blockRes.ToBlock()
	if rpcBlock == nil {
		return fmt.Errorf("empty block %s", blockHash)
	}

	eventsRes := &rpc.JsonRpcResult{}
	if err := websocket.SendWsRequest(nil, eventsRes, rpc.StateGetStorage(wsID(), daoportal.SystemEventsKey(), blockHash)); err != nil {
		return fmt.Errorf("events storage: %w", err)
	}
	eventsRaw, err := eventsRes.ToString()
	if err != nil {
		return fmt.Errorf("events storage: %w", err)
	}

	events, err := f.decodeEvents(eventsRaw)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	extrinsics, err := f.decodeExtrinsics(rpcBlock.Block.Extrinsics)
	if err != nil {
		return err
	}

	return f.dispatch(ctx, height, events, extrinsics)
}

func (f *Feed) refreshMetadata(blockHash string) error {
	v := &rpc.JsonRpcResult{}
	if err := websocket.SendWsRequest(nil, v, rpc.ChainGetRuntimeVersion(wsID(), blockHash)); err != nil {
		return fmt.Errorf("runtime version: %w", err)
	}
	runtime := v.ToRuntimeVersion()
	if runtime == nil {
		return fmt.Errorf("empty runtime version at %s", blockHash)
	}

	if f.meta != nil && runtime.SpecVersion == f.specVersion {
		return nil
	}

	metaRes := &rpc.JsonRpcResult{}
	if err := websocket.SendWsRequest(nil, metaRes, rpc.StateGetMetadata(wsID(), blockHash)); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	metaRaw, err := metaRes.ToString()
	if err != nil {
		return fmt.Errorf("metadata: %w", err)
	}

	f.meta = metadata.Process(&metadata.RuntimeRaw{Spec: runtime.SpecVersion, Raw: metaRaw})
	f.specVersion = runtime.SpecVersion
	log.Printf("feed: runtime spec %d", f.specVersion)
	return nil
}

// ChainEvent is one decoded event record from System.Events.
type ChainEvent struct {
	EventIdx     int          `json:"event_idx"`
	ExtrinsicIdx int          `json:"extrinsic_idx"`
	ModuleID     string       `json:"module_id"`
	EventID      string       `json:"event_id"`
	Params       []ChainParam `json:"params"`
}

// ChainExtrinsic is one decoded extrinsic of a block.
type ChainExtrinsic struct {
	CallModule         string       `json:"call_module"`
	CallModuleFunction string       `json:"call_module_function"`
	Params             []ChainParam `json:"params"`
}

// ChainParam is a single decoded parameter.
type ChainParam struct {
	Name  string      `json:"name"`
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

func (f *Feed) decodeEvents(eventsRaw string) ([]ChainEvent, error) {
	if eventsRaw == "" || eventsRaw == "0x" {
		return nil, nil
	}

	decoded, err := substrate.DecodeEvent(eventsRaw, f.meta, f.specVersion)
	if err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	var events []ChainEvent
	if err := remarshal(decoded, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

func (f *Feed) decodeExtrinsics(raw []string) ([]ChainExtrinsic, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	decoded, err := substrate.DecodeExtrinsic(raw, f.meta, f.specVersion)
	if err != nil {
		return nil, fmt.Errorf("decode extrinsics: %w", err)
	}

	var extrinsics []ChainExtrinsic
	if err := remarshal(decoded, &extrinsics); err != nil {
		return nil, fmt.Errorf("decode extrinsics: %w", err)
	}
	return extrinsics, nil
}

func remarshal(from interface{}, to interface{}) error {
	b, err := json.Marshal(from)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, to)
}

// chainGetFinalizedHead builds the chain_getFinalizedHead request; the
// rpc package has no constructor for this method.
func chainGetFinalizedHead(id int) []byte {
	b, _ := json.Marshal(rpc.Param{Id: id, Method: "chain_getFinalizedHead", Params: []string{}, JsonRpc: "2.0"})
	return b
}

func parseHexNumber(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
}

func wsID() int {
	return rand.Intn(10000)
}
