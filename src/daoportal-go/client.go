package daoportal

import (
	"bytes"
	"encoding/binary"
	"fmt"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
)

// PalletName is the on-chain module name; event and call routing matches
// against it exactly.
const PalletName = "DaoPortal"

// Client is a typed RPC client for the daoPortal pallet.
type Client struct {
	api *gsrpc.SubstrateAPI
}

// NewClient connects to a chain node over websocket.
func NewClient(url string) (*Client, error) {
	api, err := gsrpc.NewSubstrateAPI(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return &Client{api: api}, nil
}

// Close closes the connection
func (c *Client) Close() error {
	// No explicit close needed for gsrpc
	return nil
}

// LatestHeight returns the current chain head number.
func (c *Client) LatestHeight() (uint64, error) {
	header, err := c.api.RPC.Chain.GetHeaderLatest()
	if err != nil {
		return 0, fmt.Errorf("failed to get header: %w", err)
	}
	return uint64(header.Number), nil
}

// GetStorage queries storage at a specific key
func (c *Client) GetStorage(key string, at *string) ([]byte, error) {
	var raw types.StorageDataRaw

	keyBytes, err := DecodeHex(key)
	if err != nil {
		return nil, err
	}
	storageKey := types.NewStorageKey(keyBytes)

	if at != nil {
		var hash types.Hash
		if err := codec.DecodeFromHex(*at, &hash); err != nil {
			return nil, err
		}
		ok, err := c.api.RPC.State.GetStorage(storageKey, &raw, hash)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
	} else {
		ok, err := c.api.RPC.State.GetStorageLatest(storageKey, &raw)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
	}

	return raw, nil
}

// GetKeys returns all storage keys with the given prefix
func (c *Client) GetKeys(prefix string, at *string) ([]string, error) {
	prefixBytes, err := DecodeHex(prefix)
	if err != nil {
		return nil, err
	}

	var hash types.Hash
	if at != nil {
		if err := codec.DecodeFromHex(*at, &hash); err != nil {
			return nil, err
		}
	} else {
		hash, err = c.api.RPC.Chain.GetBlockHashLatest()
		if err != nil {
			return nil, err
		}
	}

	keys, err := c.api.RPC.State.GetKeys(prefixBytes, hash)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, codec.HexEncodeToString(k))
	}
	return out, nil
}

// GetProjectCount reads daoPortal.ProjectCount.
func (c *Client) GetProjectCount() (uint32, error) {
	data, err := c.GetStorage(StorageKey(PalletName, "ProjectCount"), nil)
	if err != nil {
		return 0, err
	}
	if len(data) < 4 {
		return 0, fmt.Errorf("daoportal: short ProjectCount value")
	}
	return binary.LittleEndian.Uint32(data[:4]), nil
}

// GetProject reads and decodes daoPortal.Projects(projectID). Returns
// nil when the project does not exist.
func (c *Client) GetProject(projectID uint32) (*Project, error) {
	key := storageMapKeyUint32(PalletName, "Projects", projectID)
	data, err := c.GetStorage(key, nil)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var project Project
	if err := scale.NewDecoder(bytes.NewReader(data)).Decode(&project); err != nil {
		return nil, fmt.Errorf("daoportal: decode Projects(%d): %w", projectID, err)
	}
	return &project, nil
}

// ProjectKeys returns the ids of every project present in storage. The
// pallet hashes map keys with Blake2_128Concat, so the trailing four key
// bytes are the little-endian project id.
func (c *Client) ProjectKeys() ([]uint32, error) {
	prefix := StorageKey(PalletName, "Projects")
	keys, err := c.GetKeys(prefix, nil)
	if err != nil {
		return nil, err
	}

	ids := make([]uint32, 0, len(keys))
	for _, key := range keys {
		raw, err := DecodeHex(key)
		if err != nil || len(raw) < 4 {
			continue
		}
		ids = append(ids, binary.LittleEndian.Uint32(raw[len(raw)-4:]))
	}
	return ids, nil
}

func storageMapKeyUint32(pallet, item string, value uint32) string {
	keyData := make([]byte, 4)
	binary.LittleEndian.PutUint32(keyData, value)
	key := append(Twox128([]byte(pallet)), Twox128([]byte(item))...)
	key = append(key, append(Blake2_128(keyData), keyData...)...)
	return codec.HexEncodeToString(key)
}
