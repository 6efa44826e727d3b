package daoportal

import (
	_ "embed"
	"sync"

	"github.com/itering/scale.go/source"
	"github.com/itering/scale.go/types"
)

// chaintypes.json is the declarative schema of every daoPortal chain
// type. Field order and widths are the chain's byte-level encoding
// contract: changing them breaks decoding of historical blocks.
//
//go:embed chaintypes.json
var registryJSON []byte

var registerOnce sync.Once

// RegisterTypes loads the daoPortal type definitions into the scale.go
// decoder registry. Safe to call from multiple components; registration
// happens once.
func RegisterTypes() {
	registerOnce.Do(func() {
		types.RuntimeType{}.Reg()
		types.RegCustomTypes(source.LoadTypeRegistry(registryJSON))
	})
}
