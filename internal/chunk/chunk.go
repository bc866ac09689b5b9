package chunk

// Chunking policy is external to this core: somebody else decides which
// modules land in which delivery unit. This package defines the decision
// interface that code generation consumes, and a map-backed implementation
// for the default orchestrator and for tests.

type Placement uint8

const (
	// The target is not part of the bundle at all
	PlacementExternal Placement = iota

	// The target is in the same delivery unit as the referrer
	PlacementSameChunk

	// The target is in a different delivery unit and must be loaded through
	// the runtime
	PlacementSeparateChunk
)

// A ChunkingContext reports where the chunking policy placed each resolved
// module, and the stable module id the runtime loader uses to address it.
// Code generation treats it as an opaque decision input.
type ChunkingContext interface {
	PlacementOf(assetPath string) Placement
	ModuleID(assetPath string) string
}

// MapChunkingContext is a ChunkingContext backed by explicit maps. The
// zero-value placement for an unknown path is PlacementExternal.
type MapChunkingContext struct {
	Placements map[string]Placement
	ModuleIDs  map[string]string
}

func (c *MapChunkingContext) PlacementOf(assetPath string) Placement {
	return c.Placements[assetPath]
}

func (c *MapChunkingContext) ModuleID(assetPath string) string {
	if id, ok := c.ModuleIDs[assetPath]; ok {
		return id
	}
	return assetPath
}
