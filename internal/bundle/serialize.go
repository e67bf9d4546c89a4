package bundle

import (
	"encoding/json"
	"fmt"
)

const (
	sectionGraph  = "graph"
	sectionStrArn = "strarn"
	sectionStrOff = "stroff"
	sectionBlocks = "blocks"
)

// Serialize packs a Bundle into its container byte representation.
func Serialize(b *Bundle) ([]byte, error) {
	graphJSON, err := json.Marshal(b.Graph)
	if err != nil {
		return nil, fmt.Errorf("bundle: marshal graph: %w", err)
	}

	arena, offsets := encodeStringTable(b.Strings)

	var blocksBlob []byte
	for _, rec := range b.Blocks {
		blocksBlob = append(blocksBlob, rec...)
	}

	builder := NewBuilder()
	if err := builder.AddSection(sectionGraph, graphJSON); err != nil {
		return nil, err
	}
	if err := builder.AddSection(sectionStrArn, arena); err != nil {
		return nil, err
	}
	if err := builder.AddSection(sectionStrOff, offsets); err != nil {
		return nil, err
	}
	if len(blocksBlob) > 0 {
		if err := builder.AddSection(sectionBlocks, blocksBlob); err != nil {
			return nil, err
		}
	}

	return builder.Build(), nil
}

// Deserialize parses a container byte slice back into a Bundle. Chunk
// block records are handed back as direct subslices of data, per the
// zero-copy contract in spec §4.2.
func Deserialize(data []byte) (*Bundle, error) {
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}

	graphRaw, ok := c.Section(sectionGraph)
	if !ok {
		return nil, fmt.Errorf("bundle: missing %q section", sectionGraph)
	}
	var g Graph
	if err := json.Unmarshal(graphRaw, &g); err != nil {
		return nil, fmt.Errorf("bundle: unmarshal graph: %w", err)
	}

	arena, _ := c.Section(sectionStrArn)
	offsets, _ := c.Section(sectionStrOff)
	strs, err := decodeStringTable(arena, offsets)
	if err != nil {
		return nil, err
	}

	blocksBlob, _ := c.Section(sectionBlocks)
	recSize := chunkBlockRecordSize(16) // 16 = worldstore.ChunkSize
	numRecords := 0
	if recSize > 0 {
		numRecords = len(blocksBlob) / recSize
	}
	blocks := make([][]byte, numRecords)
	for i := 0; i < numRecords; i++ {
		blocks[i] = blocksBlob[i*recSize : (i+1)*recSize]
	}

	return &Bundle{Graph: g, Strings: strs, Blocks: blocks}, nil
}
