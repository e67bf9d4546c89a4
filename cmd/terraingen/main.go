// Command terraingen is the terrain generation subprocess described in
// spec §4.4: a separate OS process fed Command frames on stdin and
// draining length-prefixed chunk bundles on stdout, run one per
// terraingen.Worker the engine spawns. Grounded on cmd/server's own
// single-positional-argument, stderr-only boot contract (spec §6.5);
// the generator takes the same storage root so its summary-pass cache
// persists under <root>/summary per spec §6.4.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/annel0/mmo-game/internal/bundle"
	"github.com/annel0/mmo-game/internal/idmap"
	"github.com/annel0/mmo-game/internal/logging"
	"github.com/annel0/mmo-game/internal/storage"
	"github.com/annel0/mmo-game/internal/terraingen"
	"github.com/annel0/mmo-game/internal/util"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/annel0/mmo-game/internal/worldstore"
)

// Minimal block IDs this generator writes directly. Air=0, Stone=1,
// Grass=2 and Sand=4 match internal/world/block/registry.go's BlockID
// constants; Dirt=3 and Wood=5 are this generator's own numbers
// (registry.go has Water at 3 and Dirt at 5). The generator never consults
// internal/gamedata: raw terrain blocks aren't named game-data, they're
// addressed by the numeric IDs the client's own block table agrees on.
const (
	blockAir   worldstore.BlockID = 0
	blockStone worldstore.BlockID = 1
	blockGrass worldstore.BlockID = 2
	blockDirt  worldstore.BlockID = 3
	blockSand  worldstore.BlockID = 4
	blockWood  worldstore.BlockID = 5
	blockLeaf  worldstore.BlockID = 6
)

const chunkDim = worldstore.ChunkSize

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: terraingen <storage-root>")
		os.Exit(2)
	}
	root := os.Args[1]

	logger := logging.GetComponentLogger("terraingen")

	store, err := storage.NewBundleStore(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "terraingen: cannot open summary store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	g := newGenerator(store, logger)

	in := bufio.NewReader(os.Stdin)
	out := bufio.NewWriter(os.Stdout)

	for {
		cmd, err := terraingen.ReadCommand(in)
		if err != nil {
			if err != io.EOF {
				logger.Error("terraingen: command read failed: %v", err)
			}
			break
		}

		switch cmd.Op {
		case terraingen.OpInitPlane:
			g.initPlane(cmd.StablePlane, cmd.Flags)

		case terraingen.OpForgetPlane:
			g.forgetPlane(cmd.StablePlane)

		case terraingen.OpGenPlane:
			// Whole-plane bootstrap: warm the origin chunk's passes so the
			// first GEN_CHUNK a client triggers doesn't pay the cold-cache
			// cost. The response carries the origin chunk's bundle.
			data, err := g.buildChunk(cmd.StablePlane, vec.Vec2{})
			if err != nil {
				logger.Error("terraingen: plane warm-up failed for %d: %v", cmd.StablePlane, err)
				data = nil
			}
			if err := terraingen.WriteResponse(out, data); err != nil {
				logger.Error("terraingen: response write failed: %v", err)
				break
			}
			if err := out.Flush(); err != nil {
				logger.Error("terraingen: stdout flush failed: %v", err)
			}

		case terraingen.OpGenChunk:
			data, err := g.buildChunk(cmd.StablePlane, cmd.Pos)
			if err != nil {
				logger.Error("terraingen: chunk generation failed for plane %d pos %v: %v", cmd.StablePlane, cmd.Pos, err)
				data = nil
			}
			if err := terraingen.WriteResponse(out, data); err != nil {
				logger.Error("terraingen: response write failed: %v", err)
				break
			}
			if err := out.Flush(); err != nil {
				logger.Error("terraingen: stdout flush failed: %v", err)
			}

		case terraingen.OpShutdown:
			if err := g.cache.Flush(); err != nil {
				logger.Error("terraingen: flush on shutdown failed: %v", err)
			}
			return

		default:
			logger.Warn("terraingen: unknown opcode %s", cmd.Op)
		}
	}

	if err := g.cache.Flush(); err != nil {
		logger.Error("terraingen: final flush failed: %v", err)
	}
}

// generator owns the summary cache and the per-plane seeds the passes
// key their noise fields on.
type generator struct {
	cache  *terraingen.SummaryCache
	logger *logging.Logger

	mu    sync.Mutex
	seeds map[idmap.StableID]int64
}

func newGenerator(store terraingen.PassStore, logger *logging.Logger) *generator {
	g := &generator{
		cache:  terraingen.NewSummaryCache(store),
		logger: logger,
		seeds:  make(map[idmap.StableID]int64),
	}
	g.cache.RegisterPass(terraingen.PassHeightMap, g.genHeightMap)
	g.cache.RegisterPass(terraingen.PassHeightDetail, g.genHeightDetail)
	g.cache.RegisterPass(terraingen.PassCaveRamps, g.genCaveRamps)
	g.cache.RegisterPass(terraingen.PassCaveDetail, g.genCaveDetail)
	g.cache.RegisterPass(terraingen.PassCaveJunk, g.genCaveJunk)
	g.cache.RegisterPass(terraingen.PassTrees, g.genTrees)
	return g
}

func (g *generator) initPlane(plane idmap.StableID, flags uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seeds[plane] = int64(plane)*31 + int64(flags)
}

func (g *generator) forgetPlane(plane idmap.StableID) {
	g.mu.Lock()
	delete(g.seeds, plane)
	g.mu.Unlock()
}

func (g *generator) seedFor(plane idmap.StableID) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seed, ok := g.seeds[plane]; ok {
		return seed
	}
	// A chunk requested before its plane's INIT_PLANE (shouldn't happen
	// per spec §4.4's ordering, but a deterministic fallback keeps this
	// generator reproducible rather than crashing).
	return int64(plane)
}

// heightField is the cached shape of PassHeightMap / PassHeightDetail:
// one height sample per (x,y) column in the chunk's 16x16 footprint.
type heightField struct {
	Heights [chunkDim][chunkDim]int `json:"heights"`
}

// caveField is the cached shape of the three cave passes: a boolean
// per (x,y,z) cell, true where the pass carves air.
type caveField struct {
	Carve [chunkDim][chunkDim][chunkDim]bool `json:"carve"`
}

// treeField is the cached shape of PassTrees: trunk positions within
// the chunk's footprint.
type treeField struct {
	Trunks []vec.Vec2 `json:"trunks"`
}

func chunkOrigin(pos vec.Vec2) (int, int) {
	return pos.X * chunkDim, pos.Y * chunkDim
}

func (g *generator) genHeightMap(key terraingen.SummaryKey, cache *terraingen.SummaryCache) ([]byte, error) {
	seed := g.seedFor(key.Plane)
	ox, oy := chunkOrigin(key.Pos)

	var hf heightField
	for x := 0; x < chunkDim; x++ {
		for y := 0; y < chunkDim; y++ {
			n := util.PerlinNoise2D(float64(ox+x)*0.02, float64(oy+y)*0.02, seed)
			hf.Heights[x][y] = 48 + int(n*32)
		}
	}
	return json.Marshal(hf)
}

func (g *generator) genHeightDetail(key terraingen.SummaryKey, cache *terraingen.SummaryCache) ([]byte, error) {
	base, err := cache.Get(terraingen.SummaryKey{Plane: key.Plane, Pos: key.Pos, Pass: terraingen.PassHeightMap})
	if err != nil {
		return nil, fmt.Errorf("terraingen: height-detail needs height-map: %w", err)
	}
	var hf heightField
	if err := json.Unmarshal(base, &hf); err != nil {
		return nil, err
	}

	seed := g.seedFor(key.Plane) + 1
	ox, oy := chunkOrigin(key.Pos)
	for x := 0; x < chunkDim; x++ {
		for y := 0; y < chunkDim; y++ {
			n := util.PerlinNoise2D(float64(ox+x)*0.2, float64(oy+y)*0.2, seed)
			hf.Heights[x][y] += int(n*4) - 2
		}
	}
	return json.Marshal(hf)
}

func (g *generator) genCaveRamps(key terraingen.SummaryKey, cache *terraingen.SummaryCache) ([]byte, error) {
	return g.carveField(key, cache, g.seedFor(key.Plane)+2, 0.05, 0.62)
}

func (g *generator) genCaveDetail(key terraingen.SummaryKey, cache *terraingen.SummaryCache) ([]byte, error) {
	return g.carveField(key, cache, g.seedFor(key.Plane)+3, 0.12, 0.58)
}

func (g *generator) genCaveJunk(key terraingen.SummaryKey, cache *terraingen.SummaryCache) ([]byte, error) {
	return g.carveField(key, cache, g.seedFor(key.Plane)+4, 0.3, 0.7)
}

// carveField is the shared shape of the three cave passes: a 2D noise
// sampled per 3D cell (z folded into the x coordinate) and thresholded
// into a carve/no-carve boolean per cell. Each pass differs only in noise
// frequency and the threshold above which a cell is carved: ramps get the
// coarsest noise, cave-detail the lowest threshold (most frequent
// carving), and junk the finest noise and highest threshold (rarest).
func (g *generator) carveField(key terraingen.SummaryKey, cache *terraingen.SummaryCache, seed int64, freq, threshold float64) ([]byte, error) {
	ox, oy := chunkOrigin(key.Pos)
	var cf caveField
	for x := 0; x < chunkDim; x++ {
		for y := 0; y < chunkDim; y++ {
			for z := 0; z < chunkDim; z++ {
				n := util.PerlinNoise2D(float64(ox+x)*freq+float64(z)*freq, float64(oy+y)*freq, seed)
				cf.Carve[x][y][z] = n > threshold
			}
		}
	}
	return json.Marshal(cf)
}

func (g *generator) genTrees(key terraingen.SummaryKey, cache *terraingen.SummaryCache) ([]byte, error) {
	detail, err := cache.Get(terraingen.SummaryKey{Plane: key.Plane, Pos: key.Pos, Pass: terraingen.PassHeightDetail})
	if err != nil {
		return nil, fmt.Errorf("terraingen: trees needs height-detail: %w", err)
	}
	var hf heightField
	if err := json.Unmarshal(detail, &hf); err != nil {
		return nil, err
	}

	seed := g.seedFor(key.Plane) + 5
	ox, oy := chunkOrigin(key.Pos)
	var tf treeField
	for x := 0; x < chunkDim; x++ {
		for y := 0; y < chunkDim; y++ {
			n := util.PerlinNoise2D(float64(ox+x)*0.9, float64(oy+y)*0.9, seed)
			if n > 0.85 {
				tf.Trunks = append(tf.Trunks, vec.Vec2{X: x, Y: y})
			}
		}
	}
	return json.Marshal(tf)
}

// buildChunk runs the full pass DAG for one chunk and renders the
// result into a serialized bundle.Bundle, the payload shape
// terraingen.WriteResponse frames onto stdout (spec §4.4).
func (g *generator) buildChunk(stablePlane idmap.StableID, pos vec.Vec2) ([]byte, error) {
	key := func(pass terraingen.Pass) terraingen.SummaryKey {
		return terraingen.SummaryKey{Plane: stablePlane, Pos: pos, Pass: pass}
	}

	detailRaw, err := g.cache.Get(key(terraingen.PassHeightDetail))
	if err != nil {
		return nil, err
	}
	var hf heightField
	if err := json.Unmarshal(detailRaw, &hf); err != nil {
		return nil, err
	}

	ramps, err := g.cacheCaveField(key(terraingen.PassCaveRamps))
	if err != nil {
		return nil, err
	}
	detail, err := g.cacheCaveField(key(terraingen.PassCaveDetail))
	if err != nil {
		return nil, err
	}
	junk, err := g.cacheCaveField(key(terraingen.PassCaveJunk))
	if err != nil {
		return nil, err
	}

	treesRaw, err := g.cache.Get(key(terraingen.PassTrees))
	if err != nil {
		return nil, err
	}
	var tf treeField
	if err := json.Unmarshal(treesRaw, &tf); err != nil {
		return nil, err
	}

	store := worldstore.NewStore()
	plane := store.CreatePlane(fmt.Sprintf("gen-plane-%d", stablePlane))
	store.AdoptPlaneStable(plane, stablePlane)

	chunkID, err := store.CreateChunk(plane, pos, false)
	if err != nil {
		return nil, fmt.Errorf("terraingen: create chunk: %w", err)
	}

	for x := 0; x < chunkDim; x++ {
		for y := 0; y < chunkDim; y++ {
			surface := hf.Heights[x][y]
			for z := 0; z < chunkDim; z++ {
				height := surface - z
				block := columnBlock(height, surface)
				if block != blockAir && carved(ramps, detail, junk, x, y, z) {
					block = blockAir
				}
				if err := store.SetBlock(chunkID, vec.Vec3{X: x, Y: y, Z: z}, block); err != nil {
					return nil, fmt.Errorf("terraingen: set block: %w", err)
				}
			}
		}
	}

	for _, trunk := range tf.Trunks {
		plantTree(store, chunkID, trunk)
	}

	b := bundle.ExportChunk(store, chunkID)
	return bundle.Serialize(b)
}

func (g *generator) cacheCaveField(key terraingen.SummaryKey) (*caveField, error) {
	raw, err := g.cache.Get(key)
	if err != nil {
		return nil, err
	}
	var cf caveField
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

func carved(ramps, detail, junk *caveField, x, y, z int) bool {
	return ramps.Carve[x][y][z] || detail.Carve[x][y][z] || junk.Carve[x][y][z]
}

// columnBlock picks the material for one cell of a column given its
// height below the surface: grass caps the surface, a shallow band of
// dirt follows, and stone fills the rest, with everything above the
// surface left air.
func columnBlock(depthBelowSurface, surfaceHeight int) worldstore.BlockID {
	switch {
	case depthBelowSurface < 0:
		return blockAir
	case depthBelowSurface == 0:
		if surfaceHeight <= 40 {
			return blockSand
		}
		return blockGrass
	case depthBelowSurface <= 3:
		return blockDirt
	default:
		return blockStone
	}
}

// plantTree writes a minimal trunk+canopy directly into the chunk at a
// surface column already carrying grass; out-of-range writes (a trunk
// near the chunk's top edge) are silently dropped since SetBlock
// returns an error on out-of-bounds Z rather than panicking.
func plantTree(store *worldstore.Store, chunkID worldstore.TerrainChunkID, trunk vec.Vec2) {
	chunk := store.Chunk(chunkID)
	if chunk == nil {
		return
	}
	surface := -1
	for z := chunkDim - 1; z >= 0; z-- {
		if chunk.Blocks[trunk.X][trunk.Y][z] != blockAir {
			surface = z
			break
		}
	}
	if surface < 0 || chunk.Blocks[trunk.X][trunk.Y][surface] != blockGrass {
		return
	}
	for h := 1; h <= 3 && surface+h < chunkDim; h++ {
		_ = store.SetBlock(chunkID, vec.Vec3{X: trunk.X, Y: trunk.Y, Z: surface + h}, blockWood)
	}
	if surface+4 < chunkDim {
		_ = store.SetBlock(chunkID, vec.Vec3{X: trunk.X, Y: trunk.Y, Z: surface + 4}, blockLeaf)
	}
}
