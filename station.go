package helio

import (
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat/distmv"
)

// TileKind classifies one terrain cell.
type TileKind uint8

const (
	TileAir TileKind = iota
	TileGrass
	TileStone
	TileSand
	TileDeepStone
)

func (t TileKind) String() string {
	switch t {
	case TileAir:
		return "air"
	case TileGrass:
		return "grass"
	case TileStone:
		return "stone"
	case TileSand:
		return "sand"
	case TileDeepStone:
		return "deep stone"
	default:
		panic("unknown tile kind")
	}
}

const (
	// ChunkTiles is the side length of a terrain chunk, in tiles.
	ChunkTiles = 16
	// TileMeters is the side length of one tile.
	TileMeters = 1.0

	grassDepth = 1.0
	stoneDepth = 5.0
	// sandFraction of the mid band rolls sand instead of stone.
	sandFraction = 0.30

	elevationSpacing = 64.0 // m between elevation control points
	windGustVariance = 1.2  // (m/s)²
)

// ChunkID addresses a terrain chunk by integer chunk coordinates.
type ChunkID struct {
	X, Y int
}

// ChunkAt maps a world position to its chunk.
func ChunkAt(pos Vec2) ChunkID {
	return ChunkID{
		X: int(math.Floor(pos.X / (ChunkTiles * TileMeters))),
		Y: int(math.Floor(pos.Y / (ChunkTiles * TileMeters))),
	}
}

// TerrainChunk is a fixed square of classified tiles.
type TerrainChunk struct {
	ID      ChunkID
	Tiles   [ChunkTiles][ChunkTiles]TileKind
	AllAir  bool
	AllDeep bool
}

// Surface is the local environment at a planet's ground: gravity, wind, a
// procedural elevation profile, and lazily generated terrain chunks.
type Surface struct {
	Planet     EntityID
	GravityMag float64
	WindBase   Vec2

	gust     *distmv.Normal
	rng      *Randomizer
	heights  []float64 // elevation control points, one per elevationSpacing
	origin   float64   // x of heights[0]
	chunks   map[ChunkID]*TerrainChunk
	swayTime float64
}

// NewSurface builds the environment for a landed scene. Elevation control
// points and the wind gust sampler both draw from the given randomizer, so
// a seeded universe reproduces its terrain.
func NewSurface(planet EntityID, body Body, rng *Randomizer, span float64) *Surface {
	n := int(span/elevationSpacing) + 2
	heights := make([]float64, n)
	roll := 0.0
	for i := range heights {
		roll += float64(rng.UniformF(-6, 6))
		heights[i] = roll
	}
	gust, ok := distmv.NewNormal([]float64{0, 0}, mat64.NewSymDense(2, []float64{windGustVariance, 0, 0, windGustVariance}), rng.Source())
	if !ok {
		panic("NOK in Gaussian")
	}
	return &Surface{
		Planet:     planet,
		GravityMag: G * body.Mass / (body.Radius * body.Radius),
		gust:       gust,
		rng:        rng,
		heights:    heights,
		origin:     -span / 2,
		chunks:     make(map[ChunkID]*TerrainChunk),
	}
}

// Gravity returns the local gravity vector (straight down).
func (s *Surface) Gravity() Vec2 {
	return Vec2{Y: -s.GravityMag}
}

// Wind returns the prevailing wind plus a gust sample.
func (s *Surface) Wind() Vec2 {
	g := s.gust.Rand(nil)
	return s.WindBase.Add(Vec2{g[0], g[1]})
}

// Elevation interpolates the ground height at x with a Catmull-Rom spline
// through the control points.
func (s *Surface) Elevation(x float64) float64 {
	f := (x - s.origin) / elevationSpacing
	i := int(math.Floor(f))
	if i < 1 {
		return s.heights[0]
	}
	if i >= len(s.heights)-2 {
		return s.heights[len(s.heights)-1]
	}
	t := f - float64(i)
	p0, p1, p2, p3 := s.heights[i-1], s.heights[i], s.heights[i+1], s.heights[i+2]
	return 0.5 * ((2 * p1) +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t*t +
		(-p0+3*p1-3*p2+p3)*t*t*t)
}

// Chunk returns the terrain chunk, generating it on first access.
func (s *Surface) Chunk(id ChunkID) *TerrainChunk {
	if c, ok := s.chunks[id]; ok {
		return c
	}
	c := s.generateChunk(id)
	s.chunks[id] = c
	return c
}

// classifyTile buckets a depth below the surface.
func (s *Surface) classifyTile(depth float64) TileKind {
	switch {
	case depth <= 0:
		return TileAir
	case depth <= grassDepth:
		return TileGrass
	case depth <= stoneDepth:
		if s.rng.src.Float64() < sandFraction {
			return TileSand
		}
		return TileStone
	default:
		return TileDeepStone
	}
}

func (s *Surface) generateChunk(id ChunkID) *TerrainChunk {
	c := &TerrainChunk{ID: id, AllAir: true, AllDeep: true}
	for tx := 0; tx < ChunkTiles; tx++ {
		centerX := (float64(id.X)*ChunkTiles + float64(tx) + 0.5) * TileMeters
		ground := s.Elevation(centerX)
		for ty := 0; ty < ChunkTiles; ty++ {
			centerY := (float64(id.Y)*ChunkTiles + float64(ty) + 0.5) * TileMeters
			kind := s.classifyTile(ground - centerY)
			c.Tiles[tx][ty] = kind
			if kind != TileAir {
				c.AllAir = false
			}
			if kind != TileDeepStone {
				c.AllDeep = false
			}
		}
	}
	return c
}

// StepAmbience advances the cosmetic state (plant sway phase) by dt.
func (s *Surface) StepAmbience(dt float64) {
	s.swayTime += dt
}

// SwayPhase returns the ambient oscillation phase for renderers.
func (s *Surface) SwayPhase() float64 {
	return math.Sin(s.swayTime * 0.7)
}

func (s *Surface) String() string {
	return fmt.Sprintf("surface of %v, g=%.2f m/s², %d chunks", s.Planet, s.GravityMag, len(s.chunks))
}
