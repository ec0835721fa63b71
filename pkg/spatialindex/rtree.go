package spatialindex

import (
	"sort"

	"github.com/golang/geo/r2"
	da "github.com/new4mezdz/guandao/pkg/datastructure"
	"github.com/new4mezdz/guandao/pkg/geo"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

const DEFAULT_SEARCH_LIMIT = 20

type Rtree struct {
	tr   *rtree.RTreeG[PipeSegment]
	size int
}

// PipeSegment a pipe drawn as the straight segment between its endpoint nodes.
type PipeSegment struct {
	pipeId     string
	start, end r2.Point
}

func (ps PipeSegment) GetPipeID() string {
	return ps.pipeId
}

type PipeHit struct {
	PipeID   string  `json:"pipe_id"`
	Distance float64 `json:"distance"`
	X        float64 `json:"x"` // closest point on the pipe
	Y        float64 `json:"y"`
}

func NewRtree() *Rtree {
	var tr rtree.RTreeG[PipeSegment]
	return &Rtree{
		tr: &tr,
	}
}

// Build indexes every pipe of the snapshot. coordinates are presentation data, so a
// network drawn without them collapses to one point and every hit has distance 0.
func (rt *Rtree) Build(snapshot *da.NetworkSnapshot, log *zap.Logger) {
	log.Debug("building pipe r-tree", zap.Int("pipes", snapshot.NumberOfPipes()))
	snapshot.ForEachPipe(func(p da.Pipe) {
		from, _ := snapshot.GetNode(p.GetStart())
		to, _ := snapshot.GetNode(p.GetEnd())
		fx, fy := from.GetCoordinate()
		tx, ty := to.GetCoordinate()

		seg := PipeSegment{pipeId: p.GetID(), start: geo.NewPoint(fx, fy), end: geo.NewPoint(tx, ty)}
		bound := geo.SegmentBound(seg.start, seg.end, 0)
		rt.tr.Insert([2]float64{bound.X.Lo, bound.Y.Lo}, [2]float64{bound.X.Hi, bound.Y.Hi}, seg)
		rt.size++
	})
	log.Debug("pipe r-tree built", zap.Int("segments", rt.size))
}

func (rt *Rtree) Len() int {
	return rt.size
}

// SearchWithinRadius pipes whose segment passes within radius of (x, y), closest first, at most limit.
func (rt *Rtree) SearchWithinRadius(x, y, radius float64, limit int) []PipeHit {
	if limit <= 0 {
		limit = DEFAULT_SEARCH_LIMIT
	}
	q := geo.NewPoint(x, y)
	box := geo.SegmentBound(q, q, radius)

	hits := make([]PipeHit, 0, 8)
	rt.tr.Search([2]float64{box.X.Lo, box.Y.Lo}, [2]float64{box.X.Hi, box.Y.Hi},
		func(min, max [2]float64, seg PipeSegment) bool {
			proj := geo.ProjectPointToSegment(seg.start, seg.end, q)
			d := geo.EuclideanDistance(q, proj)
			if d <= radius {
				hits = append(hits, PipeHit{PipeID: seg.pipeId, Distance: d, X: proj.X, Y: proj.Y})
			}
			return true
		})

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].PipeID < hits[j].PipeID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
