package multiobj

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// WriteParetoCSV emits underapproximation.csv, overapproximation.csv and
// paretopoints.csv into dir, one "x,y" pair per line in clockwise vertex
// order, for a two-objective Pareto result (spec.md §6's plot-data
// export). No-op when dir is empty or result is nil; fails with
// ErrInvalidArgument when the result does not have exactly two
// dimensions. Callers gate this on opts.ParetoCSVDir. Grounded on
// the stdlib encoding/csv package — no example repo in the retrieval
// pack writes CSV, so this is named as an out-of-pack ecosystem/stdlib
// choice in DESIGN.md rather than a grounded-on-teacher one.
func WriteParetoCSV(dir string, result *ParetoResult) error {
	if dir == "" || result == nil {
		return nil
	}
	if result.Under.Dim() != 2 || result.Over.Dim() != 2 {
		return fmt.Errorf("multiobj: WriteParetoCSV: CSV export only supports two-objective Pareto results: %w", ErrInvalidArgument)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("multiobj: WriteParetoCSV: %w", err)
	}

	underPts := toXY(result.Under.Vertices())
	overPts := halfspaceHullXY(result.Over.Halfspaces())

	if err := writeXYCSV(filepath.Join(dir, "underapproximation.csv"), clockwise(underPts)); err != nil {
		return err
	}
	if err := writeXYCSV(filepath.Join(dir, "overapproximation.csv"), clockwise(overPts)); err != nil {
		return err
	}
	// paretopoints.csv names the under-approximation's vertex frontier
	// itself — the best concrete achievable points found so far, as
	// opposed to the bounding shapes in the other two files.
	if err := writeXYCSV(filepath.Join(dir, "paretopoints.csv"), clockwise(underPts)); err != nil {
		return err
	}
	return nil
}

func toXY(pts []Point) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i] = [2]float64{p.Value[0], p.Value[1]}
	}
	return out
}

// halfspaceHullXY returns every pairwise intersection point of the
// boundary lines of a set of 2D halfspaces {w.x <= b} that satisfies all
// of them (within 1e-9), i.e. the vertices of their intersection. It
// does not clip to any quadrant, so an unbounded intersection yields
// only its finite vertices, and duplicate points are not removed.
func halfspaceHullXY(hs []Halfspace) [][2]float64 {
	var pts [][2]float64
	for i := 0; i < len(hs); i++ {
		for j := i + 1; j < len(hs); j++ {
			if p, ok := intersect2D(hs[i], hs[j]); ok && feasible(p, hs) {
				pts = append(pts, p)
			}
		}
	}
	return pts
}

func intersect2D(a, b Halfspace) ([2]float64, bool) {
	det := a.W[0]*b.W[1] - a.W[1]*b.W[0]
	if math.Abs(det) < 1e-12 {
		return [2]float64{}, false
	}
	x := (a.Bound*b.W[1] - b.Bound*a.W[1]) / det
	y := (a.W[0]*b.Bound - b.W[0]*a.Bound) / det
	return [2]float64{x, y}, true
}

func feasible(p [2]float64, hs []Halfspace) bool {
	for _, h := range hs {
		if h.W[0]*p[0]+h.W[1]*p[1] > h.Bound+1e-9 {
			return false
		}
	}
	return true
}

// clockwise sorts 2D points by angle around their centroid, the
// conventional order for a polygon plot file.
func clockwise(pts [][2]float64) [][2]float64 {
	if len(pts) < 3 {
		return pts
	}
	cx, cy := 0.0, 0.0
	for _, p := range pts {
		cx += p[0]
		cy += p[1]
	}
	cx /= float64(len(pts))
	cy /= float64(len(pts))
	out := append([][2]float64(nil), pts...)
	sort.Slice(out, func(i, j int) bool {
		ai := math.Atan2(out[i][1]-cy, out[i][0]-cx)
		aj := math.Atan2(out[j][1]-cy, out[j][0]-cx)
		return ai > aj
	})
	return out
}

func writeXYCSV(path string, pts [][2]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("multiobj: writeXYCSV: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	for _, p := range pts {
		if err := w.Write([]string{
			fmt.Sprintf("%.10g", p[0]),
			fmt.Sprintf("%.10g", p[1]),
		}); err != nil {
			return fmt.Errorf("multiobj: writeXYCSV: %w", err)
		}
	}
	return w.Error()
}
