package sandbox

import (
	"fmt"
	"sort"
	"time"
)

//Stabilizer relaxes the grid in place until no cell reaches Threshold
//all the engines reach the same stable configuration, only the toppling trace differs
type Stabilizer interface {
	Name() string
	Stabilize(g *Grid) (Stats, error)
}

//Stats describes one relaxation
type Stats struct {
	Topples  int
	Lost     uint64 //grains lost to the sink
	Duration time.Duration
}

//TraceFunc observes every topple in the order they happen
type TraceFunc func(p Point)

//Engines is the registry of the available stabilizers
var Engines = map[string]func() Stabilizer{
	"scan":  func() Stabilizer { return &ScanStabilizer{} },
	"queue": func() Stabilizer { return &QueueStabilizer{} },
}

//EngineNames returns the sorted names of the registered engines
func EngineNames() []string {
	names := make([]string, 0, len(Engines))
	for k := range Engines {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

//NewStabilizer creates the registered engine by name
func NewStabilizer(name string) (Stabilizer, error) {
	f, ok := Engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown engine %q", ErrConfiguration, name)
	}
	return f(), nil
}

/*
	ScanStabilizer is the reference engine
	each iteration scans the grid in row-major order and topples the first unstable cell
	the trace is fully reproducible, the scan costs O(N²) per topple
*/
type ScanStabilizer struct {
	Trace TraceFunc
}

//Name returns the engine name
func (s *ScanStabilizer) Name() string { return "scan" }

//Stabilize relaxes the grid, the first topple error aborts the relaxation
func (s *ScanStabilizer) Stabilize(g *Grid) (st Stats, err error) {
	start := time.Now()
	defer func() { st.Duration = time.Since(start) }()
	for {
		p, found := g.FindUnstable()
		if !found {
			return st, nil
		}
		if err = g.Topple(p.I, p.J); err != nil {
			return st, err
		}
		st.Topples++
		st.Lost += uint64(g.SinkSlots(p.I, p.J))
		if s.Trace != nil {
			s.Trace(p)
		}
	}
}

/*
	QueueStabilizer keeps the work queue of the unstable cells
	the queue is seeded with one scan, after that a cell is enqueued only when its height crosses Threshold
	every unstable cell is either in the queue or being toppled, so the order is fair
*/
type QueueStabilizer struct {
	Trace TraceFunc
	queue []Point
}

//Name returns the engine name
func (s *QueueStabilizer) Name() string { return "queue" }

//Stabilize relaxes the grid, the first topple error aborts the relaxation
func (s *QueueStabilizer) Stabilize(g *Grid) (st Stats, err error) {
	start := time.Now()
	defer func() { st.Duration = time.Since(start) }()

	s.queue = s.queue[:0]
	for i, row := range g.Entities {
		for j, c := range row {
			if c >= Threshold {
				s.queue = append(s.queue, Point{i, j})
			}
		}
	}

	for head := 0; head < len(s.queue); head++ {
		p := s.queue[head]
		for g.Height(p.I, p.J) >= Threshold {
			if err = g.Topple(p.I, p.J); err != nil {
				return st, err
			}
			st.Topples++
			st.Lost += uint64(g.SinkSlots(p.I, p.J))
			if s.Trace != nil {
				s.Trace(p)
			}
			for _, n := range g.Neighbors(p.I, p.J) {
				if g.Height(n.I, n.J) == Threshold {
					s.queue = append(s.queue, n)
				}
			}
		}
	}
	s.queue = s.queue[:0]
	return st, nil
}
