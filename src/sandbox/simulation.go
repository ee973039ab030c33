package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"sandpile/src/logging"
)

//Exporter persists the grid state after each relaxation
type Exporter interface {
	Export(iteration int, g *Grid) error
}

//Exporters fans the snapshot out to all the exporters in order, stops on the first failure
type Exporters []Exporter

//Export implements Exporter
func (e Exporters) Export(iteration int, g *Grid) error {
	for _, x := range e {
		if err := x.Export(iteration, g); err != nil {
			return err
		}
	}
	return nil
}

//Viewer is the interface to any Viewer - the object who can display the simulation progress
type Viewer interface {
	Register(s *Simulation)
	Refresh(st Status)
}

//RunningState is the simulation running status at the concrete moment
type RunningState int

const (
	RunningStateManual   = RunningState(0x0)
	RunningStateStep     = RunningState(0x1)
	RunningStateRun      = RunningState(0x2)
	RunningStateFinished = RunningState(0x3)
)

//Status represents the status of the Simulation at concrete moment
type Status struct {
	RunID         uuid.UUID
	IterationNum  int
	RunningMode   RunningState
	Topples       int //topples of the last relaxation
	TotalTopples  int
	Lost          uint64 //grains lost to the sink since the start
	Mass          uint64
	IterationTime time.Duration
	Err           error //the error aborted the run, set on finish
}

/*
	Simulation drives the sand box: adds the grain, relaxes the grid, exports the snapshot
	it exclusively owns the Grid, the Stabilizer borrows it for one Stabilize call
	everything runs in the caller's goroutine, there is no shared state and no locking
*/
type Simulation struct {
	options  Options
	grid     *Grid
	engine   Stabilizer
	exporter Exporter
	views    []Viewer
	rng      *rand.Rand
	logger   *slog.Logger
	state    Status
}

//NewSimulation validates the options and creates the Simulation with the empty grid
//exp may be nil when the snapshots are not needed
func NewSimulation(o Options, exp Exporter, logger *slog.Logger) (*Simulation, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	g, err := NewGrid(o.Size)
	if err != nil {
		return nil, err
	}
	engine, err := NewStabilizer(o.Engine)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Simulation{
		options:  o,
		grid:     g,
		engine:   engine,
		exporter: exp,
		rng:      rand.New(rand.NewPCG(o.Seed, 0)),
	}
	s.state.RunID = uuid.New()
	s.logger = logger.With("run", s.state.RunID.String())
	s.setTrace()
	return s, nil
}

//setTrace logs every topple when the trace level is enabled
func (s *Simulation) setTrace() {
	if !s.logger.Enabled(context.Background(), logging.LevelTrace) {
		return
	}
	trace := func(p Point) {
		s.logger.Log(context.Background(), logging.LevelTrace, "topple", "iteration", s.state.IterationNum, "cell", p.String())
	}
	switch e := s.engine.(type) {
	case *ScanStabilizer:
		e.Trace = trace
	case *QueueStabilizer:
		e.Trace = trace
	}
}

//RegisterViewer registers the viewer - the simulation will call the viewer when the state is changed
func (s *Simulation) RegisterViewer(v Viewer) {
	s.views = append(s.views, v)
	v.Register(s)
}

//Options returns the simulation configuration
func (s *Simulation) Options() Options {
	return s.options
}

//Status returns the current simulation status
func (s *Simulation) Status() Status {
	return s.state
}

//Grid lends the grid for reading, the caller must not keep it across the steps
func (s *Simulation) Grid() *Grid {
	return s.grid
}

//Engine returns the stabilizer name
func (s *Simulation) Engine() string {
	return s.engine.Name()
}

//Run does Options.Iterations steps
//the context is checked between the iterations only, the relaxation is never interrupted
//any error aborts the run
func (s *Simulation) Run(ctx context.Context) (err error) {
	s.switchRunningState(RunningStateRun)
	s.logger.Info("simulation started",
		"size", s.options.Size,
		"iterations", s.options.Iterations,
		"placement", string(s.options.Placement),
		"engine", s.engine.Name())
	defer func() {
		s.state.Err = err
		s.switchRunningState(RunningStateFinished)
		if err != nil {
			s.logger.Error("simulation aborted", "iteration", s.state.IterationNum, "err", err)
			return
		}
		s.logger.Info("simulation finished",
			"iterations", s.state.IterationNum,
			"topples", s.state.TotalTopples,
			"lost", s.state.Lost,
			"mass", s.state.Mass)
	}()

	for i := 0; i < s.options.Iterations; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = s.step(); err != nil {
			return err
		}
	}
	return nil
}

//Step does one simulation step: adds the grain, relaxes the grid and exports the snapshot
func (s *Simulation) Step() error {
	rm := s.state.RunningMode
	s.switchRunningState(RunningStateStep)
	err := s.step()
	if err != nil {
		s.state.Err = err
		s.switchRunningState(RunningStateFinished)
		return err
	}
	s.switchRunningState(rm)
	return nil
}

//injectionPoint returns the cell for the next grain
func (s *Simulation) injectionPoint() Point {
	switch s.options.Placement {
	case PlacementRandom:
		return Point{s.rng.IntN(s.options.Size), s.rng.IntN(s.options.Size)}
	case PlacementCenter:
		return Point{s.options.Size / 2, s.options.Size / 2}
	default:
		return s.options.Injection
	}
}

func (s *Simulation) step() error {
	start := time.Now()
	s.state.IterationNum++
	p := s.injectionPoint()
	if err := s.grid.AddGrain(p.I, p.J); err != nil {
		return fmt.Errorf("iteration %d: %w", s.state.IterationNum, err)
	}
	st, err := s.engine.Stabilize(s.grid)
	if err != nil {
		return fmt.Errorf("iteration %d: %w", s.state.IterationNum, err)
	}

	s.state.Topples = st.Topples
	s.state.TotalTopples += st.Topples
	s.state.Lost += st.Lost
	s.state.Mass = s.grid.Mass()

	if s.exporter != nil {
		if err := s.exporter.Export(s.state.IterationNum, s.grid); err != nil {
			if !errors.Is(err, ErrExport) {
				err = fmt.Errorf("%w: %w", ErrExport, err)
			}
			return fmt.Errorf("iteration %d: %w", s.state.IterationNum, err)
		}
	}
	s.state.IterationTime = time.Since(start)
	s.logger.Debug("step", "iteration", s.state.IterationNum, "cell", p.String(), "topples", st.Topples, "lost", st.Lost)
	s.refreshView()
	return nil
}

//switchRunningState switch the state of the simulation to RunningState and notifies the viewers
func (s *Simulation) switchRunningState(to RunningState) {
	s.state.RunningMode = to
	s.refreshView()
}

//refreshView calls Refresh event for all registered views
func (s *Simulation) refreshView() {
	for _, v := range s.views {
		v.Refresh(s.state)
	}
}
