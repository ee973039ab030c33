package sandbox

import (
	"context"
	"testing"
)

const benchSize = 64

func newBenchOptions(engine string) Options {
	o := DefaultOptions()
	o.Size = benchSize
	o.Injection = Point{benchSize / 2, benchSize / 2}
	o.Iterations = 1000
	o.Engine = engine
	return o
}

//stabilizeBench relaxes the same tall pile on each iteration
func stabilizeBench(s Stabilizer, b *testing.B) {
	start, _ := NewGrid(benchSize)
	_ = start.Set(benchSize/2, benchSize/2, 2000)
	g := start.Clone()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		copy(g.cells, start.cells)
		b.StartTimer()
		if _, err := s.Stabilize(g); err != nil {
			b.Fatal(err)
		}
	}
}

func simulationRun(engine string, b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s, err := NewSimulation(newBenchOptions(engine), nil, nil)
		if err != nil {
			b.Fatal(err)
		}
		if err := s.Run(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkScanStabilizer(b *testing.B) {
	stabilizeBench(&ScanStabilizer{}, b)
}

func BenchmarkQueueStabilizer(b *testing.B) {
	stabilizeBench(&QueueStabilizer{}, b)
}

func BenchmarkScanSimulation_Run(b *testing.B) {
	simulationRun("scan", b)
}

func BenchmarkQueueSimulation_Run(b *testing.B) {
	simulationRun("queue", b)
}
