package view

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/logrusorgru/aurora"

	"sandpile/src/sandbox"
)

//DefProgressEvery is the default number of iterations between the progress lines
const DefProgressEvery = 100

//ConsoleOut prints the running configuration, the progress and the summary to the console
type ConsoleOut struct {
	w             io.Writer
	au            aurora.Aurora
	s             *sandbox.Simulation
	startTime     time.Time
	ProgressEvery int
}

//NewConsoleOut creates the console viewer writing to w, colors are used when colored is set
func NewConsoleOut(w io.Writer, colored bool) *ConsoleOut {
	return &ConsoleOut{w: w, au: aurora.NewAurora(colored), ProgressEvery: DefProgressEvery}
}

//Register implements sandbox.Viewer
func (c *ConsoleOut) Register(s *sandbox.Simulation) {
	c.s = s
	o := s.Options()
	fmt.Fprintln(c.w, c.au.Bold("Running configuration:"))
	c.printHashData(map[string]interface{}{
		"Dimension":      fmt.Sprintf("%v x %v", o.Size, o.Size),
		"Max iterations": fmt.Sprintf("%v steps", o.Iterations),
		"Placement":      c.placement(o),
		"Engine":         s.Engine(),
		"Run":            s.Status().RunID,
	})
}

//Refresh implements sandbox.Viewer
func (c *ConsoleOut) Refresh(st sandbox.Status) {
	switch st.RunningMode {
	case sandbox.RunningStateRun:
		if c.startTime.IsZero() {
			c.startTime = time.Now()
			fmt.Fprintln(c.w, "\nSimulation started...")
			return
		}
		if c.ProgressEvery > 0 && st.IterationNum%c.ProgressEvery == 0 {
			fmt.Fprintf(c.w, "  Iterations done: %v, topples: %v, mass: %v\n",
				c.au.Cyan(st.IterationNum), st.TotalTopples, st.Mass)
		}
	case sandbox.RunningStateFinished:
		resultData := map[string]interface{}{
			"Last iteration": st.IterationNum,
			"Total topples":  st.TotalTopples,
			"Grains lost":    st.Lost,
			"Grains on grid": st.Mass,
		}
		if !c.startTime.IsZero() {
			resultData["Total time"] = time.Since(c.startTime).Round(time.Millisecond)
		}
		if st.Err != nil {
			fmt.Fprintf(c.w, "\n%s %v\n", c.au.Red("Aborted:"), st.Err)
		} else {
			fmt.Fprintf(c.w, "\n%s\n", c.au.Green("Finished:"))
		}
		c.printHashData(resultData)
	}
}

func (c *ConsoleOut) placement(o sandbox.Options) string {
	switch o.Placement {
	case sandbox.PlacementFixed:
		return fmt.Sprintf("%s %v", o.Placement, o.Injection)
	case sandbox.PlacementRandom:
		return fmt.Sprintf("%s (seed %d)", o.Placement, o.Seed)
	}
	return string(o.Placement)
}

func (c *ConsoleOut) printHashData(d map[string]interface{}) {
	propNames := make([]string, 0, len(d))
	for k := range d {
		propNames = append(propNames, k)
	}
	sort.Strings(propNames)
	for _, propName := range propNames {
		fmt.Fprintf(c.w, "  %s: %v\n", c.au.Green(propName), d[propName])
	}
}
