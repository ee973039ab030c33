package view

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"sandpile/src/sandbox"
)

//SnapshotHeader opens every snapshot block in the text log
const SnapshotHeader = "---- SAND BOX STATE ----"

//ErrHeightNotRepresentable is returned for the heights above 9, the text format has one digit per cell
var ErrHeightNotRepresentable = errors.New("height is not representable by one digit")

//TextLog appends the snapshots to the text file
//the file is opened in create-or-append mode for each snapshot
type TextLog struct {
	path string
	buf  bytes.Buffer
}

//NewTextLog creates the exporter writing to path
func NewTextLog(path string) *TextLog {
	return &TextLog{path: path}
}

//Path returns the log file path
func (t *TextLog) Path() string {
	return t.path
}

//Export implements sandbox.Exporter
//the block is rendered completely before the file is touched, so a rejected grid writes nothing
func (t *TextLog) Export(_ int, g *sandbox.Grid) error {
	t.buf.Reset()
	if err := WriteSnapshot(&t.buf, g); err != nil {
		return err
	}
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot open or create output file: %w", err)
	}
	if _, err = f.Write(t.buf.Bytes()); err != nil {
		_ = f.Close()
		return fmt.Errorf("write error: %w", err)
	}
	return f.Close()
}

//WriteSnapshot writes one snapshot block: the header and N lines of N digits
func WriteSnapshot(w io.Writer, g *sandbox.Grid) error {
	n := g.Size()
	line := make([]byte, n+1)
	line[n] = '\n'
	if _, err := io.WriteString(w, SnapshotHeader+"\n"); err != nil {
		return err
	}
	for i, row := range g.Entities {
		for j, c := range row {
			if c > 9 {
				return fmt.Errorf("%w: cell (%d,%d) has %d grains", ErrHeightNotRepresentable, i, j, c)
			}
			line[j] = '0' + byte(c)
		}
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return nil
}

//ReadTextLog parses all the snapshot blocks from r
//the grid size is taken from the first row of every block
func ReadTextLog(r io.Reader) ([]*sandbox.Grid, error) {
	var (
		grids []*sandbox.Grid
		rows  [][]sandbox.Cell
		inBox bool
	)
	flush := func() error {
		if !inBox {
			return nil
		}
		g, err := sandbox.GridFromRows(rows)
		if err != nil {
			return fmt.Errorf("snapshot %d: %w", len(grids)+1, err)
		}
		grids = append(grids, g)
		rows = nil
		return nil
	}

	sc := bufio.NewScanner(r)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == SnapshotHeader {
			if err := flush(); err != nil {
				return nil, err
			}
			inBox = true
			continue
		}
		if line == "" {
			continue
		}
		if !inBox {
			return nil, fmt.Errorf("line %d: data before the first snapshot header", lineNum)
		}
		row := make([]sandbox.Cell, len(line))
		for j := 0; j < len(line); j++ {
			ch := line[j]
			if ch < '0' || ch > '9' {
				return nil, fmt.Errorf("line %d: unexpected character %q", lineNum, ch)
			}
			row[j] = sandbox.Cell(ch - '0')
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return grids, nil
}
