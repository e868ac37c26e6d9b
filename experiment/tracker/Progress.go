package tracker

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/logrusorgru/aurora"

	ts "github.com/samuelfneumann/discretesac/timestep"
)

// Progress is a Tracker which draws a progress bar of an experiment.
// The bar is redrawn on the same line every interval steps and shows
// the return of the most recently finished episode.
//
// Progress does not use concurrency, it is drawn from within Track.
type Progress struct {
	w        io.Writer
	width    int
	maxSteps int
	interval int

	currentReturn float64
	lastReturn    float64
	episodes      int

	bar       strings.Builder
	startTime time.Time
}

// NewProgress returns a new Progress which is width characters wide,
// reaches 100% after maxSteps steps, and is drawn to w every interval
// steps
func NewProgress(w io.Writer, width, maxSteps, interval int) *Progress {
	if interval < 1 {
		interval = 1
	}
	return &Progress{
		w:         w,
		width:     width,
		maxSteps:  maxSteps,
		interval:  interval,
		startTime: time.Now(),
	}
}

// Track accumulates the episodic return and redraws the bar if step
// falls on the drawing interval or is the last step
func (p *Progress) Track(t ts.TimeStep, step int) {
	p.currentReturn += t.Reward
	if t.Last() {
		p.lastReturn = p.currentReturn
		p.currentReturn = 0
		p.episodes++
	}

	if step%p.interval == 0 || step >= p.maxSteps {
		p.Display(step)
	}
	if step >= p.maxSteps {
		fmt.Fprintln(p.w) // Jump to next line after the finished bar
	}
}

// Display draws the progress bar at the given step
func (p *Progress) Display(step int) {
	fraction := 1.0
	if p.maxSteps > 0 && step < p.maxSteps {
		fraction = float64(step) / float64(p.maxSteps)
	}
	filled := int(fraction * float64(p.width))

	p.bar.Reset()
	p.bar.WriteString("|")
	p.bar.WriteString(strings.Repeat("█", filled))
	p.bar.WriteString(strings.Repeat(" ", p.width-filled))
	p.bar.WriteString(fmt.Sprintf("| [%.2f%% | elapsed: %v | episodes: %v "+
		"| return: %v]", fraction*100,
		time.Since(p.startTime).Truncate(time.Second), p.episodes,
		aurora.Cyan(fmt.Sprintf("%.2f", p.lastReturn))))

	fmt.Fprintf(p.w, "\r\033[K%v", p.bar.String())
}
