package tracker

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ts "github.com/samuelfneumann/discretesac/timestep"
)

func TestReturn(t *testing.T) {
	s := NewSeries()
	r := NewReturn(s)

	// Two episodes with returns 3 and 1, then a third unfinished one
	steps := []ts.TimeStep{
		ts.New(ts.Mid, 1, nil, 1, false),
		ts.New(ts.Mid, 1, nil, 2, false),
		ts.New(ts.Last, 1, nil, 3, true),
		ts.New(ts.Last, 1, nil, 1, false),
		ts.New(ts.Mid, 2, nil, 1, false),
	}
	for i, step := range steps {
		r.Track(step, i+1)
	}

	wantEpisodic := []float64{0, 0, 3, 1, 1}
	wantAverage := []float64{1, 2, 1.5, 4.0 / 3.0, 6.0 / 3.0}

	episodic := s.Values(EpisodicReturn)
	average := s.Values(AverageReturn)
	for i := range steps {
		if episodic[i] != wantEpisodic[i] {
			t.Errorf("step %v: want episodic return %v have %v", i+1,
				wantEpisodic[i], episodic[i])
		}
		if math.Abs(average[i]-wantAverage[i]) > 1e-12 {
			t.Errorf("step %v: want average return %v have %v", i+1,
				wantAverage[i], average[i])
		}
	}

	if r.EpisodesFinished() != 2 {
		t.Errorf("want 2 finished episodes have %v", r.EpisodesFinished())
	}
	if points := s.Points(AverageReturn); points[4].Step != 5 {
		t.Errorf("want step 5 have %v", points[4].Step)
	}
}

func TestEpisodeLengthAndMulti(t *testing.T) {
	a, b := NewSeries(), NewSeries()
	e := NewEpisodeLength(Multi(a, b))

	e.Track(ts.New(ts.Mid, 0, nil, 1, false), 1)
	e.Track(ts.New(ts.Last, 0, nil, 2, false), 2)

	for _, s := range []*Series{a, b} {
		values := s.Values(EpisodeLength)
		if len(values) != 1 || values[0] != 2 {
			t.Errorf("want episode lengths [2] have %v", values)
		}
	}
}

func TestSeriesStatistics(t *testing.T) {
	s := NewSeries()
	for i, v := range []float64{10, 1, 2, 3} {
		s.AddScalar("loss", v, i)
	}

	if last, ok := s.Last("loss"); !ok || last != 3 {
		t.Errorf("want last value 3 have %v", last)
	}
	if _, ok := s.Last("missing"); ok {
		t.Error("missing series should have no last value")
	}

	mean, std := s.MeanStdDev("loss", 3)
	if mean != 2 || std != 1 {
		t.Errorf("want mean 2 std 1 have mean %v std %v", mean, std)
	}
}

func TestSeriesSave(t *testing.T) {
	s := NewSeries()
	for i := 0; i < 10; i++ {
		s.AddScalar(AverageReturn, float64(i), i)
		s.AddScalar("Critic loss", 1/float64(i), i)
	}
	s.AddScalar("Critic loss", math.NaN(), 10)

	dir := t.TempDir()
	if err := s.Save(dir); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{
		"average_return.bin", "average_return.csv", "average_return.png",
		"critic_loss.bin", "critic_loss.csv", "critic_loss.png",
		"curves.html",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing saved file %v: %v", name, err)
		}
	}

	data, err := LoadData(filepath.Join(dir, "average_return.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 10 || data[9] != (Point{9, 9}) {
		t.Errorf("loaded data does not match saved data: %v", data)
	}
}

func TestLoadDataErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadData(filepath.Join(dir, "missing.bin"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file: want fs.ErrNotExist have(%v)", err)
	}

	corrupt := filepath.Join(dir, "corrupt.bin")
	if err := os.WriteFile(corrupt, []byte("not a series"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = LoadData(corrupt)
	if err == nil || !strings.Contains(err.Error(), "could not decode data") {
		t.Errorf("corrupt file: want decode error have(%v)", err)
	}
}

func TestPlottable(t *testing.T) {
	points := make([]Point, 3*maxPlotPoints)
	for i := range points {
		points[i] = Point{i, float64(i)}
	}
	points[0].Value = math.Inf(1)

	thinned := plottable(points)
	if len(thinned) > maxPlotPoints {
		t.Errorf("want at most %v points have %v", maxPlotPoints,
			len(thinned))
	}
	for _, p := range thinned {
		if math.IsInf(p.Value, 0) {
			t.Fatal("plottable points should be finite")
		}
	}
}

func TestProgress(t *testing.T) {
	var out strings.Builder
	p := NewProgress(&out, 10, 4, 2)

	p.Track(ts.New(ts.Mid, 1, nil, 1, false), 1)
	if out.Len() != 0 {
		t.Errorf("progress drawn off interval: %q", out.String())
	}

	p.Track(ts.New(ts.Last, 2, nil, 2, true), 2)
	if !strings.Contains(out.String(), "50.00%") ||
		!strings.Contains(out.String(), "episodes: 1") {
		t.Errorf("unexpected progress at step 2: %q", out.String())
	}

	p.Track(ts.New(ts.Mid, 0, nil, 1, false), 3)
	p.Track(ts.New(ts.Mid, 0, nil, 2, false), 4)
	if !strings.Contains(out.String(), "100.00%") ||
		!strings.HasSuffix(out.String(), "\n") {
		t.Errorf("unexpected finished progress: %q", out.String())
	}
	if !strings.Contains(out.String(), strings.Repeat("█", 10)) {
		t.Errorf("finished bar should be full: %q", out.String())
	}
}
