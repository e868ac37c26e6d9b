package tracker

import (
	"encoding/csv"
	"encoding/gob"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/samuelfneumann/discretesac/utils/floatutils"
)

// maxPlotPoints is the maximum number of points drawn per curve. Longer
// series are thinned by striding before plotting.
const maxPlotPoints = 2000

// Point is a single scalar value generated at some environment step
type Point struct {
	Step  int
	Value float64
}

// Series is a Sink which caches all scalars in RAM so that they can be
// saved to disk after the experiment has finished
type Series struct {
	tags []string
	data map[string][]Point
}

// NewSeries returns a new, empty Series
func NewSeries() *Series {
	return &Series{data: make(map[string][]Point)}
}

// AddScalar caches a scalar
func (s *Series) AddScalar(tag string, value float64, step int) {
	if _, ok := s.data[tag]; !ok {
		s.tags = append(s.tags, tag)
	}
	s.data[tag] = append(s.data[tag], Point{step, value})
}

// Tags returns the tags of all cached series in the order they were
// first added
func (s *Series) Tags() []string {
	tags := make([]string, len(s.tags))
	copy(tags, s.tags)
	return tags
}

// Points returns a copy of the series with the given tag
func (s *Series) Points(tag string) []Point {
	points := make([]Point, len(s.data[tag]))
	copy(points, s.data[tag])
	return points
}

// Values returns the values of the series with the given tag
func (s *Series) Values(tag string) []float64 {
	values := make([]float64, len(s.data[tag]))
	for i, p := range s.data[tag] {
		values[i] = p.Value
	}
	return values
}

// Last returns the most recent value of the series with the given tag
// and whether any such value exists
func (s *Series) Last(tag string) (float64, bool) {
	points := s.data[tag]
	if len(points) == 0 {
		return 0, false
	}
	return points[len(points)-1].Value, true
}

// MeanStdDev returns the mean and standard deviation of the last n
// values of the series with the given tag. If n < 1 or n exceeds the
// length of the series, the whole series is used.
func (s *Series) MeanStdDev(tag string, n int) (float64, float64) {
	values := s.Values(tag)
	if n > 0 && n < len(values) {
		values = values[len(values)-n:]
	}
	return stat.MeanStdDev(values, nil)
}

// Save saves all cached series to dir. Each series is saved as a gob
// file and a CSV file, and drawn to a PNG file. All series are also
// drawn to a single HTML page, curves.html.
func (s *Series) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "save")
	}

	for _, tag := range s.tags {
		base := filepath.Join(dir, Filename(tag))
		if err := s.saveGob(tag, base+".bin"); err != nil {
			return err
		}
		if err := s.saveCSV(tag, base+".csv"); err != nil {
			return err
		}
		if err := s.savePNG(tag, base+".png"); err != nil {
			return err
		}
	}

	return s.saveHTML(filepath.Join(dir, "curves.html"))
}

func (s *Series) saveGob(tag, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "save %v", tag)
	}
	defer file.Close()

	enc := gob.NewEncoder(file)
	if err := enc.Encode(s.data[tag]); err != nil {
		return errors.Wrapf(err, "could not encode %v", tag)
	}
	return nil
}

func (s *Series) saveCSV(tag, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "save %v", tag)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"step", "value"}); err != nil {
		return errors.Wrapf(err, "save %v", tag)
	}
	for _, p := range s.data[tag] {
		record := []string{
			strconv.Itoa(p.Step),
			strconv.FormatFloat(p.Value, 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return errors.Wrapf(err, "save %v", tag)
		}
	}
	w.Flush()
	return errors.Wrapf(w.Error(), "save %v", tag)
}

func (s *Series) savePNG(tag, filename string) error {
	points := plottable(s.data[tag])
	if len(points) == 0 {
		return nil
	}

	p := plot.New()
	p.Title.Text = tag
	p.X.Label.Text = "Step"
	p.Y.Label.Text = tag

	pts := make(plotter.XYs, len(points))
	for i := range points {
		pts[i].X = float64(points[i].Step)
		pts[i].Y = points[i].Value
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrapf(err, "could not plot %v", tag)
	}
	p.Add(line)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return errors.Wrapf(err, "could not save plot of %v", tag)
	}
	return nil
}

func (s *Series) saveHTML(filename string) error {
	page := components.NewPage()
	page.PageTitle = "Learning curves"

	for _, tag := range s.tags {
		points := plottable(s.data[tag])
		if len(points) == 0 {
			continue
		}

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: tag}),
			charts.WithXAxisOpts(opts.XAxis{Name: "Step"}),
		)

		steps := make([]string, len(points))
		items := make([]opts.LineData, len(points))
		for i := range points {
			steps[i] = strconv.Itoa(points[i].Step)
			items[i] = opts.LineData{Value: points[i].Value}
		}
		line.SetXAxis(steps).AddSeries(tag, items)
		page.AddCharts(line)
	}

	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "save curves")
	}
	defer file.Close()

	return errors.Wrap(page.Render(file), "could not render curves")
}

// plottable returns the finite points of a series, thinned to at most
// maxPlotPoints points
func plottable(points []Point) []Point {
	stride := len(points)/maxPlotPoints + 1

	finite := make([]Point, 0, len(points)/stride+1)
	for i := 0; i < len(points); i += stride {
		if floatutils.IsFinite(points[i].Value) {
			finite = append(finite, points[i])
		}
	}
	return finite
}

// Filename returns the base filename under which a series with the
// given tag is saved, e.g. "Average return" is saved as average_return
func Filename(tag string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(tag)), " ",
		"_")
}

// LoadData loads and returns a series saved by a Series
func LoadData(filename string) ([]Point, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "could not open data file")
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	var data []Point
	if err := dec.Decode(&data); err != nil {
		return nil, errors.Wrapf(err, "could not decode data %v", filename)
	}

	return data, nil
}
