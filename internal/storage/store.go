package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/arithdyn/internal/experiment"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type HeightRecord struct {
	Point      string    `json:"point"`
	Value      float64   `json:"value"`
	ErrorBound float64   `json:"error_bound,omitempty"`
	Bounded    bool      `json:"bounded"`
	Trace      []float64 `json:"trace,omitempty"`
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Model       string             `json:"model"`
	Map         string             `json:"map"`
	Field       string             `json:"field"`
	Backend     string             `json:"backend"`
	Timestamp   time.Time          `json:"timestamp"`
	BadPrimes   []int64            `json:"bad_primes"`
	Periods     []int              `json:"periods"`
	SievePrimes []int64            `json:"sieve_primes,omitempty"`
	NumPoints   int                `json:"num_points"`
	Cycles      [][]string         `json:"cycles,omitempty"`
	Heights     []HeightRecord     `json:"heights,omitempty"`
	Skipped     map[string]string  `json:"skipped,omitempty"`
	Timings     map[string]float64 `json:"timings"`
}

// PointRecord is one row of points.csv. Period is 0 when no orbit graph
// was built.
type PointRecord struct {
	Coords    []string
	Kind      string
	Preperiod int
	Period    int
}

// Metadata summarizes a report for report.json.
func Metadata(id string, r *experiment.Report) RunMetadata {
	meta := RunMetadata{
		ID:          id,
		Model:       r.Model,
		Map:         r.Map,
		Field:       r.Field,
		Backend:     r.Backend,
		Timestamp:   time.Now(),
		BadPrimes:   r.BadPrimes,
		Periods:     r.Periods,
		SievePrimes: r.SievePrimes,
		Skipped:     r.Skipped,
		Timings:     make(map[string]float64, len(r.Timings)),
	}
	for stage, d := range r.Timings {
		meta.Timings[stage] = d.Seconds()
	}
	if r.Graph != nil {
		meta.NumPoints = r.Graph.Len()
		for _, c := range r.Graph.Cycles() {
			keys := make([]string, len(c))
			for i, v := range c {
				keys[i] = r.Graph.Key(v)
			}
			meta.Cycles = append(meta.Cycles, keys)
		}
	} else {
		meta.NumPoints = len(r.Periodic)
	}
	for _, h := range r.Heights {
		meta.Heights = append(meta.Heights, HeightRecord{
			Point:      h.Point.Key(),
			Value:      h.Value,
			ErrorBound: h.ErrorBound,
			Bounded:    h.Bounded,
			Trace:      h.Trace,
		})
	}
	return meta
}

// Records lists the points of a report: every graph vertex with its orbit
// structure, or the periodic points alone when no graph was built.
func Records(r *experiment.Report) []PointRecord {
	var out []PointRecord
	if r.Graph != nil {
		for i := 0; i < r.Graph.Len(); i++ {
			pre, per := r.Graph.Structure(i)
			kind := "periodic"
			if pre > 0 {
				kind = "preperiodic"
			}
			out = append(out, PointRecord{Coords: coords(r.Graph.Key(i)), Kind: kind, Preperiod: pre, Period: per})
		}
		return out
	}
	for _, p := range r.Periodic {
		out = append(out, PointRecord{Coords: coords(p.Key()), Kind: "periodic"})
	}
	return out
}

func coords(key string) []string { return strings.Split(key, ":") }

func (s *Store) Save(r *experiment.Report) (string, error) {
	name := strings.NewReplacer("/", "-", " ", "-").Replace(r.Model)
	if name == "" {
		name = "run"
	}
	runID := fmt.Sprintf("%s_%d", name, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "report.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	if err := ExportJSON(metaFile, Metadata(runID, r)); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "points.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	records := Records(r)
	dim := 0
	if len(records) > 0 {
		dim = len(records[0].Coords)
	}
	header := []string{"kind", "preperiod", "period"}
	for i := 0; i < dim; i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, rec := range records {
		row := []string{rec.Kind, strconv.Itoa(rec.Preperiod), strconv.Itoa(rec.Period)}
		row = append(row, rec.Coords...)
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

// ExportJSON writes indented JSON.
func ExportJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// List returns the saved runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "report.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadPoints(runID string) ([]PointRecord, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "points.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	out := make([]PointRecord, 0, len(rows))
	for i, row := range rows {
		if i == 0 || len(row) < 4 {
			continue
		}
		pre, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("points.csv line %d: %w", i+1, err)
		}
		per, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("points.csv line %d: %w", i+1, err)
		}
		out = append(out, PointRecord{Coords: row[3:], Kind: row[0], Preperiod: pre, Period: per})
	}

	return out, nil
}
