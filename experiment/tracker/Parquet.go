package tracker

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
	ts "github.com/samuelfneumann/mazeper/timestep"
)

// Episode is one row of the episode table written by Parquet
type Episode struct {
	RunID      string  `parquet:"run_id,dict"`
	Episode    int32   `parquet:"episode"`
	Return     float64 `parquet:"return"`
	Steps      int32   `parquet:"steps"`
	Success    bool    `parquet:"success"`
	End        string  `parquet:"end,dict"`
	Epsilon    float64 `parquet:"epsilon"`
	BufferSize int32   `parquet:"buffer_size"`
}

// Probe reports the agent's exploration rate and the number of
// transitions buffered when an episode ends
type Probe func() (epsilon float64, buffered int)

// Parquet tracks one Episode per finished episode and saves them as a
// zstd compressed parquet file
type Parquet struct {
	runID    string
	probe    Probe
	filename string

	episode  int32
	ret      float64
	episodes []Episode
}

// NewParquet returns a new Parquet Tracker for the run runID. If probe
// is nil, the exploration rate and buffer size columns are zero.
func NewParquet(filename, runID string, probe Probe) *Parquet {
	return &Parquet{runID: runID, probe: probe, filename: filename}
}

// Track accumulates the return of the current episode and records a
// row when the episode ends
func (p *Parquet) Track(t ts.TimeStep) {
	if t.First() {
		p.ret = 0
	}
	p.ret += t.Reward
	if !t.Last() {
		return
	}

	var epsilon float64
	var buffered int
	if p.probe != nil {
		epsilon, buffered = p.probe()
	}

	p.episodes = append(p.episodes, Episode{
		RunID:      p.runID,
		Episode:    p.episode,
		Return:     p.ret,
		Steps:      int32(t.Number),
		Success:    t.Succeeded(),
		End:        t.EndType().String(),
		Epsilon:    epsilon,
		BufferSize: int32(buffered),
	})
	p.episode++
	p.ret = 0
}

// Episodes returns the rows tracked so far
func (p *Parquet) Episodes() []Episode {
	return p.episodes
}

// Save writes the tracked rows to a temporary file and renames it into
// place
func (p *Parquet) Save() error {
	if err := os.MkdirAll(filepath.Dir(p.filename), 0o755); err != nil {
		return fmt.Errorf("save: create output dir: %w", err)
	}

	tmpPath := p.filename + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, p.episodes,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "episode_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("save: write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, p.filename); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("save: rename parquet: %w", err)
	}
	return nil
}

// LoadEpisodes reads the rows saved by a Parquet Tracker
func LoadEpisodes(filename string) ([]Episode, error) {
	rows, err := parquet.ReadFile[Episode](filename)
	if err != nil {
		return nil, fmt.Errorf("loadEpisodes: %w", err)
	}
	return rows, nil
}
