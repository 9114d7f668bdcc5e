package database

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vanet-metrics/internal/aggregation"
)

const spoolVersion = 1

// ChartRecord is one rendered chart and the series behind it.
type ChartRecord struct {
	Name   string               `json:"name"`
	Title  string               `json:"title"`
	Path   string               `json:"path,omitempty"`
	Series []aggregation.Series `json:"series"`
}

type SpoolArtifact struct {
	Version int `json:"version"`

	CreatedAt time.Time `json:"created_at"`

	AnalysisName string `json:"analysis_name"`
	Scenario     string `json:"scenario"`
	Prefix       string `json:"prefix"`
	Checksum     string `json:"checksum"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	ConfigContent string `json:"config_content,omitempty"`

	Summary  map[string]float64 `json:"summary,omitempty"`
	Charts   []ChartRecord      `json:"charts"`
	Metadata *RunMetadata       `json:"metadata,omitempty"`
}

func DefaultSpoolDir() string {
	if v := strings.TrimSpace(os.Getenv("VANET_METRICS_SPOOL_DIR")); v != "" {
		return v
	}
	return "spool"
}

// WriteSpoolArtifact writes a gzip-compressed JSON artifact to disk atomically.
// It returns the final file path.
func WriteSpoolArtifact(dir string, artifact *SpoolArtifact) (string, error) {
	if artifact == nil {
		return "", fmt.Errorf("spool artifact is nil")
	}
	if dir == "" {
		dir = DefaultSpoolDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	checksum := artifact.Checksum
	if checksum == "" {
		checksum = "nocsum"
	}
	name := fmt.Sprintf(
		"%s_%s_%s.json.gz",
		artifact.Prefix,
		artifact.CreatedAt.UTC().Format("20060102T150405Z"),
		checksum,
	)
	finalPath := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, name+".tmp.*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()

	ok := false
	defer func() {
		_ = tmp.Close()
		if !ok {
			_ = os.Remove(tmpPath)
		}
	}()

	gz := gzip.NewWriter(tmp)
	enc := json.NewEncoder(gz)
	enc.SetIndent("", "  ")
	if err := enc.Encode(artifact); err != nil {
		_ = gz.Close()
		return "", err
	}
	if err := gz.Close(); err != nil {
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", err
	}
	ok = true
	return finalPath, nil
}

func ReadSpoolArtifact(path string) (*SpoolArtifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer gz.Close()

	var artifact SpoolArtifact
	if err := json.NewDecoder(gz).Decode(&artifact); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if artifact.Version != spoolVersion {
		return nil, fmt.Errorf("%s: unsupported spool version %d", path, artifact.Version)
	}
	return &artifact, nil
}

// BuildSpoolArtifact constructs a spool artifact from the in-memory scenario results.
func BuildSpoolArtifact(
	analysisName, scenario, prefix, checksum, configContent string,
	summary map[string]float64,
	charts []ChartRecord,
	metadata *RunMetadata,
	startTime, endTime time.Time,
) *SpoolArtifact {
	return &SpoolArtifact{
		Version:       spoolVersion,
		CreatedAt:     time.Now(),
		AnalysisName:  analysisName,
		Scenario:      scenario,
		Prefix:        prefix,
		Checksum:      checksum,
		StartTime:     startTime,
		EndTime:       endTime,
		ConfigContent: configContent,
		Summary:       summary,
		Charts:        charts,
		Metadata:      metadata,
	}
}
