package formatter

import (
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
	internaltesting "github.com/desertthunder/mixtape/internal/testing"
)

func sampleStatus() *models.SessionStatus {
	return &models.SessionStatus{
		SessionID:  "session-1",
		Status:     "completed",
		MoodPrompt: "rainy jazz cafe",
		MoodAnalysis: &models.MoodAnalysis{
			PrimaryEmotion: "calm",
			EnergyLevel:    "low",
			Interpretation: "Mellow instrumental jazz for a rainy afternoon.",
			Keywords:       []string{"jazz", "rain", "mellow"},
		},
		Recommendations: []models.Track{
			{ID: "t1", Name: "Blue in Green", Artists: []string{"Miles Davis"}, Confidence: 0.92, Source: "llm", Reasoning: "classic mellow jazz"},
			{ID: "t2", Name: "Naima", Artists: []string{"John Coltrane"}, Confidence: 0.87, Source: "seed", Protected: true},
		},
		Playlist: &models.Playlist{ID: "pl-1", Name: "Rainy Jazz", URL: "https://open.spotify.com/playlist/pl-1"},
	}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(sampleStatus())
	if err != nil {
		t.Fatalf("Failed to export CSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse exported CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "Position" || records[0][2] != "Title" {
		t.Errorf("Unexpected headers: %v", records[0])
	}
	if records[1][1] != "t1" || records[1][3] != "Miles Davis" {
		t.Errorf("Unexpected first row: %v", records[1])
	}
	if records[2][4] != "0.87" {
		t.Errorf("Expected confidence 0.87, got %s", records[2][4])
	}
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(sampleStatus())
	if err != nil {
		t.Fatalf("Failed to export Markdown: %v", err)
	}
	md := string(data)

	if !strings.Contains(md, "# Rainy Jazz") {
		t.Error("Expected saved playlist name as the title")
	}
	if !strings.Contains(md, "## Mood") || !strings.Contains(md, "**Primary emotion**: calm") {
		t.Error("Expected mood analysis section")
	}
	if !strings.Contains(md, "**Keywords**: jazz, rain, mellow") {
		t.Error("Expected keywords line")
	}
	if !strings.Contains(md, "2. John Coltrane - Naima (anchor)") {
		t.Error("Expected anchor marker on protected track")
	}
}

func TestExportToText(t *testing.T) {
	status := sampleStatus()
	status.Playlist = nil

	data, err := ExportToText(status)
	if err != nil {
		t.Fatalf("Failed to export text: %v", err)
	}
	text := string(data)

	if !strings.Contains(text, "Playlist: rainy jazz cafe") {
		t.Error("Expected mood prompt fallback title")
	}
	if !strings.Contains(text, "Tracks: 2") {
		t.Error("Expected track count line")
	}
	if !strings.Contains(text, "1. Miles Davis - Blue in Green") {
		t.Error("Expected numbered track lines")
	}
}

func TestToMetadataJSON(t *testing.T) {
	data, err := ToMetadataJSON(sampleStatus())
	if err != nil {
		t.Fatalf("Failed to generate metadata: %v", err)
	}

	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatalf("Failed to parse metadata JSON: %v", err)
	}

	if meta["session_id"] != "session-1" {
		t.Errorf("Unexpected session_id: %v", meta["session_id"])
	}
	if meta["track_count"] != float64(2) {
		t.Errorf("Unexpected track_count: %v", meta["track_count"])
	}
	if _, ok := meta["recommendations"]; ok {
		t.Error("Metadata must not embed the track list")
	}
}

func TestWriteCSVExport(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "export")

	result, err := WriteCSVExport(sampleStatus(), base)
	if err != nil {
		t.Fatalf("Failed to write CSV export: %v", err)
	}

	internaltesting.AssertFileExists(t, result.TracksFile)
	internaltesting.AssertFileExists(t, result.MetadataFile)

	if result.TracksFile != base+"_tracks.csv" {
		t.Errorf("Unexpected tracks file: %s", result.TracksFile)
	}
	if !strings.Contains(internaltesting.MustReadFile(t, result.TracksFile), "Blue in Green") {
		t.Error("Expected track rows in CSV file")
	}
}

func TestWriteMarkdownExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "playlist")

	mdFile, err := WriteMarkdownExport(sampleStatus(), dir)
	if err != nil {
		t.Fatalf("Failed to write Markdown export: %v", err)
	}

	internaltesting.AssertFileExists(t, mdFile)
	if filepath.Base(mdFile) != "README.md" {
		t.Errorf("Expected README.md, got %s", mdFile)
	}
}

func TestWriteTextExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracks.txt")

	out, err := WriteTextExport(sampleStatus(), path)
	if err != nil {
		t.Fatalf("Failed to write text export: %v", err)
	}
	if out != path {
		t.Errorf("Expected %s, got %s", path, out)
	}
	internaltesting.AssertFileExists(t, out)
}
