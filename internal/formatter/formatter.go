// package formatter provides functions to export a generated session to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

// ExportToCSV converts a session's recommendations to CSV format with
// columns: Position, Track ID, Title, Artists, Confidence, Source, Reasoning
func ExportToCSV(status *models.SessionStatus) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Track ID", "Title", "Artists", "Confidence", "Source", "Reasoning"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range status.Recommendations {
		record := []string{
			strconv.Itoa(i + 1),
			track.ID,
			track.Name,
			track.Artist(),
			strconv.FormatFloat(track.Confidence, 'f', 2, 64),
			track.Source,
			track.Reasoning,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a session to Markdown format with the mood
// analysis summarized above the track list
func ExportToMarkdown(status *models.SessionStatus) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", playlistTitle(status)))
	buf.WriteString(fmt.Sprintf("**Mood prompt**: %s\n\n", status.MoodPrompt))

	if analysis := status.MoodAnalysis; analysis != nil {
		buf.WriteString("## Mood\n\n")
		if analysis.Interpretation != "" {
			buf.WriteString(analysis.Interpretation + "\n\n")
		}
		if analysis.PrimaryEmotion != "" {
			buf.WriteString(fmt.Sprintf("**Primary emotion**: %s\n", analysis.PrimaryEmotion))
		}
		if analysis.EnergyLevel != "" {
			buf.WriteString(fmt.Sprintf("**Energy**: %s\n", analysis.EnergyLevel))
		}
		if len(analysis.Keywords) > 0 {
			buf.WriteString(fmt.Sprintf("**Keywords**: %s\n", strings.Join(analysis.Keywords, ", ")))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(status.Recommendations)))
	if status.Playlist != nil && status.Playlist.URL != "" {
		buf.WriteString(fmt.Sprintf("**Spotify**: %s\n", status.Playlist.URL))
	}
	buf.WriteString("\n## Tracks\n\n")

	for i, track := range status.Recommendations {
		marker := ""
		if track.Protected {
			marker = " (anchor)"
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, track.Artist(), track.Name, marker))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a session to plain text format
func ExportToText(status *models.SessionStatus) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", playlistTitle(status)))
	buf.WriteString(fmt.Sprintf("Mood: %s\n", status.MoodPrompt))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(status.Recommendations)))

	for i, track := range status.Recommendations {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist(), track.Name))
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of session metadata (without tracks)
func ToMetadataJSON(status *models.SessionStatus) ([]byte, error) {
	meta := struct {
		SessionID  string               `json:"session_id"`
		Status     string               `json:"status"`
		MoodPrompt string               `json:"mood_prompt"`
		Analysis   *models.MoodAnalysis `json:"mood_analysis,omitempty"`
		Playlist   *models.Playlist     `json:"playlist,omitempty"`
		TrackCount int                  `json:"track_count"`
	}{
		SessionID:  status.SessionID,
		Status:     status.Status,
		MoodPrompt: status.MoodPrompt,
		Analysis:   status.MoodAnalysis,
		Playlist:   status.Playlist,
		TrackCount: len(status.Recommendations),
	}
	return shared.MarshalJSON(meta, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a session to CSV with an accompanying metadata JSON file.
//
// Defaults to the session ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(status *models.SessionStatus, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = status.SessionID
	}

	csvData, err := ExportToCSV(status)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(status)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteMarkdownExport exports a session to {dir}/README.md.
//
// Directory name defaults to the session ID.
func WriteMarkdownExport(status *models.SessionStatus, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = status.SessionID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(status)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return mdFile, nil
}

// WriteTextExport exports a session to plain text format.
//
// Defaults to {session_id}_tracks.txt as the filename.
func WriteTextExport(status *models.SessionStatus, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_tracks.txt", status.SessionID)
	}

	textData, err := ExportToText(status)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}

// playlistTitle picks the display title: the saved playlist name when
// present, otherwise a name derived from the mood prompt.
func playlistTitle(status *models.SessionStatus) string {
	if status.Playlist != nil && status.Playlist.Name != "" {
		return status.Playlist.Name
	}
	if status.MoodPrompt != "" {
		return status.MoodPrompt
	}
	return status.SessionID
}
