// package formatter renders Spotify Connect device lists as CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/kidsbox/internal/services"
	"github.com/desertthunder/kidsbox/internal/shared"
)

// Format names accepted by [Render].
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// DevicesToCSV converts devices to CSV with columns: ID, Name, Type, Active, Restricted, Volume
func DevicesToCSV(devices []services.Device) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Type", "Active", "Restricted", "Volume"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, d := range devices {
		record := []string{
			d.ID,
			d.Name,
			d.Type,
			strconv.FormatBool(d.IsActive),
			strconv.FormatBool(d.IsRestricted),
			volume(d),
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

// DevicesToMarkdown converts devices to a Markdown table
func DevicesToMarkdown(devices []services.Device) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Speakers\n\n")
	buf.WriteString(fmt.Sprintf("**Devices**: %d\n\n", len(devices)))

	if len(devices) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| Name | Type | Active | Volume | ID |\n")
	buf.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, d := range devices {
		active := ""
		if d.IsActive {
			active = "✓"
		}
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s | `%s` |\n", escapeCell(d.Name), d.Type, active, volume(d), d.ID))
	}

	return buf.Bytes(), nil
}

// DevicesToText converts devices to a numbered plain text list
func DevicesToText(devices []services.Device) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Devices: %d\n\n", len(devices)))
	for i, d := range devices {
		buf.WriteString(fmt.Sprintf("%d. %s [%s] %s\n", i+1, d.Name, d.Type, d.ID))
	}

	return buf.Bytes(), nil
}

// Render dispatches to the exporter named by format.
func Render(format string, devices []services.Device) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return DevicesToCSV(devices)
	case FormatMarkdown, "md":
		return DevicesToMarkdown(devices)
	case FormatText, "txt":
		return DevicesToText(devices)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport renders devices in format and writes them to path.
func WriteExport(format string, devices []services.Device, path string) error {
	if path == "" {
		return fmt.Errorf("%w: output path", shared.ErrMissingArgument)
	}

	data, err := Render(format, devices)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s export: %w", format, err)
	}

	return nil
}

func volume(d services.Device) string {
	if d.VolumePercent == nil {
		return ""
	}
	return strconv.Itoa(*d.VolumePercent)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
