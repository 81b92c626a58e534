package dashboard

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"p9e.in/gaugewatch/models"
)

const exportSheet = "Readings"

type exportColumn struct {
	Label string
	Width float64
	Value func(r models.Reading) interface{}
}

var exportColumns = []exportColumn{
	{"Reading ID", 38, func(r models.Reading) interface{} { return r.ID }},
	{"Site ID", 14, func(r models.Reading) interface{} { return r.SiteID }},
	{"Site Name", 24, func(r models.Reading) interface{} { return r.SiteName }},
	{"Water Level (m)", 16, func(r models.Reading) interface{} { return r.WaterLevelMeters }},
	{"Latitude", 12, func(r models.Reading) interface{} { return r.Latitude }},
	{"Longitude", 12, func(r models.Reading) interface{} { return r.Longitude }},
	{"Distance From Site (m)", 22, func(r models.Reading) interface{} { return r.DistanceFromSiteMeters }},
	{"Verified", 10, func(r models.Reading) interface{} { return r.IsVerified }},
	{"Submitted By", 18, func(r models.Reading) interface{} { return r.SubmittedBy }},
	{"OCR Confidence", 16, func(r models.Reading) interface{} {
		if r.OCRConfidence == nil {
			return ""
		}
		return *r.OCRConfidence
	}},
	{"Created At", 22, func(r models.Reading) interface{} { return r.CreatedAt.UTC().Format("2006-01-02 15:04:05") }},
}

// ExportXLSX renders readings as an Excel workbook.
func ExportXLSX(title string, list []models.Reading, generatedAt time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
			Size: 16,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "center",
		},
	})
	f.SetCellValue(exportSheet, "A1", title)
	f.SetCellStyle(exportSheet, "A1", "A1", titleStyle)
	f.SetRowHeight(exportSheet, 1, 30)
	f.SetCellValue(exportSheet, "A2", fmt.Sprintf("Generated: %s", generatedAt.UTC().Format("2006-01-02 15:04:05")))

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	// unverified rows get a red fill, matching the dashboard alert colour
	alertStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#FDECEA"},
			Pattern: 1,
		},
	})

	for colIdx, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 4)
		f.SetCellValue(exportSheet, cell, col.Label)
		f.SetCellStyle(exportSheet, cell, cell, headerStyle)
		name, _ := excelize.ColumnNumberToName(colIdx + 1)
		f.SetColWidth(exportSheet, name, name, col.Width)
	}

	for rowIdx, r := range list {
		for colIdx, col := range exportColumns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+5)
			f.SetCellValue(exportSheet, cell, col.Value(r))
		}
		if !r.IsVerified {
			first, _ := excelize.CoordinatesToCellName(1, rowIdx+5)
			last, _ := excelize.CoordinatesToCellName(len(exportColumns), rowIdx+5)
			f.SetCellStyle(exportSheet, first, last, alertStyle)
		}
	}

	stats := ComputeStats(list, nil)
	summaryRow := len(list) + 7
	summary := [][2]interface{}{
		{"Summary", ""},
		{"Total", stats.Total},
		{"Verified", stats.Verified},
		{"Unverified", stats.Pending},
	}
	for i, kv := range summary {
		keyCell, _ := excelize.CoordinatesToCellName(1, summaryRow+i)
		valueCell, _ := excelize.CoordinatesToCellName(2, summaryRow+i)
		f.SetCellValue(exportSheet, keyCell, kv[0])
		f.SetCellValue(exportSheet, valueCell, kv[1])
	}

	f.DeleteSheet("Sheet1")

	return f.WriteToBuffer()
}

// ExportCSV renders readings as CSV with a header row.
func ExportCSV(list []models.Reading) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := make([]string, 0, len(exportColumns))
	for _, col := range exportColumns {
		headers = append(headers, col.Label)
	}
	writer.Write(headers)

	for _, r := range list {
		record := make([]string, 0, len(exportColumns))
		for _, col := range exportColumns {
			record = append(record, formatCSV(col.Value(r)))
		}
		writer.Write(record)
	}

	writer.Flush()
	return buf.Bytes(), writer.Error()
}

func formatCSV(v interface{}) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// ExportFilename builds a download name such as readings_20240601_080000.xlsx.
func ExportFilename(name, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", sanitizeFilename(name), now.UTC().Format("20060102_150405"), ext)
}

func sanitizeFilename(filename string) string {
	replacements := map[rune]rune{
		'/':  '_',
		'\\': '_',
		':':  '_',
		'*':  '_',
		'?':  '_',
		'"':  '_',
		'<':  '_',
		'>':  '_',
		'|':  '_',
		' ':  '_',
	}

	result := []rune{}
	for _, char := range filename {
		if replacement, exists := replacements[char]; exists {
			result = append(result, replacement)
		} else {
			result = append(result, char)
		}
	}

	return string(result)
}
