package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"regdoc-scraper/logger"
	"regdoc-scraper/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// maxSheetTitle is the Google Sheets limit on sheet names
const maxSheetTitle = 100

var header = []interface{}{"Identifier", "Kind", "Date", "URL", "Description"}

// Writer exports located records to Google Sheets, one sheet per keyword per run
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
	logger        *logger.Logger
}

// NewWriter creates a new Google Sheets writer. spreadsheet may be an ID or a full URL.
// Credentials come from credentialsPath, or GOOGLE_SHEETS_CREDENTIALS when it is empty.
func NewWriter(ctx context.Context, spreadsheet, credentialsPath string, log *logger.Logger) (*Writer, error) {
	credsJSON, err := readCredentials(credentialsPath, log)
	if err != nil {
		return nil, err
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	spreadsheetID := ExtractSpreadsheetID(spreadsheet)
	if spreadsheetID == "" {
		spreadsheetID = strings.TrimSpace(spreadsheet)
	}

	return &Writer{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        log,
	}, nil
}

// readCredentials loads service account JSON from a file or the environment
func readCredentials(credentialsPath string, log *logger.Logger) ([]byte, error) {
	var credsJSON []byte

	if credentialsPath != "" {
		data, err := os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		credsJSON = data
	} else {
		// Trim whitespace and newlines that might be in the environment variable
		credsEnv := strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS"))
		if credsEnv == "" {
			return nil, fmt.Errorf("credentials not found: GOOGLE_SHEETS_CREDENTIALS environment variable is empty or not set")
		}
		log.Debug("reading credentials from GOOGLE_SHEETS_CREDENTIALS", "bytes", len(credsEnv))
		credsJSON = []byte(credsEnv)
	}

	var creds map[string]interface{}
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON (check if JSON is properly formatted): %w", err)
	}
	if creds["type"] != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account JSON file (type: service_account), got type: %v", creds["type"])
	}

	return credsJSON, nil
}

// Name identifies the sink in logs
func (w *Writer) Name() string {
	return "sheets"
}

// SaveRecords creates a sheet for keyword at the beginning of the spreadsheet and writes records to it
func (w *Writer) SaveRecords(ctx context.Context, runID, site, keyword string, records []models.Record) error {
	if len(records) == 0 {
		w.logger.Debug("no records to export", "keyword", keyword)
		return nil
	}

	sheetName := SheetTitle(site, keyword, runID)

	// Index 0 puts the newest run first
	batchUpdateRequest := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: sheetName,
						Index: 0,
					},
				},
			},
		},
	}

	batchUpdateResp, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, batchUpdateRequest).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	var sheetID int64
	if len(batchUpdateResp.Replies) > 0 && batchUpdateResp.Replies[0].AddSheet != nil {
		sheetID = batchUpdateResp.Replies[0].AddSheet.Properties.SheetId
	}

	valueRange := &sheets.ValueRange{
		Values: RecordValues(runID, keyword, records),
	}

	_, err = w.service.Spreadsheets.Values.Update(w.spreadsheetID, fmt.Sprintf("'%s'!A1", sheetName), valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write to sheet: %w", err)
	}

	w.logger.Info("records exported", "sheet", sheetName, "records", len(records), "url", w.SheetURL(sheetID))
	return nil
}

// SheetURL opens a specific sheet of the spreadsheet
func (w *Writer) SheetURL(sheetID int64) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d", w.spreadsheetID, sheetID)
}

// RecordValues lays out a metadata row, the header row and one row per record
func RecordValues(runID, keyword string, records []models.Record) [][]interface{} {
	values := make([][]interface{}, 0, len(records)+2)
	values = append(values, []interface{}{"Run", runID, "Keyword", keyword})
	values = append(values, header)

	for _, r := range records {
		values = append(values, []interface{}{
			r.Identifier,
			string(r.Kind),
			r.Date,
			r.URL,
			r.Description,
		})
	}

	return values
}

// SheetTitle names the sheet of one keyword in one run
func SheetTitle(site, keyword, runID string) string {
	if len(runID) > 8 {
		runID = runID[:8]
	}
	name := sanitizeSheetName(fmt.Sprintf("%s %s %s", site, keyword, runID))
	if runes := []rune(name); len(runes) > maxSheetTitle {
		name = string(runes[:maxSheetTitle])
	}
	return name
}

// sanitizeSheetName removes invalid characters from sheet name
func sanitizeSheetName(name string) string {
	// Google Sheets sheet names cannot contain: / \ ? * [ ] :
	invalidChars := []string{"/", "\\", "?", "*", "[", "]", ":", "'"}
	result := name
	for _, char := range invalidChars {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	if result == "" {
		result = "Sheet1"
	}
	return result
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func ExtractSpreadsheetID(url string) string {
	// https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit?usp=sharing
	parts := strings.Split(url, "/d/")
	if len(parts) < 2 {
		return ""
	}

	idPart := parts[1]
	if idx := strings.Index(idPart, "/"); idx != -1 {
		idPart = idPart[:idx]
	}
	if idx := strings.Index(idPart, "?"); idx != -1 {
		idPart = idPart[:idx]
	}

	return strings.TrimSpace(idPart)
}
