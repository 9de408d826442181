package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/holdscan/internal/common"
	"github.com/Veraticus/holdscan/internal/portfolio"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"golang.org/x/oauth2"
)

// Exporter writes an allocation report somewhere and returns where it went.
type Exporter interface {
	Export(ctx context.Context, a *portfolio.Allocation) (string, error)
}

// spreadsheetAPI is the slice of the Sheets API the writer needs.
type spreadsheetAPI interface {
	Get(ctx context.Context, spreadsheetID string) (*sheets.Spreadsheet, error)
	Create(ctx context.Context, spreadsheet *sheets.Spreadsheet) (*sheets.Spreadsheet, error)
	BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) (*sheets.BatchUpdateSpreadsheetResponse, error)
	Clear(ctx context.Context, spreadsheetID, rangeStr string) error
	Update(ctx context.Context, spreadsheetID, rangeStr string, values [][]any) error
}

// Writer implements Exporter for Google Sheets.
type Writer struct {
	api    spreadsheetAPI
	logger *slog.Logger
	config Config
}

// NewWriter creates a new Google Sheets writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ts, err := tokenSource(ctx, config)
	if err != nil {
		return nil, err
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return newWriter(&serviceAPI{srv: srv}, config, logger), nil
}

func newWriter(api spreadsheetAPI, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{api: api, config: config, logger: logger}
}

// Export replaces the Holdings and Summary tabs with the allocation and returns the
// spreadsheet ID.
func (w *Writer) Export(ctx context.Context, a *portfolio.Allocation) (string, error) {
	w.logger.Info("starting sheets export",
		"holdings", len(a.Holdings),
		"total", a.Total.StringFixed(2))

	spreadsheetID, sheetIDs, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	tabs := []struct {
		title  string
		values [][]any
	}{
		{HoldingsTab, holdingValues(HoldingRows(a))},
		{SummaryTab, summaryValues(CategoryRows(a))},
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	for _, tab := range tabs {
		err := common.WithRetry(ctx, func() error {
			if clearErr := w.api.Clear(ctx, spreadsheetID, fmt.Sprintf("'%s'!A:Z", tab.title)); clearErr != nil {
				return fmt.Errorf("failed to clear %s: %w", tab.title, classifyAPIError(clearErr))
			}
			return w.writeData(ctx, spreadsheetID, tab.title, tab.values)
		}, retryOpts)
		if err != nil {
			return "", fmt.Errorf("failed to write %s: %w", tab.title, err)
		}
	}

	if w.config.EnableFormatting {
		if _, err := w.api.BatchUpdate(ctx, spreadsheetID, formatRequests(sheetIDs)); err != nil {
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("sheets export completed",
		"spreadsheet_id", spreadsheetID,
		"holding_rows", len(tabs[0].values)-1)

	return spreadsheetID, nil
}

// getOrCreateSpreadsheet returns the target spreadsheet and the sheet IDs of both tabs,
// adding any tab that is missing.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, map[string]int64, error) {
	if w.config.SpreadsheetID == "" {
		created, err := w.api.Create(ctx, &sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{
				Title:    w.config.SpreadsheetName,
				TimeZone: w.config.TimeZone,
			},
			Sheets: []*sheets.Sheet{
				{Properties: &sheets.SheetProperties{Title: HoldingsTab}},
				{Properties: &sheets.SheetProperties{Title: SummaryTab}},
			},
		})
		if err != nil {
			return "", nil, fmt.Errorf("unable to create spreadsheet: %w", err)
		}
		w.logger.Info("created new spreadsheet",
			"id", created.SpreadsheetId,
			"url", created.SpreadsheetUrl)
		return created.SpreadsheetId, sheetIDsOf(created), nil
	}

	existing, err := w.api.Get(ctx, w.config.SpreadsheetID)
	if err != nil {
		return "", nil, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
	}
	ids := sheetIDsOf(existing)

	var requests []*sheets.Request
	var added []string
	for _, title := range []string{HoldingsTab, SummaryTab} {
		if _, ok := ids[title]; !ok {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
			})
			added = append(added, title)
		}
	}
	if len(requests) > 0 {
		resp, err := w.api.BatchUpdate(ctx, w.config.SpreadsheetID, requests)
		if err != nil {
			return "", nil, fmt.Errorf("unable to add tabs %v: %w", added, err)
		}
		for _, reply := range resp.Replies {
			if reply != nil && reply.AddSheet != nil && reply.AddSheet.Properties != nil {
				ids[reply.AddSheet.Properties.Title] = reply.AddSheet.Properties.SheetId
			}
		}
	}
	return w.config.SpreadsheetID, ids, nil
}

func sheetIDsOf(s *sheets.Spreadsheet) map[string]int64 {
	ids := make(map[string]int64, len(s.Sheets))
	for _, sh := range s.Sheets {
		if sh != nil && sh.Properties != nil {
			ids[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	return ids
}

// writeData writes values to a tab in batches to stay under API request limits.
func (w *Writer) writeData(ctx context.Context, spreadsheetID, tab string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))

		rangeStr := fmt.Sprintf("'%s'!A%d", tab, i+1)
		if err := w.api.Update(ctx, spreadsheetID, rangeStr, values[i:end]); err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, classifyAPIError(err))
		}

		w.logger.Debug("wrote batch", "tab", tab, "start_row", i+1, "rows", end-i)
	}
	return nil
}

// classifyAPIError makes quota errors back off to the maximum delay and stops retries on
// other client errors.
func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return &common.RetryableError{Err: err, Retryable: false}
	}
	return err
}

// formatRequests bolds and freezes the header row of each tab and sizes its columns.
func formatRequests(sheetIDs map[string]int64) []*sheets.Request {
	var requests []*sheets.Request
	for _, title := range []string{HoldingsTab, SummaryTab} {
		id, ok := sheetIDs[title]
		if !ok {
			continue
		}
		requests = append(requests,
			&sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{SheetId: id, StartRowIndex: 0, EndRowIndex: 1},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{TextFormat: &sheets.TextFormat{Bold: true}},
					},
					Fields: "userEnteredFormat.textFormat",
				},
			},
			&sheets.Request{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId:        id,
						GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
			&sheets.Request{
				AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
					Dimensions: &sheets.DimensionRange{SheetId: id, Dimension: "COLUMNS"},
				},
			},
		)
	}
	return requests
}

// serviceAPI adapts *sheets.Service to spreadsheetAPI.
type serviceAPI struct {
	srv *sheets.Service
}

func (s *serviceAPI) Get(ctx context.Context, spreadsheetID string) (*sheets.Spreadsheet, error) {
	return s.srv.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
}

func (s *serviceAPI) Create(ctx context.Context, spreadsheet *sheets.Spreadsheet) (*sheets.Spreadsheet, error) {
	return s.srv.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
}

func (s *serviceAPI) BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	return s.srv.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
}

func (s *serviceAPI) Clear(ctx context.Context, spreadsheetID, rangeStr string) error {
	_, err := s.srv.Spreadsheets.Values.Clear(spreadsheetID, rangeStr, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (s *serviceAPI) Update(ctx context.Context, spreadsheetID, rangeStr string, values [][]any) error {
	_, err := s.srv.Spreadsheets.Values.Update(spreadsheetID, rangeStr, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}
