package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"rciconnect/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrRowNotFound is returned when an application has no row in the sheet yet.
var ErrRowNotFound = errors.New("application row not found")

const (
	applicationsRange = "Applications"
	subscribersRange  = "Subscribers"
)

// SheetsService mirrors applications and newsletter subscribers into Google
// Sheets for the operations team. Row lookups by application id are cached.
type SheetsService struct {
	service             *sheets.Service
	applicationsSheetID string
	subscribersSheetID  string
	rowCache            map[string]int
	cacheMu             sync.RWMutex
}

func NewSimpleSheetsService(credentialsFile, applicationsSheetID, subscribersSheetID string) (*SheetsService, error) {
	ctx := context.Background()

	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	service := &SheetsService{
		service:             srv,
		applicationsSheetID: applicationsSheetID,
		subscribersSheetID:  subscribersSheetID,
		rowCache:            make(map[string]int),
	}

	// Warm up cache in background
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		service.WarmUpCache(ctx)
	}()

	// Periodic cache refresh every 1 hour
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			service.WarmUpCache(ctx)
			cancel()
		}
	}()

	return service, nil
}

// TestConnection reads the first cell to verify access to the spreadsheet.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.applicationsSheetID, applicationsRange+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// GetServiceAccountEmail returns the service account email from the
// credentials file, useful for share-with instructions.
func (s *SheetsService) GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}

	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}

	return creds.ClientEmail, nil
}

// WarmUpCache populates the row index cache by reading the entire ID column.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.applicationsSheetID, applicationsRange+"!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[string]int)

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if id, ok := row[0].(string); ok && id != "" {
			s.rowCache[id] = i + 1
		}
	}
	return nil
}

// AppendApplication adds a new application row.
func (s *SheetsService) AppendApplication(ctx context.Context, app *models.ConsultantApplication) error {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{applicationRowValues(app)},
	}

	_, err := s.service.Spreadsheets.Values.Append(s.applicationsSheetID, applicationsRange+"!A:A", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()

	return err
}

// UpsertApplication updates an existing application row or appends a new one.
func (s *SheetsService) UpsertApplication(ctx context.Context, app *models.ConsultantApplication) error {
	if app == nil {
		return fmt.Errorf("application is nil")
	}

	rowIdx, err := s.FindApplicationRow(ctx, app.ID)
	if err != nil {
		if errors.Is(err, ErrRowNotFound) {
			return s.AppendApplication(ctx, app)
		}
		return err
	}

	rangeData := fmt.Sprintf("%s!A%d:I%d", applicationsRange, rowIdx, rowIdx)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{applicationRowValues(app)},
	}

	_, err = s.service.Spreadsheets.Values.Update(s.applicationsSheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// UpdateApplicationStatus updates status (and Updated At) for a row.
func (s *SheetsService) UpdateApplicationStatus(ctx context.Context, applicationID, status string) error {
	rowIdx, err := s.FindApplicationRow(ctx, applicationID)
	if err != nil {
		return err
	}

	now := time.Now().Format("2006-01-02 15:04:05")

	statusRange := fmt.Sprintf("%s!F%d:F%d", applicationsRange, rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.applicationsSheetID, statusRange, &sheets.ValueRange{
		Values: [][]interface{}{{status}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return err
	}

	updatedRange := fmt.Sprintf("%s!I%d:I%d", applicationsRange, rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.applicationsSheetID, updatedRange, &sheets.ValueRange{
		Values: [][]interface{}{{now}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// FindApplicationRow locates the 1-based row index for an application id in
// column A, consulting the cache first.
func (s *SheetsService) FindApplicationRow(ctx context.Context, applicationID string) (int, error) {
	if applicationID == "" {
		return 0, fmt.Errorf("application id is required")
	}

	if row, ok := s.getCachedRow(applicationID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.applicationsSheetID, applicationsRange+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if id, ok := row[0].(string); ok && id == applicationID {
			rowIdx := i + 1 // Values are zero-based; sheet rows are 1-based
			s.setCachedRow(applicationID, rowIdx)
			return rowIdx, nil
		}
	}

	return 0, ErrRowNotFound
}

func (s *SheetsService) getCachedRow(id string) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id string, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

// ClearCache clears the row index cache.
func (s *SheetsService) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[string]int)
}

// ReplaceApplicationsSheet clears and rewrites the whole sheet.
func (s *SheetsService) ReplaceApplicationsSheet(ctx context.Context, apps []*models.ConsultantApplication) error {
	var values [][]interface{}

	headers := []interface{}{"ID", "Email", "Full Name", "Phone", "License", "Status", "Sections", "Created At", "Updated At"}
	values = append(values, headers)

	for _, app := range apps {
		values = append(values, applicationRowValues(app))
	}

	rangeData := fmt.Sprintf("%s!A1:I%d", applicationsRange, len(values))
	valueRange := &sheets.ValueRange{
		Values: values,
	}

	_, err := s.service.Spreadsheets.Values.Update(s.applicationsSheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()

	return err
}

// UpdateSubscribersSheet rewrites the subscribers sheet.
func (s *SheetsService) UpdateSubscribersSheet(ctx context.Context, subscribers []models.NewsletterSubscriber) error {
	var values [][]interface{}

	headers := []interface{}{"Email", "Status", "Subscribed At"}
	values = append(values, headers)

	for _, sub := range subscribers {
		values = append(values, []interface{}{
			sub.Email,
			sub.Status,
			sub.SubscribedAt.Format("2006-01-02 15:04:05"),
		})
	}

	rangeData := fmt.Sprintf("%s!A1:C%d", subscribersRange, len(values))
	valueRange := &sheets.ValueRange{
		Values: values,
	}

	_, err := s.service.Spreadsheets.Values.Update(s.subscribersSheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()

	return err
}

func applicationRowValues(app *models.ConsultantApplication) []interface{} {
	return []interface{}{
		app.ID,
		app.Email,
		app.FullName,
		app.Phone,
		app.LicenseNumber,
		app.Status,
		fmt.Sprintf("%d/%d", app.Sections.Count(), models.SectionCount),
		app.CreatedAt.Format("2006-01-02 15:04:05"),
		app.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
