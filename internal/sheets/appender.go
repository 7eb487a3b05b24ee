package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"bookhook/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Appender writes records straight into a spreadsheet through the Sheets API,
// one row per record. Bookings and cancellations live on separate tabs.
type Appender struct {
	service           *sheetsapi.Service
	spreadsheetID     string
	bookingsSheet     string
	cancellationSheet string
}

// NewAppender authenticates with a service-account credentials file.
func NewAppender(ctx context.Context, credentialsFile, spreadsheetID, bookingsSheet, cancellationSheet string) (*Appender, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	srv, err := sheetsapi.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return NewAppenderWithService(srv, spreadsheetID, bookingsSheet, cancellationSheet), nil
}

func NewAppenderWithService(srv *sheetsapi.Service, spreadsheetID, bookingsSheet, cancellationSheet string) *Appender {
	return &Appender{
		service:           srv,
		spreadsheetID:     spreadsheetID,
		bookingsSheet:     bookingsSheet,
		cancellationSheet: cancellationSheet,
	}
}

// Forward appends one row and returns the API's append response.
func (a *Appender) Forward(ctx context.Context, record models.Record) (json.RawMessage, error) {
	if a.spreadsheetID == "" {
		return nil, &ConfigurationError{Setting: "sheet.google.spreadsheet_id"}
	}

	var (
		sheetName string
		row       []interface{}
		err       error
	)
	switch r := record.(type) {
	case *models.BookingRecord:
		sheetName = a.bookingsSheet
		row, err = bookingRowValues(r)
	case *models.CancellationRecord:
		sheetName = a.cancellationSheet
		row = cancellationRowValues(r)
	default:
		return nil, fmt.Errorf("unsupported record kind %q", record.RecordKind())
	}
	if err != nil {
		return nil, err
	}

	resp, err := a.service.Spreadsheets.Values.Append(a.spreadsheetID, sheetName+"!A1", &sheetsapi.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, &TransportError{StatusCode: apiErr.Code, Err: err}
		}
		return nil, &TransportError{Err: err}
	}

	data, err := resp.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode append response: %w", err)
	}
	return data, nil
}

// bookingRowValues: ID, created at, domain, details (JSON), name, phone, raw text.
func bookingRowValues(b *models.BookingRecord) ([]interface{}, error) {
	details, err := json.Marshal(b.Details)
	if err != nil {
		return nil, fmt.Errorf("encode details: %w", err)
	}
	return []interface{}{
		b.BookingID,
		b.CreatedAt,
		string(b.Domain),
		string(details),
		deref(b.Passenger.Name),
		deref(b.Passenger.Phone),
		b.Raw,
	}, nil
}

func cancellationRowValues(c *models.CancellationRecord) []interface{} {
	return []interface{}{
		c.Action,
		c.BookingID,
		c.CreatedAt,
		c.Raw,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
