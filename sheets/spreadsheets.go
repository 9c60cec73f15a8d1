package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

var errNotFound = errors.New("spreadsheet not found")

type SheetProperties struct {
	Title string `json:"title"`
}

type Sheet struct {
	Properties SheetProperties `json:"properties"`
}

// Spreadsheet is the slice of the Sheets API resource this service uses.
type Spreadsheet struct {
	SpreadsheetID  string  `json:"spreadsheetId"`
	SpreadsheetURL string  `json:"spreadsheetUrl"`
	Sheets         []Sheet `json:"sheets"`
}

// HasSheet reports whether a tab with the given title exists.
func (s *Spreadsheet) HasSheet(title string) bool {
	for _, sheet := range s.Sheets {
		if sheet.Properties.Title == title {
			return true
		}
	}
	return false
}

// Get fetches a spreadsheet by id. A deleted or never-created spreadsheet
// returns (nil, nil) so callers can fall through to creation.
func (c *Client) Get(ctx context.Context, spreadsheetID string) (*Spreadsheet, error) {
	out := &Spreadsheet{}
	err := c.doJSON(ctx, http.MethodGet, c.sheetsURL+"/spreadsheets/"+spreadsheetID, nil, out)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePublic creates a spreadsheet owned by the service account and shares
// it with the configured account so it shows up in a human's Drive.
func (c *Client) CreatePublic(ctx context.Context, title string) (*Spreadsheet, error) {
	payload := map[string]any{
		"properties": map[string]any{"title": title},
	}
	out := &Spreadsheet{}
	if err := c.doJSON(ctx, http.MethodPost, c.sheetsURL+"/spreadsheets", payload, out); err != nil {
		return nil, err
	}

	if c.shareEmail != "" {
		permission := map[string]any{
			"type":         "user",
			"role":         "writer",
			"emailAddress": c.shareEmail,
		}
		u := c.driveURL + "/files/" + out.SpreadsheetID + "/permissions"
		if err := c.doJSON(ctx, http.MethodPost, u, permission, nil); err != nil {
			return nil, fmt.Errorf("failed to share spreadsheet: %w", err)
		}
	}
	return out, nil
}

// AddSheet appends a new tab with the given title.
func (c *Client) AddSheet(ctx context.Context, spreadsheetID, title string) error {
	payload := map[string]any{
		"requests": []any{
			map[string]any{
				"addSheet": map[string]any{
					"properties": map[string]any{"title": title},
				},
			},
		},
	}
	u := c.sheetsURL + "/spreadsheets/" + spreadsheetID + ":batchUpdate"
	return c.doJSON(ctx, http.MethodPost, u, payload, nil)
}

// WriteValues overwrites the given range with rows, interpreting cell values
// the way a typing user would (so HYPERLINK formulas stay formulas).
func (c *Client) WriteValues(ctx context.Context, spreadsheetID, rangeSpec string, rows [][]any) error {
	payload := map[string]any{
		"range":          rangeSpec,
		"majorDimension": "ROWS",
		"values":         rows,
	}
	u := fmt.Sprintf("%s/spreadsheets/%s/values/%s?valueInputOption=USER_ENTERED",
		c.sheetsURL, spreadsheetID, url.PathEscape(rangeSpec))
	return c.doJSON(ctx, http.MethodPut, u, payload, nil)
}
