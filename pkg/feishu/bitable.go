package feishu

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultPageSize is the record page size used by ListRecords.
const DefaultPageSize = 20

func tablePath(appToken, tableID string) string {
	return fmt.Sprintf("/bitable/v1/apps/%s/tables/%s", url.PathEscape(appToken), url.PathEscape(tableID))
}

// ListTables returns the tables of a Bitable app.
func (c *Client) ListTables(ctx context.Context, appToken string) ([]Table, error) {
	var out struct {
		Items []Table `json:"items"`
	}
	path := fmt.Sprintf("/bitable/v1/apps/%s/tables?page_size=100", url.PathEscape(appToken))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// CreateTable creates a table and returns its id.
func (c *Client) CreateTable(ctx context.Context, appToken, name string, fields []TableField) (string, error) {
	in := map[string]any{
		"table": map[string]any{
			"name":   name,
			"fields": fields,
		},
	}
	var out struct {
		TableID string `json:"table_id"`
	}
	path := fmt.Sprintf("/bitable/v1/apps/%s/tables", url.PathEscape(appToken))
	if err := c.doJSON(ctx, http.MethodPost, path, in, &out); err != nil {
		return "", err
	}
	return out.TableID, nil
}

// ListFields returns the columns of a table.
func (c *Client) ListFields(ctx context.Context, appToken, tableID string) ([]Field, error) {
	var out struct {
		Items []Field `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, tablePath(appToken, tableID)+"/fields?page_size=100", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ListRecords returns up to pageSize records matching the optional filter formula.
func (c *Client) ListRecords(ctx context.Context, appToken, tableID, filter string, pageSize int) ([]Record, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	q := url.Values{}
	q.Set("page_size", strconv.Itoa(pageSize))
	if filter != "" {
		q.Set("filter", filter)
	}

	var out struct {
		Items []Record `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, tablePath(appToken, tableID)+"/records?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// CreateRecord inserts a record and returns its id.
func (c *Client) CreateRecord(ctx context.Context, appToken, tableID string, fields map[string]any) (string, error) {
	var out struct {
		Record Record `json:"record"`
	}
	in := map[string]any{"fields": fields}
	if err := c.doJSON(ctx, http.MethodPost, tablePath(appToken, tableID)+"/records", in, &out); err != nil {
		return "", err
	}
	return out.Record.RecordID, nil
}

// UpdateRecord overwrites the given fields of a record.
func (c *Client) UpdateRecord(ctx context.Context, appToken, tableID, recordID string, fields map[string]any) error {
	in := map[string]any{"fields": fields}
	return c.doJSON(ctx, http.MethodPut, tablePath(appToken, tableID)+"/records/"+url.PathEscape(recordID), in, nil)
}

// DeleteRecord removes a record.
func (c *Client) DeleteRecord(ctx context.Context, appToken, tableID, recordID string) error {
	return c.doJSON(ctx, http.MethodDelete, tablePath(appToken, tableID)+"/records/"+url.PathEscape(recordID), nil, nil)
}
