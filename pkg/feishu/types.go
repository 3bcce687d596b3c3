package feishu

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the Feishu Open API root
	DefaultBaseURL = "https://open.feishu.cn/open-apis"

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second

	// tokenExpiryDelta refreshes the tenant token this long before Feishu expires it.
	tokenExpiryDelta = 5 * time.Minute
)

// Config configures a Client.
type Config struct {
	AppID      string
	AppSecret  string
	BaseURL    string
	HTTPClient *http.Client
}

// APIError is a Feishu answer with a non-zero code.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("feishu: code %d: %s", e.Code, e.Msg)
}

// Bitable codes for a base or table that is wrong, gone or not shared with the app.
const (
	CodeWrongBaseToken    = 1254003
	CodeWrongTableID      = 1254004
	CodeBaseTokenNotFound = 1254040
	CodeTableIDNotFound   = 1254041
	CodeRolePermNotAllow  = 1254302
	CodeNotExist          = 91402
	CodeForbidden         = 91403
)

// IsTableUnavailable reports whether err means the base or table cannot be
// used at all, so retrying the same target will not help.
func IsTableUnavailable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case CodeWrongBaseToken, CodeWrongTableID, CodeBaseTokenNotFound, CodeTableIDNotFound,
		CodeRolePermNotAllow, CodeNotExist, CodeForbidden:
		return true
	}
	return false
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Field is one column of a Bitable table.
type Field struct {
	FieldID   string `json:"field_id"`
	FieldName string `json:"field_name"`
	Type      int    `json:"type"`
	IsPrimary bool   `json:"is_primary"`
}

// Record is one Bitable row.
type Record struct {
	RecordID string         `json:"record_id"`
	Fields   map[string]any `json:"fields"`
}

// Table is a Bitable table inside an app.
type Table struct {
	TableID string `json:"table_id"`
	Name    string `json:"name"`
}

// TableField describes a column of a table to be created.
type TableField struct {
	FieldName string `json:"field_name"`
	Type      int    `json:"type"`
}

// Bitable field type codes
const (
	FieldTypeText         = 1
	FieldTypeNumber       = 2
	FieldTypeSingleSelect = 3
	FieldTypeMultiSelect  = 4
	FieldTypeDate         = 5
	FieldTypeCheckbox     = 7
)

var fieldTypeNames = map[int]string{
	FieldTypeText:         "text",
	FieldTypeNumber:       "number",
	FieldTypeSingleSelect: "single_select",
	FieldTypeMultiSelect:  "multi_select",
	FieldTypeDate:         "date",
	FieldTypeCheckbox:     "checkbox",
}

// FieldTypeName maps a type code to the name used in prompts. Unknown codes are "text".
func FieldTypeName(code int) string {
	if n, ok := fieldTypeNames[code]; ok {
		return n
	}
	return "text"
}

// FieldTypeCode maps a prompt type name back to its code. Unknown names are text.
func FieldTypeCode(name string) int {
	for code, n := range fieldTypeNames {
		if n == name {
			return code
		}
	}
	return FieldTypeText
}
