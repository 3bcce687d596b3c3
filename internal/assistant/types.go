package assistant

import "time"

// Config tunes the reply pipeline.
type Config struct {
	RequestTimeout time.Duration
	// DefaultAppToken and DefaultTableID bind table commands when a
	// conversation never shared a link.
	DefaultAppToken string
	DefaultTableID  string
	// ResultLimit caps how many records a query lists.
	ResultLimit int
}

// TableOperation is the classified intent of a table command.
type TableOperation struct {
	Type        string         `json:"type"`
	Description string         `json:"description,omitempty"`
	Filter      string         `json:"filter,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
	RecordID    string         `json:"recordId,omitempty"`
	TableName   string         `json:"tableName,omitempty"`
	TableFields []TableColumn  `json:"tableFields,omitempty"`
}

// TableColumn is a column requested by create_table.
type TableColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}
