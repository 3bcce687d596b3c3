package usecase

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/linusssssai/feishu-bot-vercel/internal/model"
	"github.com/linusssssai/feishu-bot-vercel/pkg/feishu"
)

// pickTable matches a reply like "2", "第2个" or a table name against the offered tables.
func pickTable(tables []model.TableRef, text string) (model.TableRef, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.TableRef{}, false
	}

	idx := strings.TrimSuffix(strings.TrimSuffix(strings.TrimPrefix(text, "第"), "个"), "张")
	if n, err := strconv.Atoi(strings.TrimSpace(idx)); err == nil {
		if n >= 1 && n <= len(tables) {
			return tables[n-1], true
		}
		return model.TableRef{}, false
	}

	var best model.TableRef
	for _, t := range tables {
		if t.Name == "" {
			continue
		}
		if t.Name == text {
			return t, true
		}
		if strings.Contains(text, t.Name) && len(t.Name) > len(best.Name) {
			best = t
		}
	}
	return best, best.ID != ""
}

// resolveRecordID accepts a record id or a 1-based index into the last listing.
// Anything else resolves to "".
func resolveRecordID(id string, last []string) string {
	id = strings.TrimSpace(id)
	if n, err := strconv.Atoi(id); err == nil {
		if n >= 1 && n <= len(last) {
			return last[n-1]
		}
		return ""
	}
	if !strings.HasPrefix(id, recordIDPrefix) {
		return ""
	}
	return id
}

// recordIDPrefix starts every Bitable record id.
const recordIDPrefix = "rec"

// isFormula reports whether filter looks like a Bitable filter formula
// rather than free text the API would reject.
func isFormula(filter string) bool {
	return strings.Contains(filter, "CurrentValue.")
}

func primaryField(schema []model.FieldSchema) string {
	for _, f := range schema {
		if f.Primary {
			return f.Name
		}
	}
	return ""
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	}
	return false
}

func fieldNames(schema []model.FieldSchema) string {
	names := make([]string, len(schema))
	for i, f := range schema {
		names[i] = f.Name
	}
	return strings.Join(names, "、")
}

func describeBinding(ref model.TableRef, schema []model.FieldSchema) string {
	name := ref.Name
	if name == "" {
		name = ref.ID
	}
	cols := make([]string, len(schema))
	for i, f := range schema {
		if f.Primary {
			cols[i] = fmt.Sprintf("%s(%s，主字段)", f.Name, f.Type)
			continue
		}
		cols[i] = fmt.Sprintf("%s(%s)", f.Name, f.Type)
	}
	if len(cols) == 0 {
		return fmt.Sprintf("已绑定数据表「%s」。", name)
	}
	return fmt.Sprintf("已绑定数据表「%s」。字段：%s\n现在可以直接说要查询、添加、修改或删除哪些记录。", name, strings.Join(cols, "、"))
}

func formatTables(tables []model.TableRef) string {
	var sb strings.Builder
	for i, t := range tables {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, t.Name)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatRecords lists records with their fields in schema order.
func formatRecords(records []feishu.Record, schema []model.FieldSchema) string {
	var sb strings.Builder
	for i, r := range records {
		fmt.Fprintf(&sb, "%d. %s", i+1, r.RecordID)
		for _, name := range orderedFields(r.Fields, schema) {
			fmt.Fprintf(&sb, " | %s: %s", name, formatValue(r.Fields[name]))
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

func orderedFields(fields map[string]any, schema []model.FieldSchema) []string {
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range schema {
		if _, ok := fields[f.Name]; ok {
			out = append(out, f.Name)
			seen[f.Name] = true
		}
	}
	var rest []string
	for name := range fields {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// formatValue flattens the shapes Bitable returns: plain scalars, rich text
// segments and option lists.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "是"
		}
		return "否"
	case map[string]any:
		if t, ok := x["text"].(string); ok {
			return t
		}
		if n, ok := x["name"].(string); ok {
			return n
		}
	case []any:
		parts := make([]string, 0, len(x))
		sep := "、"
		for _, item := range x {
			if _, segment := item.(map[string]any); segment {
				sep = ""
			}
			if s := formatValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, sep)
	}
	return fmt.Sprint(v)
}
