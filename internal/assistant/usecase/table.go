package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/linusssssai/feishu-bot-vercel/internal/assistant"
	"github.com/linusssssai/feishu-bot-vercel/internal/model"
	"github.com/linusssssai/feishu-bot-vercel/internal/router"
	"github.com/linusssssai/feishu-bot-vercel/pkg/feishu"
	"github.com/linusssssai/feishu-bot-vercel/pkg/gemini"
	"github.com/linusssssai/feishu-bot-vercel/pkg/llmprovider"
)

// tableOutcome is what one table command produced.
type tableOutcome struct {
	reply string
	table *model.TableContext
	// chat hands the message to the casual reply path.
	chat bool
}

// bindTable stores the app from a link. A link that names a table, or an app
// with exactly one table, is bound right away; otherwise the tables are listed.
func (uc *implUseCase) bindTable(ctx context.Context, m assistant.Messenger, ev model.Event, appToken, tableID string) error {
	if uc.tables == nil {
		return uc.chat(ctx, m, ev, uc.store.Get(ctx, ev.ConversationID))
	}
	if tableID != "" {
		return uc.selectTable(ctx, m, ev, appToken, model.TableRef{ID: tableID})
	}

	tables, err := uc.tables.ListTables(ctx, appToken)
	if err != nil {
		if feishu.IsTableUnavailable(err) {
			return uc.dropTable(ctx, m, ev, err)
		}
		return fmt.Errorf("list tables: %w", err)
	}
	switch len(tables) {
	case 0:
		uc.store.Update(ctx, ev.ConversationID, model.ContextPatch{Table: &model.TableContext{AppToken: appToken}})
		return m.ReplyText(ctx, ev.ReplyTo, assistant.ReplyNoTables)
	case 1:
		return uc.selectTable(ctx, m, ev, appToken, model.TableRef{ID: tables[0].TableID, Name: tables[0].Name})
	}

	refs := make([]model.TableRef, len(tables))
	for i, t := range tables {
		refs[i] = model.TableRef{ID: t.TableID, Name: t.Name}
	}
	uc.store.Update(ctx, ev.ConversationID, model.ContextPatch{Table: &model.TableContext{AppToken: appToken, Tables: refs}})
	return m.ReplyText(ctx, ev.ReplyTo, fmt.Sprintf(assistant.ReplyChooseTable, formatTables(refs)))
}

// selectTable binds ref, caches its schema and echoes it back.
func (uc *implUseCase) selectTable(ctx context.Context, m assistant.Messenger, ev model.Event, appToken string, ref model.TableRef) error {
	tc, err := uc.useTable(ctx, ev, appToken, ref)
	if err != nil {
		if feishu.IsTableUnavailable(err) {
			return uc.dropTable(ctx, m, ev, err)
		}
		return err
	}
	return m.ReplyText(ctx, ev.ReplyTo, describeBinding(ref, tc.CachedSchema))
}

// selectAndRun binds ref picked out of a table command and then runs that
// command against it.
func (uc *implUseCase) selectAndRun(ctx context.Context, m assistant.Messenger, ev model.Event, cc model.ConversationContext, ref model.TableRef) error {
	tc, err := uc.useTable(ctx, ev, cc.Table.AppToken, ref)
	if err != nil {
		if feishu.IsTableUnavailable(err) {
			return uc.dropTable(ctx, m, ev, err)
		}
		return err
	}
	if err := m.ReplyText(ctx, ev.ReplyTo, describeBinding(ref, tc.CachedSchema)); err != nil {
		return err
	}
	cc.Table = tc
	return uc.tableCommand(ctx, m, ev, cc)
}

func (uc *implUseCase) useTable(ctx context.Context, ev model.Event, appToken string, ref model.TableRef) (*model.TableContext, error) {
	schema, err := uc.loadSchema(ctx, appToken, ref.ID)
	if err != nil {
		return nil, err
	}
	tc := &model.TableContext{AppToken: appToken, TableID: ref.ID, CachedSchema: schema}
	uc.store.Update(ctx, ev.ConversationID, model.ContextPatch{Table: tc})
	return tc, nil
}

// dropTable forgets a table Feishu reports as missing or forbidden and asks for a new link.
func (uc *implUseCase) dropTable(ctx context.Context, m assistant.Messenger, ev model.Event, cause error) error {
	uc.l.Warnf(ctx, "%s: conversation %s table unavailable: %v", assistant.LogPrefixTable, ev.ConversationID, cause)
	uc.store.Update(ctx, ev.ConversationID, model.ContextPatch{ClearTable: true})
	return m.ReplyText(ctx, ev.ReplyTo, assistant.ReplyTableUnavailable)
}

// tableCommand drives a table command through NoContext, AwaitingTableSelection and Ready.
func (uc *implUseCase) tableCommand(ctx context.Context, m assistant.Messenger, ev model.Event, cc model.ConversationContext) error {
	if uc.tables == nil {
		return uc.chat(ctx, m, ev, cc)
	}

	tc := cc.Table
	if tc == nil || tc.AppToken == "" {
		if uc.cfg.DefaultAppToken == "" {
			return m.ReplyText(ctx, ev.ReplyTo, assistant.ReplyNeedTableLink)
		}
		tc = &model.TableContext{AppToken: uc.cfg.DefaultAppToken, TableID: uc.cfg.DefaultTableID}
	}
	if tc.TableID == "" {
		return uc.bindTable(ctx, m, ev, tc.AppToken, "")
	}

	next := *tc
	if len(next.CachedSchema) == 0 {
		schema, err := uc.loadSchema(ctx, next.AppToken, next.TableID)
		if err != nil {
			if feishu.IsTableUnavailable(err) {
				return uc.dropTable(ctx, m, ev, err)
			}
			return err
		}
		next.CachedSchema = schema
	}

	op, resp, err := uc.classifyTableOp(ctx, ev.Message.Text, &next, cc.LastContinuationToken)
	if err != nil {
		return fmt.Errorf("classify table operation: %w", err)
	}
	uc.l.Debugf(ctx, "%s: conversation %s op=%s record=%q", assistant.LogPrefixTable, ev.ConversationID, op.Type, op.RecordID)

	out, err := uc.runTableOp(ctx, &next, op)
	if err != nil {
		if feishu.IsTableUnavailable(err) {
			return uc.dropTable(ctx, m, ev, err)
		}
		return fmt.Errorf("table %s: %w", op.Type, err)
	}

	patch := model.ContextPatch{Table: out.table}
	if patch.Table == nil {
		patch.Table = &next
	}
	if !resp.Fallback() {
		token := resp.Token
		patch.ContinuationToken = &token
	}
	uc.store.Update(ctx, ev.ConversationID, patch)

	if out.chat {
		cc.Table = patch.Table
		if patch.ContinuationToken != nil {
			cc.LastContinuationToken = *patch.ContinuationToken
		}
		return uc.chat(ctx, m, ev, cc)
	}
	return m.ReplyText(ctx, ev.ReplyTo, out.reply)
}

func (uc *implUseCase) classifyTableOp(ctx context.Context, text string, tc *model.TableContext, previousToken string) (assistant.TableOperation, *llmprovider.Response, error) {
	fields := make([]gemini.SchemaField, len(tc.CachedSchema))
	for i, f := range tc.CachedSchema {
		fields[i] = gemini.SchemaField{Name: f.Name, Type: f.Type, Primary: f.Primary}
	}

	resp, err := uc.llm.Invoke(ctx, &llmprovider.Request{
		Capability:     llmprovider.CapabilityTableOperation,
		Text:           gemini.BuildTableOperationPrompt(text, fields, tc.LastResultIDs),
		ResponseSchema: gemini.TableOperationSchema,
		PreviousToken:  previousToken,
		Validate: func(resp *llmprovider.Response) error {
			_, err := parseTableOperation(resp.Text)
			return err
		},
	})
	if err != nil {
		return assistant.TableOperation{}, nil, err
	}
	op, err := parseTableOperation(resp.Text)
	if err != nil {
		return assistant.TableOperation{}, nil, err
	}
	return op, resp, nil
}

// runTableOp executes op against the bound table. tc may be modified in place.
func (uc *implUseCase) runTableOp(ctx context.Context, tc *model.TableContext, op assistant.TableOperation) (tableOutcome, error) {
	switch op.Type {
	case assistant.OpQuery:
		return uc.listRecords(ctx, tc, op.Filter, "")

	case assistant.OpCreate:
		if len(op.Fields) == 0 {
			return tableOutcome{reply: fmt.Sprintf(assistant.ReplyNeedFields, fieldNames(tc.CachedSchema))}, nil
		}
		if primary := primaryField(tc.CachedSchema); primary != "" && isBlank(op.Fields[primary]) {
			return tableOutcome{reply: fmt.Sprintf(assistant.ReplyNeedPrimary, primary)}, nil
		}
		id, err := uc.tables.CreateRecord(ctx, tc.AppToken, tc.TableID, op.Fields)
		if err != nil {
			return tableOutcome{}, err
		}
		return tableOutcome{reply: fmt.Sprintf(assistant.ReplyRecordCreated, id)}, nil

	case assistant.OpUpdate:
		id := resolveRecordID(op.RecordID, tc.LastResultIDs)
		if id == "" {
			return uc.listRecords(ctx, tc, op.Filter, op.Type)
		}
		if len(op.Fields) == 0 {
			return tableOutcome{reply: assistant.ReplyNeedUpdateFields}, nil
		}
		if err := uc.tables.UpdateRecord(ctx, tc.AppToken, tc.TableID, id, op.Fields); err != nil {
			return tableOutcome{}, err
		}
		return tableOutcome{reply: fmt.Sprintf(assistant.ReplyRecordUpdated, id)}, nil

	case assistant.OpDelete:
		id := resolveRecordID(op.RecordID, tc.LastResultIDs)
		if id == "" {
			return uc.listRecords(ctx, tc, op.Filter, op.Type)
		}
		if err := uc.tables.DeleteRecord(ctx, tc.AppToken, tc.TableID, id); err != nil {
			return tableOutcome{}, err
		}
		tc.LastResultIDs = slices.DeleteFunc(tc.LastResultIDs, func(s string) bool { return s == id })
		return tableOutcome{reply: fmt.Sprintf(assistant.ReplyRecordDeleted, id)}, nil

	case assistant.OpCreateTable:
		name := strings.TrimSpace(op.TableName)
		if name == "" {
			return tableOutcome{reply: assistant.ReplyNeedTableName}, nil
		}
		if len(op.TableFields) == 0 {
			return tableOutcome{reply: fmt.Sprintf(assistant.ReplyNeedTableColumns, name)}, nil
		}
		cols := make([]feishu.TableField, 0, len(op.TableFields))
		for _, c := range op.TableFields {
			if c.Name == "" {
				continue
			}
			cols = append(cols, feishu.TableField{FieldName: c.Name, Type: feishu.FieldTypeCode(c.Type)})
		}
		if len(cols) == 0 {
			return tableOutcome{reply: fmt.Sprintf(assistant.ReplyNeedTableColumns, name)}, nil
		}
		id, err := uc.tables.CreateTable(ctx, tc.AppToken, name, cols)
		if err != nil {
			return tableOutcome{}, err
		}
		return tableOutcome{
			reply: fmt.Sprintf(assistant.ReplyTableCreated, name),
			table: &model.TableContext{AppToken: tc.AppToken, TableID: id},
		}, nil

	default:
		return tableOutcome{chat: true}, nil
	}
}

// listRecords answers a query, or asks which record to act on when verbOp is set.
// The listed ids become the grounding for follow-up references.
func (uc *implUseCase) listRecords(ctx context.Context, tc *model.TableContext, filter, verbOp string) (tableOutcome, error) {
	if !isFormula(filter) {
		filter = ""
	}
	records, err := uc.tables.ListRecords(ctx, tc.AppToken, tc.TableID, filter, uc.cfg.ResultLimit)
	if err != nil {
		return tableOutcome{}, err
	}
	if len(records) == 0 {
		tc.LastResultIDs = nil
		return tableOutcome{reply: assistant.ReplyNoRecords}, nil
	}

	tc.LastResultIDs = make([]string, len(records))
	for i, r := range records {
		tc.LastResultIDs[i] = r.RecordID
	}
	listing := formatRecords(records, tc.CachedSchema)
	if verbOp != "" {
		return tableOutcome{reply: fmt.Sprintf(assistant.ReplyChooseRecord, assistant.OpVerb(verbOp), listing)}, nil
	}
	return tableOutcome{reply: fmt.Sprintf("找到 %d 条记录：\n%s", len(records), listing)}, nil
}

func (uc *implUseCase) loadSchema(ctx context.Context, appToken, tableID string) ([]model.FieldSchema, error) {
	fields, err := uc.tables.ListFields(ctx, appToken, tableID)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	schema := make([]model.FieldSchema, len(fields))
	for i, f := range fields {
		schema[i] = model.FieldSchema{Name: f.FieldName, Type: feishu.FieldTypeName(f.Type), Primary: f.IsPrimary}
	}
	return schema, nil
}

func parseTableOperation(raw string) (assistant.TableOperation, error) {
	var op assistant.TableOperation
	if err := json.Unmarshal([]byte(router.StripCodeFence(raw)), &op); err != nil {
		return op, fmt.Errorf("%w: %v", assistant.ErrInvalidTableOperation, err)
	}
	switch op.Type {
	case assistant.OpQuery, assistant.OpCreate, assistant.OpUpdate, assistant.OpDelete, assistant.OpCreateTable, assistant.OpNone:
		return op, nil
	}
	return op, fmt.Errorf("%w: type %q", assistant.ErrInvalidTableOperation, op.Type)
}

func awaitingTable(tc *model.TableContext) bool {
	return tc != nil && tc.AppToken != "" && tc.TableID == "" && len(tc.Tables) > 0
}
