package gemini

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AssistantSystemPrompt is the persona for casual replies.
const AssistantSystemPrompt = `你是一个智能飞书机器人助手。请用简洁友好的中文回复用户。
请直接回复用户，不要加任何前缀。`

// DescribeImagePrompt is used when a single image arrives without text.
const DescribeImagePrompt = "请描述这张图片的内容，用中文回答。"

// CombineImagesPrompt is used when several images arrive without text.
const CombineImagesPrompt = "请把这些图片合成一张新的图片。"

// IntentSystemPrompt asks for the coarse media intent of a message.
const IntentSystemPrompt = `判断用户消息的意图，只返回JSON。
- image_generation: 用户想要生成、绘制、修改或合成图片
- casual: 其他所有情况，包括闲聊和提问

示例:
- "画一只蓝色的猫" -> {"intent": "image_generation"}
- "帮我把背景换成海边" -> {"intent": "image_generation"}
- "你好，今天过得怎么样" -> {"intent": "casual"}`

// IntentSchema constrains the intent classification output.
var IntentSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"intent": map[string]any{
			"type": "string",
			"enum": []string{"casual", "image_generation"},
		},
	},
	"required": []string{"intent"},
}

// TableOperationSchema constrains the table operation classification output.
var TableOperationSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"type": map[string]any{
			"type":        "string",
			"enum":        []string{"query", "create", "update", "delete", "create_table", "none"},
			"description": "操作类型",
		},
		"description": map[string]any{"type": "string", "description": "操作描述"},
		"filter":      map[string]any{"type": "string", "description": "飞书筛选公式（如果是query）"},
		"fields":      map[string]any{"type": "object", "description": "字段键值对（如果是create或update）"},
		"recordId":    map[string]any{"type": "string", "description": "记录ID（如果是update或delete）"},
		"tableName":   map[string]any{"type": "string", "description": "表格名称（如果是create_table）"},
		"tableFields": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{"type": "string"},
					"type": map[string]any{"type": "string"},
				},
			},
			"description": "表格字段定义（如果是create_table）",
		},
	},
	"required": []string{"type"},
}

// SchemaField is one column description handed to the table prompt.
type SchemaField struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Primary bool   `json:"primary,omitempty"`
}

// BuildTableOperationPrompt renders the classification prompt for a table command.
// fields and recentIDs are optional grounding.
func BuildTableOperationPrompt(userMessage string, fields []SchemaField, recentIDs []string) string {
	var sb strings.Builder
	sb.WriteString("分析用户对多维表格的操作意图，返回JSON格式。\n\n")
	fmt.Fprintf(&sb, "用户消息: %q\n", userMessage)

	if len(fields) > 0 {
		raw, _ := json.Marshal(fields)
		fmt.Fprintf(&sb, "当前表格字段: %s\n", raw)
	}
	if len(recentIDs) > 0 {
		sb.WriteString("最近一次查询结果的记录ID（按显示顺序）:\n")
		for i, id := range recentIDs {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, id)
		}
	}

	sb.WriteString(`
操作类型说明:
- query: 查询/搜索/查看记录
- create: 添加/新增/插入记录
- update: 修改/更新/编辑记录
- delete: 删除/移除记录
- create_table: 创建新表格/新数据表
- none: 不是多维表格操作

filter 使用飞书多维表格筛选公式，例如 CurrentValue.[姓名]="张三"；查询全部时留空。
如果用户用"第一条"之类的序号指代记录，请用上面的记录ID填写recordId；无法确定时不要填写。

示例:
- "查询所有订单" -> {"type": "query", "description": "查询所有记录"}
- "查一下张三的记录" -> {"type": "query", "filter": "CurrentValue.[姓名]=\"张三\""}
- "添加一条记录，姓名张三，年龄25" -> {"type": "create", "fields": {"姓名": "张三", "年龄": 25}}
- "删除第一条记录" -> {"type": "delete", "description": "删除第一条记录"}
- "创建一个员工表，包含姓名、部门、入职日期" -> {"type": "create_table", "tableName": "员工表", "tableFields": [{"name": "姓名", "type": "text"}, {"name": "部门", "type": "single_select"}, {"name": "入职日期", "type": "date"}]}
- "今天天气怎么样" -> {"type": "none"}`)

	return sb.String()
}
