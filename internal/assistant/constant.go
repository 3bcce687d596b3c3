package assistant

import (
	"fmt"
	"time"
)

// Log prefixes
const (
	LogPrefixHandle = "internal.assistant.Handle"
	LogPrefixImage  = "internal.assistant.image"
	LogPrefixTable  = "internal.assistant.table"
	LogPrefixVideo  = "internal.assistant.video"
)

// Defaults
const (
	DefaultRequestTimeout = 8 * time.Minute
	DefaultResultLimit    = 10
	// DegradedReplyTimeout bounds the apology sent after the request budget is spent.
	DegradedReplyTimeout = 10 * time.Second
)

// Commands
const (
	CommandHelp   = "/help"
	CommandStart  = "/start"
	CommandReset  = "/reset"
	CommandVideo  = "/video"
	CommandExtend = "/extend"
)

// Table operation types
const (
	OpQuery       = "query"
	OpCreate      = "create"
	OpUpdate      = "update"
	OpDelete      = "delete"
	OpCreateTable = "create_table"
	OpNone        = "none"
)

// User facing replies
const (
	ReplyHelp = `我可以帮你：
• 直接聊天提问
• 发送"画一只猫"之类的描述生成图片，发送图片并附上文字来修改图片
• 发送一张图片，我会描述图片内容
• 发送多维表格链接后，用自然语言查询、添加、修改、删除记录或创建数据表
• /video 描述：生成一段短视频，附上一张图片则让图片动起来
• /extend 描述：在两天内接着上一段视频继续生成
• /reset：清除当前会话的上下文`
	ReplyReset            = "好的，已清除当前会话的上下文。"
	ReplyRetry            = "抱歉，处理消息时出现错误，请稍后再试。"
	ReplyTimeout          = "抱歉，处理超时了，请稍后再试。"
	ReplyImageFailed      = "抱歉，无法生成图片，请尝试其他描述。"
	ReplyImageFetchFailed = "抱歉，无法获取图片内容。"
	ReplyEmptyAnswer      = "抱歉，我暂时无法回答这个问题。"
	ReplyVideoUsage       = "请在 /video 后面加上视频描述，例如：/video 海边日落的延时摄影"
	ReplyVideoStarted     = "视频生成中，预计需要 1-3 分钟，请稍候…"
	ReplyVideoDisabled    = "视频生成功能暂未开启。"
	ReplyVideoFailed      = "抱歉，视频生成失败，请稍后重试。"
	ReplyExtendUsage      = "请在 /extend 后面加上接下来的内容，例如：/extend 镜头慢慢拉远"
	ReplyNothingToExtend  = "没有可以延长的视频，视频生成两天后将无法延长。请先用 /video 生成一段视频。"

	ReplyNeedTableLink    = "请先发送一个多维表格链接，我再帮你操作表格。"
	ReplyTableUnavailable = "无法访问这个数据表，可能链接有误或机器人没有权限。请重新发送一个有效的多维表格链接。"
	ReplyNoTables         = "这个多维表格里还没有数据表，可以说\"创建一个员工表，包含姓名、部门\"来新建。"
	ReplyNoRecords        = "没有找到符合条件的记录。"
	ReplyRecordDeleted    = "已删除记录 %s。"
	ReplyRecordUpdated    = "已更新记录 %s。"
	ReplyRecordCreated    = "已添加记录 %s。"
	ReplyTableCreated     = "已创建数据表「%s」，后续操作将使用这张表。"
	ReplyNeedFields       = "请告诉我要填写的字段值，可用字段：%s"
	ReplyNeedPrimary      = "还缺少主字段「%s」的值，请补充后再试。"
	ReplyNeedTableName    = "请告诉我新数据表的名称。"
	ReplyNeedTableColumns = "请告诉我新数据表「%s」需要哪些字段。"
	ReplyNeedUpdateFields = "请告诉我要把哪些字段改成什么值。"
	ReplyChooseRecord     = "请指明要%s的是哪一条（回复序号即可）：\n%s"
	ReplyChooseTable      = "这个多维表格里有多张数据表，请回复名称或序号选择：\n%s"
)

// UnsupportedReply answers a message that has neither text nor images.
func UnsupportedReply(rawType string) string {
	if rawType == "" {
		rawType = "未知类型"
	}
	return fmt.Sprintf("收到你的%s消息，目前仅支持文字和图片处理。", rawType)
}

// OpVerb is the Chinese verb for an operation in clarifying questions.
func OpVerb(op string) string {
	switch op {
	case OpDelete:
		return "删除"
	case OpUpdate:
		return "修改"
	default:
		return "操作"
	}
}
