package core

// # Error Codes Reference
//
// This file defines localized user messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: a record with the same identifier already exists
//	        Patterns: "duplicate key"
//	DB002 - Unique constraint: the value must be unique
//	        Patterns: "unique constraint", "violates unique"
//	DB003 - Foreign key: the referenced animal does not exist
//	        Patterns: "foreign key constraint", "violates foreign key"
//	DB004 - Connection refused        Patterns: "connection refused"
//	DB005 - Connection reset          Patterns: "connection reset"
//	DB006 - Timeout                   Patterns: "timeout"
//	DB007 - Deadlock                  Patterns: "deadlock"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid date             Patterns: "invalid date"
//	VAL002 - Invalid number           Patterns: "invalid number"
//	VAL003 - Required field           Patterns: "required field"
//	VAL004 - Missing column           Patterns: "missing required column"
//	VAL005 - Column not found         Patterns: "column not found"
//	VAL006 - Unknown purpose          Patterns: "unknown purpose"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large          Patterns: "file too large", "request body too large"
//	FILE002 - Invalid workbook        Patterns: "invalid workbook"
//	FILE003 - Unsupported file type   Patterns: "unsupported file type"
//	FILE004 - No file                 Patterns: "no file provided"
//	FILE005 - Empty workbook          Patterns: "empty workbook"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Import cancelled         Patterns: "import cancelled"
//	IMP002 - System busy              Patterns: "too many concurrent operations"
//	IMP003 - Unknown animal           Patterns: "unknown ear number"
//	IMP004 - Request cancelled        Patterns: "context canceled"
//	IMP005 - Request timeout          Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited            Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Support staff should check
// application logs for the original technical error.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns come first.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Database Constraint Errors (DB001-DB003)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "已存在相同識別碼的記錄",
			Action:  "請檢查耳號或記錄日期是否重複",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "此欄位的值必須唯一",
			Action:  "請檢查檔案中是否有重複的資料",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "發現重複的資料",
			Action:  "請檢查檔案中是否有重複的資料",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "參照的羊隻不存在",
			Action:  "請先匯入羊隻基礎資料",
			Code:    "DB003",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "參照的羊隻不存在",
			Action:  "請先匯入羊隻基礎資料",
			Code:    "DB003",
		},
	},

	// =========================================================================
	// Database Connection Errors (DB004-DB007)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "無法連接資料庫",
			Action:  "請稍後再試",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "資料庫連線中斷",
			Action:  "請再試一次",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "操作逾時",
			Action:  "請分批匯入較小的檔案或稍後再試",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "資料庫忙碌中",
			Action:  "請再試一次",
			Code:    "DB007",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001-VAL006)
	// =========================================================================
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "日期格式無效",
			Action:  "請使用 YYYY-MM-DD 或 YYYY/M/D 格式",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "數字格式無效",
			Action:  "請移除單位符號並使用標準小數格式",
			Code:    "VAL002",
		},
	},
	{
		pattern: "required field",
		msg: UserMessage{
			Message: "必填欄位為空",
			Action:  "請確認所有必填欄位都有值",
			Code:    "VAL003",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "工作表缺少必要欄位",
			Action:  "請確認檔案包含所有必要欄位",
			Code:    "VAL004",
		},
	},
	{
		pattern: "column not found",
		msg: UserMessage{
			Message: "找不到對應的欄位",
			Action:  "請確認欄位名稱與範本一致",
			Code:    "VAL005",
		},
	},
	{
		pattern: "unknown purpose",
		msg: UserMessage{
			Message: "未知的工作表用途",
			Action:  "請為工作表選擇有效的用途",
			Code:    "VAL006",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "檔案超過大小上限",
			Action:  "請將檔案拆分後再上傳",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "檔案超過大小上限",
			Action:  "請將檔案拆分後再上傳",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid workbook",
		msg: UserMessage{
			Message: "檔案不是有效的 Excel 活頁簿",
			Action:  "請上傳 .xlsx 格式的檔案",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "不支援的檔案類型",
			Action:  "請上傳 .xlsx 格式的檔案",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "未選擇檔案",
			Action:  "請選擇要匯入的 Excel 檔案",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty workbook",
		msg: UserMessage{
			Message: "檔案中沒有可匯入的資料",
			Action:  "請確認工作表包含標題列與資料列",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Import Errors (IMP001-IMP005)
	// =========================================================================
	{
		pattern: "import cancelled",
		msg: UserMessage{
			Message: "匯入已取消",
			Action:  "準備好後請重新開始匯入",
			Code:    "IMP001",
		},
	},
	{
		pattern: "too many concurrent operations",
		msg: UserMessage{
			Message: "系統正在處理其他匯入",
			Action:  "請稍候再試",
			Code:    "IMP002",
		},
	},
	{
		pattern: "unknown ear number",
		msg: UserMessage{
			Message: "找不到此耳號的羊隻",
			Action:  "請先匯入羊隻基礎資料",
			Code:    "IMP003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "請求已取消",
			Action:  "請再試一次",
			Code:    "IMP004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "請求逾時",
			Action:  "請分批匯入較小的檔案或檢查網路連線",
			Code:    "IMP005",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "請求過於頻繁",
			Action:  "請稍候再試",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "發生未預期的錯誤",
	Action:  "請再試一次或聯絡系統管理員",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the first matching pattern, or the ERR000 fallback.
//
// Example:
//
//	err := errors.New("duplicate key violation")
//	msg := MapError(err)
//	// msg.Code == "DB001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (代碼: XXX)。Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (代碼: %s)。%s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether an error matches a known pattern rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a
// user-friendly message. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
