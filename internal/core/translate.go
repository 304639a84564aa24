package core

// translate.go renders every pipeline failure into one localized shape:
// a general message plus messages keyed by canonical field.

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strings"
)

// Translation is the user-facing form of an error.
type Translation struct {
	General string            `json:"general"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Reporter receives the general message of a translated error, e.g. a toast
// in a UI or stderr in the CLI.
type Reporter interface {
	Report(message string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(message string)

// Report calls f(message).
func (f ReporterFunc) Report(message string) { f(message) }

const (
	msgOperationFailed = "操作失敗"
	msgUnknownError    = "發生未知錯誤"
	msgValidation      = "驗證失敗"
	msgNoResponse      = "網路連接失敗，請檢查網路設定"
	msgRowInvalid      = "第 %d 列資料驗證失敗"
	msgMappingFailed   = "工作表「%s」欄位對應失敗"
)

// messagePatterns rewrites raw validator messages. The first pattern the
// message contains wins; the result is the display name followed by the
// translation.
var messagePatterns = []struct {
	pattern     string
	translation string
}{
	{"Field required", "為必填欄位"},
	{"string too short", "長度不足"},
	{"string too long", "長度超出限制"},
	{"value is not a valid integer", "必須是整數"},
	{"value is not a valid float", "必須是數字"},
	{"ensure this value is greater than or equal to", "必須大於等於"},
	{"ensure this value is less than or equal to", "必須小於等於"},
	{"invalid datetime format", "日期格式無效"},
	{"field required", "為必填欄位"},
	{"extra fields not permitted", "包含不允許的欄位"},
}

var statusMessages = map[int]string{
	http.StatusBadRequest:          "請求參數錯誤",
	http.StatusUnauthorized:        "未授權，請重新登入",
	http.StatusForbidden:           "權限不足",
	http.StatusNotFound:            "請求的資源不存在",
	http.StatusConflict:            "資料衝突，請檢查輸入",
	http.StatusUnprocessableEntity: "資料驗證失敗",
	http.StatusInternalServerError: "伺服器內部錯誤",
	http.StatusBadGateway:          "服務暫時不可用",
	http.StatusServiceUnavailable:  "服務維護中",
	http.StatusGatewayTimeout:      "請求超時",
}

// StatusMessage returns the localized message for an HTTP status.
// A zero status means no response was received.
func StatusMessage(status int) string {
	if status == 0 {
		return msgNoResponse
	}
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	if status >= 500 && status < 600 {
		return statusMessages[http.StatusInternalServerError]
	}
	return fmt.Sprintf("請求失敗 (錯誤代碼: %d)", status)
}

// TranslateMessage rewrites a raw validator message for the given field key.
// Unknown messages are returned verbatim.
func TranslateMessage(field, msg string) string {
	if msg == "" {
		msg = msgValidation
	}
	for _, p := range messagePatterns {
		if strings.Contains(msg, p.pattern) {
			return DisplayName(field) + p.translation
		}
	}
	return msg
}

// IsStructuredValidationError reports whether err carries field-level
// validation errors from the server.
func IsStructuredValidationError(err error) bool {
	var se *ServerError
	return errors.As(err, &se) && se.Structured()
}

// Translate converts err into its localized form. Errors outside the
// Problem union go through the coded pattern catalogue.
func Translate(err error) Translation {
	if err == nil {
		return Translation{}
	}

	var p Problem
	if !errors.As(err, &p) {
		return Translation{General: MapError(err).Message}
	}

	switch e := p.(type) {
	case *MappingError:
		return Translation{
			General: fmt.Sprintf(msgMappingFailed, e.Sheet),
			Fields:  map[string]string{e.Field: e.Message()},
		}
	case *RowError:
		fields := make(map[string]string, len(e.Issues))
		for _, is := range e.Issues {
			if _, dup := fields[is.Field]; !dup {
				fields[is.Field] = is.Message
			}
		}
		return Translation{General: fmt.Sprintf(msgRowInvalid, e.Row), Fields: fields}
	case *ServerError:
		return translateServer(e)
	case *TransportError:
		return Translation{General: StatusMessage(e.Status)}
	default:
		return Translation{General: msgUnknownError}
	}
}

func translateServer(e *ServerError) Translation {
	if !e.Structured() {
		if e.Body.Error != "" {
			return Translation{General: e.Body.Error}
		}
		return Translation{General: StatusMessage(e.Status)}
	}

	t := Translation{General: e.Body.Error, Fields: make(map[string]string)}
	if t.General == "" {
		t.General = msgOperationFailed
	}
	maps.Copy(t.Fields, e.Body.FieldErrors)
	for _, d := range e.Body.Details {
		key := d.Field()
		t.Fields[key] = TranslateMessage(key, d.Msg)
	}
	return t
}

// ExtractFieldErrors returns only the field messages of err.
func ExtractFieldErrors(err error) map[string]string {
	t := Translate(err)
	if t.Fields == nil {
		return map[string]string{}
	}
	return t.Fields
}

// HandleAndReport translates err and forwards its general message to sink.
// A nil sink only translates.
func HandleAndReport(err error, sink Reporter) Translation {
	t := Translate(err)
	if sink != nil && t.General != "" {
		sink.Report(t.General)
	}
	return t
}
