package web

// components.go holds the HTML fragments returned to HTMX requests.

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/herdimport/internal/core"
)

// ErrorAlert renders an error body as an alert box. Field errors and
// details are listed under the message.
func ErrorAlert(body core.ErrorBody) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t := core.Translate(&core.ServerError{Status: 0, Body: body})
		if _, err := fmt.Fprintf(w, `<div class="alert alert-error" role="alert"><p class="alert-message">%s`,
			templ.EscapeString(body.Error)); err != nil {
			return err
		}
		if body.Code != "" {
			if _, err := fmt.Fprintf(w, ` <span class="alert-code">(%s)</span>`, templ.EscapeString(body.Code)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</p>`); err != nil {
			return err
		}
		if body.Action != "" {
			if _, err := fmt.Fprintf(w, `<p class="alert-action">%s</p>`, templ.EscapeString(body.Action)); err != nil {
				return err
			}
		}
		if len(t.Fields) > 0 {
			if _, err := io.WriteString(w, `<ul class="alert-fields">`); err != nil {
				return err
			}
			for _, key := range sortedKeys(t.Fields) {
				if _, err := fmt.Fprintf(w, `<li data-field="%s">%s</li>`,
					templ.EscapeString(key), templ.EscapeString(t.Fields[key])); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</ul>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// ImportSummary renders the outcome of a confirm.
func ImportSummary(res *core.ImportResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		class := "alert-success"
		if len(res.Errors) > 0 {
			class = "alert-warning"
		}
		if _, err := fmt.Fprintf(w, `<div class="alert %s" role="status"><p>已匯入 %d 筆，略過 %d 筆，失敗 %d 筆</p>`,
			class, res.Imported, res.Skipped, len(res.Errors)); err != nil {
			return err
		}
		if len(res.Errors) > 0 {
			if _, err := io.WriteString(w, `<table class="import-errors"><thead><tr><th>工作表</th><th>列</th><th>原因</th></tr></thead><tbody>`); err != nil {
				return err
			}
			for _, f := range res.Errors {
				if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%d</td><td>%s</td></tr>`,
					templ.EscapeString(f.Sheet), f.Row, templ.EscapeString(f.Message)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</tbody></table>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}
