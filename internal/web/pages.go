package web

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// IndexPage renders the upload form.
func IndexPage(maxSize int64) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Instruction CSV converter</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 40rem; margin: 3rem auto; color: #1f2937; }
form { display: flex; gap: .75rem; align-items: center; }
small { color: #6b7280; }
</style>
</head>
<body>
<h1>Instruction CSV converter</h1>
<p>Upload a question/answer file (.csv, .tsv or .xlsx). Rows with links, corrupted text or overlong questions are dropped and the rest are wrapped as instruction records.</p>
<form method="post" action="/api/convert" enctype="multipart/form-data">
<input type="file" name="file" accept=".csv,.tsv,.xlsx" required>
<button type="submit">Convert</button>
</form>
<p><small>Maximum upload size: %s</small></p>
</body>
</html>
`, templ.EscapeString(formatBytes(maxSize)))
		return err
	})
}

// ErrorAlert renders a user-facing error fragment.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="error" role="alert"><strong>%s</strong> <span>%s</span> <code>%s</code></div>`,
			templ.EscapeString(message), templ.EscapeString(action), templ.EscapeString(code))
		return err
	})
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.0f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
