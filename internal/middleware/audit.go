package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/taskline/pkg/logger"
)

const maxAuditBody = 2000

var sensitiveKeys = []string{"password", "hashed_password", "secret", "token", "access_token"}

// AuditLog records write operations (POST/PUT/DELETE) with the caller and a
// masked copy of the request body.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut && method != http.MethodDelete {
			c.Next()
			return
		}

		bodySnippet := captureBody(c.Request)

		c.Next()

		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)

		event := logger.Info()
		if status >= 400 {
			event = logger.Warn()
		}
		event.
			Bool("audit", true).
			Str("request_id", c.GetString(logger.RequestIDKey)).
			Str("user", GetEmail(c)).
			Str("module", module).
			Str("action", action).
			Str("method", method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("body", bodySnippet).
			Msg(formatAuditMessage(GetEmail(c), method, c.Request.URL.Path, status))
	}
}

// parseRouteInfo extracts module and action from a Gin route pattern.
// e.g. "/api/projects/:id/tasks" + "PUT" → module="Tasks", action="Update"
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/api/")

	// The last static segment names the resource.
	module = "unknown"
	for _, seg := range strings.Split(path, "/") {
		if seg != "" && !strings.HasPrefix(seg, ":") {
			module = seg
		}
	}
	module = titleWords(strings.ReplaceAll(module, "-", " "))

	switch method {
	case http.MethodPost:
		action = "Create"
	case http.MethodPut:
		action = "Update"
	case http.MethodDelete:
		action = "Delete"
	default:
		action = method
	}

	return module, action
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// formatAuditMessage creates a human-readable audit message.
func formatAuditMessage(user, method, path string, status int) string {
	if user == "" {
		user = "anonymous"
	}
	var b strings.Builder
	b.WriteString("[Audit] ")
	b.WriteString(user)
	b.WriteString(" ")
	b.WriteString(method)
	b.WriteString(" ")
	b.WriteString(path)
	b.WriteString(" → ")
	if status >= 200 && status < 300 {
		b.WriteString("OK")
	} else {
		b.WriteString("Failed")
	}
	return b.String()
}

// replayBody hands the captured head back to the handler ahead of the
// unread remainder.
type replayBody struct {
	io.Reader
	io.Closer
}

// captureBody reads at most maxAuditBody+1 bytes for the log and leaves the
// full body readable by the handler.
func captureBody(req *http.Request) string {
	if req.Body == nil || req.Body == http.NoBody {
		return ""
	}
	head, _ := io.ReadAll(io.LimitReader(req.Body, maxAuditBody+1))
	req.Body = replayBody{Reader: io.MultiReader(bytes.NewReader(head), req.Body), Closer: req.Body}

	truncated := len(head) > maxAuditBody
	if truncated {
		head = head[:maxAuditBody]
	}
	snippet := maskSensitiveFields(string(head))
	if truncated {
		snippet += "...[truncated]"
	}
	return snippet
}

// maskSensitiveFields replaces sensitive values in a JSON or form body.
func maskSensitiveFields(body string) string {
	trimmed := strings.TrimLeft(body, " \t\r\n")
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return maskJSON(body)
	}
	return maskForm(body)
}

// isSensitiveKey folds the same way encoding/json matches field names.
func isSensitiveKey(name string) bool {
	for _, key := range sensitiveKeys {
		if strings.EqualFold(name, key) {
			return true
		}
	}
	return false
}

// maskJSON walks the string literals of a JSON document and replaces the
// string value of every sensitive key. Layout is preserved. A value cut off
// by truncation is masked to the end.
func maskJSON(body string) string {
	var b strings.Builder
	b.Grow(len(body))

	i := 0
	for i < len(body) {
		if body[i] != '"' {
			b.WriteByte(body[i])
			i++
			continue
		}
		end := stringEnd(body, i)
		if end == -1 {
			b.WriteString(body[i:])
			break
		}
		b.WriteString(body[i:end])

		colon := skipSpace(body, end)
		if colon >= len(body) || body[colon] != ':' || !isSensitiveKey(unquote(body[i:end])) {
			i = end
			continue
		}
		value := skipSpace(body, colon+1)
		if value >= len(body) || body[value] != '"' {
			i = end
			continue
		}
		b.WriteString(body[end : value+1])
		b.WriteString("***")
		valueEnd := stringEnd(body, value)
		if valueEnd == -1 {
			break
		}
		b.WriteByte('"')
		i = valueEnd
	}
	return b.String()
}

// stringEnd returns the index just past the literal starting at start, or -1
// when it is unterminated.
func stringEnd(s string, start int) int {
	for p := start + 1; p < len(s); p++ {
		switch s[p] {
		case '\\':
			p++
		case '"':
			return p + 1
		}
	}
	return -1
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\r' || s[i] == '\n') {
		i++
	}
	return i
}

func unquote(literal string) string {
	var s string
	if err := json.Unmarshal([]byte(literal), &s); err != nil {
		return ""
	}
	return s
}

// maskForm masks key=value pairs of an urlencoded body.
func maskForm(body string) string {
	pairs := strings.Split(body, "&")
	for i, pair := range pairs {
		name, _, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		decoded, err := url.QueryUnescape(name)
		if err != nil {
			decoded = name
		}
		if isSensitiveKey(decoded) {
			pairs[i] = name + "=***"
		}
	}
	return strings.Join(pairs, "&")
}
