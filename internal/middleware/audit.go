package middleware

import (
	"bytes"
	"io"
	"strings"

	"github.com/bandhall/bandhall/internal/services"
	"github.com/gin-gonic/gin"
)

// AuditLog records write operations (POST/PUT/DELETE) to system_logs. This
// is the operational trail; the band-facing captain's log is written by the
// services with member attribution and field-level diffs.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != "POST" && method != "PUT" && method != "DELETE" {
			c.Next()
			return
		}

		// Capture request body (up to 2000 chars for Extra)
		var bodySnippet string
		if c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			bodySnippet = string(bodyBytes)
			if len(bodySnippet) > 2000 {
				bodySnippet = bodySnippet[:2000] + "...[truncated]"
			}
			bodySnippet = maskSensitiveFields(bodySnippet)
		}

		c.Next()

		userID := GetUserID(c)
		email := GetEmail(c)
		status := c.Writer.Status()

		module, action := parseRouteInfo(c.FullPath(), method)

		var uid *uint
		if userID > 0 {
			uid = &userID
		}

		services.LogInfo(module, action, formatAuditMessage(email, method, c.Request.URL.Path, status),
			uid, c.ClientIP(), c.Request.UserAgent(), map[string]interface{}{
				"method": method,
				"path":   c.Request.URL.Path,
				"status": status,
				"body":   bodySnippet,
				"audit":  true,
			})
	}
}

// parseRouteInfo extracts module and action from a Gin route pattern.
// Band-scoped routes report the resource segment after the band id,
// e.g. "/api/bands/:bandId/proposals/:id" + "POST" → ("Proposals", "Create").
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/api/")

	segments := strings.Split(path, "/")
	module = segments[0]
	if module == "bands" && len(segments) >= 3 {
		module = segments[2]
	}
	if module == "" {
		module = "unknown"
	}
	module = strings.Title(strings.ReplaceAll(module, "-", " "))

	switch method {
	case "POST":
		action = "Create"
	case "PUT":
		action = "Update"
	case "DELETE":
		action = "Delete"
	default:
		action = method
	}

	return module, action
}

// formatAuditMessage creates a human-readable audit message.
func formatAuditMessage(email, method, path string, status int) string {
	var b strings.Builder
	b.WriteString("[Audit] ")
	b.WriteString(email)
	b.WriteString(" ")
	b.WriteString(method)
	b.WriteString(" ")
	b.WriteString(path)
	b.WriteString(" -> ")
	if status >= 200 && status < 300 {
		b.WriteString("OK")
	} else {
		b.WriteString("Failed")
	}
	return b.String()
}

// maskSensitiveFields replaces sensitive values in a JSON body snippet.
func maskSensitiveFields(body string) string {
	sensitiveKeys := []string{"password", "api_key", "apiKey", "secret", "token", "access_token"}
	lower := strings.ToLower(body)
	for _, key := range sensitiveKeys {
		if strings.Contains(lower, key) {
			body = maskJSONValue(body, key)
		}
	}
	return body
}

// maskJSONValue does a best-effort mask of JSON string values for a given key.
func maskJSONValue(body, key string) string {
	lower := strings.ToLower(body)
	idx := strings.Index(lower, "\""+key+"\"")
	if idx == -1 {
		return body
	}

	colonIdx := strings.Index(body[idx+len(key)+2:], ":")
	if colonIdx == -1 {
		return body
	}
	valueStart := idx + len(key) + 2 + colonIdx + 1

	for valueStart < len(body) && (body[valueStart] == ' ' || body[valueStart] == '\t') {
		valueStart++
	}

	if valueStart >= len(body) {
		return body
	}

	if body[valueStart] == '"' {
		endQuote := strings.Index(body[valueStart+1:], "\"")
		if endQuote == -1 {
			return body
		}
		return body[:valueStart+1] + "***" + body[valueStart+1+endQuote:]
	}

	return body
}
