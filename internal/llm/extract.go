package llm

import "strings"

// ExtractSQL pulls a bare SQL statement out of raw oracle output,
// stripping markdown fences and a trailing semicolon
func ExtractSQL(content string) string {
	if sql := extractFromFence(content, "```sql"); sql != "" {
		return trimSQL(sql)
	}
	if sql := extractFromFence(content, "```"); sql != "" {
		return trimSQL(sql)
	}
	return trimSQL(content)
}

// ExtractJSON pulls a JSON object or array out of raw oracle output.
// Returns "" when no JSON-looking payload is present.
func ExtractJSON(content string) string {
	if body := extractFromFence(content, "```json"); body != "" {
		content = body
	} else if body := extractFromFence(content, "```"); body != "" {
		content = body
	}
	content = strings.TrimSpace(content)

	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(content, pair[0])
		end := strings.LastIndex(content, pair[1])
		if start >= 0 && end > start {
			return content[start : end+1]
		}
	}
	return ""
}

// ExtractLabel reduces oracle output to a single lowercase word label,
// for mapping onto closed enums
func ExtractLabel(content string) string {
	content = strings.TrimSpace(content)
	if body := extractFromFence(content, "```"); body != "" {
		content = strings.TrimSpace(body)
	}
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return ""
	}
	label := strings.ToLower(fields[0])
	return strings.Trim(label, `"'.,:`)
}

func extractFromFence(content, marker string) string {
	startIdx := strings.Index(content, marker)
	if startIdx == -1 {
		return ""
	}
	body := content[startIdx+len(marker):]
	if len(body) > 0 && body[0] == '\n' {
		body = body[1:]
	}
	endIdx := strings.Index(body, "```")
	if endIdx == -1 {
		return ""
	}
	return body[:endIdx]
}

func trimSQL(sql string) string {
	sql = strings.TrimSpace(sql)
	sql = strings.TrimSuffix(sql, ";")
	return strings.TrimSpace(sql)
}
