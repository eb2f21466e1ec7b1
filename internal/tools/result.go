package tools

import (
	"encoding/json"
	"fmt"
)

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"marshal result: %s"}`, err.Error())
	}
	return string(data)
}

func failure(format string, args ...any) string {
	return mustJSON(map[string]any{
		"success": false,
		"error":   fmt.Sprintf(format, args...),
	})
}
