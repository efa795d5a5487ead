package logging

import (
	"encoding/json"
	"fmt"
)

// JsonFormatter JSON 格式化器，每条日志一行
type JsonFormatter struct {
	TimestampFormat string
}

// NewJsonFormatter 创建 JSON 格式化器
func NewJsonFormatter() *JsonFormatter {
	return &JsonFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

// Format 格式化日志
func (f *JsonFormatter) Format(entry *LogEntry) ([]byte, error) {
	data := map[string]any{
		"time":  entry.Time.Format(f.TimestampFormat),
		"level": entry.Level.String(),
		"msg":   entry.Message,
	}
	if entry.Category != "" {
		data["category"] = entry.Category
	}

	if len(entry.Fields) > 0 {
		fields := make(map[string]any, len(entry.Fields))
		for _, field := range entry.Fields {
			// error 等类型直接序列化会丢失信息
			if err, ok := field.Value.(error); ok {
				fields[field.Key] = err.Error()
				continue
			}
			if s, ok := field.Value.(fmt.Stringer); ok {
				fields[field.Key] = s.String()
				continue
			}
			fields[field.Key] = field.Value
		}
		data["fields"] = fields
	}

	buffer := getBuffer()
	defer putBuffer(buffer)

	// Encoder 会在末尾写入换行
	enc := json.NewEncoder(buffer)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return detach(buffer), nil
}
