package logging

import (
	"encoding/json"
)

// JsonFormatter 每条日志一行 JSON。
type JsonFormatter struct {
	TimestampFormat string
}

func NewJsonFormatter() *JsonFormatter {
	return &JsonFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

type jsonEntry struct {
	Time     string         `json:"time"`
	Level    string         `json:"level"`
	Category string         `json:"category,omitempty"`
	Message  string         `json:"msg"`
	Fields   map[string]any `json:"fields,omitempty"`
}

func (f *JsonFormatter) Format(entry *LogEntry) ([]byte, error) {
	line := jsonEntry{
		Time:     entry.Time.Format(f.TimestampFormat),
		Level:    entry.Level.String(),
		Category: entry.Category,
		Message:  entry.Message,
	}
	if len(entry.Fields) > 0 {
		line.Fields = make(map[string]any, len(entry.Fields))
		for _, field := range entry.Fields {
			line.Fields[field.Key] = field.Value
		}
	}

	data, err := json.Marshal(line)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
