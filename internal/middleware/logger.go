package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xyz-asif/roadwatch/internal/pkg/logger"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// LoggerConfig controls the request logger
type LoggerConfig struct {
	EnableColors   bool
	LogRequestBody bool
	MaxBodySize    int64 // bodies above this are not captured
	SkipPaths      []string
	Log            *logger.Logger
}

func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		EnableColors:   true,
		LogRequestBody: true,
		MaxBodySize:    2048,
		SkipPaths:      []string{"/health", "/metrics"},
		Log:            logger.Default().Named("http"),
	}
}

func Logger() gin.HandlerFunc {
	return LoggerWithConfig(DefaultLoggerConfig())
}

// LoggerWithConfig logs one line per request, plus the JSON request body (secrets masked)
// and the error envelope of 4xx/5xx responses.
func LoggerWithConfig(config LoggerConfig) gin.HandlerFunc {
	if config.Log == nil {
		config.Log = logger.Default()
	}
	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}

		start := time.Now()

		var requestBody string
		if config.LogRequestBody && isJSON(c.ContentType()) && c.Request.Body != nil &&
			c.Request.ContentLength > 0 && c.Request.ContentLength <= config.MaxBodySize {
			bodyBytes, err := io.ReadAll(io.LimitReader(c.Request.Body, config.MaxBodySize))
			if err == nil {
				c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
				requestBody = maskJSON(bodyBytes)
			}
		}

		writer := &capturingWriter{ResponseWriter: c.Writer, maxSize: config.MaxBodySize}
		c.Writer = writer

		c.Next()

		status := writer.Status()
		line := fmt.Sprintf("%s %s %s%d%s %v %s ip=%s",
			c.Request.Method, path,
			statusColor(config, status), status, resetColor(config),
			time.Since(start).Round(time.Microsecond), formatSize(writer.size), c.ClientIP())
		if userID := c.GetString("userID"); userID != "" {
			line += " user=" + userID
		}
		if requestBody != "" {
			line += " body=" + requestBody
		}
		if status >= 400 && writer.body.Len() > 0 {
			line += " response=" + truncateString(writer.body.String(), 300)
		}

		switch {
		case status >= 500:
			config.Log.Error("%s", line)
		case status >= 400:
			config.Log.Warn("%s", line)
		default:
			config.Log.Info("%s", line)
		}
	}
}

// capturingWriter keeps the first maxSize bytes of the response for logging
type capturingWriter struct {
	gin.ResponseWriter
	body    bytes.Buffer
	size    int64
	maxSize int64
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	if w.size+int64(n) <= w.maxSize {
		w.body.Write(b[:n])
	}
	w.size += int64(n)
	return n, err
}

func isJSON(contentType string) bool {
	return strings.Contains(contentType, "application/json")
}

func maskJSON(body []byte) string {
	var data interface{}
	if json.Unmarshal(body, &data) != nil {
		return truncateString(string(body), 200)
	}
	masked, err := json.Marshal(hideSensitiveFields(data))
	if err != nil {
		return ""
	}
	return truncateString(string(masked), 500)
}

func hideSensitiveFields(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitiveField(strings.ToLower(key)) {
				result[key] = "********"
			} else {
				result[key] = hideSensitiveFields(value)
			}
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = hideSensitiveFields(item)
		}
		return result
	default:
		return v
	}
}

func isSensitiveField(field string) bool {
	for _, s := range []string{"password", "token", "secret", "upiid", "credential"} {
		if strings.Contains(field, s) {
			return true
		}
	}
	return false
}

func statusColor(config LoggerConfig, status int) string {
	if !config.EnableColors {
		return ""
	}
	switch {
	case status >= 500:
		return ColorRed
	case status >= 400:
		return ColorYellow
	case status >= 300:
		return ColorCyan
	default:
		return ColorGreen
	}
}

func resetColor(config LoggerConfig) string {
	if !config.EnableColors {
		return ""
	}
	return ColorReset
}

func formatSize(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%dB", bytes)
	} else if bytes < 1024*1024 {
		return fmt.Sprintf("%.1fKB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.1fMB", float64(bytes)/(1024*1024))
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
