package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lexiq-backend/pkg/logging"
)

const redacted = "[REDACTED]"

var sensitiveHeaders = []string{"Authorization", "Cookie"}

// RequestDumpMiddleware logs every request at debug level. Credentials in
// headers and JSON bodies are masked.
func RequestDumpMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		logger.Debug(
			"[Request]\n"+
				"\tMethod: %s\n"+
				"\tURL: %s\n"+
				"\tHeaders: %v\n"+
				"\tParams: %v\n"+
				"\tBody: %s",
			c.Request.Method,
			c.Request.URL.String(),
			maskHeaders(c.Request.Header),
			c.Params,
			maskBody(bodyBytes),
		)

		c.Next()
	}
}

func maskHeaders(h http.Header) http.Header {
	out := h.Clone()
	for _, name := range sensitiveHeaders {
		if out.Get(name) != "" {
			out.Set(name, redacted)
		}
	}
	return out
}

// maskBody hides password, token and code fields of a JSON object body.
// Anything that is not a JSON object is logged as is.
func maskBody(body []byte) string {
	var fields map[string]json.RawMessage
	if len(body) == 0 || json.Unmarshal(body, &fields) != nil {
		return string(body)
	}
	quoted, _ := json.Marshal(redacted)
	for k := range fields {
		key := strings.ToLower(k)
		if strings.Contains(key, "password") || strings.Contains(key, "token") || key == "code" {
			fields[k] = quoted
		}
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return string(body)
	}
	return string(out)
}
