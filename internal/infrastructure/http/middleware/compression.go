package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	encodingBrotli = "br"
	encodingGzip   = "gzip"

	gzipLevel   = 6
	brotliLevel = 5
)

var compressibleTypes = []string{
	"application/json",
	"application/problem+json",
	"text/plain",
}

// Compression buffers the handler's response and, when the client accepts it
// and the body reaches the configured minimum size, writes it brotli or gzip
// encoded. A negative minimum disables compression.
func (m *Middleware) Compression() gin.HandlerFunc {
	minSize := m.config.Server.CompressionMinSize
	return func(c *gin.Context) {
		encoding := negotiateEncoding(c.GetHeader("Accept-Encoding"))
		if minSize < 0 || encoding == "" || c.Request.Method == "HEAD" {
			c.Next()
			return
		}

		original := c.Writer
		writer := &bufferedWriter{ResponseWriter: original}
		c.Writer = writer
		c.Next()
		c.Writer = original

		body := writer.buf.Bytes()
		if len(body) == 0 {
			return
		}
		if len(body) < minSize || !compressible(original.Header()) {
			_, _ = original.Write(body)
			return
		}

		encoded, err := encode(encoding, body)
		if err != nil {
			m.logger.Warn("Response compression failed", zap.String("encoding", encoding), zap.Error(err))
			_, _ = original.Write(body)
			return
		}

		h := original.Header()
		h.Set("Content-Encoding", encoding)
		h.Add("Vary", "Accept-Encoding")
		h.Set("Content-Length", strconv.Itoa(len(encoded)))
		_, _ = original.Write(encoded)
	}
}

// bufferedWriter holds the body until the middleware decides how to encode it.
// Status and headers pass through to the wrapped writer, which defers them
// until the first real write.
type bufferedWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	return w.buf.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.buf.WriteString(s)
}

func (w *bufferedWriter) Size() int {
	return w.buf.Len()
}

func (w *bufferedWriter) Written() bool {
	return w.buf.Len() > 0 || w.ResponseWriter.Written()
}

// negotiateEncoding picks br over gzip when both are acceptable with the same quality
func negotiateEncoding(header string) string {
	if header == "" {
		return ""
	}
	accepted := parseAcceptEncoding(header)
	br, hasBr := accepted[encodingBrotli]
	gz, hasGz := accepted[encodingGzip]
	if star, ok := accepted["*"]; ok {
		if !hasBr {
			br, hasBr = star, true
		}
		if !hasGz {
			gz, hasGz = star, true
		}
	}

	switch {
	case hasBr && br > 0 && (!hasGz || br >= gz):
		return encodingBrotli
	case hasGz && gz > 0:
		return encodingGzip
	}
	return ""
}

func parseAcceptEncoding(header string) map[string]float64 {
	encodings := make(map[string]float64)
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		quality := 1.0
		if q, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if v, err := strconv.ParseFloat(q, 64); err == nil {
				quality = v
			}
		}
		encodings[name] = quality
	}
	return encodings
}

func compressible(h interface{ Get(string) string }) bool {
	if h.Get("Content-Encoding") != "" {
		return false
	}
	mainType, _, _ := strings.Cut(h.Get("Content-Type"), ";")
	mainType = strings.TrimSpace(mainType)
	for _, t := range compressibleTypes {
		if strings.EqualFold(mainType, t) {
			return true
		}
	}
	return false
}

func encode(encoding string, body []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch encoding {
	case encodingBrotli:
		w = brotli.NewWriterLevel(&buf, brotliLevel)
	default:
		gz, err := gzip.NewWriterLevel(&buf, gzipLevel)
		if err != nil {
			return nil, err
		}
		w = gz
	}
	if _, err := w.Write(body); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
