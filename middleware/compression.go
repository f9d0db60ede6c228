/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

// Package middleware contains http.Handler wrappers shared by xsite servers.
package middleware

import (
	"bufio"
	"io"
	"net"
	"net/http"

	"github.com/andybalholm/brotli"
	"github.com/pkg/errors"
)

// NewCompressionHandler compresses responses with brotli or gzip, as negotiated through Accept-Encoding. Websocket
// upgrades, HEAD requests and responses that carry no body or are already encoded pass through untouched.
func NewCompressionHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Upgrade") != "" || request.Method == http.MethodHead {
			next.ServeHTTP(writer, request)
			return
		}
		compressing := &compressionWriter{ResponseWriter: writer, request: request}
		defer func() { _ = compressing.Close() }()
		next.ServeHTTP(compressing, request)
	})
}

type compressionWriter struct {
	http.ResponseWriter
	request     *http.Request
	wroteHeader bool
	encoder     io.WriteCloser
}

func (w *compressionWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	if status >= http.StatusOK && status != http.StatusNoContent && status != http.StatusNotModified &&
		w.Header().Get("Content-Encoding") == "" {
		w.Header().Del("Content-Length")
		w.encoder = brotli.HTTPCompressor(w.ResponseWriter, w.request)
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *compressionWriter) Write(data []byte) (int, error) {
	if !w.wroteHeader {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(data))
		}
		w.WriteHeader(http.StatusOK)
	}
	if w.encoder == nil {
		return w.ResponseWriter.Write(data)
	}
	return w.encoder.Write(data)
}

func (w *compressionWriter) Flush() {
	if flusher, ok := w.encoder.(interface{ Flush() error }); ok {
		_ = flusher.Flush()
	}
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *compressionWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, errors.New("underlying response writer does not support hijacking")
}

func (w *compressionWriter) Close() error {
	if w.encoder == nil {
		return nil
	}
	return w.encoder.Close()
}
