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

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/require"
)

var page = strings.Repeat("<p>compressible content</p>", 100)

func serve(acceptEncoding string, handler http.HandlerFunc) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	if acceptEncoding != "" {
		request.Header.Set("Accept-Encoding", acceptEncoding)
	}
	recorder := httptest.NewRecorder()
	NewCompressionHandler(handler).ServeHTTP(recorder, request)
	return recorder
}

func writePage(writer http.ResponseWriter, _ *http.Request) {
	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(writer, page)
}

func TestCompressionHandler(t *testing.T) {
	t.Run("brotli is preferred", func(t *testing.T) {
		req := require.New(t)
		recorder := serve("gzip, br", writePage)
		req.Equal("br", recorder.Header().Get("Content-Encoding"))
		body, err := io.ReadAll(brotli.NewReader(recorder.Body))
		req.NoError(err)
		req.Equal(page, string(body))
	})

	t.Run("gzip is used when brotli is not accepted", func(t *testing.T) {
		req := require.New(t)
		recorder := serve("gzip", writePage)
		req.Equal("gzip", recorder.Header().Get("Content-Encoding"))
		reader, err := gzip.NewReader(recorder.Body)
		req.NoError(err)
		body, err := io.ReadAll(reader)
		req.NoError(err)
		req.Equal(page, string(body))
	})

	t.Run("identity without accept encoding", func(t *testing.T) {
		req := require.New(t)
		recorder := serve("", writePage)
		req.Equal("", recorder.Header().Get("Content-Encoding"))
		req.Equal(page, recorder.Body.String())
	})

	t.Run("not modified responses are untouched", func(t *testing.T) {
		req := require.New(t)
		recorder := serve("br", func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusNotModified)
		})
		req.Equal(http.StatusNotModified, recorder.Code)
		req.Equal("", recorder.Header().Get("Content-Encoding"))
		req.Equal(0, recorder.Body.Len())
	})
}
