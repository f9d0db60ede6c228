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

package xsite

import (
	"crypto/sha256"
	"encoding/base64"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	redirectCacheControl  = "public, max-age=86400"
	immutableCacheControl = "public, max-age=31536000"
	noCacheControl        = "no-cache, no-store"
)

// notFoundHandler is the response of last resort for unmatched requests.
func notFoundHandler(writer http.ResponseWriter, _ *http.Request) {
	writer.Header().Set("Cache-Control", noCacheControl)
	writer.WriteHeader(http.StatusNotFound)
	_, _ = writer.Write([]byte{})
}

type redirectHandler struct {
	target func(request *http.Request) string
	status int
}

func (handler *redirectHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Cache-Control", redirectCacheControl)
	writer.Header().Set("Location", handler.target(request))
	writer.WriteHeader(handler.status)
}

func newRedirectHandler(target string, status int) http.Handler {
	return &redirectHandler{
		target: func(*http.Request) string { return target },
		status: status,
	}
}

func newRewriteHandler(mapping RewriteMapping) http.Handler {
	return &redirectHandler{
		target: func(request *http.Request) string { return mapping.Rewrite(request.URL) },
		status: mapping.Status,
	}
}

var etagPattern = regexp.MustCompile(`^\s*"([^"]+)"\s*$`)

// resourceHandler serves a static file from memory. The content hash doubles as the ETag and as the cache buster
// that makes the response cacheable for a year.
type resourceHandler struct {
	data        []byte
	hash        string
	contentType string
}

func newResourceHandler(fsys fs.FS, name string) (*resourceHandler, error) {
	if fsys == nil {
		return nil, errors.Errorf("no file system to serve resource [%s] from", name)
	}
	data, err := fs.ReadFile(fsys, strings.TrimPrefix(path.Clean(name), "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read resource [%s]", name)
	}
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &resourceHandler{
		data:        data,
		hash:        contentHash(data),
		contentType: contentType,
	}, nil
}

func (handler *resourceHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	header := writer.Header()
	header.Set("ETag", `"`+handler.hash+`"`)
	if request.URL.Query().Get("v") == handler.hash {
		header.Set("Cache-Control", immutableCacheControl)
	} else {
		header.Set("Cache-Control", noCacheControl)
	}

	if match := etagPattern.FindStringSubmatch(request.Header.Get("If-None-Match")); match != nil && match[1] == handler.hash {
		writer.WriteHeader(http.StatusNotModified)
		return
	}

	header.Set("Content-Type", handler.contentType)
	header.Set("Content-Length", strconv.Itoa(len(handler.data)))
	writer.WriteHeader(http.StatusOK)
	if request.Method != http.MethodHead {
		_, _ = writer.Write(handler.data)
	}
}

// contentHash is an unpadded URL-safe SHA-256 digest without '-' and '_', so it can appear in query strings and
// ETags without escaping.
func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return strings.NewReplacer("_", "", "-", "", "=", "").Replace(base64.URLEncoding.EncodeToString(sum[:]))
}
