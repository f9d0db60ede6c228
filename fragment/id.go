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

package fragment

import (
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ElementID renders the path as an HTML element id. Segments are joined with '/'. Within a segment a space becomes
// '_', '/' is doubled (written as "~/" at the start of a segment), '~' and '_' are prefixed with '~', and
// non-graphic code points become "~<hex>." (invalid UTF-8 bytes become "~x<hex>."). Root and temporary scopes
// yield "/".
func (scope *Scope) ElementID() string {
	if len(scope.path) == 0 {
		return "/"
	}
	builder := &strings.Builder{}
	for i, name := range scope.path {
		if i > 0 {
			builder.WriteByte('/')
		}
		escapeSegment(builder, name)
	}
	return builder.String()
}

func escapeSegment(builder *strings.Builder, name string) {
	for i := 0; i < len(name); {
		r, size := utf8.DecodeRuneInString(name[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			builder.WriteString("~x")
			builder.WriteString(strconv.FormatUint(uint64(name[i]), 16))
			builder.WriteByte('.')
		case r == ' ':
			builder.WriteByte('_')
		case r == '/' && i == 0:
			builder.WriteString("~/")
		case r == '/':
			builder.WriteString("//")
		case r == '~' || r == '_':
			builder.WriteByte('~')
			builder.WriteRune(r)
		case !unicode.IsGraphic(r):
			builder.WriteByte('~')
			builder.WriteString(strconv.FormatInt(int64(r), 16))
			builder.WriteByte('.')
		default:
			builder.WriteRune(r)
		}
		i += size
	}
}

// MaxKeyLength limits the length of a single encoded preference key segment.
const MaxKeyLength = 80

// PreferenceKeyPath maps the scope onto a hierarchical key/value store. User scopes live under "users/<user>",
// location scopes under "<authority>/<slug>", followed by one segment per path name. Temporary scopes return nil.
func (scope *Scope) PreferenceKeyPath() []string {
	if scope.path == nil {
		return nil
	}
	var result []string
	if scope.user != "" {
		result = append(result, "users", EncodeKey(scope.user))
	}
	if scope.location != "" {
		if scope.site != nil && scope.site.Host != "" {
			result = append(result, EncodeKey(scope.site.Host))
		}
		slug := "/" + scope.location
		if strings.HasPrefix(scope.location, "/") {
			slug = scope.location[1:]
		}
		if slug != "" {
			result = append(result, EncodeKey(slug))
		} else {
			result = append(result, "~r")
		}
	}
	for _, name := range scope.path {
		result = append(result, EncodeKey(name))
	}
	return result
}

// EncodeKey encodes one key segment. Printable ASCII is kept, with '~' escaping '~', '.', '_' and '/'. Names that
// are too long or contain other characters are replaced by "~h" and a hash of the name.
func EncodeKey(name string) string {
	if encoded, ok := encodePlainKey(name); ok {
		return encoded
	}
	hash := sha256.Sum256([]byte(name))
	encoded := base64.URLEncoding.EncodeToString(hash[:])
	return "~h" + strings.NewReplacer("_", "", "-", "", "=", "").Replace(encoded)
}

func encodePlainKey(name string) (string, bool) {
	if name == "" || len(name) > MaxKeyLength {
		return "", false
	}
	builder := &strings.Builder{}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c < ' ' || c > '~':
			return "", false
		case c == '~':
			builder.WriteString("~~")
		case c == '.':
			builder.WriteString("~d")
		case c == '_':
			builder.WriteString("~u")
		case c == '/':
			builder.WriteString("~s")
		default:
			builder.WriteByte(c)
		}
	}
	if builder.Len() > MaxKeyLength {
		return "", false
	}
	return builder.String(), true
}
