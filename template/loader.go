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

package template

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
)

// Loader reads templates from a file system. Parsed templates are cached per reference and reused while the file
// content checksum is unchanged, so edits are picked up on the next load.
type Loader struct {
	fsys  fs.FS
	lock  sync.Mutex
	cache map[string]*Template
}

func NewLoader(fsys fs.FS) *Loader {
	return &Loader{
		fsys:  fsys,
		cache: map[string]*Template{},
	}
}

// FS returns the underlying file system.
func (loader *Loader) FS() fs.FS {
	return loader.fsys
}

// Load reads and parses the referenced template. Files ending in .md are parsed as markdown, everything else as XML.
func (loader *Loader) Load(ref string) (*Template, error) {
	ref = strings.TrimPrefix(path.Clean(ref), "/")
	data, err := fs.ReadFile(loader.fsys, ref)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read template [%s]", ref)
	}

	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])

	loader.lock.Lock()
	cached, found := loader.cache[ref]
	loader.lock.Unlock()
	if found && cached.Checksum == checksum {
		return cached, nil
	}

	var parsed *Template
	if strings.EqualFold(path.Ext(ref), ".md") {
		parsed, err = ParseMarkdown(ref, data)
	} else {
		parsed, err = ParseXML(data)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse template [%s]", ref)
	}
	parsed.Checksum = checksum

	pfxlog.Logger().WithField("template", ref).Debugf("parsed template with checksum %s", checksum[:12])

	loader.lock.Lock()
	loader.cache[ref] = parsed
	loader.lock.Unlock()
	return parsed, nil
}

// Metadata loads only the metadata of the referenced template.
func (loader *Loader) Metadata(ref string) (*Metadata, error) {
	loaded, err := loader.Load(ref)
	if err != nil {
		return nil, err
	}
	metadata := loaded.Metadata
	return &metadata, nil
}
