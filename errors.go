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
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrMultipleMappings  = errors.New("location cannot have multiple request handlers")
	ErrMissingMapping    = errors.New("non-virtual location must have a request handler")
	ErrPathConflict      = errors.New("location cannot have both path and subtree")
	ErrMissingMatcher    = errors.New("non-virtual location must have a path or subtree")
	ErrVirtualMapping    = errors.New("virtual location cannot have a request handler")
	ErrVirtualSubtree    = errors.New("virtual location can only have an exact path")
	ErrVirtualAliases    = errors.New("virtual location cannot have aliases")
	ErrAliasWithoutPath  = errors.New("aliases can only be defined for locations with an exact path")
	ErrRelativePath      = errors.New("path must be absolute")
	ErrInvalidSubtree    = errors.New("subtree must start and end with '/'")
	ErrRedirectStatus    = errors.New("invalid status code for redirect")
	ErrResourceOnSubtree = errors.New("static resources can only be mapped to an exact path")
	ErrPriorityRange     = errors.New("priority must be between 0 and 1")
	ErrInvalidLanguage   = errors.New("invalid language tag")
	ErrAlreadyCompiled   = errors.New("location tree is already compiled")
	ErrMissingSite       = errors.New("root location must have a site")
	ErrMissingLoader     = errors.New("site has no template loader")
)

// LocationError is a configuration error tied to one location. The location is rendered through its String method,
// which identifies it by whatever fields were resolved when the error was raised.
type LocationError struct {
	Location *Location
	Err      error
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("invalid location [%s]: %v", e.Location, e.Err)
}

func (e *LocationError) Unwrap() error {
	return e.Err
}

func locationError(location *Location, err error) error {
	return &LocationError{Location: location, Err: err}
}

// DuplicateError is returned when two locations claim the same exact path or the same subtree.
type DuplicateError struct {
	Path    string
	Subtree bool
	First   *Location
	Second  *Location
}

func (e *DuplicateError) Error() string {
	kind := "path"
	if e.Subtree {
		kind = "subtree"
	}
	return fmt.Sprintf("duplicate %s [%s] detected for both locations [%s] and [%s]", kind, e.Path, e.First, e.Second)
}
