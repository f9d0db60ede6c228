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

import "context"

type contextKey struct{}

// Open returns a context carrying scope as the current scope. The previous scope remains current in the parent
// context, so leaving the derived context restores it.
func (scope *Scope) Open(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, scope)
}

// Run invokes f with scope installed as the current scope.
func (scope *Scope) Run(ctx context.Context, f func(ctx context.Context) error) error {
	return f(scope.Open(ctx))
}

// Current returns the scope installed in ctx, if any.
func Current(ctx context.Context) (*Scope, bool) {
	if ctx == nil {
		return nil, false
	}
	scope, ok := ctx.Value(contextKey{}).(*Scope)
	return scope, ok && scope != nil
}

// Get returns the current scope or a fresh temporary scope when none is installed.
func Get(ctx context.Context) *Scope {
	if scope, ok := Current(ctx); ok {
		return scope
	}
	return Temporary()
}
