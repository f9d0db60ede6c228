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

package widget

import (
	"fmt"
)

// UnknownWidgetError is returned when a custom element names a widget missing from the registry. It always aborts
// expansion.
type UnknownWidgetError struct {
	Name string
}

func (e *UnknownWidgetError) Error() string {
	return fmt.Sprintf("no such widget [%s]", e.Name)
}

// WidgetError reports a failed widget. Stack is set when the widget panicked.
type WidgetError struct {
	Name  string
	ID    string
	Err   error
	Stack string
}

func (e *WidgetError) Error() string {
	return fmt.Sprintf("widget [%s] with id [%s] failed: %v", e.Name, e.ID, e.Err)
}

func (e *WidgetError) Unwrap() error {
	return e.Err
}

// Details renders the error followed by the panic stack, if any.
func (e *WidgetError) Details() string {
	if e.Stack == "" {
		return e.Error()
	}
	return e.Error() + "\n" + e.Stack
}

// PanicError wraps a recovered panic value.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return "panic: " + err.Error()
	}
	return fmt.Sprintf("panic: %v", e.Value)
}
