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
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/xsite/dom"
	"github.com/openziti/xsite/fragment"
	"github.com/openziti/xsite/prefs"
	"github.com/openziti/xsite/reload"
	"github.com/openziti/xsite/widget"
	"github.com/pkg/errors"
)

// Viewer renders a page location into a complete document rooted at an <html> element.
type Viewer interface {
	View(page *Page) (*dom.Element, error)
}

type ViewerFunc func(page *Page) (*dom.Element, error)

func (f ViewerFunc) View(page *Page) (*dom.Element, error) {
	return f(page)
}

// Page is a single request for a page location. It is created per request and never shared.
type Page struct {
	Site     *Site
	Location *Location
	Request  *http.Request
	Status   int
	Scope    *fragment.Scope

	ctx context.Context
}

type pageContextKey struct{}

func newPage(site *Site, location *Location, request *http.Request, status int) *Page {
	var scope *fragment.Scope
	if user := site.User(request); user != "" {
		scope = fragment.ForPage(site.URI(), location.Path(), user, "")
	} else {
		scope = fragment.ForLocation(site.URI(), location.Path())
	}
	page := &Page{
		Site:     site,
		Location: location,
		Request:  request,
		Status:   status,
		Scope:    scope,
	}
	page.ctx = context.WithValue(scope.Open(request.Context()), pageContextKey{}, page)
	return page
}

// PageFromContext returns the page being rendered, if any.
func PageFromContext(ctx context.Context) *Page {
	if page, ok := ctx.Value(pageContextKey{}).(*Page); ok {
		return page
	}
	return nil
}

// Context returns the request context with the page and its scope installed.
func (page *Page) Context() context.Context {
	return page.ctx
}

// Expand expands widgets in content within the page's scope.
func (page *Page) Expand(content dom.Content) (dom.Content, error) {
	return page.Site.Compiler().Expand(page.ctx, content)
}

// Preferences returns the preference node of the page's scope.
func (page *Page) Preferences() *prefs.Node {
	return prefs.For(page.Site.Preferences(), page.Scope)
}

// Title composes the document title from the location's title and supertitle.
func (page *Page) Title() string {
	location := page.Location
	title := location.Title()
	supertitle := location.Supertitle()
	switch {
	case location.Extitle() != "":
		return location.Extitle()
	case title == "":
		return supertitle
	case supertitle != "" && !strings.Contains(title, supertitle):
		return title + " - " + supertitle
	default:
		return title
	}
}

// Document wraps a body in html and head elements built from the location's metadata. In development the head
// includes the live reload script.
func (page *Page) Document(body *dom.Element) *dom.Element {
	location := page.Location
	head := dom.NewElement("head").
		Add(dom.NewElement("meta").Set("charset", "utf-8")).
		Add(dom.NewElement("meta").Set("name", "viewport").Set("content", "width=device-width, initial-scale=1")).
		Add(dom.NewElement("title").AddText(page.Title()))
	if location.Description() != "" {
		head.Add(dom.NewElement("meta").Set("name", "description").Set("content", location.Description()))
	}
	if page.Site.RunMode() == RunModeDevelopment {
		head.Add(reload.Script())
	}
	root := dom.NewElement("html")
	if location.Language() != "" {
		root.Set("lang", location.Language())
	}
	return root.Add(head, body)
}

// TemplatePage is the default viewer. It expands the most specific content section of the location's template and
// places it into a document body. Locations without a template get a heading and their lead.
func TemplatePage() Viewer {
	return ViewerFunc(viewTemplate)
}

func viewTemplate(page *Page) (*dom.Element, error) {
	location := page.Location

	var section dom.Content
	if location.Template() != "" {
		loaded, err := page.Site.Loader().Load(location.Template())
		if err != nil {
			return nil, err
		}
		if content := loaded.Content(); content != nil {
			section = content
		}
	}
	if section == nil {
		article := dom.NewElement("article").Add(dom.NewElement("h1").AddText(location.Title()))
		if location.Lead() != nil {
			article.Add(location.Lead())
		}
		section = article
	}

	expanded, err := page.Expand(section)
	if err != nil {
		return nil, err
	}
	body, ok := expanded.(*dom.Element)
	if !ok || body.Tag != "body" {
		body = dom.NewElement("body").Add(expanded)
	}
	return page.Document(body), nil
}

// GonePage renders the default notice for removed content.
func GonePage() Viewer {
	return ViewerFunc(func(page *Page) (*dom.Element, error) {
		main := dom.NewElement("main").Set("class", "gone-page").
			Add(dom.NewElement("p").AddText("This content is no longer available.")).
			Add(dom.NewElement("p").
				AddText("See ").
				Add(dom.NewElement("a").Set("href", "/").AddText("homepage")).
				AddText("."))
		return page.Document(dom.NewElement("body").Add(main)), nil
	})
}

const failureText = "This content failed to load."

// serve renders the page and writes the document. A viewer error is shown with details in development. Elsewhere
// the page answers 500 with a generic message.
func (page *Page) serve(writer http.ResponseWriter, viewer Viewer) {
	log := pfxlog.Logger().WithField("location", page.Location.String())

	status := page.Status
	document, err := viewer.View(page)
	if err != nil {
		log.WithError(err).Error("failed to render page")
		status = http.StatusInternalServerError
		document = page.Document(dom.NewElement("body").Add(page.failure(err)))
	}

	buffer := &bytes.Buffer{}
	if err = dom.RenderDocument(buffer, document); err != nil {
		log.WithError(err).Error("failed to serialize page")
		http.Error(writer, failureText, http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	writer.Header().Set("Cache-Control", "no-cache, no-store")
	writer.WriteHeader(status)
	_, _ = writer.Write(buffer.Bytes())
}

func (page *Page) failure(err error) *dom.Element {
	block := dom.NewElement("pre").Set("class", widget.ErrorClass)
	if page.Site.RunMode() != RunModeDevelopment {
		return block.AddText(failureText)
	}
	var widgetErr *widget.WidgetError
	if errors.As(err, &widgetErr) {
		return block.AddText(widgetErr.Details())
	}
	return block.AddText(err.Error())
}

type pageHandler struct {
	location *Location
	viewer   Viewer
	status   int
}

func (handler *pageHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	site := handler.location.Site()
	newPage(site, handler.location, request, handler.status).serve(writer, handler.viewer)
}
