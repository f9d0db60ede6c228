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
	"path"
	"strings"

	"github.com/openziti/xsite/dom"
	"github.com/openziti/xsite/widget"
	"github.com/pkg/errors"
)

// BuiltinWidgets returns the widgets every site registers: title, breadcrumbs, asset and lead.
func BuiltinWidgets() []*widget.Widget {
	return []*widget.Widget{
		widget.New("title", titleWidget),
		widget.New("breadcrumbs", breadcrumbsWidget),
		widget.New("asset", assetWidget).Consume("src", "href"),
		widget.New("lead", leadWidget).Consume("path"),
	}
}

func pageOf(wc *widget.Context) (*Page, error) {
	page := PageFromContext(wc.Context())
	if page == nil {
		return nil, errors.Errorf("widget [%s] can only be used on pages", wc.Name())
	}
	return page, nil
}

func titleWidget(wc *widget.Context) (dom.Content, error) {
	page, err := pageOf(wc)
	if err != nil {
		return nil, err
	}
	return dom.NewElement("h1").AddText(page.Location.Title()), nil
}

// breadcrumbsWidget links every routable ancestor with a breadcrumb and ends with the current location.
func breadcrumbsWidget(wc *widget.Context) (dom.Content, error) {
	page, err := pageOf(wc)
	if err != nil {
		return nil, err
	}
	nav := dom.NewElement("nav").Set("class", "breadcrumbs")
	for _, ancestor := range page.Location.Ancestors() {
		if ancestor.Virtual() || ancestor.Path() == "" || ancestor.Breadcrumb() == "" {
			continue
		}
		nav.Add(dom.NewElement("a").Set("href", ancestor.Path()).AddText(ancestor.Breadcrumb()))
		nav.AddText(" » ")
	}
	nav.Add(dom.NewElement("span").AddText(page.Location.Breadcrumb()))
	return nav, nil
}

// assetWidget emits a script, image or stylesheet link with a cache busted URL.
func assetWidget(wc *widget.Context) (dom.Content, error) {
	page, err := pageOf(wc)
	if err != nil {
		return nil, err
	}
	if href, found := wc.Attr("href"); found {
		return dom.NewElement("link").Set("rel", "stylesheet").Set("href", page.Site.Asset(href)), nil
	}
	src, found := wc.Attr("src")
	if !found {
		return nil, errors.New("asset requires src or href attribute")
	}
	if strings.EqualFold(path.Ext(src), ".js") {
		return dom.NewElement("script").Set("src", page.Site.Asset(src)), nil
	}
	return dom.NewElement("img").Set("src", page.Site.Asset(src)), nil
}

// leadWidget shows the lead of the current location or of the location at the given path.
func leadWidget(wc *widget.Context) (dom.Content, error) {
	page, err := pageOf(wc)
	if err != nil {
		return nil, err
	}
	location := page.Location
	if target := wc.Consume("path"); target != "" {
		if location = page.Site.Location(target); location == nil {
			return nil, errors.Errorf("no location at [%s]", target)
		}
	}
	lead := dom.NewElement("div").Set("class", "lead")
	if location.Lead() != nil {
		expanded, err := wc.Expand(location.Lead())
		if err != nil {
			return nil, err
		}
		lead.Add(expanded)
	}
	return lead, nil
}
