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
	"context"
	"encoding/xml"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/foundation/v2/concurrenz"
	"github.com/openziti/xsite/prefs"
	"github.com/openziti/xsite/reload"
	"github.com/openziti/xsite/template"
	"github.com/openziti/xsite/widget"
	"github.com/pkg/errors"
)

// RunMode selects between diagnostics and safety. Development shows widget and page errors inline and enables live
// reload. Production hides internals.
type RunMode int

const (
	RunModeTests RunMode = iota
	RunModeDevelopment
	RunModeProduction
)

var runModeNames = map[RunMode]string{
	RunModeTests:       "tests",
	RunModeDevelopment: "development",
	RunModeProduction:  "production",
}

func (mode RunMode) String() string {
	if name, found := runModeNames[mode]; found {
		return name
	}
	return "RunMode(" + strconv.Itoa(int(mode)) + ")"
}

// ParseRunMode parses one of "tests", "development" or "production".
func ParseRunMode(value string) (RunMode, error) {
	for mode, name := range runModeNames {
		if strings.EqualFold(name, value) {
			return mode, nil
		}
	}
	return RunModeProduction, errors.Errorf("invalid run mode [%s], must be one of tests, development or production", value)
}

const (
	SitemapPath        = "/sitemap.xml"
	sitemapNamespace   = "http://www.sitemaps.org/schemas/sitemap/0.9"
	DefaultReloadDelay = 200 * time.Millisecond
)

// Site owns a location tree and serves it. The tree is produced by the enumerate function, compiled and published
// together with its router as one snapshot. Reload replaces the snapshot atomically and keeps the previous one when
// the new tree fails to compile.
type Site struct {
	DefaultHttpHandlerProviderImpl
	uri         *url.URL
	title       string
	language    string
	mode        RunMode
	fsys        fs.FS
	loader      *template.Loader
	widgets     *widget.RegistryMap
	compiler    *widget.Compiler
	viewer      Viewer
	gone        Viewer
	preferences prefs.Store
	user        func(request *http.Request) string
	enumerate   func() (*Location, error)
	clock       *reload.Clock
	broadcaster *reload.Broadcaster
	snapshot    concurrenz.AtomicValue[*siteSnapshot]
}

var _ http.Handler = &Site{}

type siteSnapshot struct {
	root   *Location
	router *Router
}

type SiteOption func(site *Site) error

func WithTitle(title string) SiteOption {
	return func(site *Site) error {
		site.title = title
		return nil
	}
}

func WithLanguage(language string) SiteOption {
	return func(site *Site) error {
		site.language = language
		return nil
	}
}

func WithRunMode(mode RunMode) SiteOption {
	return func(site *Site) error {
		site.mode = mode
		return nil
	}
}

// WithFS sets the file system holding templates and static resources.
func WithFS(fsys fs.FS) SiteOption {
	return func(site *Site) error {
		site.fsys = fsys
		site.loader = template.NewLoader(fsys)
		return nil
	}
}

// WithWidgets registers widgets next to the built-in ones.
func WithWidgets(widgets ...*widget.Widget) SiteOption {
	return func(site *Site) error {
		return site.widgets.Add(widgets...)
	}
}

// WithViewer replaces the default viewer, TemplatePage.
func WithViewer(viewer Viewer) SiteOption {
	return func(site *Site) error {
		site.viewer = viewer
		return nil
	}
}

// WithGonePage replaces the viewer used for gone locations.
func WithGonePage(viewer Viewer) SiteOption {
	return func(site *Site) error {
		site.gone = viewer
		return nil
	}
}

func WithPreferences(store prefs.Store) SiteOption {
	return func(site *Site) error {
		site.preferences = store
		return nil
	}
}

// WithUser sets the function identifying the user behind a request. Pages of identified users get page scopes,
// everyone else shares location scopes.
func WithUser(user func(request *http.Request) string) SiteOption {
	return func(site *Site) error {
		site.user = user
		return nil
	}
}

// NewSite creates a site. The enumerate function must return a fresh location tree on every call; a tree it returned
// before fails the build with ErrAlreadyCompiled.
func NewSite(uri string, enumerate func() (*Location, error), options ...SiteOption) (*Site, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid site uri [%s]", uri)
	}
	if enumerate == nil {
		return nil, errors.New("site requires a location tree")
	}

	site := &Site{
		uri:         parsed,
		language:    "en",
		mode:        RunModeProduction,
		widgets:     widget.NewRegistryMap(),
		viewer:      TemplatePage(),
		gone:        GonePage(),
		preferences: prefs.NewMemory(),
		enumerate:   enumerate,
	}
	if err = site.widgets.Add(BuiltinWidgets()...); err != nil {
		return nil, err
	}
	for _, option := range options {
		if err = option(site); err != nil {
			return nil, err
		}
	}
	if site.title == "" {
		site.title = parsed.Host
	}

	site.compiler = widget.NewCompiler(site.widgets, widget.WithDiagnostics(site.mode == RunModeDevelopment))
	site.clock = reload.NewClock(site.mode == RunModeDevelopment)
	if site.mode == RunModeDevelopment {
		site.broadcaster = reload.NewBroadcaster()
	}
	return site, nil
}

func (site *Site) URI() *url.URL {
	return site.uri
}

func (site *Site) Title() string {
	return site.title
}

func (site *Site) Language() string {
	return site.language
}

func (site *Site) RunMode() RunMode {
	return site.mode
}

func (site *Site) FS() fs.FS {
	return site.fsys
}

// Loader returns the template loader or nil when the site has no file system.
func (site *Site) Loader() *template.Loader {
	return site.loader
}

func (site *Site) Viewer() Viewer {
	return site.viewer
}

func (site *Site) GoneViewer() Viewer {
	return site.gone
}

func (site *Site) Widgets() widget.Registry {
	return site.widgets
}

func (site *Site) Compiler() *widget.Compiler {
	return site.compiler
}

func (site *Site) Preferences() prefs.Store {
	return site.preferences
}

// User identifies the user behind request, empty for anonymous requests.
func (site *Site) User(request *http.Request) string {
	if site.user == nil || request == nil {
		return ""
	}
	return site.user(request)
}

// Build compiles the location tree and publishes it. Previously published trees are replaced only on success.
func (site *Site) Build() error {
	root, err := site.enumerate()
	if err != nil {
		return errors.Wrap(err, "failed to enumerate locations")
	}
	if root == nil {
		return errors.New("site produced no location tree")
	}
	if root.Compiled() {
		return locationError(root, ErrAlreadyCompiled)
	}
	site.extras(root)
	if err = Compile(root, site); err != nil {
		return err
	}
	router, err := NewRouter(Flatten(root))
	if err != nil {
		return err
	}
	router.SetParent(site)
	site.snapshot.Store(&siteSnapshot{root: root, router: router})
	return nil
}

// Reload rebuilds the site, logging failures. The previously published tree stays in place on failure.
func (site *Site) Reload() error {
	start := time.Now()
	if err := site.Build(); err != nil {
		pfxlog.Logger().WithError(err).Error("failed to reload site, keeping previous locations")
		return err
	}
	site.clock.Touch()
	pfxlog.Logger().WithField("site", site.uri.String()).Infof("reloaded site in %v", time.Since(start))
	return nil
}

func (site *Site) extras(root *Location) {
	root.Add(NewLocation().
		WithPath(SitemapPath).
		WithoutPriority().
		Handler(http.HandlerFunc(site.serveSitemap)))
	if site.broadcaster != nil {
		root.Add(NewLocation().
			WithPath(reload.Path).
			WithoutPriority().
			Handler(site.broadcaster))
	}
}

func (site *Site) current() *siteSnapshot {
	return site.snapshot.Load()
}

// Router returns the published router or nil before the first successful Build.
func (site *Site) Router() *Router {
	if snapshot := site.current(); snapshot != nil {
		return snapshot.router
	}
	return nil
}

// Home returns the root of the published location tree.
func (site *Site) Home() *Location {
	if snapshot := site.current(); snapshot != nil {
		return snapshot.root
	}
	return nil
}

// Location returns the location serving path or nil.
func (site *Site) Location(path string) *Location {
	if router := site.Router(); router != nil {
		return router.Locate(path)
	}
	return nil
}

// Asset adds a cache buster to a local resource path. Resources served by the site are busted with their content
// hash, anything else with the reload clock. Absolute URLs are returned unchanged.
func (site *Site) Asset(path string) string {
	if strings.HasPrefix(path, "http:") || strings.HasPrefix(path, "https:") || strings.HasPrefix(path, "//") {
		return path
	}
	if router := site.Router(); router != nil {
		if hash, found := router.ResourceHash(path); found {
			return path + "?v=" + hash
		}
	}
	return path + site.clock.Buster()
}

func (site *Site) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	router := site.Router()
	if router == nil {
		http.Error(writer, "site is not built", http.StatusServiceUnavailable)
		return
	}
	router.ServeHTTP(writer, request)
}

// Watch rebuilds the site whenever files below dir change and tells connected pages to reload. It requires
// development mode and returns once the watcher is running. The watcher stops when ctx is done.
func (site *Site) Watch(ctx context.Context, dir string) error {
	if site.broadcaster == nil {
		return errors.Errorf("live reload requires run mode [%s], site runs in [%s]", RunModeDevelopment, site.mode)
	}
	watcher, err := reload.NewWatcher(DefaultReloadDelay)
	if err != nil {
		return err
	}
	watcher.AddFilter(reload.IgnoreEditorFiles)
	watcher.AddHandler(func(paths []string) error {
		pfxlog.Logger().Debugf("detected changes in %v", paths)
		if err := site.Reload(); err != nil {
			return err
		}
		site.broadcaster.Broadcast(ctx, "reload")
		return nil
	})
	if err = watcher.AddRecursive(dir); err != nil {
		_ = watcher.Close()
		return err
	}
	go func() {
		defer func() { _ = watcher.Close() }()
		watcher.Run(ctx)
	}()
	return nil
}

// Close disconnects live reload clients.
func (site *Site) Close() {
	if site.broadcaster != nil {
		site.broadcaster.Close()
	}
}

type sitemapURL struct {
	Loc      string `xml:"loc"`
	LastMod  string `xml:"lastmod,omitempty"`
	Priority string `xml:"priority,omitempty"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap renders the sitemap of all page locations with an exact path.
func (site *Site) Sitemap() ([]byte, error) {
	set := &sitemapURLSet{Xmlns: sitemapNamespace}
	if home := site.Home(); home != nil {
		for _, location := range Flatten(home) {
			if _, page := location.mapping.(PageMapping); !page || location.virtual || location.path == "" {
				continue
			}
			entry := sitemapURL{Loc: site.uri.ResolveReference(&url.URL{Path: location.path}).String()}
			if priority, found := location.Priority(); found {
				entry.Priority = strconv.FormatFloat(priority, 'f', -1, 64)
			}
			if modified := lastModified(location); !modified.IsZero() {
				entry.LastMod = modified.UTC().Format("2006-01-02")
			}
			set.URLs = append(set.URLs, entry)
		}
	}
	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal sitemap")
	}
	return append([]byte(xml.Header), data...), nil
}

func lastModified(location *Location) time.Time {
	if !location.updated.IsZero() {
		return location.updated
	}
	return location.published
}

func (site *Site) serveSitemap(writer http.ResponseWriter, _ *http.Request) {
	data, err := site.Sitemap()
	if err != nil {
		pfxlog.Logger().WithError(err).Error("failed to render sitemap")
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}
	writer.Header().Set("Content-Type", "text/xml; charset=utf-8")
	writer.Header().Set("Content-Length", strconv.Itoa(len(data)))
	writer.Header().Set("Cache-Control", redirectCacheControl)
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(data)
}
