// Package views renders the server-side HTML pages.
//
// Templates are embedded in the binary. When a template directory is
// configured they are read from disk instead and re-parsed whenever a file in
// that directory changes.
package views

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/storage"
)

//go:embed templates/*.html
var embedded embed.FS

// layoutFile holds the shared page frame every page template extends.
const layoutFile = "base.html"

// Page names.
const (
	PageOverview = "overview"
	PageTour     = "tour"
	PageLogin    = "login"
	PageSignup   = "signup"
	PageAccount  = "account"
	PageError    = "error"
)

var pageNames = []string{PageOverview, PageTour, PageLogin, PageSignup, PageAccount, PageError}

// Page is the data passed to every template.
type Page struct {
	Title       string
	User        *models.User
	Alert       string
	Tour        *models.Tour
	Tours       []*models.Tour
	Message     string
	MapboxToken string
	StripeKey   string
}

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
	"firstWord": func(s string) string {
		if f := strings.Fields(s); len(f) > 0 {
			return f[0]
		}
		return s
	},
	"date": func(t time.Time) string { return t.Format("January 2006") },
	"imgURL": func(folder, ref string) string {
		return storage.ResolveURL("", folder, ref)
	},
	"paragraphs": func(s string) []string { return strings.Split(s, "\n") },
	"json": func(v interface{}) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

// Renderer executes page templates.
type Renderer struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
	fsys      fs.FS
	dir       string

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

// New parses the page templates from dir, or the embedded copies when dir is empty.
func New(dir string) (*Renderer, error) {
	r := &Renderer{dir: dir}
	if dir == "" {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded templates: %w", err)
		}
		r.fsys = sub
	} else {
		r.fsys = os.DirFS(dir)
	}

	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) reload() error {
	parsed := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(layoutFile).Funcs(funcs).ParseFS(r.fsys, layoutFile, name+".html")
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		parsed[name] = t
	}

	r.mu.Lock()
	r.templates = parsed
	r.mu.Unlock()
	return nil
}

// Render writes page name with the given status. Output is buffered so a
// failing template never produces a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page *Page) error {
	r.mu.RLock()
	t, ok := r.templates[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutFile, page); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeHTML)
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Watch re-parses the templates whenever the template directory changes.
// It does nothing for embedded templates.
func (r *Renderer) Watch() error {
	if r.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create template watcher: %w", err)
	}
	if err := watcher.Add(r.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", r.dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.watcher = watcher
	r.cancel = cancel

	go r.processEvents(ctx)

	log.Info().Str("dir", r.dir).Msg("Watching page templates for changes")
	return nil
}

func (r *Renderer) processEvents(ctx context.Context) {
	// Bursts of events from one save are grouped before re-parsing.
	timer := time.NewTimer(constants.TemplateReloadDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".html" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				timer.Reset(constants.TemplateReloadDebounce)
			}

		case <-timer.C:
			if err := r.reload(); err != nil {
				// The previous templates stay in use until the files parse again.
				log.Error().Err(err).Msg("Failed to reload page templates")
				continue
			}
			log.Info().Msg("Page templates reloaded")

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("Template watcher error")
		}
	}
}

// Close stops watching the template directory.
func (r *Renderer) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.watcher != nil {
		return r.watcher.Close()
	}
	return nil
}
