// Package loader reads published schema documents from disk or an fs.FS and
// decodes them into the in-memory model. JSON is the canonical wire format;
// YAML is accepted for hand-authored documents and is normalised through the
// same JSON shape. Every loaded schema passes through the sanitizer before it
// reaches callers.
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clinforms/go-crf/pkg/schema"
)

// Loader resolves schema sources into decoded, sanitised schemas.
type Loader struct {
	fsys   fs.FS
	client *http.Client
}

// Option customises loader construction.
type Option func(*Loader)

// WithFS supplies the filesystem used for SourceKindFS sources, typically an
// embed.FS of bundled forms.
func WithFS(fsys fs.FS) Option {
	return func(l *Loader) { l.fsys = fsys }
}

// WithHTTPClient overrides the client used for SourceKindURL sources.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) { l.client = client }
}

// New constructs a Loader.
func New(options ...Option) *Loader {
	l := &Loader{
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// Load resolves the source, decodes the document, and returns the sanitised
// schema.
func (l *Loader) Load(ctx context.Context, src schema.Source) (schema.Schema, error) {
	doc, err := l.Fetch(ctx, src)
	if err != nil {
		return schema.Schema{}, err
	}
	return DecodeDocument(doc)
}

// Fetch resolves the source into a raw document without decoding it, for
// callers that archive or forward payloads as-is.
func (l *Loader) Fetch(ctx context.Context, src schema.Source) (schema.Document, error) {
	if err := ctx.Err(); err != nil {
		return schema.Document{}, err
	}
	raw, err := l.read(ctx, src)
	if err != nil {
		return schema.Document{}, err
	}
	return schema.NewDocument(src, raw)
}

// DecodeDocument parses a fetched document.
func DecodeDocument(doc schema.Document) (schema.Schema, error) {
	return Decode(doc.Raw(), doc.Location())
}

func (l *Loader) read(ctx context.Context, src schema.Source) ([]byte, error) {
	switch src.Kind() {
	case schema.SourceKindFile:
		raw, err := os.ReadFile(src.Location())
		if err != nil {
			return nil, fmt.Errorf("loader: read %s: %w", src.Location(), err)
		}
		return raw, nil
	case schema.SourceKindFS:
		if l.fsys == nil {
			return nil, fmt.Errorf("loader: fs source %s without a configured filesystem", src.Location())
		}
		raw, err := fs.ReadFile(l.fsys, src.Location())
		if err != nil {
			return nil, fmt.Errorf("loader: read %s: %w", src.Location(), err)
		}
		return raw, nil
	case schema.SourceKindURL:
		return l.fetchURL(ctx, src.Location())
	default:
		return nil, fmt.Errorf("loader: unsupported source kind %q", src.Kind())
	}
}

func (l *Loader) fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("loader: build request for %s: %w", url, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loader: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("loader: fetch %s: unexpected status %s", url, resp.Status)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("loader: fetch %s: %w", url, err)
	}
	return raw, nil
}

// Decode parses a schema document. The name is used for format detection by
// extension and for error context; content sniffing is the fallback when the
// extension is unknown.
func Decode(raw []byte, name string) (schema.Schema, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return schema.Schema{}, fmt.Errorf("loader: %s: document is empty", name)
	}

	var (
		s   schema.Schema
		err error
	)
	if isYAML(raw, name) {
		s, err = decodeYAML(raw)
	} else {
		err = json.Unmarshal(raw, &s)
	}
	if err != nil {
		return schema.Schema{}, fmt.Errorf("loader: decode %s: %w", name, err)
	}
	if s.FormID == "" {
		return schema.Schema{}, fmt.Errorf("loader: %s: document has no formId", name)
	}
	return schema.Sanitize(s), nil
}

// decodeYAML normalises through the JSON shape so the custom unmarshallers
// (condition values in particular) apply to both formats.
func decodeYAML(raw []byte) (schema.Schema, error) {
	var tree any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return schema.Schema{}, err
	}
	bridged, err := json.Marshal(tree)
	if err != nil {
		return schema.Schema{}, err
	}
	var s schema.Schema
	if err := json.Unmarshal(bridged, &s); err != nil {
		return schema.Schema{}, err
	}
	return s, nil
}

func isYAML(raw []byte, name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	case ".json":
		return false
	}
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] != '{'
}
