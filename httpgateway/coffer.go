package httpgateway

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/aofei/mimesniffer"
	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/relaygo/relay"
)

// coffer is a binary asset file manager that keeps recently served static
// files in memory to cut disk I/O, adapted from air's coffer.go: the same
// fastcache-backed content store keyed by a checksum, the same fsnotify
// watcher invalidating an entry the moment its file changes on disk.
// Unlike air's coffer (which also minifies and gzips each asset up front),
// this one only caches and content-type-sniffs — compression is a response
// post-processing concern relay's core Response pipeline doesn't expose a
// hook for.
type coffer struct {
	root       string
	maxEntries int

	once    sync.Once
	assets  sync.Map
	cache   *fastcache.Cache
	watcher *fsnotify.Watcher
}

// newCoffer returns a coffer serving files rooted at root, caching up to
// maxMemoryBytes of content.
func newCoffer(root string, maxMemoryBytes int) (*coffer, error) {
	c := &coffer{root: root}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("relay: failed to build static asset watcher: %w", err)
	}
	c.watcher = watcher

	go func() {
		for {
			select {
			case e, ok := <-c.watcher.Events:
				if !ok {
					return
				}
				if ai, ok := c.assets.Load(e.Name); ok {
					a := ai.(*asset)
					c.assets.Delete(a.name)
					c.cache.Del(a.checksum[:])
				}
			case _, ok := <-c.watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	if maxMemoryBytes <= 0 {
		maxMemoryBytes = 32 * 1024 * 1024
	}
	c.maxEntries = maxMemoryBytes

	return c, nil
}

// asset is one cached static file.
type asset struct {
	name        string
	contentType string
	modTime     time.Time
	checksum    [8]byte
}

// load reads name (an absolute path already confined to c.root by the
// caller), caching its content keyed by an xxhash checksum of its path and
// mtime the way air's coffer keys by a sha256 of the content itself — a
// cheaper key here since this coffer doesn't also need a content-addressed
// gzip variant.
func (c *coffer) load(name string) (*asset, []byte, error) {
	c.once.Do(func() { c.cache = fastcache.New(c.maxEntries) })

	if ai, ok := c.assets.Load(name); ok {
		a := ai.(*asset)
		if b := c.cache.Get(nil, a.checksum[:]); len(b) > 0 {
			return a, b, nil
		}
		c.assets.Delete(name)
	}

	fi, err := os.Stat(name)
	if err != nil {
		return nil, nil, err
	}

	b, err := os.ReadFile(name)
	if err != nil {
		return nil, nil, err
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = mimesniffer.Sniff(b)
	}

	key := xxhash.Sum64String(name + strconv.FormatInt(fi.ModTime().UnixNano(), 10))
	a := &asset{name: name, contentType: contentType, modTime: fi.ModTime()}
	for i := 0; i < 8; i++ {
		a.checksum[i] = byte(key >> (8 * i))
	}

	c.cache.Set(a.checksum[:], b)
	if err := c.watcher.Add(name); err != nil {
		return nil, nil, err
	}
	c.assets.Store(name, a)

	return a, b, nil
}

// StaticFS returns a relay.HandlerFunc serving files under root through a
// coffer, the httpgateway equivalent of air's static asset route — built as
// an ordinary relay route rather than a core feature, since the core
// dispatcher has no notion of filesystem-backed responses.
func StaticFS(root string, maxMemoryBytes int) (relay.HandlerFunc, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	c, err := newCoffer(absRoot, maxMemoryBytes)
	if err != nil {
		return nil, err
	}

	return func(req *relay.Request) (*relay.Response, error) {
		rel, ok := req.PathParams()["path"].(string)
		if !ok {
			rel = ""
		}

		name := filepath.Join(absRoot, filepath.FromSlash(rel))
		if !strings.HasPrefix(name, absRoot) {
			return nil, relay.NewHTTPException(http.StatusForbidden, "", nil)
		}

		a, body, err := c.load(name)
		if os.IsNotExist(err) {
			return nil, relay.NewHTTPException(http.StatusNotFound, "", nil)
		}
		if err != nil {
			return nil, err
		}

		resp := relay.NewResponse(body, http.StatusOK, map[string]string{
			"last-modified": a.modTime.UTC().Format(http.TimeFormat),
		})
		if a.contentType != "" {
			resp.WithMediaType(a.contentType)
		}
		return resp, nil
	}, nil
}
