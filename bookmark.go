// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sassoftware/pdf-pager/logger"
)

// Bookmark is a named (page, scale) position inside one document.
type Bookmark struct {
	Key       string    `json:"key" firestore:"key"`
	Name      string    `json:"name" firestore:"name" validate:"required"`
	Page      int       `json:"page" firestore:"page" validate:"min=1"`
	Scale     float64   `json:"scale" firestore:"scale" validate:"gt=0"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

// BookmarkKey is the storage key of the bookmark for page in doc. There is
// at most one bookmark per page.
func BookmarkKey(doc string, page int) string {
	return fmt.Sprintf("%s_page_%d", doc, page)
}

func (b *Bookmark) Validate() error {
	validate := validator.New()
	return validate.Struct(b)
}

// Store persists bookmarks per document name.
type Store interface {
	Save(ctx context.Context, doc string, b Bookmark) error
	// List returns the bookmarks of doc ordered by page, then name.
	List(ctx context.Context, doc string) ([]Bookmark, error)
}

func sortBookmarks(bs []Bookmark) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].Page != bs[j].Page {
			return bs[i].Page < bs[j].Page
		}
		return bs[i].Name < bs[j].Name
	})
}

// FileStore keeps every bookmark of every document in one JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() (map[string]Bookmark, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Bookmark{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read bookmarks: %w", err)
	}
	all := map[string]Bookmark{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse bookmarks %s: %w", s.path, err)
	}
	return all, nil
}

func (s *FileStore) Save(ctx context.Context, doc string, b Bookmark) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.Key = BookmarkKey(doc, b.Page)
	if err := b.Validate(); err != nil {
		return fmt.Errorf("invalid bookmark: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return err
	}
	all[b.Key] = b

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	logger.Debug(fmt.Sprintf("Bookmark saved: key=%s name=%s", b.Key, b.Name), true)
	return nil
}

func (s *FileStore) List(ctx context.Context, doc string) ([]Bookmark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	all, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	prefix := doc + "_page_"
	var out []Bookmark
	for k, b := range all {
		if strings.HasPrefix(k, prefix) {
			out = append(out, b)
		}
	}
	sortBookmarks(out)
	return out, nil
}

// AddBookmark stores the current page and committed scale under name.
func (v *Viewer) AddBookmark(ctx context.Context, name string) (Bookmark, error) {
	if v.store == nil {
		return Bookmark{}, errors.New("no bookmark store configured")
	}
	var (
		doc string
		b   Bookmark
	)
	err := v.do(ctx, func() error {
		if v.session == nil {
			return ErrNoDocument
		}
		doc = v.session.name
		b = Bookmark{
			Name:      strings.TrimSpace(name),
			Page:      max(1, v.state.current),
			Scale:     v.zoom.committed,
			CreatedAt: time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		return Bookmark{}, err
	}
	b.Key = BookmarkKey(doc, b.Page)
	if err := v.store.Save(ctx, doc, b); err != nil {
		return Bookmark{}, err
	}
	logger.Info("Bookmark added", "doc", doc, "page", b.Page, "scale", b.Scale)
	return b, nil
}

// Bookmarks lists the bookmarks of the open document.
func (v *Viewer) Bookmarks(ctx context.Context) ([]Bookmark, error) {
	if v.store == nil {
		return nil, nil
	}
	doc, err := v.currentDocument(ctx)
	if err != nil {
		return nil, err
	}
	return v.store.List(ctx, doc)
}

// GoToBookmark restores the bookmark's scale, then navigates to its page
// once the new layout is in place. It returns when navigation is done. A
// document opened in between supersedes the jump; the call then ends with
// ctx.
func (v *Viewer) GoToBookmark(ctx context.Context, key string) error {
	bs, err := v.Bookmarks(ctx)
	if err != nil {
		return err
	}
	var target *Bookmark
	for i := range bs {
		if bs[i].Key == key {
			target = &bs[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%s: %w", key, ErrBookmarkNotFound)
	}

	done := make(chan error, 1)
	err = v.do(ctx, func() error {
		return v.applyScale(target.Scale, func() { done <- v.goToPage(target.Page) })
	})
	if err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *Viewer) currentDocument(ctx context.Context) (string, error) {
	var name string
	err := v.do(ctx, func() error {
		if v.session == nil {
			return ErrNoDocument
		}
		name = v.session.name
		return nil
	})
	return name, err
}
