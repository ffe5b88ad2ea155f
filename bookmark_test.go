// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookmarkKey(t *testing.T) {
	assert.Equal(t, "manual_page_12", BookmarkKey("manual", 12))
}

func TestBookmark_Validate(t *testing.T) {
	tests := []struct {
		name      string
		b         Bookmark
		shouldErr bool
	}{
		{name: "valid", b: Bookmark{Name: "intro", Page: 1, Scale: 1.3}},
		{name: "missing name", b: Bookmark{Page: 1, Scale: 1.3}, shouldErr: true},
		{name: "page zero", b: Bookmark{Name: "x", Page: 0, Scale: 1.3}, shouldErr: true},
		{name: "zero scale", b: Bookmark{Name: "x", Page: 2}, shouldErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.b.Validate()
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "bookmarks.json")
	s := NewFileStore(path)

	list, err := s.List(ctx, "manual")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.Save(ctx, "manual", Bookmark{Name: "wiring", Page: 7, Scale: 1.3}))
	require.NoError(t, s.Save(ctx, "manual", Bookmark{Name: "intro", Page: 2, Scale: 1.0}))
	require.NoError(t, s.Save(ctx, "other", Bookmark{Name: "cover", Page: 1, Scale: 2.0}))
	// one bookmark per page: saving again replaces it
	require.NoError(t, s.Save(ctx, "manual", Bookmark{Name: "wiring diagram", Page: 7, Scale: 1.5}))

	list, err = s.List(ctx, "manual")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "manual_page_2", list[0].Key)
	assert.Equal(t, "intro", list[0].Name)
	assert.Equal(t, "wiring diagram", list[1].Name)
	assert.Equal(t, 1.5, list[1].Scale)

	// a fresh store reads the same file
	list, err = NewFileStore(path).List(ctx, "other")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "other_page_1", list[0].Key)

	assert.Error(t, s.Save(ctx, "manual", Bookmark{Page: 3, Scale: 1}))
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).List(context.Background(), "manual")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))
	list, err := NewFileStore(path).List(context.Background(), "manual")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestViewer_Bookmarks(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "bookmarks.json"))
	f := newFixture(t, nil, store)
	ctx := testCtx(t)

	require.NoError(t, f.v.GoToPage(ctx, 6))
	b, err := f.v.AddBookmark(ctx, "  chapter two ")
	require.NoError(t, err)
	assert.Equal(t, "manual_page_6", b.Key)
	assert.Equal(t, "chapter two", b.Name)
	assert.Equal(t, 6, b.Page)
	assert.Equal(t, 1.0, b.Scale)
	assert.WithinDuration(t, time.Now(), b.CreatedAt, time.Minute)

	_, err = f.v.AddBookmark(ctx, "")
	assert.Error(t, err)

	require.NoError(t, f.v.SetScale(ctx, 2))
	waitIdle(t, f.v)
	require.NoError(t, f.v.GoToPage(ctx, 1))

	require.NoError(t, f.v.GoToBookmark(ctx, b.Key))
	waitIdle(t, f.v)

	st := status(t, f.v)
	assert.Equal(t, 1.0, st.Scale)
	assert.Equal(t, 6, st.CurrentPage)
	assert.Equal(t, 4110.0, f.surface.ScrollOffset().Y)
	assert.Contains(t, st.Resident, 6)

	assert.ErrorIs(t, f.v.GoToBookmark(ctx, "manual_page_99"), ErrBookmarkNotFound)

	list, err := f.v.Bookmarks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.Key, list[0].Key)
}

func TestViewer_BookmarksWithoutStore(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.v.AddBookmark(testCtx(t), "x")
	assert.Error(t, err)
	list, err := f.v.Bookmarks(testCtx(t))
	assert.NoError(t, err)
	assert.Empty(t, list)
}

func TestFirestoreStore(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := testCtx(t)
	s, err := NewFirestoreStore(ctx, "pdf-pager-test", "bookmarks-"+time.Now().Format("150405.000000"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ctx, "manual", Bookmark{Name: "b", Page: 4, Scale: 1.3, CreatedAt: time.Now().UTC()}))
	require.NoError(t, s.Save(ctx, "manual", Bookmark{Name: "a", Page: 2, Scale: 1.0}))
	require.NoError(t, s.Save(ctx, "other", Bookmark{Name: "c", Page: 1, Scale: 1.0}))

	list, err := s.List(ctx, "manual")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "manual_page_2", list[0].Key)
	assert.Equal(t, "manual_page_4", list[1].Key)

	assert.Error(t, s.Save(ctx, "manual", Bookmark{Page: 1, Scale: 1}))
}

func TestNewFirestoreStore_RequiresProject(t *testing.T) {
	_, err := NewFirestoreStore(context.Background(), "", "")
	assert.Error(t, err)
}
