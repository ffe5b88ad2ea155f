// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/sassoftware/pdf-pager/logger"
	"google.golang.org/api/iterator"
)

// DefaultBookmarkCollection is used when FirestoreStore.Collection is empty.
const DefaultBookmarkCollection = "pdfBookmarks"

// FirestoreStore keeps one Firestore document per bookmark, keyed by
// BookmarkKey and tagged with the document name.
type FirestoreStore struct {
	Client     *firestore.Client
	Collection string
}

// NewFirestoreStore opens a client for projectID.
func NewFirestoreStore(ctx context.Context, projectID, collection string) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, errors.New("firestore project id is required")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &FirestoreStore{Client: client, Collection: collection}, nil
}

func (s *FirestoreStore) collection() *firestore.CollectionRef {
	name := s.Collection
	if name == "" {
		name = DefaultBookmarkCollection
	}
	return s.Client.Collection(name)
}

type firestoreBookmark struct {
	Bookmark
	Doc string `firestore:"doc"`
}

func (s *FirestoreStore) Save(ctx context.Context, doc string, b Bookmark) error {
	b.Key = BookmarkKey(doc, b.Page)
	if err := b.Validate(); err != nil {
		return fmt.Errorf("invalid bookmark: %w", err)
	}
	if _, err := s.collection().Doc(b.Key).Set(ctx, firestoreBookmark{Bookmark: b, Doc: doc}); err != nil {
		return fmt.Errorf("save bookmark %s: %w", b.Key, err)
	}
	logger.Debug(fmt.Sprintf("Bookmark saved to firestore: key=%s", b.Key), true)
	return nil
}

func (s *FirestoreStore) List(ctx context.Context, doc string) ([]Bookmark, error) {
	iter := s.collection().Where("doc", "==", doc).Documents(ctx)
	defer iter.Stop()

	var out []Bookmark
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list bookmarks for %s: %w", doc, err)
		}
		var fb firestoreBookmark
		if err := snap.DataTo(&fb); err != nil {
			logger.Error(fmt.Sprintf("Skipping malformed bookmark: id=%s err=%v", snap.Ref.ID, err))
			continue
		}
		if fb.Key == "" {
			fb.Key = snap.Ref.ID
		}
		out = append(out, fb.Bookmark)
	}
	sortBookmarks(out)
	return out, nil
}

func (s *FirestoreStore) Close() error {
	return s.Client.Close()
}
