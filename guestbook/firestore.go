/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guestbook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const DefaultCollection = "notes"

type noteDocument struct {
	Name      string    `firestore:"name"`
	Message   string    `firestore:"message"`
	Color     string    `firestore:"color"`
	CreatedAt time.Time `firestore:"createdAt,serverTimestamp"`
}

// FirestoreBackend stores notes in a Firestore collection, stamped with the
// server's clock.
type FirestoreBackend struct {
	client     *firestore.Client
	collection string
}

func NewFirestore(ctx context.Context, projectID, collection string) (*FirestoreBackend, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("firestore project id is required")
	}
	if strings.TrimSpace(collection) == "" {
		collection = DefaultCollection
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}

	return &FirestoreBackend{client: client, collection: collection}, nil
}

func (f *FirestoreBackend) query(limit int) firestore.Query {
	q := f.client.Collection(f.collection).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	return q
}

func (f *FirestoreBackend) Add(ctx context.Context, e Entry) (Entry, error) {
	ref := f.client.Collection(f.collection).Doc(e.ID)

	if _, err := ref.Create(ctx, noteDocument{
		Name:    e.Name,
		Message: e.Message,
		Color:   e.Color,
	}); err != nil {
		return Entry{}, err
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		return Entry{}, err
	}

	return decodeNote(snap)
}

func (f *FirestoreBackend) List(ctx context.Context, limit int) ([]Entry, error) {
	iter := f.query(limit).Documents(ctx)
	defer iter.Stop()

	var out []Entry
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}

		e, err := decodeNote(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	return out, nil
}

// Watch calls fn whenever the collection changes, including writes from
// other instances.
func (f *FirestoreBackend) Watch(ctx context.Context, fn func()) error {
	iter := f.query(1).Snapshots(ctx)
	defer iter.Stop()

	for {
		if _, err := iter.Next(); err != nil {
			if status.Code(err) == codes.Canceled || ctx.Err() != nil {
				return nil
			}
			return err
		}
		fn()
	}
}

func (f *FirestoreBackend) Close() error {
	return f.client.Close()
}

func decodeNote(snap *firestore.DocumentSnapshot) (Entry, error) {
	var doc noteDocument
	if err := snap.DataTo(&doc); err != nil {
		return Entry{}, fmt.Errorf("decode note %s: %w", snap.Ref.ID, err)
	}

	return Entry{
		ID:        snap.Ref.ID,
		Name:      doc.Name,
		Message:   doc.Message,
		Color:     doc.Color,
		CreatedAt: doc.CreatedAt.UTC(),
	}, nil
}
