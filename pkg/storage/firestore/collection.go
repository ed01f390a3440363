package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	shared "github.com/wandermap/navigator/pkg"
)

type ToFirestoreFunc[T any] func(*T) map[string]interface{}
type FromFirestoreFunc[T any] func(map[string]interface{}) *T

type Collection[T any] struct {
	Ref           *firestore.CollectionRef
	ToFirestore   ToFirestoreFunc[T]
	FromFirestore FromFirestoreFunc[T]
}

func (c *Collection[T]) Doc(id string) *DocumentRef[T] {
	return &DocumentRef[T]{
		Ref:           c.Ref.Doc(id),
		ToFirestore:   c.ToFirestore,
		FromFirestore: c.FromFirestore,
	}
}

type DocumentRef[T any] struct {
	Ref           *firestore.DocumentRef
	ToFirestore   ToFirestoreFunc[T]
	FromFirestore FromFirestoreFunc[T]
}

func (d *DocumentRef[T]) ID() string {
	return d.Ref.ID
}

// Get loads the document. A missing document yields shared.ErrNotFound.
func (d *DocumentRef[T]) Get(ctx context.Context) (*T, error) {
	snap, err := d.Ref.Get(ctx)
	if err != nil {
		return nil, mapError(d.Ref.Path, err)
	}
	return d.FromFirestore(snap.Data()), nil
}

func (d *DocumentRef[T]) Set(ctx context.Context, data *T) error {
	m := d.ToFirestore(data)
	_, err := d.Ref.Set(ctx, m, firestore.MergeAll)
	return mapError(d.Ref.Path, err)
}

// Update merges a partial map. Keys must be the snake_case field names.
func (d *DocumentRef[T]) Update(ctx context.Context, updates map[string]interface{}) error {
	_, err := d.Ref.Set(ctx, updates, firestore.MergeAll)
	return mapError(d.Ref.Path, err)
}

// ArrayUnion adds values to an array field, creating the document if needed.
func (d *DocumentRef[T]) ArrayUnion(ctx context.Context, field string, values ...interface{}) error {
	_, err := d.Ref.Set(ctx, map[string]interface{}{
		field: firestore.ArrayUnion(values...),
	}, firestore.MergeAll)
	return mapError(d.Ref.Path, err)
}

// ArrayRemove removes values from an array field of an existing document.
func (d *DocumentRef[T]) ArrayRemove(ctx context.Context, field string, values ...interface{}) error {
	_, err := d.Ref.Update(ctx, []firestore.Update{
		{Path: field, Value: firestore.ArrayRemove(values...)},
	})
	return mapError(d.Ref.Path, err)
}

func mapError(path string, err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s: %w", path, shared.ErrNotFound)
	}
	return err
}
