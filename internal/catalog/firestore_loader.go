package catalog

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	companyCollection    = "companyInfo"
	companyDocument      = "autoclinic"
	packagesCollection   = "washPackages"
	categoriesCollection = "menuCategories"
	itemsCollection      = "menuItems"
)

// FirestoreLoader reads reference data from the document store collections
// maintained by the back office.
type FirestoreLoader struct {
	client *firestore.Client
}

func NewFirestoreLoader(client *firestore.Client) *FirestoreLoader {
	if client == nil {
		panic("catalog: firestore client cannot be nil")
	}
	return &FirestoreLoader{client: client}
}

func (l *FirestoreLoader) Load(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot

	doc, err := l.client.Collection(companyCollection).Doc(companyDocument).Get(ctx)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("catalog: load company: %w", err)
	}
	if err == nil {
		if err := doc.DataTo(&snap.Company); err != nil {
			return nil, fmt.Errorf("catalog: decode company: %w", err)
		}
	}

	if err := collect(ctx, l.client.Collection(packagesCollection).Documents(ctx), func(d *firestore.DocumentSnapshot) error {
		var p Package
		if err := d.DataTo(&p); err != nil {
			return err
		}
		p.ID = d.Ref.ID
		snap.Packages = append(snap.Packages, p)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("catalog: load packages: %w", err)
	}

	categories := l.client.Collection(categoriesCollection).Where("active", "==", true).OrderBy("order", firestore.Asc)
	if err := collect(ctx, categories.Documents(ctx), func(d *firestore.DocumentSnapshot) error {
		var c MenuCategory
		if err := d.DataTo(&c); err != nil {
			return err
		}
		c.ID = d.Ref.ID
		snap.Categories = append(snap.Categories, c)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("catalog: load menu categories: %w", err)
	}

	if err := collect(ctx, l.client.Collection(itemsCollection).Documents(ctx), func(d *firestore.DocumentSnapshot) error {
		var item MenuItem
		if err := d.DataTo(&item); err != nil {
			return err
		}
		item.ID = d.Ref.ID
		snap.Items = append(snap.Items, item)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("catalog: load menu items: %w", err)
	}

	if err := snap.normalize(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func collect(ctx context.Context, it *firestore.DocumentIterator, fn func(*firestore.DocumentSnapshot) error) error {
	defer it.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
