package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoaderReadsSnapshot(t *testing.T) {
	snap, err := NewFileLoader(filepath.Join("testdata", "catalog.yaml")).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Packages, 3)
	first, ok := snap.PackageAt(1)
	require.True(t, ok)
	assert.Equal(t, "detailing-basico", first.ID)
	assert.Equal(t, 650.0, first.Prices.For(SizeMedium))

	premium, ok := snap.PackageByID("detailing-premium")
	require.True(t, ok)
	assert.True(t, premium.Popular)

	cats := snap.ActiveCategories()
	require.Len(t, cats, 2)
	assert.Equal(t, "bebidas", cats[0].ID)
	assert.Len(t, snap.AvailableItems("bebidas"), 2)
}

func TestParseSortsPackagesAndFillsDefaults(t *testing.T) {
	raw := []byte(`
packages:
  - {id: b, name: B, order: 2, prices: {small: 2, medium: 3, large: 4}}
  - {id: a, name: A, order: 1, prices: {small: 1, medium: 1, large: 1}}
`)
	snap, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "a", snap.Packages[0].ID)
	assert.Equal(t, "Auto Clinic RD", snap.Company.Name)
	assert.Equal(t, "809-244-0055", snap.Company.Contact.Phone)
	assert.Equal(t, "9:00 AM - 3:00 PM", snap.Company.Hours.Sunday)
}

func TestParseRejectsEmptyPackageList(t *testing.T) {
	_, err := Parse([]byte("company: {name: X}\n"))
	assert.True(t, errors.Is(err, ErrNoPackages))
}

func TestParseAssignsPositionIDsToPackagesWithoutID(t *testing.T) {
	raw := []byte(`
packages:
  - {name: Básico, order: 1, prices: {small: 500, medium: 650, large: 800}}
  - {name: Premium, order: 2, prices: {small: 900, medium: 1100, large: 1300}}
`)
	snap, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "paquete-1", snap.Packages[0].ID)
	assert.Equal(t, "paquete-2", snap.Packages[1].ID)

	p, ok := snap.PackageByID(snap.Packages[1].ID)
	require.True(t, ok)
	assert.Equal(t, "Premium", p.Name)
}

func TestParseRejectsDuplicatePackageIDs(t *testing.T) {
	raw := []byte(`
packages:
  - {id: full, name: A, order: 1, prices: {small: 1, medium: 1, large: 1}}
  - {id: full, name: B, order: 2, prices: {small: 2, medium: 2, large: 2}}
`)
	_, err := Parse(raw)
	assert.True(t, errors.Is(err, ErrDuplicatePackageID))
}

func TestPackageAtBounds(t *testing.T) {
	snap := &Snapshot{Packages: []Package{{ID: "only"}}}
	for _, pos := range []int{0, -1, 2} {
		_, ok := snap.PackageAt(pos)
		assert.False(t, ok, "position %d", pos)
	}
	var nilSnap *Snapshot
	_, ok := nilSnap.PackageAt(1)
	assert.False(t, ok)
}

func TestPricesFor(t *testing.T) {
	p := Prices{Small: 10, Medium: 20, Large: 30}
	assert.Equal(t, 10.0, p.For(SizeSmall))
	assert.Equal(t, 20.0, p.For(SizeMedium))
	assert.Equal(t, 30.0, p.For(SizeLarge))
	assert.Equal(t, 0.0, p.For(VehicleSize("xl")))
}

func TestCompanyWithDefaultsKeepsStoredValues(t *testing.T) {
	c := Company{Name: "Otra", Contact: Contact{Phone: "809-000-0000"}}.WithDefaults()
	assert.Equal(t, "Otra", c.Name)
	assert.Equal(t, "809-000-0000", c.Contact.Phone)
	assert.Equal(t, DefaultCompany.Contact.Email, c.Contact.Email)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$650", FormatPrice(650))
	assert.Equal(t, "$12.50", FormatPrice(12.5))
	assert.Equal(t, "$0", FormatPrice(0))
}
