// Package catalog holds the read-only reference data the bot renders and feeds
// to the generator: the company profile, the wash package list and the
// optional bar menu.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrNoPackages is returned by loaders when the package list is empty.
var ErrNoPackages = errors.New("catalog: no wash packages configured")

// ErrDuplicatePackageID is returned when two packages share an id.
var ErrDuplicatePackageID = errors.New("catalog: duplicate package id")

// VehicleSize selects the price column of a package.
type VehicleSize string

const (
	SizeSmall  VehicleSize = "small"
	SizeMedium VehicleSize = "medium"
	SizeLarge  VehicleSize = "large"
)

// Label returns the customer-facing Spanish name with its emoji.
func (s VehicleSize) Label() string {
	switch s {
	case SizeSmall:
		return "Pequeño 🚗"
	case SizeMedium:
		return "Mediano 🚙"
	case SizeLarge:
		return "Grande 🚐"
	default:
		return string(s)
	}
}

// Name is the label without its emoji.
func (s VehicleSize) Name() string {
	switch s {
	case SizeSmall:
		return "Pequeño"
	case SizeMedium:
		return "Mediano"
	case SizeLarge:
		return "Grande"
	default:
		return string(s)
	}
}

// Valid reports whether s is one of the three known sizes.
func (s VehicleSize) Valid() bool {
	return s == SizeSmall || s == SizeMedium || s == SizeLarge
}

// Prices is the per-size price table of a package.
type Prices struct {
	Small  float64 `yaml:"small" json:"small" firestore:"small"`
	Medium float64 `yaml:"medium" json:"medium" firestore:"medium"`
	Large  float64 `yaml:"large" json:"large" firestore:"large"`
}

// For returns the price for size, or zero for an unknown size.
func (p Prices) For(size VehicleSize) float64 {
	switch size {
	case SizeSmall:
		return p.Small
	case SizeMedium:
		return p.Medium
	case SizeLarge:
		return p.Large
	default:
		return 0
	}
}

// FormatPrice renders a price the way the shop quotes it: "$650", "$12.50".
func FormatPrice(v float64) string {
	if v == math.Trunc(v) {
		return "$" + strconv.FormatFloat(v, 'f', 0, 64)
	}
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

type Package struct {
	ID          string   `yaml:"id" json:"id" firestore:"-"`
	Name        string   `yaml:"name" json:"name" firestore:"name"`
	Description string   `yaml:"description" json:"description" firestore:"description"`
	Prices      Prices   `yaml:"prices" json:"prices" firestore:"prices"`
	Services    []string `yaml:"services" json:"services" firestore:"services"`
	Popular     bool     `yaml:"popular" json:"popular" firestore:"popular"`
	Order       int      `yaml:"order" json:"order" firestore:"order"`
}

type MenuCategory struct {
	ID     string `yaml:"id" json:"id" firestore:"-"`
	Name   string `yaml:"name" json:"name" firestore:"name"`
	Order  int    `yaml:"order" json:"order" firestore:"order"`
	Active bool   `yaml:"active" json:"active" firestore:"active"`
}

type MenuItem struct {
	ID          string  `yaml:"id" json:"id" firestore:"-"`
	Category    string  `yaml:"category" json:"category" firestore:"category"`
	Name        string  `yaml:"name" json:"name" firestore:"name"`
	Description string  `yaml:"description" json:"description" firestore:"description"`
	Price       float64 `yaml:"price" json:"price" firestore:"price"`
	Available   bool    `yaml:"available" json:"available" firestore:"available"`
}

type Location struct {
	Address string `yaml:"address" json:"address" firestore:"address"`
	City    string `yaml:"city" json:"city" firestore:"city"`
}

type Contact struct {
	Phone     string `yaml:"phone" json:"phone" firestore:"phone"`
	Email     string `yaml:"email" json:"email" firestore:"email"`
	Instagram string `yaml:"instagram" json:"instagram" firestore:"instagram"`
}

type Hours struct {
	Weekdays string `yaml:"weekdays" json:"weekdays" firestore:"monday"`
	Saturday string `yaml:"saturday" json:"saturday" firestore:"saturday"`
	Sunday   string `yaml:"sunday" json:"sunday" firestore:"sunday"`
}

// Company is the business profile shown in location replies and prompts.
type Company struct {
	Name        string   `yaml:"name" json:"name" firestore:"name"`
	Description string   `yaml:"description" json:"description" firestore:"description"`
	Mission     string   `yaml:"mission" json:"mission" firestore:"mission"`
	Vision      string   `yaml:"vision" json:"vision" firestore:"vision"`
	Values      []string `yaml:"values" json:"values" firestore:"values"`
	Services    []string `yaml:"services" json:"services" firestore:"services"`
	Location    Location `yaml:"location" json:"location" firestore:"location"`
	Contact     Contact  `yaml:"contact" json:"contact" firestore:"contact"`
	Hours       Hours    `yaml:"hours" json:"hours" firestore:"hours"`
	BarMenuURL  string   `yaml:"bar_menu_url" json:"bar_menu_url" firestore:"barMenuUrl"`
}

// DefaultCompany is used field by field wherever the stored profile is blank.
var DefaultCompany = Company{
	Name:        "Auto Clinic RD",
	Description: "Especialistas en detailing y car wash",
	Mission:     "Proporcionar servicios de detailing de alta calidad",
	Vision:      "Convertirnos en el proveedor líder de servicios",
	Values:      []string{"Calidad", "Integridad", "Innovación", "Servicio al cliente"},
	Services: []string{
		"Lavado detallado", "Ceramic Pro", "PPF", "Lavado de interiores",
		"Laminados", "Brillado", "Diagnósticos", "Mantenimiento preventivo",
	},
	Location: Location{
		Address: "Av. Pdte. Antonio Guzmán Fernández 23",
		City:    "San Francisco de Macorís 31000",
	},
	Contact: Contact{
		Phone:     "809-244-0055",
		Email:     "Autoclinicsfm@gmail.com",
		Instagram: "@autoclinic_rd",
	},
	Hours: Hours{
		Weekdays: "8:00 AM - 6:00 PM",
		Saturday: "8:00 AM - 5:00 PM",
		Sunday:   "9:00 AM - 3:00 PM",
	},
	BarMenuURL: "https://autoclinicrd.com/bar",
}

// WithDefaults fills every blank field from DefaultCompany.
func (c Company) WithDefaults() Company {
	d := DefaultCompany
	pick := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	c.Name = pick(c.Name, d.Name)
	c.Description = pick(c.Description, d.Description)
	c.Mission = pick(c.Mission, d.Mission)
	c.Vision = pick(c.Vision, d.Vision)
	if len(c.Values) == 0 {
		c.Values = d.Values
	}
	if len(c.Services) == 0 {
		c.Services = d.Services
	}
	c.Location.Address = pick(c.Location.Address, d.Location.Address)
	c.Location.City = pick(c.Location.City, d.Location.City)
	c.Contact.Phone = pick(c.Contact.Phone, d.Contact.Phone)
	c.Contact.Email = pick(c.Contact.Email, d.Contact.Email)
	c.Contact.Instagram = pick(c.Contact.Instagram, d.Contact.Instagram)
	c.Hours.Weekdays = pick(c.Hours.Weekdays, d.Hours.Weekdays)
	c.Hours.Saturday = pick(c.Hours.Saturday, d.Hours.Saturday)
	c.Hours.Sunday = pick(c.Hours.Sunday, d.Hours.Sunday)
	c.BarMenuURL = pick(c.BarMenuURL, d.BarMenuURL)
	return c
}

// Snapshot is loaded once at startup and shared read-only afterwards.
type Snapshot struct {
	Company    Company        `yaml:"company"`
	Packages   []Package      `yaml:"packages"`
	Categories []MenuCategory `yaml:"menu_categories"`
	Items      []MenuItem     `yaml:"menu_items"`
}

// PackageAt resolves a 1-based list position.
func (s *Snapshot) PackageAt(position int) (Package, bool) {
	if s == nil || position < 1 || position > len(s.Packages) {
		return Package{}, false
	}
	return s.Packages[position-1], true
}

// PackageByID finds a package by its identifier.
func (s *Snapshot) PackageByID(id string) (Package, bool) {
	if s == nil {
		return Package{}, false
	}
	for _, p := range s.Packages {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}

// ActiveCategories returns active categories sorted by Order.
func (s *Snapshot) ActiveCategories() []MenuCategory {
	if s == nil {
		return nil
	}
	out := make([]MenuCategory, 0, len(s.Categories))
	for _, c := range s.Categories {
		if c.Active {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// AvailableItems returns the available items of one category.
func (s *Snapshot) AvailableItems(categoryID string) []MenuItem {
	if s == nil {
		return nil
	}
	var out []MenuItem
	for _, item := range s.Items {
		if item.Category == categoryID && item.Available {
			out = append(out, item)
		}
	}
	return out
}

// normalize sorts packages, applies company defaults and validates. A package
// without an id gets one from its 1-based position after sorting; ids must be
// unique once assigned.
func (s *Snapshot) normalize() error {
	s.Company = s.Company.WithDefaults()
	if len(s.Packages) == 0 {
		return ErrNoPackages
	}
	sort.SliceStable(s.Packages, func(i, j int) bool { return s.Packages[i].Order < s.Packages[j].Order })

	seen := make(map[string]struct{}, len(s.Packages))
	for i := range s.Packages {
		p := &s.Packages[i]
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			p.ID = "paquete-" + strconv.Itoa(i+1)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicatePackageID, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

// Loader produces a whole reference-data snapshot.
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}
