// Package content defines the CMS entities that are projected into search indexes.
// Entities are owned by the entity store; indexes only hold disposable copies.
package content

import "time"

// Entity is a persisted domain object with a stable identity and a soft-delete flag.
type Entity interface {
	// EntityID returns the stable identity of the entity.
	EntityID() int64
	// SoftDeleted reports whether the entity is logically deleted.
	SoftDeleted() bool
}

// SiteEntity is an entity owned by a single site.
// Indexes for site-scoped entity types only contain rows of their own site.
type SiteEntity interface {
	Entity
	// OwnerSiteID returns the ID of the site owning the entity.
	OwnerSiteID() int64
}

// Site is a deployment site. Every index lives under exactly one site.
type Site struct {
	ID      int64
	Name    string
	BaseURL string
}

// Webpage is a page of site content.
type Webpage struct {
	ID           int64
	SiteID       int64
	Title        string
	URLSegment   string
	BodyContent  string
	DocumentType string
	PublishOn    *time.Time
	IsDeleted    bool
	CreatedOn    time.Time
	UpdatedOn    time.Time
}

func (w *Webpage) EntityID() int64    { return w.ID }
func (w *Webpage) SoftDeleted() bool  { return w.IsDeleted }
func (w *Webpage) OwnerSiteID() int64 { return w.SiteID }

// Published reports whether the page is visible at the given time.
func (w *Webpage) Published(at time.Time) bool {
	return w.PublishOn != nil && !w.PublishOn.After(at)
}

// Product is a catalogue item sold on a site.
type Product struct {
	ID          int64
	SiteID      int64
	Name        string
	SKU         string
	Description string
	Price       float64
	IsDeleted   bool
	CreatedOn   time.Time
	UpdatedOn   time.Time
}

func (p *Product) EntityID() int64    { return p.ID }
func (p *Product) SoftDeleted() bool  { return p.IsDeleted }
func (p *Product) OwnerSiteID() int64 { return p.SiteID }

// User is a system-wide account. Users are not owned by a site.
type User struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	IsActive  bool
	IsDeleted bool
	CreatedOn time.Time
	UpdatedOn time.Time
}

func (u *User) EntityID() int64   { return u.ID }
func (u *User) SoftDeleted() bool { return u.IsDeleted }

// Name returns the display name of the user.
func (u *User) Name() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// IsSiteScoped reports whether entities of e's type are filtered by site.
func IsSiteScoped(e Entity) bool {
	_, ok := e.(SiteEntity)
	return ok
}
