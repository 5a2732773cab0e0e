package index

import (
	"log/slog"
	"reflect"

	"github.com/Aman-CERP/siteindex/internal/content"
)

// EventKind is an entity lifecycle transition.
type EventKind int

const (
	EntityCreated EventKind = iota
	EntityUpdated
	EntityDeleted
)

// String implements fmt.Stringer.
func (k EventKind) String() string {
	switch k {
	case EntityCreated:
		return "created"
	case EntityUpdated:
		return "updated"
	case EntityDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Event reports that an entity changed in the store.
type Event struct {
	Kind   EventKind
	Entity content.Entity
}

// Dispatch applies ev to every index whose entity type matches the entity's
// runtime type. A soft-deleted entity is removed on update and never
// inserted on create. Site-scoped entities of other sites are ignored.
func (s *Service) Dispatch(ev Event) []Result {
	if ev.Entity == nil {
		return nil
	}
	if se, ok := ev.Entity.(content.SiteEntity); ok && se.OwnerSiteID() != s.site.ID {
		return nil
	}

	kind := ev.Kind
	if ev.Entity.SoftDeleted() {
		switch kind {
		case EntityCreated:
			s.logger.Debug("index_event_skipped",
				slog.String("event", kind.String()),
				slog.Int64("entity_id", ev.Entity.EntityID()))
			return nil
		case EntityUpdated:
			kind = EntityDeleted
		}
	}

	entityType := reflect.TypeOf(ev.Entity)
	var results []Result
	for _, m := range s.Managers() {
		if m.EntityType() != entityType {
			continue
		}

		var r Result
		switch kind {
		case EntityCreated:
			r = m.InsertAny(ev.Entity)
		case EntityUpdated:
			r = m.UpdateAny(ev.Entity)
		case EntityDeleted:
			r = m.DeleteAny(ev.Entity)
		default:
			continue
		}

		if !r.Success {
			s.logger.Warn("index_event_failed",
				slog.String("index", m.IndexName()),
				slog.String("event", kind.String()),
				slog.Int64("entity_id", ev.Entity.EntityID()))
		}
		results = append(results, r)
	}
	return results
}
