// Package index manages the lifecycle of per-site full-text indexes.
//
// Each content type is described by a Definition, which projects entities
// into documents and owns the cached Searcher shared across sites. A Manager
// binds one Definition to one site's Directory and keeps the index in sync
// with the entity store: Insert appends, Update replaces an existing document
// and otherwise does nothing, Delete is idempotent and ReIndex rebuilds from
// the live entities. The Service registers every Manager for a site and
// routes entity events to them.
//
// Only one write session may be open per index at a time. Writers take an
// advisory file lock next to the index and fail fast with
// ERR_207_INDEX_LOCKED when another process holds it.
package index
