// Package model holds the format-agnostic representation of the entity
// graph: kinds, records emitted by loaders, merged entities, and the
// resolved graph view the downstream stages operate on. Loaders translate
// their source formats into these types; nothing here knows about HCL,
// TOML, or the filesystem.
package model
