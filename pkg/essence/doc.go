// Package essence renders content essences as view or editor fragments.
//
// A Content is a named slot inside an Element. It points at an Essence, the
// typed value object (text, rich text, picture, link, ...) that holds the
// actual payload. The Renderer resolves a Content to its Essence and renders
// the partial named by convention "essences/<partial-name>_<part>", where
// part is either "view" (read-only) or "editor" (form fragment).
//
// Absence is an expected state. A nil Content, or a Content whose essence
// reference dangles, renders as an empty string; in the editor part a warning
// is emitted through the configured Warner as well. Template failures are
// returned to the caller as *RenderError.
//
// Settings and Options
//
// Contents carry a Settings map and callers pass Options at render time.
// ValueFromSettingsOrOptions resolves a key by preferring Options over
// Settings. Keys are normalized at the map boundary so that a symbol-style
// key (":css_class") and a plain string key ("css_class") address the same
// value.
//
// Repositories (memory, Postgres) and picture stores (memory, filesystem,
// S3) live under subpackages.
package essence
