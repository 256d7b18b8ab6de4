package constants

const (
	// Sentinel for location fields that have not been geocoded or
	// hand-corrected yet. Weaker than any real value during merges.
	Unknown = "Unknown"

	// Session Keys
	SessionKeyAuthenticated = "authenticated"

	// Layout emitted in generated front matter, consumed by the static site.
	PostLayout = "coffee_post"

	// Defaults, overridable via config.yml
	DefaultDatabasePath = "coffee_posts.db"
	DefaultPostsDir     = "_coffee_posts"
	DefaultBackupDir    = "_backups"
)

// CafeNamePlaceholders are values that look like cafe names in imported
// data but carry no information (hashtag terms, literal null strings).
// A record whose cafe name is one of these scores as if it had none.
var CafeNamePlaceholders = map[string]bool{
	"":                true,
	"Unknown":         true,
	"None":            true,
	"worldcoffee":     true,
	"Worldcoffeetour": true,
}
