package domain

// KeyMode selects how the digest part of a unit's cache key is derived.
type KeyMode string

const (
	// KeyModeTree derives the digest from the content of the unit's input subtrees.
	KeyModeTree KeyMode = "tree"
	// KeyModePinned takes the digest from an externally pinned revision.
	KeyModePinned KeyMode = "pinned"
)

// Unit represents one independently cached build unit of the product
// (CLI binary, native extension, parser tables, embedded engine, ...).
type Unit struct {
	Name InternedString

	Mode KeyMode

	// Inputs lists the subtrees or glob patterns whose content feeds the
	// cache key in tree mode.
	Inputs []InternedString

	// Repo is the local repository the pinned revision is resolved against.
	Repo InternedString

	// Revision is the pinned revision expression (branch, tag or sha).
	Revision InternedString

	// Build is the command invoked on a cache miss. It must write its
	// output into the staging directory passed via RELAY_OUTPUT.
	Build []string

	// Output is the directory under the working tree that receives the
	// unit's output, on hit and miss alike.
	Output InternedString

	Env map[string]string
}
