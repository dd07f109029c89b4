package ports

// Syncer mirrors directory trees between staging, cache and working tree.
type Syncer interface {
	// Mirror makes dst an exact copy of src: contents are copied and files
	// present only in dst are removed.
	Mirror(src, dst string) error
}
