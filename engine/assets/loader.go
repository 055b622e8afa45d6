package assets

import "github.com/spaghettifunk/volchara/engine/assets/loaders"

// Loader decodes one kind of file. Implementations must be safe to call from
// any goroutine.
type Loader interface {
	Load(path string) (*loaders.Resource, error)
}
