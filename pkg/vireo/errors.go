package vireo

import "errors"

// ErrUnknownCodec is returned by NewCodec for an unrecognized codec name.
var ErrUnknownCodec = errors.New("vireo: unknown codec")

// Note on misuse: operating on a disposed scope handle, disposing twice, and
// requesting hydration keys in mismatched order are deliberately NOT errors.
// The core degrades to silent no-ops in favor of forward progress; see the
// package documentation. Misuse of a disposed handle is still observable at
// debug level through the Runtime's logger.
