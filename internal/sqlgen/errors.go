package sqlgen

import (
	"errors"
	"fmt"

	"github.com/omerida/dokuwiki-strata/internal/query"
)

// ErrAliasCollision is returned when an alias would be recorded twice in the
// parameter or projection table of one translation.
var ErrAliasCollision = errors.New("alias collision")

// CompileError reports the node whose translation failed. The returned SQL
// of a failed translation must never be executed, so Translate returns no
// Translation alongside it.
type CompileError struct {
	Node query.Node
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s node: %v", query.Kind(e.Node), e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// IsUnknownNodeKind reports whether err was caused by a malformed tree.
func IsUnknownNodeKind(err error) bool {
	return errors.Is(err, query.ErrUnknownNodeKind)
}
