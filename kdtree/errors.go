package kdtree

import "errors"

var (
	ErrAlreadyBuilt  = errors.New("kdtree: tree already built")
	ErrCompoundShape = errors.New("kdtree: cannot add compound shapes - expand them first")
	ErrNoShapes      = errors.New("kdtree: no shapes registered")
	ErrNoBuilder     = errors.New("kdtree: no tree builder supplied")
	ErrNotBuilt      = errors.New("kdtree: tree not built")
	ErrTreeTooDeep   = errors.New("kdtree: built tree deeper than the traversal stacks support")
)
