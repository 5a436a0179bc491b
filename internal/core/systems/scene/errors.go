package scene

import "errors"

var (
	ErrUnknownScene     = errors.New("unknown scene")
	ErrUnknownFormat    = errors.New("unknown scene file format")
	ErrUnknownShapeType = errors.New("unknown shape type")
	ErrUnknownBody      = errors.New("unknown body")
	ErrDuplicateBody    = errors.New("duplicate body name")
	ErrUnnamedBody      = errors.New("body has no name")
)
