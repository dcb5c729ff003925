package render

import "errors"

var (
	// ErrForeignCanvas is returned when a command bound to one canvas is executed
	// against another.
	ErrForeignCanvas = errors.New("render: command executed against a canvas it is not bound to")

	// ErrNoActiveProgram is returned by uniform operations when no program is active.
	ErrNoActiveProgram = errors.New("render: no active program")

	// ErrUnknownUniform is returned when the active program has no uniform with the requested name.
	ErrUnknownUniform = errors.New("render: unknown uniform")

	// ErrUnknownAttribute is returned when a program has no vertex attribute with the requested name.
	ErrUnknownAttribute = errors.New("render: unknown attribute")

	// ErrNilProgram is returned when a nil program is made current.
	ErrNilProgram = errors.New("render: nil program")

	// ErrProgramReleased is returned when a released program is activated.
	ErrProgramReleased = errors.New("render: program released")

	// ErrDegeneratePolygon is returned for polygons with fewer than three points.
	ErrDegeneratePolygon = errors.New("render: polygon needs at least three points")

	// ErrInvalidSPIRV is returned when the shader compiler output is not a SPIR-V module.
	ErrInvalidSPIRV = errors.New("render: compiler output is not SPIR-V")
)
