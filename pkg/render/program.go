package render

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
	"github.com/pgvanniekerk/ezrender/pkg/command"
)

// Attrib is the location of a vertex attribute in a program.
type Attrib int32

// Uniform is the handle of a uniform in a program. It encodes the bind group in the
// high byte and the binding in the low byte.
type Uniform int32

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic uint32 = 0x07230203

// Program is a linked pair of shader stages that can be made current on a canvas.
type Program interface {

	// ID is unique per program for the lifetime of the process.
	ID() uint32

	// Activate prepares the program for use. Canvas.UseProgram calls it.
	Activate() error

	// AttribLocation resolves a vertex attribute by name.
	AttribLocation(name string) (Attrib, error)

	// UniformLocation resolves a uniform by name.
	UniformLocation(name string) (Uniform, error)

	// VertexSource returns the vertex stage source.
	VertexSource() string

	// FragmentSource returns the fragment stage source.
	FragmentSource() string
}

// ProgramSource describes a program to build. Attributes and Uniforms list the
// handles the caller depends on; building fails if any of them is missing.
type ProgramSource struct {
	Name       string
	Vertex     string
	Fragment   string
	Attributes []string
	Uniforms   []string
}

// WGSLProgram is a Program compiled from WGSL.
type WGSLProgram struct {
	id       uint32
	name     string
	source   ProgramSource
	vertex   []byte
	fragment []byte
	attribs  map[string]Attrib
	uniforms map[string]Uniform
	released *atomic.Bool
}

var nextProgramID atomic.Uint32

//region Implementation

func (p *WGSLProgram) ID() uint32 { return p.id }

func (p *WGSLProgram) Name() string { return p.name }

func (p *WGSLProgram) VertexSource() string { return p.source.Vertex }

func (p *WGSLProgram) FragmentSource() string { return p.source.Fragment }

// VertexSPIRV returns the compiled vertex stage.
func (p *WGSLProgram) VertexSPIRV() []byte { return p.vertex }

// FragmentSPIRV returns the compiled fragment stage.
func (p *WGSLProgram) FragmentSPIRV() []byte { return p.fragment }

// Activate fails once the program has been released.
func (p *WGSLProgram) Activate() error {
	if p.released.Load() {
		return fmt.Errorf("%w: %s", ErrProgramReleased, p.name)
	}
	return nil
}

// Release drops the compiled stages. A released program can no longer be activated.
func (p *WGSLProgram) Release() {
	if p.released.CompareAndSwap(false, true) {
		p.vertex = nil
		p.fragment = nil
	}
}

func (p *WGSLProgram) AttribLocation(name string) (Attrib, error) {
	loc, ok := p.attribs[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q in program %s", ErrUnknownAttribute, name, p.name)
	}
	return loc, nil
}

func (p *WGSLProgram) UniformLocation(name string) (Uniform, error) {
	loc, ok := p.uniforms[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q in program %s", ErrUnknownUniform, name, p.name)
	}
	return loc, nil
}

//endregion

//region Helpers

// compileStage lowers one WGSL stage to IR, validates it and generates SPIR-V.
// The IR is returned for reflection.
func compileStage(name, stage, wgsl string) ([]byte, *ir.Module, error) {
	fail := func(err error) ([]byte, *ir.Module, error) {
		return nil, nil, command.NewConfigurationError(stage+" shader", name, err)
	}

	ast, err := naga.Parse(wgsl)
	if err != nil {
		return fail(err)
	}
	module, err := naga.LowerWithSource(ast, wgsl)
	if err != nil {
		return fail(err)
	}
	invalid, err := naga.Validate(module)
	if err != nil {
		return fail(err)
	}
	if len(invalid) > 0 {
		return fail(invalid[0])
	}

	code, err := naga.GenerateSPIRV(module, spirv.Options{Version: spirv.Version1_3})
	if err != nil {
		return fail(err)
	}
	if len(code) < 4 || len(code)%4 != 0 || binary.LittleEndian.Uint32(code) != spirvMagic {
		return fail(ErrInvalidSPIRV)
	}
	return code, module, nil
}

// reflectAttributes collects the location-bound inputs of the vertex entry points,
// including the members of struct-typed inputs. The first location seen for a
// name wins.
func reflectAttributes(module *ir.Module) map[string]Attrib {
	attribs := make(map[string]Attrib)
	add := func(name string, b *ir.Binding) {
		if loc, ok := location(b); ok && name != "" {
			if _, seen := attribs[name]; !seen {
				attribs[name] = Attrib(loc)
			}
		}
	}

	for _, ep := range module.EntryPoints {
		if ep.Stage != ir.StageVertex {
			continue
		}
		for _, arg := range ep.Function.Arguments {
			if arg.Binding != nil {
				add(arg.Name, arg.Binding)
				continue
			}
			if int(arg.Type) >= len(module.Types) {
				continue
			}
			if st, ok := module.Types[arg.Type].Inner.(ir.StructType); ok {
				for _, member := range st.Members {
					add(member.Name, member.Binding)
				}
			}
		}
	}
	return attribs
}

// reflectUniforms collects the uniform-space globals of every module.
func reflectUniforms(modules ...*ir.Module) map[string]Uniform {
	uniforms := make(map[string]Uniform)
	for _, module := range modules {
		for _, gv := range module.GlobalVariables {
			if gv.Space != ir.SpaceUniform || gv.Binding == nil || gv.Name == "" {
				continue
			}
			uniforms[gv.Name] = Uniform(gv.Binding.Group<<8 | gv.Binding.Binding)
		}
	}
	return uniforms
}

// location extracts a user location from an IO binding.
func location(b *ir.Binding) (uint32, bool) {
	if b == nil {
		return 0, false
	}
	switch lb := (*b).(type) {
	case ir.LocationBinding:
		return lb.Location, true
	case *ir.LocationBinding:
		return lb.Location, true
	}
	return 0, false
}

//endregion

//region Constructor

// NewWGSLProgram compiles src and resolves every handle it lists. All failures are
// returned as a *command.ConfigurationError.
func NewWGSLProgram(src ProgramSource) (*WGSLProgram, error) {

	name := src.Name
	if name == "" {
		name = "program"
	}

	vertex, vertexIR, err := compileStage(name, "vertex", src.Vertex)
	if err != nil {
		return nil, err
	}
	fragment, fragmentIR, err := compileStage(name, "fragment", src.Fragment)
	if err != nil {
		return nil, err
	}

	p := &WGSLProgram{
		id:       nextProgramID.Add(1),
		name:     name,
		source:   src,
		vertex:   vertex,
		fragment: fragment,
		attribs:  reflectAttributes(vertexIR),
		uniforms: reflectUniforms(vertexIR, fragmentIR),
		released: &atomic.Bool{},
	}

	for _, attr := range src.Attributes {
		if _, err := p.AttribLocation(attr); err != nil {
			return nil, command.NewConfigurationError("attribute", attr, err)
		}
	}
	for _, uni := range src.Uniforms {
		if _, err := p.UniformLocation(uni); err != nil {
			return nil, command.NewConfigurationError("uniform", uni, err)
		}
	}

	return p, nil
}

//endregion
