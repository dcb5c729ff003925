package render

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/pgvanniekerk/ezrender/pkg/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVertexWGSL = `
struct Params {
    tint: vec4<f32>,
}

@group(0) @binding(0) var<uniform> params: Params;

@vertex
fn vs_main(@location(0) position: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 0.0, 1.0);
}
`

const testFragmentWGSL = `
struct Params {
    tint: vec4<f32>,
}

@group(0) @binding(0) var<uniform> params: Params;

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return params.tint;
}
`

func testProgramSource() ProgramSource {
	return ProgramSource{
		Name:       "solid",
		Vertex:     testVertexWGSL,
		Fragment:   testFragmentWGSL,
		Attributes: []string{"position"},
		Uniforms:   []string{"params"},
	}
}

func TestNewWGSLProgram(t *testing.T) {
	p, err := NewWGSLProgram(testProgramSource())
	require.NoError(t, err)

	assert.NotZero(t, p.ID())
	assert.Equal(t, "solid", p.Name())
	assert.Equal(t, testVertexWGSL, p.VertexSource())
	assert.Equal(t, testFragmentWGSL, p.FragmentSource())

	for _, spirv := range [][]byte{p.VertexSPIRV(), p.FragmentSPIRV()} {
		require.GreaterOrEqual(t, len(spirv), 4)
		assert.Equal(t, spirvMagic, binary.LittleEndian.Uint32(spirv))
	}

	attr, err := p.AttribLocation("position")
	require.NoError(t, err)
	assert.Equal(t, Attrib(0), attr)

	uni, err := p.UniformLocation("params")
	require.NoError(t, err)
	assert.Equal(t, Uniform(0), uni)

	require.NoError(t, p.Activate())
}

func TestNewWGSLProgram_UniqueIDs(t *testing.T) {
	a, err := NewWGSLProgram(testProgramSource())
	require.NoError(t, err)
	b, err := NewWGSLProgram(testProgramSource())
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
}

func TestNewWGSLProgram_MissingHandles(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ProgramSource)
		want   error
	}{
		{
			name:   "attribute",
			modify: func(s *ProgramSource) { s.Attributes = append(s.Attributes, "normal") },
			want:   ErrUnknownAttribute,
		},
		{
			name:   "uniform",
			modify: func(s *ProgramSource) { s.Uniforms = append(s.Uniforms, "transform") },
			want:   ErrUnknownUniform,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := testProgramSource()
			tt.modify(&src)

			p, err := NewWGSLProgram(src)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, command.ErrConfiguration)
			assert.ErrorIs(t, err, tt.want)

			var cfgErr *command.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.name, cfgErr.Resource)
		})
	}
}

func TestNewWGSLProgram_CompileFailure(t *testing.T) {
	src := testProgramSource()
	src.Fragment = "fn broken( -> {"

	p, err := NewWGSLProgram(src)
	require.Error(t, err)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, command.ErrConfiguration)

	var cfgErr *command.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "fragment shader", cfgErr.Resource)
	assert.Equal(t, "solid", cfgErr.Name)
}

func TestWGSLProgram_Release(t *testing.T) {
	p, err := NewWGSLProgram(testProgramSource())
	require.NoError(t, err)

	p.Release()
	p.Release()

	assert.ErrorIs(t, p.Activate(), ErrProgramReleased)
	assert.Nil(t, p.VertexSPIRV())
}

func lowerWGSL(t *testing.T, wgsl string) *ir.Module {
	t.Helper()
	ast, err := naga.Parse(wgsl)
	require.NoError(t, err)
	module, err := naga.LowerWithSource(ast, wgsl)
	require.NoError(t, err)
	return module
}

func TestReflectUniforms_GroupAndBinding(t *testing.T) {
	module := lowerWGSL(t, `
struct Camera {
    view: mat4x4<f32>,
}

@group(1) @binding(2) var<uniform> camera: Camera;

@vertex
fn vs_main() -> @builtin(position) vec4<f32> {
    return camera.view * vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`)
	uniforms := reflectUniforms(module)
	assert.Equal(t, Uniform(1<<8|2), uniforms["camera"])
}

func TestReflectAttributes_ArgumentsAndStructMembers(t *testing.T) {
	module := lowerWGSL(t, `
struct VertexIn {
    @location(3) color: vec4<f32>,
    @location(1) normal: vec3<f32>,
}

@vertex
fn vs_main(@location(2) uv: vec2<f32>, @location(0) position: vec3<f32>, vin: VertexIn) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position + vin.normal, uv.x) * vin.color;
}
`)
	attribs := reflectAttributes(module)
	assert.Equal(t, Attrib(2), attribs["uv"])
	assert.Equal(t, Attrib(0), attribs["position"])
	assert.Equal(t, Attrib(3), attribs["color"])
	assert.Equal(t, Attrib(1), attribs["normal"])
	assert.NotContains(t, attribs, "vin")
}

func TestNewWGSLProgram_CommentedHandlesAreMissing(t *testing.T) {
	src := testProgramSource()
	src.Vertex = testVertexWGSL + `
// @group(0) @binding(3) var<uniform> ghost: Params;
// fn unused(@location(5) normal: vec3<f32>) {}
`

	_, err := NewWGSLProgram(src)
	require.NoError(t, err)

	src.Uniforms = []string{"ghost"}
	p, err := NewWGSLProgram(src)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, command.ErrConfiguration)
	assert.ErrorIs(t, err, ErrUnknownUniform)

	src.Uniforms = nil
	src.Attributes = []string{"normal"}
	p, err = NewWGSLProgram(src)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, command.ErrConfiguration)
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}
