package engine

import (
	"fmt"
	"strings"

	"github.com/ahlgreen/isofield/pkg/csg"
	"github.com/ahlgreen/isofield/pkg/volume"
	zygo "github.com/glycerine/zygomys/zygo"
	"gonum.org/v1/gonum/spatial/r3"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms volume-script Lisp source before passing
// it to zygomys:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal),
//     avoiding keyword globals that would collide with user variables.
//  2. Comment conversion: ; line comments become the // form zygomys
//     expects.
//
// Both transformations respect string literal boundaries.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to the // form.
		if b[i] == ';' {
			result = append(result, '/', '/')
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword", preserving := assignment.
		if b[i] == ':' && i+1 < len(b) && b[i+1] != '=' && isLetter(b[i+1]) {
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			result = append(result, '"')
			result = append(result, []byte(kwPrefix)...)
			result = append(result, b[i+1:j]...)
			result = append(result, '"')
			i = j
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string, returning
// the keyword name without the prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword
// argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an int from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a bool from a SexpBool.
func toBool(s zygo.Sexp) (bool, error) {
	if v, ok := s.(*zygo.SexpBool); ok {
		return v.Val, nil
	}
	return false, fmt.Errorf("expected bool, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts an r3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (r3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return r3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toSource extracts a density source from a grid or source wrapper.
func toSource(s zygo.Sexp) (volume.Source, error) {
	switch v := s.(type) {
	case *sexpGrid:
		return v.gs, nil
	case *sexpSource:
		return v.src, nil
	}
	return nil, fmt.Errorf("expected density source, got %T (%s)", s, s.SexpString(nil))
}

// toOperation extracts an operation source from a sexpOp.
func toOperation(s zygo.Sexp) (volume.OperationSource, error) {
	if v, ok := s.(*sexpOp); ok {
		return v.op, nil
	}
	return nil, fmt.Errorf("expected CSG operation, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps an r3.Vec.
type sexpVec3 struct {
	vec r3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpGrid wraps a named grid source.
type sexpGrid struct {
	name string
	gs   *volume.GridSource
}

func (g *sexpGrid) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(grid %q %dx%dx%d)", g.name, g.gs.Width(), g.gs.Height(), g.gs.Depth())
}
func (g *sexpGrid) Type() *zygo.RegisteredType { return nil }

// sexpSource wraps a procedural density source.
type sexpSource struct {
	desc string
	src  volume.Source
}

func (s *sexpSource) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(source %s)", s.desc)
}
func (s *sexpSource) Type() *zygo.RegisteredType { return nil }

// sexpOp wraps a CSG operation source.
type sexpOp struct {
	desc string
	op   volume.OperationSource
}

func (o *sexpOp) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(operation %s)", o.desc)
}
func (o *sexpOp) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Build context
// ---------------------------------------------------------------------------

// buildContext accumulates the grids a script builds.
type buildContext struct {
	grids map[string]*volume.GridSource
}

func newBuildContext() *buildContext {
	return &buildContext{grids: make(map[string]*volume.GridSource)}
}

func (c *buildContext) result() *Result {
	return &Result{Grids: c.grids}
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the volume DSL builtins into a zygomys
// environment. The builtins populate the provided build context.
//
// Source code must be preprocessed with preprocessSource() first so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, c *buildContext) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}
		return &sexpVec3{vec: r3.Vec{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (grid :name "main" :width 16 :height 16 :depth 16 :world-size 15.0
	//       :trilinear-value true :trilinear-gradient true :sobel-gradient false)
	// -----------------------------------------------------------------------
	env.AddFunction("grid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		gridName := "main"
		width, height, depth := 16, 16, 16
		mode := volume.SamplingMode{TrilinearValue: true, TrilinearGradient: true}

		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: name: %w", err)
			}
			gridName = s
		}
		if v, ok := pa.kw["width"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: width: %w", err)
			}
			width = n
		}
		if v, ok := pa.kw["height"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: height: %w", err)
			}
			height = n
		}
		if v, ok := pa.kw["depth"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: depth: %w", err)
			}
			depth = n
		}
		if width < 2 || height < 2 || depth < 2 {
			return zygo.SexpNull, fmt.Errorf("grid: dimensions %dx%dx%d, need at least 2 per axis", width, height, depth)
		}
		if v, ok := pa.kw["trilinear-value"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: trilinear-value: %w", err)
			}
			mode.TrilinearValue = b
		}
		if v, ok := pa.kw["trilinear-gradient"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: trilinear-gradient: %w", err)
			}
			mode.TrilinearGradient = b
		}
		if v, ok := pa.kw["sobel-gradient"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("grid: sobel-gradient: %w", err)
			}
			mode.SobelGradient = b
		}

		// World extent defaults to dim-1 per axis (unit scale).
		ws := r3.Vec{X: float64(width - 1), Y: float64(height - 1), Z: float64(depth - 1)}
		if v, ok := pa.kw["world-size"]; ok {
			switch sz := v.(type) {
			case *sexpVec3:
				ws = sz.vec
			default:
				f, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("grid: world-size: %w", err)
				}
				ws = r3.Vec{X: f, Y: f, Z: f}
			}
		}
		if ws.X <= 0 || ws.Y <= 0 || ws.Z <= 0 {
			return zygo.SexpNull, fmt.Errorf("grid: world-size must be positive on every axis, got %v", ws)
		}

		if _, exists := c.grids[gridName]; exists {
			return zygo.SexpNull, fmt.Errorf("grid: %q already defined", gridName)
		}

		sx := float64(width-1) / ws.X
		scale := volume.ScaleTransform{
			X:             sx,
			Y:             float64(height-1) / ws.Y,
			Z:             float64(depth-1) / ws.Z,
			VolumeToWorld: 1 / sx,
		}
		gs := volume.NewGridSource(volume.NewGrid(width, height, depth), scale, mode)
		c.grids[gridName] = gs

		return &sexpGrid{name: gridName, gs: gs}, nil
	})

	// -----------------------------------------------------------------------
	// (volume "main") looks up a previously defined grid
	// -----------------------------------------------------------------------
	env.AddFunction("volume", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("volume requires a name argument")
		}
		gridName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("volume: name: %w", err)
		}
		gs, ok := c.grids[gridName]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("volume: no grid named %q", gridName)
		}
		return &sexpGrid{name: gridName, gs: gs}, nil
	})

	// -----------------------------------------------------------------------
	// (fill (volume "main") 1.5)
	// -----------------------------------------------------------------------
	env.AddFunction("fill", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("fill requires a grid and a value")
		}
		g, ok := args[0].(*sexpGrid)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("fill: expected grid, got %T", args[0])
		}
		v, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fill: value: %w", err)
		}
		g.gs.Grid().Fill(v)
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (sphere :center (vec3 8 8 8) :radius 5)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		center := r3.Vec{}
		radius := 1.0

		if v, ok := pa.kw["center"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere: center: %w", err)
			}
			center = vec
		}
		if v, ok := pa.kw["radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
			}
			radius = f
		}
		if radius <= 0 {
			return zygo.SexpNull, fmt.Errorf("sphere: radius must be positive, got %v", radius)
		}
		return &sexpSource{desc: "sphere", src: csg.NewSphere(center, radius)}, nil
	})

	// -----------------------------------------------------------------------
	// (plane :normal (vec3 0 0 1) :distance 4)
	// -----------------------------------------------------------------------
	env.AddFunction("plane", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		normal := r3.Vec{Z: 1}
		distance := 0.0

		if v, ok := pa.kw["normal"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("plane: normal: %w", err)
			}
			normal = vec
		}
		if v, ok := pa.kw["distance"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("plane: distance: %w", err)
			}
			distance = f
		}
		if normal == (r3.Vec{}) {
			return zygo.SexpNull, fmt.Errorf("plane: normal must be non-zero")
		}
		return &sexpSource{desc: "plane", src: csg.NewPlane(normal, distance)}, nil
	})

	// -----------------------------------------------------------------------
	// (noise :seed 42 :frequency 0.5 :amplitude 1.0 :octaves 4
	//        :persistence 0.5 :lacunarity 2.0)
	// -----------------------------------------------------------------------
	env.AddFunction("noise", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		params := csg.DefaultNoiseParams(0)

		if v, ok := pa.kw["seed"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("noise: seed: %w", err)
			}
			params.Seed = int64(n)
		}
		if v, ok := pa.kw["frequency"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("noise: frequency: %w", err)
			}
			params.Frequency = f
		}
		if v, ok := pa.kw["amplitude"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("noise: amplitude: %w", err)
			}
			params.Amplitude = f
		}
		if v, ok := pa.kw["octaves"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("noise: octaves: %w", err)
			}
			params.Octaves = n
		}
		if v, ok := pa.kw["persistence"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("noise: persistence: %w", err)
			}
			params.Persistence = f
		}
		if v, ok := pa.kw["lacunarity"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("noise: lacunarity: %w", err)
			}
			params.Lacunarity = f
		}
		return &sexpSource{desc: "noise", src: csg.NewNoise(params)}, nil
	})

	// -----------------------------------------------------------------------
	// (scaled src 0.5) and (negated src)
	// -----------------------------------------------------------------------
	env.AddFunction("scaled", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("scaled requires a source and a factor")
		}
		src, err := toSource(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scaled: %w", err)
		}
		factor, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scaled: factor: %w", err)
		}
		return &sexpSource{desc: "scaled", src: csg.NewScale(src, factor)}, nil
	})

	env.AddFunction("negated", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("negated requires a source")
		}
		src, err := toSource(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("negated: %w", err)
		}
		return &sexpSource{desc: "negated", src: csg.NewNegate(src)}, nil
	})

	// -----------------------------------------------------------------------
	// CSG operations: zero arguments for use with combine, or two
	// sources to build a composed source directly.
	//
	//   (combine g (union) ball :center (vec3 8 8 8) :radius 5)
	//   (union ball (plane :distance 2))
	// -----------------------------------------------------------------------
	type opCtor struct {
		name string
		make func(a, b volume.Source) volume.OperationSource
	}
	ops := []opCtor{
		{"union", func(a, b volume.Source) volume.OperationSource { return csg.NewUnion(a, b) }},
		{"intersection", func(a, b volume.Source) volume.OperationSource { return csg.NewIntersection(a, b) }},
		{"difference", func(a, b volume.Source) volume.OperationSource { return csg.NewDifference(a, b) }},
		{"plus", func(a, b volume.Source) volume.OperationSource { return csg.NewPlus(a, b) }},
		{"minus", func(a, b volume.Source) volume.OperationSource { return csg.NewMinus(a, b) }},
	}
	for _, ctor := range ops {
		ctor := ctor
		env.AddFunction(ctor.name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			switch len(args) {
			case 0:
				return &sexpOp{desc: ctor.name, op: ctor.make(nil, nil)}, nil
			case 2:
				a, err := toSource(args[0])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: first source: %w", ctor.name, err)
				}
				b, err := toSource(args[1])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: second source: %w", ctor.name, err)
				}
				return &sexpSource{desc: ctor.name, src: ctor.make(a, b)}, nil
			}
			return zygo.SexpNull, fmt.Errorf("%s takes zero or two sources, got %d arguments", ctor.name, len(args))
		})
	}

	// -----------------------------------------------------------------------
	// (combine grid operation source :center (vec3 8 8 8) :radius 5)
	// center and radius are in grid-index space.
	// -----------------------------------------------------------------------
	env.AddFunction("combine", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 3 {
			return zygo.SexpNull, fmt.Errorf("combine requires a grid, an operation and a source")
		}
		g, ok := pa.positional[0].(*sexpGrid)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("combine: expected grid, got %T", pa.positional[0])
		}
		op, err := toOperation(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("combine: %w", err)
		}
		src, err := toSource(pa.positional[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("combine: %w", err)
		}

		v, ok := pa.kw["center"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("combine: :center is required")
		}
		center, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("combine: center: %w", err)
		}
		v, ok = pa.kw["radius"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("combine: :radius is required")
		}
		radius, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("combine: radius: %w", err)
		}
		if radius <= 0 {
			return zygo.SexpNull, fmt.Errorf("combine: radius must be positive, got %v", radius)
		}

		g.gs.CombineWithSource(op, src, center, radius)
		return pa.positional[0], nil
	})

	// -----------------------------------------------------------------------
	// (sample grid (vec3 1 2 3)) queries the density at a world position
	// -----------------------------------------------------------------------
	env.AddFunction("sample", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("sample requires a source and a position")
		}
		src, err := toSource(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sample: %w", err)
		}
		pos, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sample: position: %w", err)
		}
		return &zygo.SexpFloat{Val: src.GetValue(pos)}, nil
	})
}
