package mesh

import (
	"log"
	"sort"

	"github.com/ahlgreen/isofield/pkg/engine"
)

// colorPalette assigns distinct colors to grids in evaluation order.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// MeshData pairs a mesh with its display color.
type MeshData struct {
	*Mesh
	Color string `json:"color"`
}

// ErrorData is a JSON-serializable eval error.
type ErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of a script evaluation: one mesh per
// grid the script built, plus any errors.
type EvalResult struct {
	Meshes []MeshData  `json:"meshes"`
	Errors []ErrorData `json:"errors"`
}

// Service evaluates volume scripts and meshes every grid they build.
// It is the headless script-to-geometry pipeline a viewer or exporter
// sits on top of.
type Service struct {
	engine *engine.Engine
	cells  int
}

// NewService creates a Service meshing at the given marching-cubes
// resolution; cells <= 0 selects DefaultCells.
func NewService(cells int) *Service {
	if cells <= 0 {
		cells = DefaultCells
	}
	return &Service{
		engine: engine.NewEngine(),
		cells:  cells,
	}
}

// Evaluate takes Lisp source and returns mesh data + errors.
func (s *Service) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes: []MeshData{},
		Errors: []ErrorData{},
	}

	res, evalErrs, err := s.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, ErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, ErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Sorted names keep mesh order and colors stable across runs.
	names := make([]string, 0, len(res.Grids))
	for name := range res.Grids {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		m := FromGrid(res.Grids[name], s.cells)
		m.GridName = name
		result.Meshes = append(result.Meshes, MeshData{
			Mesh:  m,
			Color: colorPalette[i%len(colorPalette)],
		})
	}

	return result
}
