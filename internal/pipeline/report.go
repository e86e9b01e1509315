package pipeline

import (
	"github.com/google/uuid"

	"github.com/funvibe/funblocks/internal/graph"
	"github.com/funvibe/funblocks/internal/typesystem"
)

// Report is the state of every scenario block after propagation.
type Report struct {
	Workspace string        `yaml:"workspace" json:"workspace"`
	Blocks    []BlockReport `yaml:"blocks" json:"blocks"`
}

// BlockReport describes one block.
type BlockReport struct {
	Name    string   `yaml:"name" json:"name"`
	ID      int      `yaml:"id" json:"id"`
	Kind    string   `yaml:"kind" json:"kind"`
	Valid   bool     `yaml:"valid" json:"valid"`
	Inputs  []string `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Outputs []string `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	Errors  []string `yaml:"errors,omitempty" json:"errors,omitempty"`
	Program string   `yaml:"program" json:"program"`
}

// Invalid counts blocks that are not valid in their container.
func (r *Report) Invalid() int {
	n := 0
	for _, b := range r.Blocks {
		if !b.Valid {
			n++
		}
	}
	return n
}

// Block returns the report of a named block.
func (r *Report) Block(name string) (BlockReport, bool) {
	for _, b := range r.Blocks {
		if b.Name == name {
			return b, true
		}
	}
	return BlockReport{}, false
}

// BuildReport describes the scenario's blocks in declaration order.
func BuildReport(g *graph.Graph, s *Scenario, ids map[string]graph.BlockID) *Report {
	r := &Report{Workspace: uuid.NewString()}
	if s == nil {
		return r
	}
	for _, sb := range s.Blocks {
		id := ids[sb.Name]
		b, ok := g.Block(id)
		if !ok {
			continue
		}
		br := BlockReport{
			Name:  sb.Name,
			ID:    int(id),
			Kind:  b.Kind().String(),
			Valid: g.IsValidInCurrentContainer(id),
		}
		for i := range b.Inputs {
			if t, err := g.InputType(graph.InputRef{Block: id, Index: i}); err == nil {
				br.Inputs = append(br.Inputs, typesystem.Pretty(t))
			}
		}
		for _, out := range b.Outputs {
			br.Outputs = append(br.Outputs, typesystem.Pretty(out.Type))
		}
		for _, err := range g.Errors(id) {
			br.Errors = append(br.Errors, err.Error())
		}
		if text, err := g.ProgramText(id); err == nil {
			br.Program = text
		}
		r.Blocks = append(r.Blocks, br)
	}
	return r
}
