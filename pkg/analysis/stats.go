// Package analysis summarizes the shape of a course block tree.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

// TreeStats describes one (sub)tree.
type TreeStats struct {
	Total          int                     `json:"total" yaml:"total"`
	ByType         map[model.BlockType]int `json:"by_type" yaml:"by_type"`
	MaxDepth       int                     `json:"max_depth" yaml:"max_depth"`
	Leaves         int                     `json:"leaves" yaml:"leaves"`
	Graded         int                     `json:"graded" yaml:"graded"`
	BranchingMean  float64                 `json:"branching_mean" yaml:"branching_mean"`
	BranchingStdev float64                 `json:"branching_stdev" yaml:"branching_stdev"`
	WidestBlock    string                  `json:"widest_block,omitempty" yaml:"widest_block,omitempty"`
	WidestCount    int                     `json:"widest_count" yaml:"widest_count"`
}

// Compute walks root once and gathers its statistics.
// Branching figures only consider nodes that have children.
func Compute(root *model.BlockTreeNode) TreeStats {
	s := TreeStats{ByType: make(map[model.BlockType]int)}
	if root == nil {
		return s
	}

	var fanout []float64
	root.Walk(func(n *model.BlockTreeNode, depth int) bool {
		s.Total++
		s.ByType[n.Type]++
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		if n.Graded {
			s.Graded++
		}
		if len(n.Children) == 0 {
			s.Leaves++
			return true
		}
		fanout = append(fanout, float64(len(n.Children)))
		if len(n.Children) > s.WidestCount {
			s.WidestCount = len(n.Children)
			s.WidestBlock = n.ID
		}
		return true
	})

	if len(fanout) > 0 {
		s.BranchingMean = stat.Mean(fanout, nil)
	}
	if len(fanout) > 1 {
		s.BranchingStdev = stat.StdDev(fanout, nil)
	}
	return s
}

// Summary renders the per-type counts in navigation order, e.g.
// "3 sections · 7 subsections · 12 units · 30 problems".
func (s TreeStats) Summary() string {
	var parts []string
	seen := make(map[model.BlockType]bool)
	for _, t := range model.NavigableTypes {
		seen[t] = true
		if t == model.TypeCourse {
			continue
		}
		if n := s.ByType[t]; n > 0 {
			parts = append(parts, pluralize(n, strings.ToLower(t.Label())))
		}
	}

	var other []string
	for t := range s.ByType {
		if !seen[t] {
			other = append(other, string(t))
		}
	}
	sort.Strings(other)
	for _, t := range other {
		parts = append(parts, pluralize(s.ByType[model.BlockType(t)], t))
	}

	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, " · ")
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
