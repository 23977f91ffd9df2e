package sim

import (
	"fmt"
	"strings"

	"github.com/san-kum/gravfield/internal/dynamo"
)

// Resolve orders stages so that every stage follows the stages it names in
// After. Among stages that are ready at the same time, registration order
// is kept.
func Resolve(stages []Stage) ([]Stage, error) {
	index := make(map[string]int, len(stages))
	for i, s := range stages {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: stage %d has no name", dynamo.ErrInvalidConfig, i)
		}
		if s.Run == nil {
			return nil, fmt.Errorf("%w: stage %s has no run function", dynamo.ErrInvalidConfig, s.Name)
		}
		if _, dup := index[s.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate stage %s", dynamo.ErrInvalidConfig, s.Name)
		}
		index[s.Name] = i
	}

	pending := make([]int, len(stages))
	dependents := make([][]int, len(stages))
	for i, s := range stages {
		for _, dep := range s.After {
			j, ok := index[dep]
			if !ok {
				return nil, fmt.Errorf("%w: %s depends on %s", dynamo.ErrUnknownStage, s.Name, dep)
			}
			pending[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	ordered := make([]Stage, 0, len(stages))
	placed := make([]bool, len(stages))
	for len(ordered) < len(stages) {
		progressed := false
		for i := range stages {
			if placed[i] || pending[i] > 0 {
				continue
			}
			placed[i] = true
			ordered = append(ordered, stages[i])
			for _, d := range dependents[i] {
				pending[d]--
			}
			progressed = true
			break
		}
		if !progressed {
			var stuck []string
			for i, s := range stages {
				if !placed[i] {
					stuck = append(stuck, s.Name)
				}
			}
			return nil, fmt.Errorf("%w: %s", dynamo.ErrDependencyCycle, strings.Join(stuck, ", "))
		}
	}

	return ordered, nil
}
