package modelspec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/inference-sim/valueiter/mdp"
)

// Gridworld actions, in tie-break order.
const (
	ActionUp    = "up"
	ActionDown  = "down"
	ActionLeft  = "left"
	ActionRight = "right"
)

var gridActions = []string{ActionUp, ActionDown, ActionLeft, ActionRight}

// perpendicular lists the two slip directions for each intended move.
var perpendicular = map[string][2]string{
	ActionUp:    {ActionLeft, ActionRight},
	ActionDown:  {ActionLeft, ActionRight},
	ActionLeft:  {ActionUp, ActionDown},
	ActionRight: {ActionUp, ActionDown},
}

// GridworldSpec describes a rectangular grid with walls and absorbing goals.
//
// The agent moves in the intended direction with probability 1-slip and in
// each perpendicular direction with probability slip/2. Moves off the grid or
// into a wall leave the agent in place. Entering a goal pays the goal's
// reward; every move also pays StepReward. Goals are absorbing and pay nothing
// once entered.
type GridworldSpec struct {
	Rows       int        `yaml:"rows"`
	Cols       int        `yaml:"cols"`
	StepReward float64    `yaml:"step_reward"`
	Slip       float64    `yaml:"slip"`
	Walls      []CellSpec `yaml:"walls,omitempty"`
	Goals      []GoalSpec `yaml:"goals,omitempty"`
}

// CellSpec is a (row, col) coordinate, zero-based from the top-left corner.
type CellSpec struct {
	Row int `yaml:"row"`
	Col int `yaml:"col"`
}

// GoalSpec is an absorbing cell with an entry reward.
type GoalSpec struct {
	Row    int     `yaml:"row"`
	Col    int     `yaml:"col"`
	Reward float64 `yaml:"reward"`
}

// CellName returns the state name of a cell: "row,col".
func CellName(row, col int) string {
	return strconv.Itoa(row) + "," + strconv.Itoa(col)
}

// ParseCellName is the inverse of CellName.
func ParseCellName(name string) (row, col int, err error) {
	r, c, ok := strings.Cut(name, ",")
	if !ok {
		return 0, 0, fmt.Errorf("cell name %q is not of the form row,col", name)
	}
	if row, err = strconv.Atoi(r); err != nil {
		return 0, 0, fmt.Errorf("cell name %q: %w", name, err)
	}
	if col, err = strconv.Atoi(c); err != nil {
		return 0, 0, fmt.Errorf("cell name %q: %w", name, err)
	}
	return row, col, nil
}

// Validate checks dimensions, slip and cell coordinates.
func (g *GridworldSpec) Validate() error {
	if g.Rows <= 0 || g.Cols <= 0 {
		return fmt.Errorf("gridworld: rows and cols must be positive, got %dx%d", g.Rows, g.Cols)
	}
	if math.IsNaN(g.Slip) || g.Slip < 0 || g.Slip >= 1 {
		return fmt.Errorf("gridworld: slip must be in [0, 1), got %v", g.Slip)
	}
	if err := validateFinite("gridworld.step_reward", g.StepReward); err != nil {
		return err
	}
	walls := make(map[CellSpec]bool, len(g.Walls))
	for i, w := range g.Walls {
		if !g.inBounds(w.Row, w.Col) {
			return fmt.Errorf("gridworld.walls[%d]: (%d, %d) is outside the %dx%d grid", i, w.Row, w.Col, g.Rows, g.Cols)
		}
		walls[w] = true
	}
	if len(walls) >= g.Rows*g.Cols {
		return fmt.Errorf("gridworld: every cell is a wall")
	}
	goals := make(map[CellSpec]bool, len(g.Goals))
	for i, goal := range g.Goals {
		cell := CellSpec{Row: goal.Row, Col: goal.Col}
		prefix := fmt.Sprintf("gridworld.goals[%d]", i)
		if !g.inBounds(goal.Row, goal.Col) {
			return fmt.Errorf("%s: (%d, %d) is outside the %dx%d grid", prefix, goal.Row, goal.Col, g.Rows, g.Cols)
		}
		if walls[cell] {
			return fmt.Errorf("%s: (%d, %d) is a wall", prefix, goal.Row, goal.Col)
		}
		if goals[cell] {
			return fmt.Errorf("%s: duplicate goal at (%d, %d)", prefix, goal.Row, goal.Col)
		}
		goals[cell] = true
		if err := validateFinite(prefix+".reward", goal.Reward); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridworldSpec) inBounds(row, col int) bool {
	return row >= 0 && row < g.Rows && col >= 0 && col < g.Cols
}

// Build expands the grid into a TabularModel. States are the non-wall cells
// in row-major order.
func (g *GridworldSpec) Build() (*mdp.TabularModel, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	walls := make(map[CellSpec]bool, len(g.Walls))
	for _, w := range g.Walls {
		walls[w] = true
	}
	goalReward := make(map[string]float64, len(g.Goals))
	for _, goal := range g.Goals {
		goalReward[CellName(goal.Row, goal.Col)] = goal.Reward
	}

	var states []string
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if !walls[CellSpec{Row: r, Col: c}] {
				states = append(states, CellName(r, c))
			}
		}
	}

	m, err := mdp.NewTabularModel(states, gridActions)
	if err != nil {
		return nil, err
	}

	for _, s := range states {
		r, c, _ := ParseCellName(s)
		if _, ok := goalReward[s]; ok {
			for _, a := range gridActions {
				if err := m.SetTransition(s, a, s, 1); err != nil {
					return nil, err
				}
			}
			continue
		}
		for _, a := range gridActions {
			outcomes := []struct {
				dir string
				p   float64
			}{
				{a, 1 - g.Slip},
				{perpendicular[a][0], g.Slip / 2},
				{perpendicular[a][1], g.Slip / 2},
			}
			reward := g.StepReward
			for _, o := range outcomes {
				if o.p == 0 {
					continue
				}
				next := g.move(r, c, o.dir, walls)
				if err := m.AddTransition(s, a, next, o.p); err != nil {
					return nil, err
				}
				reward += o.p * goalReward[next]
			}
			if err := m.SetReward(s, a, reward); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// move returns the cell reached from (row, col) in direction dir.
func (g *GridworldSpec) move(row, col int, dir string, walls map[CellSpec]bool) string {
	r, c := row, col
	switch dir {
	case ActionUp:
		r--
	case ActionDown:
		r++
	case ActionLeft:
		c--
	case ActionRight:
		c++
	}
	if !g.inBounds(r, c) || walls[CellSpec{Row: r, Col: c}] {
		return CellName(row, col)
	}
	return CellName(r, c)
}

// IsWall reports whether (row, col) is a wall.
func (g *GridworldSpec) IsWall(row, col int) bool {
	for _, w := range g.Walls {
		if w.Row == row && w.Col == col {
			return true
		}
	}
	return false
}

// GoalAt returns the goal at (row, col), if any.
func (g *GridworldSpec) GoalAt(row, col int) (GoalSpec, bool) {
	for _, goal := range g.Goals {
		if goal.Row == row && goal.Col == col {
			return goal, true
		}
	}
	return GoalSpec{}, false
}
