package cmd

import (
	"fmt"
	"io"

	"github.com/logrusorgru/aurora"

	"github.com/inference-sim/valueiter/mdp"
	"github.com/inference-sim/valueiter/mdp/modelspec"
)

var arrows = map[string]string{
	modelspec.ActionUp:    "^",
	modelspec.ActionDown:  "v",
	modelspec.ActionLeft:  "<",
	modelspec.ActionRight: ">",
}

// RenderGridworld prints one cell per state: an arrow for the greedy action
// and the state value. Walls print as #, goals in green (reward ≥ 0) or red.
func RenderGridworld(w io.Writer, g *modelspec.GridworldSpec, res *mdp.Result[string, string], color bool) {
	au := aurora.NewAurora(color)
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			name := modelspec.CellName(r, c)
			switch goal, isGoal := g.GoalAt(r, c); {
			case g.IsWall(r, c):
				fmt.Fprint(w, au.Gray(12, fmt.Sprintf("%9s ", "#")))
			case isGoal && goal.Reward >= 0:
				fmt.Fprint(w, au.Green(fmt.Sprintf("%9s ", formatValue(goal.Reward))))
			case isGoal:
				fmt.Fprint(w, au.Red(fmt.Sprintf("%9s ", formatValue(goal.Reward))))
			default:
				fmt.Fprint(w, au.Blue(fmt.Sprintf("%s%8s ", arrows[res.Policy[name]], formatValue(res.Values[name]))))
			}
			fmt.Fprint(w, au.White("|"))
		}
		fmt.Fprintln(w)
	}
}

func formatValue(x float64) string {
	return fmt.Sprintf("%.3f", x)
}
