package trades

import "github.com/bidstack/takeoff/internal/expr"

// Siding stock dimensions. Variables: wall_area, openings_area (sq ft),
// inside_corners, outside_corners (count), level_starter, sloped_trim (lf),
// window_count, door_count.
const (
	houseWrapRollSqFt  = 1000 // 9ft x ~111ft roll
	cornerPostLF       = 10
	utilityTrimStickLF = 12.5
	sidingNailBoxSqFt  = 2500
)

func registerSiding(reg map[string]Formula) {
	// siding_squares: net wall area (openings deducted) with waste. Small
	// openings are conventionally not deducted; the mapping layer decides
	// what lands in openings_area.
	reg["siding_squares"] = func(vars expr.VarTable) float64 {
		net := vars.Lookup("wall_area") - vars.Lookup("openings_area")
		return nonNegative(squares(net) * wasteFactor(vars))
	}

	// house_wrap_rolls: wrap covers gross wall area, openings included.
	reg["house_wrap_rolls"] = func(vars expr.VarTable) float64 {
		return nonNegative(vars.Lookup("wall_area") / houseWrapRollSqFt)
	}

	// corner_posts: one post per corner storey-height, counts supplied by
	// the provider per kind.
	reg["inside_corner_posts"] = func(vars expr.VarTable) float64 {
		return nonNegative(vars.Lookup("inside_corners"))
	}
	reg["outside_corner_posts"] = func(vars expr.VarTable) float64 {
		return nonNegative(vars.Lookup("outside_corners"))
	}

	// starter_sticks: level starter run along the bottom course.
	reg["siding_starter_sticks"] = func(vars expr.VarTable) float64 {
		return nonNegative(perLength(vars.Lookup("level_starter"), utilityTrimStickLF))
	}

	// utility_trim_sticks: sloped and under-window trim.
	reg["utility_trim_sticks"] = func(vars expr.VarTable) float64 {
		return nonNegative(perLength(vars.Lookup("sloped_trim"), utilityTrimStickLF))
	}

	// window_wraps / door_wraps: one wrap kit per opening.
	reg["window_wraps"] = func(vars expr.VarTable) float64 {
		return nonNegative(vars.Lookup("window_count"))
	}
	reg["door_wraps"] = func(vars expr.VarTable) float64 {
		return nonNegative(vars.Lookup("door_count"))
	}

	// siding_nail_boxes: fasteners for the net sided area.
	reg["siding_nail_boxes"] = func(vars expr.VarTable) float64 {
		net := vars.Lookup("wall_area") - vars.Lookup("openings_area")
		return nonNegative(net / sidingNailBoxSqFt)
	}
}
