package trades

import "github.com/bidstack/takeoff/internal/expr"

// Roofing stock dimensions. Variables consumed here follow the canonical
// measurement names: area (sq ft), eaves, rakes, ridges, hips, valleys,
// step_flashing, headwall_flashing (lf), vents_count, pipe_boots_count.
const (
	dripEdgeStickLF    = 10   // one stick of drip edge
	ridgeCapBundleLF   = 25   // hip & ridge cap coverage per bundle
	starterRollLF      = 100  // starter strip per roll
	feltRollSquares    = 4    // 15lb felt underlayment per roll
	iceWaterRollLF     = 65   // ice & water shield per roll, at 3ft width
	valleyRollLF       = 50   // rolled valley metal
	stepFlashingPcLF   = 0.58 // 7in step flashing piece exposure, in feet
	coilNailBoxSquares = 15   // roofing coil nails, squares covered per box
)

func registerRoofing(reg map[string]Formula) {
	// shingle_squares: field squares with waste applied. Sold per square
	// (three bundles); rounding to whole squares is the applicator's job.
	reg["shingle_squares"] = func(vars expr.VarTable) float64 {
		return nonNegative(squares(vars.Lookup("area")) * wasteFactor(vars))
	}

	// drip_edge_sticks: perimeter metal along rakes and eaves, 15% overage
	// for laps and corner cuts.
	reg["drip_edge_sticks"] = func(vars expr.VarTable) float64 {
		run := vars.Lookup("rakes") + vars.Lookup("eaves")
		return nonNegative(perLength(run*1.15, dripEdgeStickLF))
	}

	// ridge_cap_bundles: hip and ridge runs capped with cut-down bundles.
	reg["ridge_cap_bundles"] = func(vars expr.VarTable) float64 {
		run := vars.Lookup("ridges") + vars.Lookup("hips")
		return nonNegative(perLength(run*1.10, ridgeCapBundleLF))
	}

	// starter_rolls: starter strip along eaves and rakes.
	reg["starter_rolls"] = func(vars expr.VarTable) float64 {
		run := vars.Lookup("eaves") + vars.Lookup("rakes")
		return nonNegative(perLength(run, starterRollLF))
	}

	// felt_rolls: underlayment over the full field, same waste as shingles.
	reg["felt_rolls"] = func(vars expr.VarTable) float64 {
		sq := squares(vars.Lookup("area")) * wasteFactor(vars)
		return nonNegative(sq / feltRollSquares)
	}

	// ice_water_rolls: eaves and valleys protected course.
	reg["ice_water_rolls"] = func(vars expr.VarTable) float64 {
		run := vars.Lookup("eaves") + vars.Lookup("valleys")
		return nonNegative(perLength(run, iceWaterRollLF))
	}

	// valley_rolls: open-valley metal.
	reg["valley_rolls"] = func(vars expr.VarTable) float64 {
		return nonNegative(perLength(vars.Lookup("valleys"), valleyRollLF))
	}

	// step_flashing_pieces: sidewall runs divided by per-piece exposure.
	reg["step_flashing_pieces"] = func(vars expr.VarTable) float64 {
		return nonNegative(perLength(vars.Lookup("step_flashing"), stepFlashingPcLF))
	}

	// headwall_flashing_sticks: headwall runs in drip-edge-length sticks.
	reg["headwall_flashing_sticks"] = func(vars expr.VarTable) float64 {
		return nonNegative(perLength(vars.Lookup("headwall_flashing"), dripEdgeStickLF))
	}

	// ridge_vent_sticks: vented ridge run in 4ft sections.
	reg["ridge_vent_sticks"] = func(vars expr.VarTable) float64 {
		return nonNegative(perLength(vars.Lookup("ridges"), 4))
	}

	// Passthrough counts the provider reports directly.
	reg["roof_vents"] = func(vars expr.VarTable) float64 {
		return nonNegative(vars.Lookup("vents_count"))
	}
	reg["pipe_boots"] = func(vars expr.VarTable) float64 {
		return nonNegative(vars.Lookup("pipe_boots_count"))
	}

	// coil_nail_boxes: fasteners for the shingled field.
	reg["coil_nail_boxes"] = func(vars expr.VarTable) float64 {
		sq := squares(vars.Lookup("area")) * wasteFactor(vars)
		return nonNegative(sq / coilNailBoxSquares)
	}

	// tearoff_squares: labor quantity for removing the existing roof, no
	// waste applied.
	reg["tearoff_squares"] = func(vars expr.VarTable) float64 {
		return nonNegative(squares(vars.Lookup("area")))
	}
}
