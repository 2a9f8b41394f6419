package trades

import (
	"math"

	"github.com/bidstack/takeoff/internal/expr"
)

// Fascia, soffit, and gutter stock dimensions. Variables: fascia, eaves,
// rakes (lf), soffit_area (sq ft), soffit_depth (inches), stories,
// downspout_count, gutter_corners.
const (
	fasciaStickLF      = 12
	soffitPanelSqFt    = 12 // 12in x 12ft vented panel
	gutterSectionLF    = 10
	downspoutStoryLF   = 10 // one storey of downspout drop
	frontChannelStick  = 12
	gutterGuardStickLF = 4
)

func registerExterior(reg map[string]Formula) {
	// fascia_sticks: fascia board run, 10% overage for laps and miters.
	reg["fascia_sticks"] = func(vars expr.VarTable) float64 {
		run := vars.Lookup("fascia")
		if run == 0 {
			// Providers without a dedicated fascia trace report the
			// eave and rake runs instead.
			run = vars.Lookup("eaves") + vars.Lookup("rakes")
		}
		return nonNegative(perLength(run*1.10, fasciaStickLF))
	}

	// soffit_panels: covered area per panel, waste applied for rips.
	reg["soffit_panels"] = func(vars expr.VarTable) float64 {
		return nonNegative(vars.Lookup("soffit_area") * wasteFactor(vars) / soffitPanelSqFt)
	}

	// soffit_channel_sticks: J-channel or F-channel receiving the panels,
	// run matches the soffited eave length.
	reg["soffit_channel_sticks"] = func(vars expr.VarTable) float64 {
		return nonNegative(perLength(vars.Lookup("eaves"), frontChannelStick))
	}

	// gutter_sections: seamless runs are quoted per foot; sectional per
	// 10ft piece along the eaves.
	reg["gutter_sections"] = func(vars expr.VarTable) float64 {
		return nonNegative(perLength(vars.Lookup("eaves"), gutterSectionLF))
	}

	// gutter_feet: the seamless per-foot quantity, straight passthrough of
	// the eave run.
	reg["gutter_feet"] = func(vars expr.VarTable) float64 {
		return nonNegative(vars.Lookup("eaves"))
	}

	// downspouts: provider count when present, otherwise one per 40ft of
	// gutter with a minimum of two on any guttered elevation.
	reg["downspouts"] = func(vars expr.VarTable) float64 {
		if n := vars.Lookup("downspout_count"); n > 0 {
			return n
		}
		eaves := vars.Lookup("eaves")
		if eaves <= 0 {
			return 0
		}
		return math.Max(math.Ceil(eaves/40), 2)
	}

	// downspout_feet: drop length per downspout scales with storeys.
	reg["downspout_feet"] = func(vars expr.VarTable) float64 {
		stories := vars.Lookup("stories")
		if stories <= 0 {
			stories = 1
		}
		spouts := reg["downspouts"](vars)
		return nonNegative(spouts * stories * downspoutStoryLF)
	}

	// gutter_end_caps: two per independent run; the provider reports runs
	// as corner transitions, so derive from corners when present.
	reg["gutter_end_caps"] = func(vars expr.VarTable) float64 {
		if corners := vars.Lookup("gutter_corners"); corners > 0 {
			return corners
		}
		if vars.Lookup("eaves") > 0 {
			return 2
		}
		return 0
	}

	// gutter_miters: one miter per corner.
	reg["gutter_miters"] = func(vars expr.VarTable) float64 {
		return nonNegative(vars.Lookup("gutter_corners"))
	}

	// gutter_guard_sticks: leaf guard over the full gutter run.
	reg["gutter_guard_sticks"] = func(vars expr.VarTable) float64 {
		return nonNegative(perLength(vars.Lookup("eaves"), gutterGuardStickLF))
	}
}
