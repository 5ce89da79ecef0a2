package machine

import "fmt"

const (
	// DefaultThreshold is the m²-per-panel cutoff used when none is configured.
	DefaultThreshold = 0.35

	// smallOrderUsageLimit is the board usage percentage below which a single
	// material order without full boards goes to the small order machine.
	smallOrderUsageLimit = 65

	defaultRationale = "default recommendation"
)

// Panel is a cut panel of a quote.
type Panel struct {
	MaterialID string  `json:"material_id"`
	Quantity   float64 `json:"quantity"`
}

// PricingRow is the board usage of one material in a quote.
type PricingRow struct {
	MaterialID      string  `json:"material_id"`
	BoardWidthMM    float64 `json:"board_width_mm"`
	BoardLengthMM   float64 `json:"board_length_mm"`
	BoardsUsed      int     `json:"boards_used"`
	UsagePercentage float64 `json:"usage_percentage"`
	ChargedSqm      float64 `json:"charged_sqm"`
	WasteMulti      float64 `json:"waste_multi"`
}

// MaterialMetric is the aggregated usage of one material.
type MaterialMetric struct {
	MaterialID           string  `json:"material_id"`
	PanelCount           float64 `json:"panel_count"`
	BoardsUsed           int     `json:"boards_used"`
	UsagePercentage      float64 `json:"usage_percentage"`
	BoardAreaM2          float64 `json:"board_area_m2"`
	TotalMaterialAreaM2  float64 `json:"total_material_area_m2"`
	ActualMaterialUsedM2 float64 `json:"actual_material_used_m2"`
}

// Input is everything the classifier looks at.
type Input struct {
	Panels      []Panel      `json:"panels"`
	PricingRows []PricingRow `json:"pricing_rows"`
	Machines    []Machine    `json:"machines"`
}

// Suggestion is a machine recommendation and the reason for it.
type Suggestion struct {
	MachineID  string           `json:"recommended_machine_id"`
	Role       Role             `json:"role"`
	Label      string           `json:"label"`
	Rationale  string           `json:"rationale"`
	M2PerPanel *float64         `json:"m2_per_panel"`
	Metrics    []MaterialMetric `json:"metrics"`
}

// AggregateMetrics sums panel quantities per material and computes the board
// usage of every material. Rows sharing a material ID are merged: boards and
// areas add up and the highest usage percentage is kept. Metrics follow the
// order in which materials first appear in rows.
func AggregateMetrics(panels []Panel, rows []PricingRow) []MaterialMetric {
	counts := make(map[string]float64, len(rows))
	for _, p := range panels {
		counts[p.MaterialID] += p.Quantity
	}

	index := make(map[string]int, len(rows))
	metrics := make([]MaterialMetric, 0, len(rows))
	for _, r := range rows {
		waste := r.WasteMulti
		if waste <= 0 {
			waste = 1
		}
		boardArea := r.BoardWidthMM * r.BoardLengthMM / 1_000_000
		total := boardArea*float64(r.BoardsUsed) + r.ChargedSqm

		if i, ok := index[r.MaterialID]; ok {
			m := &metrics[i]
			m.BoardsUsed += r.BoardsUsed
			m.UsagePercentage = max(m.UsagePercentage, r.UsagePercentage)
			m.TotalMaterialAreaM2 += total
			m.ActualMaterialUsedM2 += total / waste
			continue
		}

		index[r.MaterialID] = len(metrics)
		metrics = append(metrics, MaterialMetric{
			MaterialID:           r.MaterialID,
			PanelCount:           counts[r.MaterialID],
			BoardsUsed:           r.BoardsUsed,
			UsagePercentage:      r.UsagePercentage,
			BoardAreaM2:          boardArea,
			TotalMaterialAreaM2:  total,
			ActualMaterialUsedM2: total / waste,
		})
	}
	return metrics
}

// Suggest recommends a machine for the given panels and board usage. It
// reports false when there is not enough information: fewer than three
// machines, no panels or no pricing rows.
func Suggest(in Input, threshold float64) (Suggestion, bool) {
	if len(in.Panels) == 0 || len(in.PricingRows) == 0 {
		return Suggestion{}, false
	}
	roles, ok := ResolveRoles(in.Machines)
	if !ok {
		return Suggestion{}, false
	}

	metrics := AggregateMetrics(in.Panels, in.PricingRows)
	role, rationale, perPanel := decide(metrics, threshold)

	m := roles[role]
	return Suggestion{
		MachineID:  m.ID,
		Role:       role,
		Label:      role.Label(),
		Rationale:  rationale,
		M2PerPanel: perPanel,
		Metrics:    metrics,
	}, true
}

func decide(metrics []MaterialMetric, threshold float64) (Role, string, *float64) {
	if len(metrics) == 1 {
		m := metrics[0]
		if m.BoardsUsed == 0 && m.UsagePercentage < smallOrderUsageLimit {
			return RoleSmallOrder, fmt.Sprintf("single material without full boards, board usage %.1f%% is below %d%%", m.UsagePercentage, smallOrderUsageLimit), nil
		}
	}

	perPanel := m2PerPanel(metrics)
	if perPanel == nil {
		return RoleSmallPanel, defaultRationale, nil
	}
	if *perPanel > threshold {
		return RoleLargePanel, fmt.Sprintf("%.3f m²/panel is above the %.2f m² threshold", *perPanel, threshold), perPanel
	}
	return RoleSmallPanel, fmt.Sprintf("%.3f m²/panel is at or below the %.2f m² threshold", *perPanel, threshold), perPanel
}

func m2PerPanel(metrics []MaterialMetric) *float64 {
	var used, panels float64
	for _, m := range metrics {
		used += m.ActualMaterialUsedM2
		panels += m.PanelCount
	}
	if panels == 0 {
		return nil
	}
	v := used / panels
	return &v
}
