// internal/model/dashboard_layout.go
package model

// LayoutItem is one widget position on the dashboard grid.
type LayoutItem struct {
	I string `json:"i"`
	X int    `json:"x"`
	Y int    `json:"y"`
	W int    `json:"w"`
	H int    `json:"h"`
}

// DefaultDashboardLayout is served to users who never saved a layout.
func DefaultDashboardLayout() []LayoutItem {
	return []LayoutItem{
		{I: "kpi-donors", X: 0, Y: 0, W: 3, H: 2},
		{I: "kpi-donations", X: 3, Y: 0, W: 3, H: 2},
		{I: "kpi-month", X: 6, Y: 0, W: 3, H: 2},
		{I: "kpi-new", X: 9, Y: 0, W: 3, H: 2},
		{I: "chart-donations", X: 0, Y: 2, W: 8, H: 3},
		{I: "recent-activity", X: 8, Y: 2, W: 4, H: 3},
	}
}
