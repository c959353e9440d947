package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/mealspin/internal/model"
)

var (
	Primary   = lipgloss.Color("#F97316") // orange
	Secondary = lipgloss.Color("#06B6D4") // cyan
	Success   = lipgloss.Color("#22C55E") // green
	Error     = lipgloss.Color("#EF4444") // red
	Muted     = lipgloss.Color("#6B7280") // gray
	Text      = lipgloss.Color("#E5E7EB") // light gray
	Delivery  = lipgloss.Color("#A78BFA") // violet
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(Primary).MarginBottom(1)

	Label = lipgloss.NewStyle().Foreground(Muted).Width(16)
	Value = lipgloss.NewStyle().Foreground(Text)

	ActiveItem   = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	InactiveItem = lipgloss.NewStyle().Foreground(Muted)

	StatusBar = lipgloss.NewStyle().Foreground(Muted).MarginTop(1)
	ErrorText = lipgloss.NewStyle().Foreground(Error).Bold(true)

	Border = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(1, 2)
)

// Wheel
var (
	Pointer = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(Primary).
		Bold(true)

	Winner = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(Success).
		Foreground(Success).
		Bold(true).
		Padding(0, 2)

	KindTag = lipgloss.NewStyle().Foreground(Delivery).Italic(true)
)

// cuisine groups share a hue so a balanced wheel reads as varied at a glance.
var categoryColors = map[model.Category]lipgloss.Color{
	model.CategoryKorean:   "#F87171",
	model.CategoryMeat:     "#F87171",
	model.CategoryRiceDish: "#FB923C",
	model.CategoryNoodle:   "#FB923C",
	model.CategoryChinese:  "#FACC15",
	model.CategoryJapanese: "#38BDF8",
	model.CategorySeafood:  "#38BDF8",
	model.CategoryWestern:  "#A3E635",
	model.CategoryPizza:    "#A3E635",
	model.CategorySalad:    "#4ADE80",
	model.CategoryChicken:  "#FDBA74",
	model.CategoryFastFood: "#FDBA74",
	model.CategorySnack:    "#F9A8D4",
	model.CategoryDessert:  "#F9A8D4",
	model.CategoryCafe:     "#D6D3D1",
	model.CategoryPub:      "#C084FC",
	model.CategoryBuffet:   "#C084FC",
}

// CategoryTag styles a category label in its cuisine color. Delivery venues
// are always tagged in the delivery color.
func CategoryTag(c model.Category, kind model.ProviderKind) lipgloss.Style {
	if kind == model.KindDelivery {
		return KindTag
	}
	if color, ok := categoryColors[c]; ok {
		return lipgloss.NewStyle().Foreground(color)
	}
	return lipgloss.NewStyle().Foreground(Muted)
}
