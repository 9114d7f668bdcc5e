package mappings

type PlotStyle struct {
	Color       string
	LineStyle   string
	LineWidth   string
	Mark        string
	MarkOptions string
}

// One style per threshold series; the list wraps after the last entry.
var SeriesStyles = []PlotStyle{
	{Color: "blue", LineStyle: "solid", LineWidth: "thick", Mark: "*", MarkOptions: "scale=0.6,fill=blue"},
	{Color: "orange", LineStyle: "solid", LineWidth: "thick", Mark: "square*", MarkOptions: "scale=0.5,fill=orange"},
	{Color: "green!70!black", LineStyle: "solid", LineWidth: "thick", Mark: "triangle*", MarkOptions: "scale=0.6,fill=green!70!black"},
	{Color: "red", LineStyle: "solid", LineWidth: "thick", Mark: "diamond*", MarkOptions: "scale=0.6,fill=red"},
	{Color: "purple", LineStyle: "solid", LineWidth: "thick", Mark: "pentagon*", MarkOptions: "scale=0.6,fill=purple"},
	{Color: "brown", LineStyle: "densely dashed", LineWidth: "thick", Mark: "x", MarkOptions: "scale=0.6"},
	{Color: "magenta", LineStyle: "densely dashed", LineWidth: "thick", Mark: "star", MarkOptions: "scale=0.6,fill=magenta"},
	{Color: "gray", LineStyle: "densely dashed", LineWidth: "thick", Mark: "o", MarkOptions: "scale=0.5"},
	{Color: "olive", LineStyle: "dashdotted", LineWidth: "thick", Mark: "square", MarkOptions: "scale=0.5"},
	{Color: "cyan", LineStyle: "dashdotted", LineWidth: "thick", Mark: "triangle", MarkOptions: "scale=0.6"},
}

func GetSeriesStyle(index int) PlotStyle {
	if index < 0 {
		index = 0
	}
	return SeriesStyles[index%len(SeriesStyles)]
}

// WithoutMark drops the marker so only the line is drawn.
func (ps PlotStyle) WithoutMark() PlotStyle {
	ps.Mark = "none"
	ps.MarkOptions = ""
	return ps
}

func (ps PlotStyle) ToTikzOptions() string {
	options := ps.Color
	if ps.LineStyle != "" {
		options += "," + ps.LineStyle
	}
	if ps.LineWidth != "" {
		options += "," + ps.LineWidth
	}
	if ps.Mark != "none" && ps.Mark != "" {
		options += ",mark=" + ps.Mark
		if ps.MarkOptions != "" {
			options += ",mark options={" + ps.MarkOptions + "}"
		}
	} else {
		options += ",mark=none"
	}
	return options
}
