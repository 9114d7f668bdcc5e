package templates

const PlotTemplate = `% Generated on {{.GeneratedDate}}
%
% Scenario: {{.Scenario}}
% Chart: {{.Name}}
% Series: {{len .Plots}}
%
\begin{tikzpicture}
	\begin{axis}[
		title={ {{.Title}} },
		title style={font=\large},
		xlabel={ {{.XLabel}} },
		ylabel={ {{.YLabel}} },
		width=\textwidth,
		height={{.HeightRatio}}\textwidth,
		xmin={{.XMin}}, xmax={{.XMax}},
		ymin=0, ymax={{.YMax}},
{{- if .XTicks}}
		xtick={ {{.XTicks}} },
{{- end}}
{{- if .XTickLabels}}
		xticklabels={ {{.XTickLabels}} },
{{- end}}
		ymajorgrids,
		xmajorgrids,
		grid style=dashed,
		legend pos={{.LegendPos}},
		legend style={font=\small},
	]

{{range .Plots}}
% Series: {{.Label}} ({{len .Coordinates}} points)
\addplot+[{{.Style}}]
  coordinates {
{{range .Coordinates}}    {{.}}
{{end}}  };
\addlegendentry{ {{.LegendEntry}} }

{{end}}
	\end{axis}
\end{tikzpicture}
`

type PlotData struct {
	GeneratedDate string
	Scenario      string
	Name          string
	Title         string
	XLabel        string
	YLabel        string
	HeightRatio   string
	XMin          string
	XMax          string
	YMax          string
	XTicks        string
	XTickLabels   string
	LegendPos     string
	Plots         []PlotSeries
}

type PlotSeries struct {
	Label       string
	Style       string
	LegendEntry string
	Coordinates []string
}
