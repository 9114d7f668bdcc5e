package group

const GroupWrapperTemplate = `% Generated on {{.GeneratedDate}}
% Scenario: {{.Scenario}}
% Charts: {{range $i, $s := .Subfigures}}{{if $i}}, {{end}}{{$s.Name}}{{end}}

\begin{figure}[htbp]
    \centering
{{range .Subfigures}}    \begin{subfigure}{\linewidth}
        \centering
        \resizebox{\linewidth}{!}{\input{{"{"}}\currfiledir {{.PlotFileName}}{{"}"}} }
        \caption{{"{"}}{{.Caption}}{{"}"}}
    \end{subfigure}

{{end}}	\caption[{{.ShortCaption}}]{{"{"}}{{.Caption}}{{"}"}}
    \label{fig:{{.LabelID}}}
\end{figure}
`

type GroupWrapperData struct {
	GeneratedDate string
	Scenario      string
	LabelID       string
	Subfigures    []SubfigureData
	ShortCaption  string
	Caption       string
}

type SubfigureData struct {
	Name         string
	PlotFileName string
	Caption      string
}
