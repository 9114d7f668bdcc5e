package templates

const WrapperTemplate = `% Generated on {{.GeneratedDate}}
% Scenario: {{.Scenario}}
% Chart: {{.Name}}
\begin{center}
    \begin{figure}[H]
    \centering
    \resizebox{1\linewidth}{!}{\input{./{{.PlotFileName}} }}
    \caption[{{.ShortCaption}}]{ {{.Caption}} }
    \label{fig:{{.Label}}}
    \end{figure}
\end{center}
`

type WrapperData struct {
	GeneratedDate string
	Scenario      string
	Name          string
	PlotFileName  string
	ShortCaption  string
	Caption       string
	Label         string
}
