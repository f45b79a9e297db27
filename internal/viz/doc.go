// Package viz renders pipeline results for the terminal.
//
//   - [RenderGraph]: cycles and tails of an orbit graph
//   - [RenderReport]: a bordered summary of an [experiment.Report]
//   - [PlotTrace], [PlotPeriods]: asciigraph plots of height convergence
//     and sieve progress
//
// Colors follow the current [Theme]; lipgloss drops them when the output
// is not a terminal.
package viz
