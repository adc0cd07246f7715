// Package display renders search results, diagnostics and extraction summaries
// for the terminal.
//
// A Printer writes result blocks in the form
//
//	File: /data/logs/app.log
//	Folder: /data/logs
//	Name: app.log
//	Occurrences: 3
//	Lines:
//	  L12: connection refused
//
// and prints a not-found message when a run produced no results. Recovered
// failures are listed in a yellow Warning block.
//
// Colors are enabled only when the writer is a terminal; NewPrinterWithColor
// forces the choice for tests and for export to files.
package display
