// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for playlist generation:
//  1. [PromptView] : Enter a mood prompt
//  2. [ProgressView] : Watch the pipeline advance in real time
//  3. [ReviewView] : Inspect and edit the recommended tracks
//  4. [ResultView] : Display the saved playlist or the failure reason
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Session snapshots flow through the workflow store's updates channel, so the
// TUI re-renders on every pushed or polled status without touching transport
// details itself.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, d, s, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
