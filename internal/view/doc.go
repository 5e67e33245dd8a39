// Package view derives display values from controller snapshots.
//
// Everything here is a pure function of its inputs: agent labels, identity
// resolution, model summaries read from the config form, panel names,
// relative timestamps, and markdown previews. The webui templates call these
// instead of reaching into gateway payloads themselves.
package view
