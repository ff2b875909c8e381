// Package template defines the recurring task template model and loads
// template and client collections from their JSON storage.
//
// Templates are externally owned: the admin surface creates and edits
// them, this tool only reads them. Loading validates every template
// object against an embedded CUE schema before it reaches the scheduler,
// so a malformed template is reported and excluded instead of producing
// an undefined walk.
package template
