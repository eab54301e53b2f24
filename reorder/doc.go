// Package reorder computes the result of a drag-and-drop gesture on a kanban
// board: the new ordering of the touched containers and the single position
// update that must be persisted for the moved entity.
//
// Everything in this package is pure. Apply never mutates the board it is
// given; it clones only the containers it changes and shares the rest.
package reorder
