package domain

import "errors"

// ErrOutOfBounds is returned when a coordinate lies outside the grid.
var ErrOutOfBounds = errors.New("coordinate out of bounds")

// ErrIllegalTransition is returned when an event has no transition from the current state.
var ErrIllegalTransition = errors.New("illegal transition")

// ErrInvalidEndpoints is returned when a search is requested with unset, equal or blocked endpoints.
var ErrInvalidEndpoints = errors.New("invalid endpoints")

// ErrNotExploration is returned when a non-exploration attribute is written through the recorder.
var ErrNotExploration = errors.New("attribute is not an exploration flag")

// ErrUnknownLocation is returned when a named location is not present in the layout.
var ErrUnknownLocation = errors.New("unknown location")

// ErrLayoutNotFound is returned when a layout cannot be found in the store.
var ErrLayoutNotFound = errors.New("layout not found")

// ErrUnknownFinder is returned when a pathfinding algorithm name is not registered.
var ErrUnknownFinder = errors.New("unknown finder")

// ErrInvalidLayout is returned when a layout is malformed.
var ErrInvalidLayout = errors.New("invalid layout")

// ErrInvalidGridSize is returned for a grid that is empty or larger than MaxCells.
var ErrInvalidGridSize = errors.New("invalid grid size")
