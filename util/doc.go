// Package util holds the small helpers shared by the configuration layers:
// size parsing for body limits, default selection and secret masking for
// startup summaries.
package util
