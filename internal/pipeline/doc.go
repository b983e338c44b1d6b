// Package pipeline wires the stages of a detection run together: load,
// preprocess, open detectors, detect, annotate, save, sample resources and
// report. It also runs folders of images and per-method comparisons.
package pipeline
