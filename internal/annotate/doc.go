// Package annotate draws detection boxes, labels and frame overlays onto a
// copy of an image. Text uses the Go Regular font rendered through freetype.
package annotate
