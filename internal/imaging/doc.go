// Package imaging loads, preprocesses and writes the images a detection run
// works on.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Rectangles follow
// image.Rectangle: Min is inclusive, Max is exclusive. Every Prepared frame is
// anchored at (0,0), so detections can be drawn on it without translation.
//
// # Preprocessing
//
// Prepare applies, in order: the optional brightness/contrast enhancement, a
// resize that bounds the longer side (800 pixels by default) while keeping the
// aspect ratio, and a BT.601 grayscale conversion. Images already within the
// bound are never enlarged.
//
// # Errors
//
// Load distinguishes a missing or unreadable file (ErrImageNotFound) from a
// file that holds no decodable pixels (ErrImageDecode). Both are matched with
// errors.Is.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The other functions are
// stateless and never modify their input images.
//
// For repeated passes over the same input (method comparison, scale sweeps)
// use ImageCache to avoid redundant disk reads. Use Evict or Clear to bound
// memory in long batch runs.
package imaging
