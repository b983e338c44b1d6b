// Package detection finds faces, persons and cars in preprocessed frames.
//
// Every method implements the Detector interface and reports boxes in the
// coordinates of the frame it was given. Detections are plain values; nothing
// downstream modifies them.
//
// # Variants
//
//   - Haar cascade (NewCascade), HOG people detector (NewHOG) and OpenCV DNN
//     single-shot detectors (NewDNN) use gocv and are compiled with -tags opencv.
//   - The dlib HOG face detector (NewDlib) uses go-face and is compiled with -tags dlib.
//   - YOLO-style ONNX models (NewONNX) use onnxruntime, loaded at run time.
//
// A variant whose backend is missing returns an error wrapping ErrUnavailable.
// A variant whose model cannot be used returns a *ModelLoadError.
//
// # Fallback
//
// Open walks an ordered []Factory and returns the first variant that opens.
// Unavailable variants are skipped; model errors stop the walk.
//
// # Postprocessing
//
// Postprocessor functions (NewScoreFilter, NewAreaFilter, ChainFilters) and
// SuppressOverlaps are the only places detections are dropped.
package detection
