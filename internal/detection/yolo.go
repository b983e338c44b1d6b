package detection

import (
	"image"
	"math"
)

// yoloLayout describes a YOLO output tensor of shape [1, 4+classes, anchors].
type yoloLayout struct {
	channels int
	anchors  int
}

// anchorsFor returns the anchor count of a YOLOv8-style head (strides 8, 16
// and 32) for a square input, used when the model leaves the dimension dynamic.
func anchorsFor(inputSize int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		side := inputSize / stride
		n += side * side
	}
	return n
}

// decodeYOLO reads boxes from a channel-major YOLO output. Each anchor stores
// cx, cy, w, h followed by one score per class. Boxes are in input-tensor
// pixels, or in [0,1] when normalized is set, and are mapped back to bounds by
// scaleX/scaleY (frame size over input size).
func decodeYOLO(data []float32, layout yoloLayout, p ONNXParams, cat Category, bounds image.Rectangle) []Detection {
	scoreChannel := 4 + p.ClassIndex
	if scoreChannel >= layout.channels || len(data) < layout.channels*layout.anchors {
		return nil
	}

	in := float64(p.InputSize)
	scaleX := float64(bounds.Dx()) / in
	scaleY := float64(bounds.Dy()) / in
	n := layout.anchors

	var out []Detection
	for i := 0; i < n; i++ {
		conf := float64(data[scoreChannel*n+i])
		if conf < p.Confidence {
			continue
		}
		cx, cy := float64(data[i]), float64(data[n+i])
		w, h := float64(data[2*n+i]), float64(data[3*n+i])
		if p.Normalized {
			cx, cy, w, h = cx*in, cy*in, w*in, h*in
		}

		r := image.Rect(
			bounds.Min.X+int(math.Round((cx-w/2)*scaleX)),
			bounds.Min.Y+int(math.Round((cy-h/2)*scaleY)),
			bounds.Min.X+int(math.Round((cx+w/2)*scaleX)),
			bounds.Min.Y+int(math.Round((cy+h/2)*scaleY)),
		)
		box, ok := clip(r, bounds)
		if !ok {
			continue
		}
		out = append(out, Detection{Category: cat, Box: box, Confidence: conf, Scored: true})
	}
	return SuppressOverlaps(out, p.IoU)
}
