package detection

import (
	"image"
	"math"
)

// ssdStride is the width of one SSD detection row:
// [image_id, class_id, confidence, x1, y1, x2, y2].
const ssdStride = 7

// decodeSSD turns a flattened SSD output blob into detections in frame
// coordinates. Box corners are normalized to the frame size and may overshoot
// [0,1] for objects on the border; clip trims them. A negative classID keeps
// every class.
func decodeSSD(data []float32, cat Category, classID int, minConf float64, bounds image.Rectangle) []Detection {
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	var out []Detection
	for i := 0; i+ssdStride <= len(data); i += ssdStride {
		row := data[i : i+ssdStride]
		conf := float64(row[2])
		if conf < minConf {
			continue
		}
		if classID >= 0 && int(row[1]) != classID {
			continue
		}

		x1, y1, x2, y2 := float64(row[3]), float64(row[4]), float64(row[5]), float64(row[6])
		r := image.Rect(
			bounds.Min.X+int(math.Round(x1*w)), bounds.Min.Y+int(math.Round(y1*h)),
			bounds.Min.X+int(math.Round(x2*w)), bounds.Min.Y+int(math.Round(y2*h)),
		)
		box, ok := clip(r, bounds)
		if !ok {
			continue
		}
		out = append(out, Detection{Category: cat, Box: box, Confidence: conf, Scored: true})
	}
	return out
}
