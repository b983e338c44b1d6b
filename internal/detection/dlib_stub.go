//go:build !dlib

package detection

const dlibCompiled = false

func openDlib(Category, DlibParams) (Detector, error) {
	return nil, unavailable(MethodDlib, "built without the dlib tag")
}
