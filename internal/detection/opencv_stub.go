//go:build !opencv

package detection

const opencvCompiled = false

func openCascade(Category, CascadeParams) (Detector, error) {
	return nil, unavailable(MethodHaar, "built without the opencv tag")
}

func openHOG(Category, HOGParams) (Detector, error) {
	return nil, unavailable(MethodHOG, "built without the opencv tag")
}

func openDNN(Category, DNNParams) (Detector, error) {
	return nil, unavailable(MethodDNN, "built without the opencv tag")
}
