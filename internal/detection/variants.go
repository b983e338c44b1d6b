package detection

// Constructors for the built-in variants. Each one checks, in order: that the
// backend is compiled in, that the model resource is usable, and only then
// hands over to the backend. That way a missing backend reads as ErrUnavailable
// (Open falls through) while a bad model reads as a ModelLoadError (fatal).

// NewCascade opens a Haar cascade detector for cat. Requires the opencv build tag.
// Without it the result is ErrUnavailable whatever state the cascade file is
// in; NewONNX, whose backend is always compiled in, reaches its model check
// on every build.
func NewCascade(cat Category, p CascadeParams) (Detector, error) {
	if !opencvCompiled {
		return nil, unavailable(MethodHaar, "built without the opencv tag")
	}
	p = p.withDefaults()
	if err := checkCascade(p.Model); err != nil {
		return nil, modelError(MethodHaar, p.Model, err)
	}
	return openCascade(cat, p)
}

// NewHOG opens the OpenCV HOG people detector. Its model is compiled into
// OpenCV, so the only failure is a missing backend.
func NewHOG(cat Category, p HOGParams) (Detector, error) {
	if !opencvCompiled {
		return nil, unavailable(MethodHOG, "built without the opencv tag")
	}
	return openHOG(cat, p.withDefaults())
}

// NewDNN opens an OpenCV DNN detector. Config may be empty for formats
// that carry their own graph (ONNX, TensorFlow frozen graphs).
func NewDNN(cat Category, p DNNParams) (Detector, error) {
	if !opencvCompiled {
		return nil, unavailable(MethodDNN, "built without the opencv tag")
	}
	p = p.withDefaults()
	if err := checkFile(p.Model); err != nil {
		return nil, modelError(MethodDNN, p.Model, err)
	}
	if p.Config != "" {
		if err := checkFile(p.Config); err != nil {
			return nil, modelError(MethodDNN, p.Config, err)
		}
	}
	return openDNN(cat, p)
}

// NewDlib opens the dlib HOG face detector. Requires the dlib build tag.
func NewDlib(cat Category, p DlibParams) (Detector, error) {
	if !dlibCompiled {
		return nil, unavailable(MethodDlib, "built without the dlib tag")
	}
	if err := checkDir(p.ModelDir); err != nil {
		return nil, modelError(MethodDlib, p.ModelDir, err)
	}
	return openDlib(cat, p)
}

// NewONNX opens a YOLO-style ONNX detector. The model file is validated before
// the onnxruntime library is loaded, so a bad model is reported even on hosts
// without the runtime.
func NewONNX(cat Category, p ONNXParams) (Detector, error) {
	p = p.withDefaults()
	if err := checkONNX(p.Model); err != nil {
		return nil, modelError(MethodONNX, p.Model, err)
	}
	if err := ensureRuntime(p.Library); err != nil {
		return nil, unavailable(MethodONNX, err.Error())
	}
	return openONNX(cat, p)
}
