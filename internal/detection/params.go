package detection

// CascadeParams configures a Haar cascade detector.
type CascadeParams struct {
	Model        string  `yaml:"model" json:"model"`
	ScaleFactor  float64 `yaml:"scale_factor" json:"scale_factor"`
	MinNeighbors int     `yaml:"min_neighbors" json:"min_neighbors"`
	MinSize      int     `yaml:"min_size" json:"min_size"`
	// MaxSize of zero means unbounded.
	MaxSize int `yaml:"max_size,omitempty" json:"max_size,omitempty"`
}

func (p CascadeParams) withDefaults() CascadeParams {
	if p.ScaleFactor <= 1 {
		p.ScaleFactor = 1.1
	}
	if p.MinNeighbors <= 0 {
		p.MinNeighbors = 5
	}
	if p.MinSize <= 0 {
		p.MinSize = 30
	}
	return p
}

// HOGParams configures the OpenCV HOG people detector.
type HOGParams struct {
	HitThreshold   float64 `yaml:"hit_threshold" json:"hit_threshold"`
	WinStride      int     `yaml:"win_stride" json:"win_stride"`
	Padding        int     `yaml:"padding" json:"padding"`
	ScaleFactor    float64 `yaml:"scale_factor" json:"scale_factor"`
	FinalThreshold float64 `yaml:"final_threshold" json:"final_threshold"`
	MeanShift      bool    `yaml:"mean_shift" json:"mean_shift"`
}

func (p HOGParams) withDefaults() HOGParams {
	if p.WinStride <= 0 {
		p.WinStride = 8
	}
	if p.Padding <= 0 {
		p.Padding = 8
	}
	if p.ScaleFactor <= 1 {
		p.ScaleFactor = 1.05
	}
	if p.FinalThreshold <= 0 {
		p.FinalThreshold = 2
	}
	return p
}

// DNNParams configures an OpenCV DNN single-shot detector, e.g. the res10 SSD
// face model or MobileNet-SSD.
type DNNParams struct {
	Model  string `yaml:"model" json:"model"`
	Config string `yaml:"config" json:"config"`

	InputSize   int        `yaml:"input_size" json:"input_size"`
	ScaleFactor float64    `yaml:"scale_factor" json:"scale_factor"`
	Mean        [3]float64 `yaml:"mean,flow" json:"mean"`
	SwapRB      bool       `yaml:"swap_rb" json:"swap_rb"`

	// ClassID keeps only rows of this class; negative keeps every class.
	ClassID    int     `yaml:"class_id" json:"class_id"`
	Confidence float64 `yaml:"confidence" json:"confidence"`
}

func (p DNNParams) withDefaults() DNNParams {
	if p.InputSize <= 0 {
		p.InputSize = 300
	}
	if p.ScaleFactor <= 0 {
		p.ScaleFactor = 1.0
	}
	if p.Mean == [3]float64{} {
		p.Mean = [3]float64{104, 177, 123}
	}
	if p.Confidence <= 0 {
		p.Confidence = 0.5
	}
	return p
}

// DlibParams points at the directory holding the dlib model files
// (shape_predictor_5_face_landmarks.dat, dlib_face_recognition_resnet_model_v1.dat).
type DlibParams struct {
	ModelDir string `yaml:"model_dir" json:"model_dir"`
}

// ONNXParams configures a YOLO-style ONNX model run through onnxruntime.
type ONNXParams struct {
	Model string `yaml:"model" json:"model"`

	// Library is the onnxruntime shared library; empty uses the platform default.
	Library string `yaml:"library" json:"library"`

	InputSize  int     `yaml:"input_size" json:"input_size"`
	ClassIndex int     `yaml:"class_index" json:"class_index"`
	Confidence float64 `yaml:"confidence" json:"confidence"`
	IoU        float64 `yaml:"iou" json:"iou"`

	// Normalized marks models whose boxes are in [0,1] rather than input pixels.
	Normalized bool `yaml:"normalized" json:"normalized"`
	Threads    int  `yaml:"threads" json:"threads"`
}

func (p ONNXParams) withDefaults() ONNXParams {
	if p.InputSize <= 0 {
		p.InputSize = 640
	}
	if p.Confidence <= 0 {
		p.Confidence = 0.5
	}
	if p.IoU <= 0 {
		p.IoU = 0.45
	}
	if p.Threads <= 0 {
		p.Threads = 1
	}
	return p
}
