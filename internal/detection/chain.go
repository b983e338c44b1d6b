package detection

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Factory opens one detector variant. Factories are listed in preference order.
type Factory struct {
	Method string
	Open   func() (Detector, error)
}

// Open returns the first detector in factories that opens successfully.
//
// Parameters:
//   - cat: The category the detector reports; used in log and error text.
//   - factories: Variants in preference order. An ordered list such as dlib,
//     OpenCV DNN expresses "dlib if present, otherwise DNN".
//   - logger: Receives one warning per skipped variant. Nil discards.
//
// Returns:
//   - Detector: The opened variant. The caller owns it and must Close it.
//   - error: Non-nil if no variant could be opened.
//
// # Errors
//
// A variant failing with ErrUnavailable is logged and the next one is tried.
// Any other failure, in particular a ModelLoadError, is fatal and returned
// immediately. When every variant is unavailable, or factories is empty, the
// returned error matches ErrNoDetector.
func Open(cat Category, factories []Factory, logger *zap.SugaredLogger) (Detector, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if len(factories) == 0 {
		return nil, fmt.Errorf("%w for %s: no methods configured", ErrNoDetector, cat)
	}

	var skipped []string
	for i, f := range factories {
		det, err := f.Open()
		if err == nil {
			if i > 0 {
				logger.Warnw("using fallback detector", "category", cat, "method", det.Method(), "skipped", skipped)
			} else {
				logger.Debugw("detector ready", "category", cat, "method", det.Method())
			}
			return det, nil
		}
		if !errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		logger.Infow("detector unavailable, trying next", "category", cat, "method", f.Method, "reason", err)
		skipped = append(skipped, f.Method)
	}
	return nil, fmt.Errorf("%w for %s: tried %s", ErrNoDetector, cat, strings.Join(skipped, ", "))
}
