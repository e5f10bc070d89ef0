package ebml

import "github.com/sirupsen/logrus"

// log is the package-wide diagnostic logger. The engine itself never
// fails an operation because of something it logs; these calls exist
// purely so a consumer embedding this package gets visibility into a
// read-path decision (a SeekPosition entry discarded for pointing
// outside its Segment) and repair-path decisions (Normalize re-placing
// metadata children displaced by fixed regions, SaveChanges refusing an
// inter-Segment growth collision) without having to single-step the
// library.
var log logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the package-wide logger. Pass nil to discard all
// log output.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		discarded := logrus.New()
		discarded.SetOutput(discardWriter{})
		log = discarded
		return
	}
	log = l
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
