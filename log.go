package libnvmmio

import "github.com/sirupsen/logrus"

// log is the package-level structured logger, tagged the way the
// source's LIBNVMMIO_DEBUG macro tags its output — by component — so a
// caller embedding this allocator in a larger process can filter on it.
var log = logrus.WithField("component", "libnvmmio")

// fatalf reports a fatal provisioning error: any failure in region
// mapping, file pre-allocation, directory operations, or mutex/condvar
// primitive setup. There is no recovery path for these — the Go
// translation of the source's handle_error + process abort is a
// Fatal-level log line, which logrus turns into os.Exit(1) after
// printing.
func fatalf(err error, op string, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["op"] = op
	log.WithFields(fields).WithError(err).Fatal("fatal provisioning error")
}
