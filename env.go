package libnvmmio

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// dirName is the exact per-process directory name template from
// allocator.c's DIR_PATH ("%s/.libnvmmio-%lu").
func dirName(pmemPath string, pid int) string {
	return strings.TrimSuffix(pmemPath, "/") + "/.libnvmmio-" + strconv.Itoa(pid)
}

func entriesPath(dir string) string         { return dir + "/entries.log" }
func dataPath(dir string, i LogSize) string { return dir + "/data-" + strconv.Itoa(int(i)) + ".log" }
func umasPath(dir string) string            { return dir + "/umas.log" }

// readPMEMPath reads and normalizes PMEM_PATH: fatal if unset, and a
// trailing separator is trimmed from a copy of the value rather than
// mutated in place (the source mutates the environment string itself in
// place, which this translation deliberately does not carry over).
func readPMEMPath() string {
	v, ok := os.LookupEnv("PMEM_PATH")
	if !ok || v == "" {
		fatalf(errors.New("PMEM_PATH is not set"), "init_env", nil)
	}
	return strings.TrimSuffix(v, "/")
}
