// Command nvmmio-bench drives a configurable number of goroutines
// through all four object kinds: UMAs, log entries and their data blocks
// are allocated and freed, log tables are only allocated. It has no
// counterpart in the C source, which ships no driver binary; it exists
// because every pool/allocator library in this repo's lineage ships one.
package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wendowswd/libnvmmio"
)

var (
	workers    int
	iterations int
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nvmmio-bench",
		Short: "Exercise the libnvmmio allocator with concurrent alloc/free cycles",
		RunE:  runBench,
	}
	cmd.Flags().IntVar(&workers, "workers", 4, "number of goroutines driving the allocator concurrently")
	cmd.Flags().IntVar(&iterations, "iterations", 10000, "alloc/free cycles performed per worker")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug-level logging")
	return cmd
}

func runBench(cmd *cobra.Command, args []string) error {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	alloc := libnvmmio.Init()
	defer func() {
		if err := alloc.Teardown(); err != nil {
			logrus.WithError(err).Error("teardown failed")
		}
	}()

	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorker(ctx, alloc, id)
		}(i)
	}
	wg.Wait()

	logrus.WithFields(logrus.Fields{
		"workers":    workers,
		"iterations": iterations,
		"elapsed":    time.Since(start),
	}).Info("bench complete")
	return nil
}

// runWorker drives one goroutine's worth of the benchmark workload: a
// UMA is allocated once, then each iteration allocates a log entry (and
// its backing data block) of a random size class and immediately frees
// it, before releasing the goroutine's local entry cache back to the
// global pool on exit.
func runWorker(ctx context.Context, alloc *libnvmmio.Allocator, id int) {
	h := libnvmmio.NewHandle(alloc)
	defer h.ReleaseLocalList()

	uma := alloc.AllocUMA()
	defer alloc.FreeUMA(uma)

	rng := rand.New(rand.NewSource(int64(id) + 1))

	for i := 0; i < iterations; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if i%8 == 0 {
			h.AllocLogTable(nil, int32(i%16), libnvmmio.TableTypeLeaf)
		}

		logSize := libnvmmio.LogSize(rng.Intn(libnvmmio.NumLogSizes))
		entry := h.AllocLogEntry(uma, logSize)
		h.FreeLogEntry(entry, logSize, i%64 == 0)
	}
}
