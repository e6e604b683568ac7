// Package download provides the download orchestration logic for
// fetching the pages of a gallery.
//
// # Manager
//
// The Manager runs one download batch:
//
//  1. Open a connection pool bounded to the configured number of connections
//  2. Submit one task per page, at most Workers running at a time
//  3. Fetch each image and store it under its slugified label
//  4. Aggregate outcomes in completion order into a Summary
//
// # Basic Usage
//
//	manager := download.NewManager(settings, outputDir, logger, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	summary, err := manager.Run(ctx, pages)
//	if errors.Is(err, download.ErrCancelled) {
//	    os.Exit(130)
//	}
//	fmt.Println(humanize.Bytes(uint64(summary.Bytes)))
//
// # Failures
//
// A failed page never stops the batch. Each failure is reported once through
// the progress callback and recorded in Summary.Failures. Pages are not retried.
//
// # Cancellation
//
// Cancelling the context passed to Run (or calling Manager.Cancel) stops the
// submission of new pages, abandons pages not yet started and interrupts the
// ones in flight. Progress events stop immediately and outcomes arriving
// afterwards are not counted. Run then returns ErrCancelled.
package download
