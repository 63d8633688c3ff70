package flash

import (
	"context"
	"fmt"
	"os"
	"sync"

	"mpboard/internal/errors"
	"mpboard/internal/events"
	"mpboard/internal/metrics"
	"mpboard/util"
)

// failedAdvice closes every flash failure notification.  A half
// written board bricks if the user yanks the cable while the tool
// still holds the port.
const failedAdvice = "Do not disconnect the device; check the logs and try again."

// Flasher runs firmware jobs one at a time on a background goroutine,
// reporting through the events sink.
type Flasher struct {
	tool      string
	run       runner
	dl        *Downloader
	notify    func(events.Event)
	log       *util.Logger
	collector *metrics.Collector

	mu     sync.Mutex
	active *Job
	done   chan struct{}
}

// NewFlasher builds a flasher invoking tool (an esptool-compatible
// binary; empty means DefaultTool resolved on PATH).
func NewFlasher(tool string, notify func(events.Event), log *util.Logger, collector *metrics.Collector) *Flasher {
	if tool == "" {
		tool = DefaultTool
	}
	if notify == nil {
		notify = func(events.Event) {}
	}
	return &Flasher{
		tool:      tool,
		run:       execRunner{},
		dl:        NewDownloader(log),
		notify:    notify,
		log:       log.WithPrefix("flash"),
		collector: collector,
	}
}

// Start launches job on a worker goroutine.  One job at a time: a
// second Start while one runs fails with ErrFlashActive.  ctx covers
// the download only; once erasing begins the job runs to completion
// or failure, because cancelling mid-erase leaves the board dead
// anyway.
func (f *Flasher) Start(ctx context.Context, job *Job) error {
	if job.Family == nil || !job.Family.CanFlash() {
		return fmt.Errorf("board family has no flashing geometry")
	}
	f.mu.Lock()
	if f.active != nil {
		f.mu.Unlock()
		return errors.ErrFlashActive
	}
	done := make(chan struct{})
	f.active = job
	f.done = done
	f.mu.Unlock()

	go func() {
		f.work(ctx, job)
		f.mu.Lock()
		f.active = nil
		f.mu.Unlock()
		close(done)
	}()
	return nil
}

// Active returns the running job, or nil.  Finished jobs are dropped;
// there is no job history.
func (f *Flasher) Active() *Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Wait blocks until the most recently started job has finished and
// its terminal event has been delivered.
func (f *Flasher) Wait() {
	f.mu.Lock()
	done := f.done
	f.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (f *Flasher) work(ctx context.Context, job *Job) {
	defer func() {
		if r := recover(); r != nil {
			f.fail(job, &errors.ToolFailure{Tool: f.tool, Err: fmt.Errorf("flash worker panic: %v", r)})
		}
	}()

	f.notify(events.Started(job.Port))

	image := job.Firmware
	if image == "" {
		path, err := f.download(ctx, job)
		if err != nil {
			f.fail(job, errors.DownloadError(err))
			return
		}
		image = path
		defer os.Remove(path)
	}

	if err := f.erase(job); err != nil {
		f.fail(job, err)
		return
	}
	if err := f.write(job, image); err != nil {
		f.fail(job, err)
		return
	}

	job.setStatus(Succeeded)
	f.collector.FlashCompleted(true)
	f.log.Info("flashed %s on %s", job.Family.DisplayName, job.Port)
	f.notify(events.Succeeded(fmt.Sprintf("Finished flashing %s on %s.", job.Family.DisplayName, job.Port)))
}

func (f *Flasher) download(ctx context.Context, job *Job) (string, error) {
	url := job.Family.FirmwareURL
	if url == "" {
		return "", fmt.Errorf("board family %q has no firmware URL; supply a local image", job.Family.Name)
	}
	job.setStatus(Downloading)
	f.log.Info("downloading firmware: %s", url)
	f.notify(events.Progress("download", "downloading firmware from "+url))
	path, err := f.dl.Download(ctx, url, func(n, total int64) {
		job.setBytes(n)
		f.notify(events.TransferProgress("download", n, total))
	})
	if err != nil {
		return "", err
	}
	f.notify(events.Progress("download", "firmware saved"))
	return path, nil
}

func (f *Flasher) erase(job *Job) error {
	job.setStatus(Erasing)
	f.notify(events.Progress("erase", "erasing flash"))
	out := NewLineWriter(func(line string) {
		job.addLine()
		f.log.Verbose("erase: %s", line)
		f.notify(events.Progress("erase", line))
	})
	err := f.run.Run(context.Background(), out, f.tool,
		eraseArgs(job.Port, job.Family.FlashBaud)...)
	out.Flush()
	return classify(f.tool, err, errors.EraseError)
}

func (f *Flasher) write(job *Job, image string) error {
	job.setStatus(Writing)
	f.notify(events.Progress("write", "writing firmware"))
	out := NewLineWriter(func(line string) {
		job.addLine()
		f.log.Verbose("write: %s", line)
		f.notify(events.Progress("write", line))
	})
	err := f.run.Run(context.Background(), out, f.tool,
		writeArgs(job.Port, job.Family.FlashBaud, job.Family.FlashOffset, image)...)
	out.Flush()
	return classify(f.tool, err, errors.WriteError)
}

func (f *Flasher) fail(job *Job, err error) {
	job.setFailed(err)
	f.collector.FlashCompleted(false)
	f.collector.RecordError(err.Error())
	f.log.Error("flash job on %s failed: %v", job.Port, err)
	f.notify(events.Failed(fmt.Sprintf("Flashing failed: %v. %s", err, failedAdvice), err))
}
