package progress

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"pkg.jsn.cam/permgen/pkg/fixture"
)

// Reporter receives a notification after every fixture is written.
type Reporter interface {
	fixture.Notifier
	Close() error
}

// Lines prints "test <n> generated" for every finished fixture.
type Lines struct {
	w io.Writer
}

func NewLines(w io.Writer) *Lines {
	return &Lines{w: w}
}

func (l *Lines) FileDone(index int, _ fixture.Result) {
	fmt.Fprintf(l.w, "test %d generated\n", index+1)
}

func (l *Lines) Close() error { return nil }

// Bar renders a single progress bar across all fixtures.
type Bar struct {
	bar *progressbar.ProgressBar
}

func NewBar(w io.Writer, total int) *Bar {
	return &Bar{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("generating fixtures"),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)}
}

func (b *Bar) FileDone(_ int, res fixture.Result) {
	b.bar.Describe(res.Name)
	if err := b.bar.Add(1); err != nil {
		logrus.Debugf("progress bar: %v", err)
	}
}

func (b *Bar) Close() error {
	return b.bar.Finish()
}

// Nop discards notifications.
type Nop struct{}

func (Nop) FileDone(int, fixture.Result) {}
func (Nop) Close() error                  { return nil }

// Multi fans a notification out to several notifiers, in order.
type Multi []fixture.Notifier

func (m Multi) FileDone(index int, res fixture.Result) {
	for _, n := range m {
		n.FileDone(index, res)
	}
}
