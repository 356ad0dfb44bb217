package cli

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// notifier prints user-facing notices. Color is used only when the writer is
// a terminal that supports it.
type notifier struct {
	out *termenv.Output
}

func newNotifier(w io.Writer) *notifier {
	return &notifier{out: termenv.NewOutput(w)}
}

func (n *notifier) Warn(message string) {
	label := n.out.String("warning:").Foreground(n.out.Color("3")).Bold()
	_, _ = fmt.Fprintf(n.out, "%s %s\n", label, message)
}
