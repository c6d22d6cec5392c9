package notifier

import (
	"fmt"
	"io"
	"os"
)

// DryRunNotifier prints the report that would be posted
type DryRunNotifier struct {
	out io.Writer
}

// NewDryRunNotifier creates a new dry-run notifier writing to out (stdout when nil)
func NewDryRunNotifier(out io.Writer) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out}
}

// Notify prints the report along with its length
func (n *DryRunNotifier) Notify(report string) error {
	if _, err := fmt.Fprintln(n.out, "--- Report ---"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(n.out, report); err != nil {
		return err
	}
	_, err := fmt.Fprintf(n.out, "\n(Length: %d characters)\n", len(report))
	return err
}
