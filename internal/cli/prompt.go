// internal/cli/prompt.go
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/record-harvest/harvest/internal/ui"
)

// waitForOperator blocks until the user confirms they completed the
// login in the live browser window. Satisfies auth.ManualFunc.
func waitForOperator(ctx context.Context) error {
	fmt.Println(ui.Warn("Manual login required"))
	fmt.Println("  Complete the login in the browser window, then press Enter.")
	fmt.Println("  (run with --headful if no window is visible)")

	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(os.Stdin).ReadString('\n')
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
