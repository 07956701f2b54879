package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

func success(w io.Writer, msg string) {
	fmt.Fprintln(w, color.GreenString("✓")+" "+msg)
}

func fail(w io.Writer, err error) {
	fmt.Fprintln(w, color.RedString("✗")+" "+err.Error())
}

func hint(w io.Writer, msg string) {
	fmt.Fprintln(w, color.CyanString("→")+" "+msg)
}
