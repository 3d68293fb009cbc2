package cli

import (
	"io"
	"os"

	"github.com/luki/simtemp/internal/render"
)

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && render.IsTerminal(f)
}
