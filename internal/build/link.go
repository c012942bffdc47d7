package build

import (
	"fmt"
	"os/exec"
)

// runLinker shells out to the platform C compiler/linker driver, the
// generic "let cc find and invoke the real linker" idiom rather than
// reimplementing a linker — the same approach the pack's one native
// codegen example (hhramberg-go-vslc) documents for its own backend,
// which likewise never hand-rolls link-time symbol resolution.
func runLinker(objPath, outPath string) error {
	cmd := exec.Command("cc", objPath, "-o", outPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("cc: %v: %s", err, out)
	}
	return nil
}
