package enhance

import (
	"fmt"
	"math"
	"strings"
)

// Despeckle parameters: radius, type (adaptive), black level, white level.
const despeckleArgs = "3 1 7 248"

// buildScript renders the Script-Fu program that loads inputPath, applies
// ops in the same order as the in-process chain plus despeckle, and saves a
// flattened PNG to outputPath.
func buildScript(inputPath, outputPath string, ops Operations) string {
	var b strings.Builder

	in := quoteScheme(inputPath)
	out := quoteScheme(outputPath)

	b.WriteString("(define (storyboard-enhance input-file output-file)\n")
	b.WriteString("  (let* ((image (car (gimp-file-load RUN-NONINTERACTIVE input-file input-file)))\n")
	b.WriteString("         (drawable (car (gimp-image-flatten image))))\n")

	if ops.AutoLevels {
		b.WriteString("    (gimp-levels-stretch drawable)\n")
	}
	for i := 0; i < ops.Denoise; i++ {
		b.WriteString("    (plug-in-sel-gauss RUN-NONINTERACTIVE image drawable 3.0 50)\n")
	}
	if ops.Despeckle {
		fmt.Fprintf(&b, "    (plug-in-despeckle RUN-NONINTERACTIVE image drawable %s)\n", despeckleArgs)
	}
	if ops.Sharpen > 0 {
		radius := math.Min(5.0, ops.Sharpen*5)
		amount := math.Min(1.5, ops.Sharpen*2)
		fmt.Fprintf(&b, "    (plug-in-unsharp-mask RUN-NONINTERACTIVE image drawable %s %s 0)\n", schemeFloat(radius), schemeFloat(amount))
	}
	if active(ops.Brightness) || active(ops.Contrast) {
		fmt.Fprintf(&b, "    (gimp-drawable-brightness-contrast drawable %s %s)\n",
			schemeFloat(unitOffset(ops.Brightness)), schemeFloat(unitOffset(ops.Contrast)))
	}
	if active(ops.Saturation) {
		fmt.Fprintf(&b, "    (gimp-drawable-hue-saturation drawable 0 0 0 %s 0)\n", schemeFloat(factorToPercent(ops.Saturation)))
	}

	b.WriteString("    (file-png-save RUN-NONINTERACTIVE image drawable output-file output-file 0 9 0 0 0 0 0)\n")
	b.WriteString("    (gimp-image-delete image)))\n")
	fmt.Fprintf(&b, "(storyboard-enhance %s %s)\n", in, out)

	return b.String()
}

// unitOffset maps a multiplicative factor to the -1..1 offset taken by
// gimp-drawable-brightness-contrast. Inactive factors map to 0.
func unitOffset(f float64) float64 {
	if !active(f) {
		return 0
	}
	return math.Max(-1, math.Min(1, f-1))
}

// quoteScheme returns s as a single-line Scheme string literal.
func quoteScheme(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)
	return `"` + r.Replace(s) + `"`
}

func schemeFloat(f float64) string {
	return fmt.Sprintf("%.3f", f)
}
