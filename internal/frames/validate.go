// Package frames checks and batch-enhances ordered frame sequences before
// they are assembled into an animation.
package frames

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/fpang/storyboard-gen/internal/imageio"
	"github.com/fpang/storyboard-gen/internal/status"
	"github.com/rs/zerolog/log"
)

// IssueKind classifies a frame validation problem.
type IssueKind string

const (
	IssueMissing                IssueKind = "missing"
	IssueCorrupt                IssueKind = "corrupt_or_unreadable"
	IssueWrongResolution        IssueKind = "wrong_resolution"
	IssueInconsistentResolution IssueKind = "inconsistent_resolution"
)

// Resolution is a frame size in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// ParseResolution parses "WIDTHxHEIGHT", e.g. "800x600".
func ParseResolution(s string) (Resolution, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return Resolution{}, status.New(status.CodeInvalidInput, "invalid resolution format: %q (want WIDTHxHEIGHT)", s)
	}
	w, errW := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return Resolution{}, status.New(status.CodeInvalidInput, "invalid resolution format: %q (want WIDTHxHEIGHT)", s)
	}
	return Resolution{Width: w, Height: h}, nil
}

// Issue describes one problem with one frame.
type Issue struct {
	Frame    string      `json:"frame"`
	Kind     IssueKind   `json:"issue"`
	Expected *Resolution `json:"expected,omitempty"`
	Actual   *Resolution `json:"actual,omitempty"`
	Detail   string      `json:"detail,omitempty"`
}

func (i Issue) String() string {
	switch {
	case i.Expected != nil && i.Actual != nil:
		return fmt.Sprintf("%s: %s (expected %s, got %s)", i.Frame, i.Kind, i.Expected, i.Actual)
	case i.Actual != nil:
		return fmt.Sprintf("%s: %s (%s)", i.Frame, i.Kind, i.Actual)
	case i.Detail != "":
		return fmt.Sprintf("%s: %s (%s)", i.Frame, i.Kind, i.Detail)
	default:
		return fmt.Sprintf("%s: %s", i.Frame, i.Kind)
	}
}

// Validation is the outcome of checking a frame set.
type Validation struct {
	TotalFrames int            `json:"total_frames"`
	Resolutions map[string]int `json:"resolutions"`
	Issues      []Issue        `json:"issues"`
}

// OK reports whether no issues were found.
func (v Validation) OK() bool {
	return len(v.Issues) == 0
}

// Err returns a validation_failed error listing the issues, or nil.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	msgs := make([]string, 0, len(v.Issues))
	for _, issue := range v.Issues {
		msgs = append(msgs, issue.String())
	}
	return status.New(status.CodeValidationFailed, "%d frame issue(s): %s", len(v.Issues), strings.Join(msgs, "; "))
}

// ValidateSet checks that every path exists, decodes, and is exactly
// expected in size. Frames are never resized or dropped.
func ValidateSet(paths []string, expected Resolution) Validation {
	v := Validation{TotalFrames: len(paths), Resolutions: make(map[string]int)}

	for _, path := range paths {
		name := filepath.Base(path)

		if _, err := os.Stat(path); err != nil {
			v.Issues = append(v.Issues, Issue{Frame: name, Kind: IssueMissing})
			continue
		}

		res, err := decodeResolution(path)
		if err != nil {
			v.Issues = append(v.Issues, Issue{Frame: name, Kind: IssueCorrupt, Detail: err.Error()})
			continue
		}
		v.Resolutions[res.String()]++

		if res != expected {
			exp, act := expected, res
			v.Issues = append(v.Issues, Issue{Frame: name, Kind: IssueWrongResolution, Expected: &exp, Actual: &act})
		}
	}

	log.Debug().
		Int("frames", v.TotalFrames).
		Int("issues", len(v.Issues)).
		Str("expected", expected.String()).
		Msg("Frame set validated")

	return v
}

// ValidateDirectory checks every file matching pattern in dir. When expected
// is set each frame must match it; in any case frames whose resolution is
// held by fewer than half of the frames are reported as inconsistent.
func ValidateDirectory(dir, pattern string, expected *Resolution) (Validation, error) {
	paths, err := imageio.ListImages(dir, pattern)
	if err != nil {
		return Validation{}, status.Wrap(status.CodeInvalidInput, err, "cannot list frames")
	}
	if len(paths) == 0 {
		return Validation{}, status.New(status.CodeInvalidInput, "no frames found matching pattern: %s", pattern)
	}

	v := Validation{TotalFrames: len(paths), Resolutions: make(map[string]int)}
	byRes := make(map[Resolution][]string)
	var order []Resolution

	for _, path := range paths {
		name := filepath.Base(path)
		res, err := decodeResolution(path)
		if err != nil {
			v.Issues = append(v.Issues, Issue{Frame: name, Kind: IssueCorrupt, Detail: err.Error()})
			continue
		}

		if _, seen := byRes[res]; !seen {
			order = append(order, res)
		}
		byRes[res] = append(byRes[res], name)
		v.Resolutions[res.String()]++

		if expected != nil && res != *expected {
			exp, act := *expected, res
			v.Issues = append(v.Issues, Issue{Frame: name, Kind: IssueWrongResolution, Expected: &exp, Actual: &act})
		}
	}

	if len(byRes) > 1 {
		common := mostCommon(order, byRes)
		for _, res := range order {
			frames := byRes[res]
			if float64(len(frames)) >= float64(len(paths))/2 {
				continue
			}
			for _, name := range frames {
				act, com := res, common
				v.Issues = append(v.Issues, Issue{
					Frame:    name,
					Kind:     IssueInconsistentResolution,
					Expected: &com,
					Actual:   &act,
				})
			}
		}
	}

	sort.SliceStable(v.Issues, func(i, j int) bool { return v.Issues[i].Frame < v.Issues[j].Frame })

	return v, nil
}

// mostCommon returns the resolution held by the most frames, preferring the
// one seen first on ties.
func mostCommon(order []Resolution, byRes map[Resolution][]string) Resolution {
	best := order[0]
	for _, res := range order[1:] {
		if len(byRes[res]) > len(byRes[best]) {
			best = res
		}
	}
	return best
}

// decodeResolution fully decodes path so truncated files are caught, not
// just unreadable headers.
func decodeResolution(path string) (Resolution, error) {
	img, _, err := imageio.Decode(path)
	if err != nil {
		return Resolution{}, err
	}
	b := img.Bounds()
	return Resolution{Width: b.Dx(), Height: b.Dy()}, nil
}
