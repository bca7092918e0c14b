package generator

import "image"

// Mode names the branch that produced an image.
type Mode string

const (
	// Remote means the image came from the inference service.
	Remote Mode = "ai"
	// Local means the image is a drawn placeholder sketch.
	Local Mode = "sketch"
)

// RemoteOutcome is the result of the single inference attempt, if one was made.
type RemoteOutcome struct {
	Attempted bool
	Image     image.Image
	Err       error
}

// ChooseMode decides which branch supplies the output image. A remote image
// is used only when AI was requested and the attempt produced a decoded image
// without error; every other combination draws locally.
func ChooseMode(useAI bool, outcome RemoteOutcome) Mode {
	if !useAI || !outcome.Attempted {
		return Local
	}
	if outcome.Err != nil || outcome.Image == nil {
		return Local
	}
	return Remote
}
