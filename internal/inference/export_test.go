package inference

import "time"

// NewImagenClientWithAPI wires an ImagenClient to a stub images service.
func NewImagenClientWithAPI(api imagesAPI, model string, timeout time.Duration) *ImagenClient {
	return &ImagenClient{models: api, model: model, timeout: timeout}
}
