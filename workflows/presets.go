package workflows

// Preset is a named shorthand for a common mode/resolution/aspect trio.
type Preset struct {
	Name       string
	Mode       Mode
	Resolution int
	Aspect     Aspect
}

var Presets = map[string]Preset{
	"quick":      {Name: "Quick Preview", Mode: Lightning, Resolution: 512, Aspect: Square},
	"portrait":   {Name: "Portrait", Mode: Lightning, Resolution: 768, Aspect: Portrait},
	"landscape":  {Name: "Landscape", Mode: Lightning, Resolution: 768, Aspect: Landscape},
	"wallpaper":  {Name: "Wallpaper", Mode: Lightning, Resolution: 1024, Aspect: Landscape},
	"quality":    {Name: "High Quality", Mode: Normal, Resolution: 768, Aspect: Square},
	"hd_quality": {Name: "HD Quality", Mode: Normal, Resolution: 1024, Aspect: Square},
}

// Apply copies the preset's knobs onto the request.
func (p Preset) Apply(req *Request) {
	req.Mode = p.Mode
	req.Resolution = p.Resolution
	req.Aspect = p.Aspect
}

// ExpectedSteps reports the step count a request will run with, used for
// progress extrapolation while the job executes.
func ExpectedSteps(req Request) int {
	if req.Modality == ImageEdit {
		samp, _ := editSampling(req)
		return samp.Steps
	}
	modes, ok := samplingDefaults[req.Modality]
	if !ok {
		return 30
	}
	return resolveSampling(req, modes[req.Mode]).Steps
}
