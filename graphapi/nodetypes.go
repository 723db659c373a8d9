package graphapi

// NodeType is the class tag of an engine-side processing node.  The engine
// treats these as opaque: the set below is the closed vocabulary this
// client ever emits.
type NodeType string

const (
	// shared spine
	CLIPTextEncode NodeType = "CLIPTextEncode"
	VAELoader      NodeType = "VAELoader"
	VAEDecode      NodeType = "VAEDecode"
	VAEEncode      NodeType = "VAEEncode"
	KSampler       NodeType = "KSampler"
	LoadImage      NodeType = "LoadImage"
	SaveImage      NodeType = "SaveImage"

	// image / image edit (Qwen-Image GGUF)
	CLIPLoaderGGUF NodeType = "CLIPLoaderGGUF"
	UnetLoaderGGUF NodeType = "UnetLoaderGGUF"
	EmptyLatent    NodeType = "EmptyLatentImage"
	LoraLoader     NodeType = "LoraLoader"

	// video (Wan 2.2)
	UNETLoader       NodeType = "UNETLoader"
	CLIPLoader       NodeType = "CLIPLoader"
	CLIPVisionLoader NodeType = "CLIPVisionLoader"
	CLIPVisionEncode NodeType = "CLIPVisionEncode"
	WanImageToVideo  NodeType = "WanImageToVideo"
	EmptyLatentVideo NodeType = "EmptyHunyuanLatentVideo"
	LoraLoaderModel  NodeType = "LoraLoaderModelOnly"
	SaveAnimatedWEBP NodeType = "SaveAnimatedWEBP"

	// audio (ACE-Step)
	CheckpointLoader NodeType = "CheckpointLoaderSimple"
	TextEncodeAudio  NodeType = "TextEncodeAceStepAudio"
	EmptyLatentAudio NodeType = "EmptyAceStepLatentAudio"
	VAEDecodeAudio   NodeType = "VAEDecodeAudio"
	SaveAudio        NodeType = "SaveAudio"

	// mesh (Hunyuan3D v2)
	ImageOnlyCheckpointLoader NodeType = "ImageOnlyCheckpointLoader"
	Hunyuan3DConditioning     NodeType = "Hunyuan3Dv2Conditioning"
	EmptyLatentMesh           NodeType = "EmptyLatentHunyuan3Dv2"
	VAEDecodeMesh             NodeType = "VAEDecodeHunyuan3D"
	VoxelToMesh               NodeType = "VoxelToMeshBasic"
	SaveGLB                   NodeType = "SaveGLB"
)
