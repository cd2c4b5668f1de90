// Package model provides data-structs for internal app-usage
package model

import "strings"

type (
	Format         string
	Stage          string
	ModelCandidate string
)

const (
	FormatPNG  Format = "PNG"
	FormatJPEG Format = "JPEG"
	FormatBMP  Format = "BMP"
	FormatWEBP Format = "WEBP"
)

// SupportedFormats - все форматы, которые принимаются на вход
var SupportedFormats = map[Format]bool{
	FormatPNG:  true,
	FormatJPEG: true,
	FormatBMP:  true,
	FormatWEBP: true,
}

// NativeFormats - форматы, которые vision-модель принимает без перекодирования
var NativeFormats = map[Format]bool{
	FormatPNG:  true,
	FormatJPEG: true,
	FormatWEBP: true,
}

var formatAliases = map[string]Format{
	"png":  FormatPNG,
	"jpg":  FormatJPEG,
	"jpeg": FormatJPEG,
	"bmp":  FormatBMP,
	"webp": FormatWEBP,
}

// ParseFormat accepts "png", ".JPG", "image/webp" and similar tags, case-insensitive.
func ParseFormat(tag string) (Format, bool) {
	t := strings.ToLower(strings.TrimSpace(tag))
	t = strings.TrimPrefix(t, "image/")
	t = strings.TrimPrefix(t, ".")
	f, ok := formatAliases[t]
	return f, ok
}

const (
	PNG  = "image/png"
	JPEG = "image/jpeg"
	BMP  = "image/bmp"
	WEBP = "image/webp"
	WAV  = "audio/wav"
)

var GetMIMEType = map[Format]string{
	FormatPNG:  PNG,
	FormatJPEG: JPEG,
	FormatBMP:  BMP,
	FormatWEBP: WEBP,
}

//---------------------

const (
	StageGuard      Stage = "guard"
	StagePreprocess Stage = "preprocess"
	StageDescribe   Stage = "describe"
	StageSynthesize Stage = "synthesize"
)

// UploadedImage - исходник после проверки Guard'ом
type UploadedImage struct {
	Data   []byte
	Size   int64
	Format Format
}

// ProcessedImage - payload, который уходит в vision-модель
type ProcessedImage struct {
	Data      []byte
	MIMEType  string
	Width     int
	Height    int
	Reencoded bool
}

type DescriptionResult struct {
	Text    string         `json:"description"`
	ModelID ModelCandidate `json:"model"`
}

type AudioArtifact struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mime_type"`
	Engine   string `json:"engine"`
}

//---------------------

// Failure describes why a request stopped at a given stage.
type Failure struct {
	Stage  Stage
	Kind   Kind
	Reason string
	Err    error
}

// Outcome is the single result of one pipeline run.
type Outcome struct {
	RequestID   string
	Description *DescriptionResult
	Audio       *AudioArtifact
	AudioErr    error
	Failure     *Failure
}

func (o Outcome) OK() bool {
	return o.Failure == nil && o.Description != nil
}
