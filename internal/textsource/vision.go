package textsource

import (
	"bytes"
	"context"
	"fmt"

	vision "cloud.google.com/go/vision/apiv1"
	"google.golang.org/api/option"
)

// VisionRecognizer runs OCR through Google Cloud Vision document text
// detection. The service detects languages itself, so RecognizeOptions are
// not forwarded.
type VisionRecognizer struct {
	client *vision.ImageAnnotatorClient
}

// NewVisionRecognizer connects to Cloud Vision. An empty credentialsFile
// falls back to application default credentials.
func NewVisionRecognizer(ctx context.Context, credentialsFile string) (*VisionRecognizer, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vision API client: %w", err)
	}
	return &VisionRecognizer{client: client}, nil
}

// Name identifies the engine in logs and server info.
func (v *VisionRecognizer) Name() string {
	return "google-cloud-vision"
}

// Recognize sends img to the DetectDocumentText endpoint.
func (v *VisionRecognizer) Recognize(ctx context.Context, img []byte, _ RecognizeOptions) (string, error) {
	image, err := vision.NewImageFromReader(bytes.NewReader(img))
	if err != nil {
		return "", decodeError("vision_image", err)
	}

	annotation, err := v.client.DetectDocumentText(ctx, image, nil)
	if err != nil {
		return "", fmt.Errorf("vision API failed to detect text: %w", err)
	}
	if annotation == nil {
		return "", nil
	}
	return annotation.Text, nil
}

// Close releases the Vision API connection.
func (v *VisionRecognizer) Close() error {
	return v.client.Close()
}
