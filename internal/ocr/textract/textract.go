package textract

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	cfg "github.com/leowzz/docsmith/config"
	"github.com/leowzz/docsmith/internal/ocr"
	"github.com/leowzz/docsmith/pkg/logger"
)

// Engine is an AWS Textract-backed OCR engine, the cloud alternative to the
// local Tesseract engine. Textract detects the language itself, so the
// configured batch language is ignored here.
type Engine struct {
	client *textract.Client
	logger logger.Logger
}

// New creates a Textract engine from the shared AWS configuration.
func New(ctx context.Context, tc *cfg.TextractConfig, log logger.Logger) (*Engine, error) {
	creds := credentials.NewStaticCredentialsProvider(tc.AccessKey, tc.SecretKey, "")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(tc.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return &Engine{
		client: textract.NewFromConfig(awsCfg),
		logger: log,
	}, nil
}

// Recognize submits the image to DetectDocumentText and joins the detected
// lines. Confidence is the average of per-line confidences.
func (e *Engine) Recognize(ctx context.Context, image []byte) (ocr.Result, error) {
	out, err := e.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: image},
	})
	if err != nil {
		return ocr.Result{}, fmt.Errorf("%w: %v", ocr.ErrRecognitionFailed, err)
	}

	var lines []string
	var confSum float64
	var confCount int
	for _, block := range out.Blocks {
		if block.BlockType != types.BlockTypeLine || block.Text == nil {
			continue
		}
		lines = append(lines, *block.Text)
		if block.Confidence != nil {
			confSum += float64(*block.Confidence)
			confCount++
		}
	}

	result := ocr.Result{Text: strings.Join(lines, "\n")}
	if confCount > 0 {
		result.Confidence = confSum / float64(confCount)
	}
	return result, nil
}

// Close is a no-op; the Textract client holds no local resources.
func (e *Engine) Close() error {
	return nil
}
