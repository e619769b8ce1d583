package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

var ErrNoPlateDetected = errors.New("no license plate detected in image")

// Loose plate shape: 2-4 leading letters/digits, then 3-5 digits, optional
// hyphen. Candidates are normalized before matching, so whitespace is gone
// by this point. Tight enough to filter stickers and signage picked up by
// DetectText, loose enough for regional formats.
var plateRegex = regexp.MustCompile(`^[A-Z0-9]{2,4}-?[0-9]{3,5}$`)

// LPRService extracts a license plate from a gate camera frame using AWS
// Rekognition text detection. The engine only ever consumes the single
// highest-confidence detection.
type LPRService struct {
	rekognitionClient *rekognition.Client
}

func NewLPRService(rekClient *rekognition.Client) *LPRService {
	return &LPRService{rekognitionClient: rekClient}
}

func (s *LPRService) RecognizePlate(ctx context.Context, imageBytes []byte) (string, float32, error) {
	if s.rekognitionClient == nil {
		return "", 0, fmt.Errorf("rekognition client not configured")
	}

	input := &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: imageBytes},
	}
	result, err := s.rekognitionClient.DetectText(ctx, input)
	if err != nil {
		return "", 0, fmt.Errorf("rekognition DetectText: %w", err)
	}

	var bestPlate string
	var bestConfidence float32
	for _, detection := range result.TextDetections {
		if detection.Type != types.TextTypesLine && detection.Type != types.TextTypesWord {
			continue
		}
		if detection.DetectedText == nil || detection.Confidence == nil {
			continue
		}
		candidate := NormalizePlate(*detection.DetectedText)
		candidate = strings.ReplaceAll(candidate, ".", "")
		if !plateRegex.MatchString(candidate) {
			continue
		}
		if *detection.Confidence > bestConfidence {
			bestConfidence = *detection.Confidence
			bestPlate = candidate
		}
	}

	if bestPlate == "" {
		log.Printf("LPRService: %d text blocks detected, none matched plate shape", len(result.TextDetections))
		return "", 0, ErrNoPlateDetected
	}
	return bestPlate, bestConfidence, nil
}
